package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-service/internal/waitlist"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestWelcome_RendersAndSends(t *testing.T) {
	ses := &fakeSES{}
	m, err := NewMailer(ses, "hello@product.io")
	require.NoError(t, err)

	rec := waitlist.Record{Email: "ann@acme.io", Name: "Ann <3", Company: "Acme"}
	require.NoError(t, m.Welcome(context.Background(), rec))

	require.NotNil(t, ses.in)
	assert.Equal(t, "hello@product.io", aws.ToString(ses.in.FromEmailAddress))
	assert.Equal(t, []string{"ann@acme.io"}, ses.in.Destination.ToAddresses)
	assert.Equal(t, DefaultSubject, aws.ToString(ses.in.Content.Simple.Subject.Data))

	html := aws.ToString(ses.in.Content.Simple.Body.Html.Data)
	assert.Contains(t, html, "Hi Ann &lt;3,")
	assert.Contains(t, html, "on behalf of Acme")

	text := aws.ToString(ses.in.Content.Simple.Body.Text.Data)
	assert.Contains(t, text, "We'll email ann@acme.io")
}

func TestWelcome_OmitsEmptyName(t *testing.T) {
	ses := &fakeSES{}
	m, err := NewMailer(ses, "hello@product.io", WithSubject("Welcome!"))
	require.NoError(t, err)

	require.NoError(t, m.Welcome(context.Background(), waitlist.Record{Email: "x@y.io"}))
	assert.Contains(t, aws.ToString(ses.in.Content.Simple.Body.Text.Data), "Hi,")
	assert.Equal(t, "Welcome!", aws.ToString(ses.in.Content.Simple.Subject.Data))
}

func TestWelcome_WrapsSendError(t *testing.T) {
	ses := &fakeSES{err: errors.New("MessageRejected")}
	m, err := NewMailer(ses, "hello@product.io")
	require.NoError(t, err)

	err = m.Welcome(context.Background(), waitlist.Record{Email: "x@y.io"})
	assert.ErrorIs(t, err, ses.err)
}

func TestNewMailer_RejectsBrokenTemplate(t *testing.T) {
	_, err := NewMailer(&fakeSES{}, "a@b.io", WithTemplates("{% if %}", "ok"))
	assert.Error(t, err)
}
