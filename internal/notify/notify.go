// Package notify envia o email de boas-vindas via SES v2, com corpo
// renderizado a partir de templates Liquid.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/osteele/liquid"

	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/waitlist"
)

const DefaultSubject = "You're on the waitlist"

const defaultHTML = `<p>Hi{% if name != "" %} {{ name | escape }}{% endif %},</p>
<p>Thanks for joining the waitlist{% if company != "" %} on behalf of {{ company | escape }}{% endif %}.
We'll email {{ email }} as soon as there is a spot for you.</p>`

const defaultText = `Hi{% if name != "" %} {{ name }}{% endif %},

Thanks for joining the waitlist{% if company != "" %} on behalf of {{ company }}{% endif %}.
We'll email {{ email }} as soon as there is a spot for you.`

// SendAPI é o subconjunto do *sesv2.Client usado aqui.
type SendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type Mailer struct {
	client  SendAPI
	from    string
	subject string
	html    *liquid.Template
	text    *liquid.Template
}

type Option func(*mailerOptions)

type mailerOptions struct {
	subject string
	html    string
	text    string
}

func WithSubject(s string) Option { return func(o *mailerOptions) { o.subject = s } }

// WithTemplates troca os templates padrão (HTML e texto).
func WithTemplates(html, text string) Option {
	return func(o *mailerOptions) { o.html, o.text = html, text }
}

// NewMailer compila os templates; template inválido é erro de configuração.
func NewMailer(client SendAPI, from string, opts ...Option) (*Mailer, error) {
	o := mailerOptions{subject: DefaultSubject, html: defaultHTML, text: defaultText}
	for _, fn := range opts {
		fn(&o)
	}
	if o.subject == "" {
		o.subject = DefaultSubject
	}

	engine := liquid.NewEngine()
	html, err := engine.ParseString(o.html)
	if err != nil {
		return nil, fmt.Errorf("parsing html template: %w", err)
	}
	text, err := engine.ParseString(o.text)
	if err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}

	return &Mailer{client: client, from: from, subject: o.subject, html: html, text: text}, nil
}

func NewClient(cfg aws.Config) *sesv2.Client { return sesv2.NewFromConfig(cfg) }

func bindings(rec waitlist.Record) liquid.Bindings {
	return liquid.Bindings{
		"email":   rec.Email,
		"name":    rec.Name,
		"company": rec.Company,
	}
}

// Welcome implementa waitlist.Notifier.
func (m *Mailer) Welcome(ctx context.Context, rec waitlist.Record) error {
	b := bindings(rec)
	html, rerr := m.html.RenderString(b)
	if rerr != nil {
		return fmt.Errorf("rendering html: %w", rerr)
	}
	text, rerr := m.text.RenderString(b)
	if rerr != nil {
		return fmt.Errorf("rendering text: %w", rerr)
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{rec.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(m.subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("category"), Value: aws.String("waitlist-welcome")},
		},
	})
	if err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	logger.Debug("welcome email sent", "email", rec.Email, "message_id", aws.ToString(out.MessageId))
	return nil
}
