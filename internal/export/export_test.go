package export

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-service/internal/waitlist"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

var at = time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)

func TestExport_UploadsCSV(t *testing.T) {
	fake := &fakeS3{}
	e := New(fake, "bucket-a", "snapshots")

	res, err := e.Export(context.Background(), []waitlist.PublicRecord{
		{ID: "2", Email: "b@x.io", Name: "Bo, Jr.", CreatedAt: at},
		{ID: "1", Email: "a@x.io", Company: "Acme", CreatedAt: at.Add(-time.Hour)},
	}, at)
	require.NoError(t, err)

	assert.Equal(t, Result{Bucket: "bucket-a", Key: "snapshots/waitlist-20240601T150405Z.csv", Count: 2}, res)
	assert.Equal(t, "text/csv", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "id,email,name,company,createdAt\n"+
		"2,b@x.io,\"Bo, Jr.\",,2024-06-01T15:04:05Z\n"+
		"1,a@x.io,,Acme,2024-06-01T14:04:05Z\n", fake.body)
}

func TestExport_WrapsUploadError(t *testing.T) {
	fake := &fakeS3{err: errors.New("AccessDenied")}
	_, err := New(fake, "b", "").Export(context.Background(), nil, at)
	assert.ErrorIs(t, err, fake.err)
}

func TestKey_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "exports/waitlist-20240601T150405Z.csv", New(nil, "b", "").Key(at))
}

func TestEncode_NeutralizesFormulas(t *testing.T) {
	out, err := Encode([]waitlist.PublicRecord{
		{ID: "1", Email: "=cmd|x@a.io", Name: "+Ana", Company: "@corp", CreatedAt: at},
		{ID: "2", Email: "bob@example.com", Name: "-", CreatedAt: at},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"id,email,name,company,createdAt\n"+
			"1,'=cmd|x@a.io,'+Ana,'@corp,2024-06-01T15:04:05Z\n"+
			"2,bob@example.com,'-,,2024-06-01T15:04:05Z\n",
		string(out))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", cell(""))
	assert.Equal(t, "plain", cell("plain"))
	assert.Equal(t, "'\tx", cell("\tx"))
	assert.Equal(t, "a=b", cell("a=b"))
}
