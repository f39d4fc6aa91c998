// Package export grava um snapshot CSV da waitlist (visão pública) no S3.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/waitlist"
)

const DefaultPrefix = "exports/"

// PutAPI é o subconjunto do *s3.Client usado aqui.
type PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Result struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
}

type Exporter struct {
	client PutAPI
	bucket string
	prefix string
}

func New(client PutAPI, bucket, prefix string) *Exporter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Exporter{client: client, bucket: bucket, prefix: prefix}
}

func NewClient(cfg aws.Config) *s3.Client { return s3.NewFromConfig(cfg) }

func (e *Exporter) Key(at time.Time) string {
	return e.prefix + "waitlist-" + at.UTC().Format("20060102T150405Z") + ".csv"
}

// Encode escreve o CSV com cabeçalho; a ordem das linhas é a de recs.
func Encode(recs []waitlist.PublicRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "email", "name", "company", "createdAt"}); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{cell(r.ID), cell(r.Email), cell(r.Name), cell(r.Company), r.CreatedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) Export(ctx context.Context, recs []waitlist.PublicRecord, at time.Time) (Result, error) {
	data, err := Encode(recs)
	if err != nil {
		return Result{}, fmt.Errorf("encoding csv: %w", err)
	}

	key := e.Key(at)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"records":     fmt.Sprintf("%d", len(recs)),
			"exported_at": at.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Info("waitlist exported", "bucket", e.bucket, "key", key, "records", len(recs))
	return Result{Bucket: e.bucket, Key: key, Count: len(recs)}, nil
}

// cell neutraliza valores que planilhas interpretariam como fórmula
// ("=cmd|x@a.io") prefixando um apóstrofo.
func cell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
