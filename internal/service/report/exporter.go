package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jwalitptl/ward-assistant/internal/email"
)

// Exporter delivers a finished CSV and returns where it went.
type Exporter interface {
	Export(ctx context.Context, filename string, data []byte) (string, error)
}

// FileExporter writes reports into a local directory.
type FileExporter struct {
	Dir string
}

func (e FileExporter) Export(_ context.Context, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	p := filepath.Join(e.Dir, filename)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return p, nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads reports to a bucket.
type S3Exporter struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Exporter resolves credentials and region from the default AWS
// chain. Path-style addressing keeps S3-compatible stores working.
func NewS3Exporter(ctx context.Context, bucket, prefix string) (*S3Exporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})
	return &S3Exporter{client: client, bucket: bucket, prefix: prefix}, nil
}

func (e *S3Exporter) Export(ctx context.Context, filename string, data []byte) (string, error) {
	key := path.Join(strings.Trim(e.prefix, "/"), filename)
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}

// MailExporter sends reports as attachments.
type MailExporter struct {
	mail email.Service
	to   []string
}

func NewMailExporter(mail email.Service, to []string) *MailExporter {
	return &MailExporter{mail: mail, to: to}
}

func (e *MailExporter) Export(ctx context.Context, filename string, data []byte) (string, error) {
	subject := "Ward report " + strings.TrimSuffix(filename, ".csv")
	if err := e.mail.SendAttachment(ctx, e.to, subject, "The requested report is attached.", filename, data); err != nil {
		return "", err
	}
	return "mailto:" + strings.Join(e.to, ","), nil
}
