// Package archive keeps a copy of every uploaded import file.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/okaokay/gestionale-energia/internal/config"
	"github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/logging"
)

// S3Archiver uploads files to an S3 compatible bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
	log    *logrus.Entry
}

var _ importjob.Archiver = (*S3Archiver)(nil)

func NewS3Archiver(cfg config.S3Options, log logrus.FieldLogger) *S3Archiver {
	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			// MinIO, Backblaze and friends need path style
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		log:    logging.Component(log, "archive"),
	}
}

func (a *S3Archiver) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = ContentType(key)
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", a.bucket, key, err)
	}

	a.log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Info("source file archived")
	return nil
}

// Noop is used when archiving is disabled.
type Noop struct{}

var _ importjob.Archiver = Noop{}

func (Noop) Put(context.Context, string, []byte, string) error { return nil }

func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	}
	return "application/octet-stream"
}
