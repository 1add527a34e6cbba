// Package archive mirrors materialized downloads to S3-compatible object
// storage (AWS S3, MinIO). Objects already present are not uploaded again.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/efactura/internal/logging"
)

// ObjectStore is the part of *s3.Client the mirror uses.
type ObjectStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Test seams.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectStore {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

// S3Mirror uploads files below root, keyed by their path relative to root.
type S3Mirror struct {
	client ObjectStore
	bucket string
	prefix string
	root   string
	log    logging.Logger
}

// NewS3Mirror builds the S3 client from cfg. Static credentials are used
// when an access key is given, the default AWS chain otherwise; a custom
// endpoint switches to path-style addressing.
func NewS3Mirror(ctx context.Context, cfg Config, root string, log logging.Logger) (*S3Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewMirror(client, cfg.Bucket, cfg.Prefix, root, log), nil
}

func NewMirror(client ObjectStore, bucket, prefix, root string, log logging.Logger) *S3Mirror {
	return &S3Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		root:   root,
		log:    log,
	}
}

// Key is the object key for a local file below root.
func (m *S3Mirror) Key(file string) (string, error) {
	rel, err := filepath.Rel(m.root, file)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", file, m.root)
	}
	return path.Join(m.prefix, filepath.ToSlash(rel)), nil
}

// MirrorDir uploads every regular file in dir (recursively) that is not in
// the bucket yet and returns how many were uploaded.
func (m *S3Mirror) MirrorDir(ctx context.Context, dir string) (int, error) {
	uploaded := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		key, err := m.Key(p)
		if err != nil {
			return err
		}
		exists, err := m.exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := m.put(ctx, p, key); err != nil {
			return err
		}
		uploaded++
		m.log.Debug(ctx, "mirrored to s3", "bucket", m.bucket, "key", key)
		return nil
	})
	return uploaded, err
}

func (m *S3Mirror) exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

func (m *S3Mirror) put(ctx context.Context, file, key string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xml":
		return "application/xml"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
