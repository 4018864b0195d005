package content

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Mirror copies downloaded gallery images to remote storage.
type Mirror interface {
	// Put uploads the local file as name unless it is already there.
	// It reports whether an upload happened.
	Put(ctx context.Context, name, localPath string) (bool, error)
}

// S3Options configures an S3Mirror. Endpoint is set for S3-compatible
// services and switches to path-style addressing.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// ObjectAPI is the part of the S3 client the mirror uses.
type ObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror stores gallery images in a bucket under Prefix.
type S3Mirror struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror and checks the bucket is reachable.
// Without static keys the default AWS credential chain is used.
func NewS3Mirror(ctx context.Context, opts S3Options) (*S3Mirror, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("bucket '%s' does not exist", opts.Bucket)
		}
		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return NewS3MirrorFromClient(client, opts.Bucket, opts.Prefix), nil
}

// NewS3MirrorFromClient creates a mirror on an existing client.
func NewS3MirrorFromClient(client ObjectAPI, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Put implements Mirror.
func (m *S3Mirror) Put(ctx context.Context, name, localPath string) (bool, error) {
	key := path.Join(m.prefix, name)

	_, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("head %s: %w", key, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := m.client.PutObject(ctx, input); err != nil {
		return false, fmt.Errorf("upload %s: %w", key, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
