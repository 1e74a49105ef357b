// Package blob adapts the object store holding order attachments.
//
// Keys are path-like strings with "/" separators in a flat bucket; uploads are
// public-read and the public URL is constructed deterministically from bucket,
// region, and key. There is no authoritative index from order id to prefix —
// resolution is heuristic, see Resolver.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "pedidotrack.io/tracker/internal/pkg/errors"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the minimal object-store contract the locator needs.
type ObjectStore interface {
	// List returns up to max keys under prefix, in lexical key order.
	List(ctx context.Context, prefix string, max int) ([]ObjectInfo, error)

	// Put stores an object with public-read semantics.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// PublicURL returns the deterministic public URL for a key.
	PublicURL(key string) string
}

// S3Config configures the S3 adapter.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
}

// S3Client implements ObjectStore against S3 (or an S3-compatible endpoint).
type S3Client struct {
	cfg    S3Config
	client *s3.Client
}

var _ ObjectStore = (*S3Client)(nil)

// NewS3Client creates the adapter.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{cfg: cfg, client: client}, nil
}

// List returns up to max keys under prefix.
func (c *S3Client) List(ctx context.Context, prefix string, max int) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.cfg.Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(max)),
	})
	if err != nil {
		return nil, apperrors.ErrBackendUnavailablef(err)
	}

	infos := make([]ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		info := ObjectInfo{Key: aws.ToString(obj.Key)}
		if obj.Size != nil {
			info.Size = *obj.Size
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Put stores an object with a public-read ACL.
func (c *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return apperrors.Wrap(err, apperrors.CodeAttachmentUploadFail, "object upload failed", http.StatusBadGateway)
	}
	return nil
}

// PublicURL constructs the public URL for a key. No presigning: the bucket is
// public-read by policy.
func (c *S3Client) PublicURL(key string) string {
	if c.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}
