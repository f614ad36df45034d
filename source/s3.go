package source

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Ensures S3 implements Source.
var _ Source = (*S3)(nil)

// S3API is the subset of the S3 client used by this source. Satisfied by *s3.Client.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 downloads images from s3://bucket/key URIs.
type S3 struct {
	client S3API
}

// NewS3 returns an S3 source backed by client. Panics if client is nil.
func NewS3(client S3API) *S3 {
	if client == nil {
		panic("source: S3 client must not be nil")
	}
	return &S3{client: client}
}

// CanHandle reports whether path is an s3:// URI.
func (s *S3) CanHandle(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// Fetch downloads the object. Access and not-found failures wrap ErrFetchFailed.
// The returned media type is the object's ContentType, or "" when unset.
func (s *S3) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrFetchFailed, uri, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: read body: %w", ErrFetchFailed, uri, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// MediaType guesses the MIME type from the object key's extension.
func (s *S3) MediaType(uri string) string {
	_, key, err := splitS3URI(uri)
	if err != nil {
		return ""
	}
	mt := mime.TypeByExtension(path.Ext(key))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}

// splitS3URI parses s3://bucket/key into bucket and key.
func splitS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q: not an s3 URI", ErrFetchFailed, uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q: want s3://bucket/key", ErrFetchFailed, uri)
	}
	return bucket, key, nil
}
