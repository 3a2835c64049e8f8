package fetch

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 serves blobs from an S3 bucket.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 store. rootPrefix is prepended to all keys
// (e.g. "cando/v2/").
func NewS3(client *s3.Client, bucket, rootPrefix string) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *S3) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open streams the named object.
func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// DownloadTo pulls the named object with ranged parallel GETs, for large
// reference matrices where a single stream is too slow.
func (s *S3) DownloadTo(ctx context.Context, name string, w io.WriterAt) error {
	dl := manager.NewDownloader(s.client)
	_, err := dl.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}
