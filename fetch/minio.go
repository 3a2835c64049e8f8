package fetch

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// MinIO serves blobs from a MinIO or other S3-compatible bucket.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIO creates a MinIO store. rootPrefix is prepended to all keys.
func NewMinIO(client *minio.Client, bucket, rootPrefix string) *MinIO {
	return &MinIO{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (m *MinIO) key(name string) string {
	return path.Join(m.prefix, name)
}

// Open streams the named object. Existence is verified up front so a
// missing key surfaces as ErrNotFound rather than a read error.
func (m *MinIO) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := m.key(name)

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
