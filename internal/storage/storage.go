package storage

import (
	"context"
	"io"
	"time"
)

// UploadInput describes one image upload.
type UploadInput struct {
	Bucket      string
	Key         string
	ContentType string
	Body        io.Reader
}

// Service stores trip images in remote object storage.
type Service interface {
	UploadObject(ctx context.Context, in UploadInput) (string, error)
	ObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
