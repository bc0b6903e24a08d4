package port

import (
	"context"
	"io"
)

// PutObjectInput describes one archived import artifact.
type PutObjectInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	// Size is the body length in bytes; zero when unknown.
	Size int64
}

// StoredObject identifies an uploaded object.
type StoredObject struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStorage stores import sources and results workbooks.
type ObjectStorage interface {
	Upload(ctx context.Context, input PutObjectInput) (*StoredObject, error)
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
