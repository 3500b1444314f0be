package object

import (
	"context"
	"io"
)

// ObjectStore is the capability interface for key-addressed blob storage.
// Implementations are selected once at process start and injected into
// components; keys are caller-chosen and writes overwrite any existing
// object at the same key.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (storedPath string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
