package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no object behind it.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is the minimal object-storage contract the orchestrator needs:
// stage a blob, hand its public URL to the provider, delete it afterwards.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(ctx context.Context, bucket, key string) (string, error)
	Remove(ctx context.Context, bucket, key string) error
}
