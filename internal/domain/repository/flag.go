package repository

import (
	"context"
	"reminderengine/internal/domain/entity"
)

// FlagRepository persists namespaced key/value flags. Each call is atomic for
// the single key it touches.
type FlagRepository interface {
	// Put inserts or replaces a flag.
	Put(ctx context.Context, namespace, key, value string) error
	// Get returns the flag value and whether it exists.
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	// Take removes a flag and returns the value it had. Only one of several
	// concurrent callers observes ok == true.
	Take(ctx context.Context, namespace, key string) (string, bool, error)
	// Delete removes a flag; deleting a missing flag is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// List returns every flag in a namespace.
	List(ctx context.Context, namespace string) ([]*entity.Flag, error)
	// DeleteNamespace removes every flag in a namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}
