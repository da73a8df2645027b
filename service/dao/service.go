// Package dao defines the generic persistence contract used for flows,
// execution history and approval records. Implementations live in the store
// sub-package: in-memory, afs (local or cloud URLs) and Redis.
package dao

import (
	"context"
)

type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Filter decides whether an entity matches list parameters
type Filter[T any] func(t *T, parameters []*Parameter) bool
