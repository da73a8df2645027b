package store

import "github.com/viant/procflow/service/dao"

type options[T any] struct {
	filter dao.Filter[T]
}

// Option customises a store
type Option[T any] func(o *options[T])

// WithFilter sets the List filter
func WithFilter[T any](filter dao.Filter[T]) Option[T] {
	return func(o *options[T]) {
		o.filter = filter
	}
}

func newOptions[T any](opts []Option[T]) *options[T] {
	ret := &options[T]{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
