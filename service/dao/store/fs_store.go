package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/viant/procflow/service/dao"
)

// FsStore persists JSON documents under a base URL using afs, so the same
// store works for local paths, mem:// and cloud object storage.
type FsStore[K comparable, T any] struct {
	basePath    string
	fs          afs.Service
	keySelector func(*T) K
	filter      dao.Filter[T]
	mu          sync.RWMutex
}

// NewFsStore creates a store rooted at basePath
func NewFsStore[K comparable, T any](basePath string, keySelector func(*T) K, options ...Option[T]) (*FsStore[K, T], error) {
	fs := afs.New()
	opts := newOptions(options)
	ret := &FsStore[K, T]{
		basePath:    url.Normalize(basePath, file.Scheme),
		fs:          fs,
		keySelector: keySelector,
		filter:      opts.filter,
	}
	ctx := context.Background()
	exists, err := fs.Exists(ctx, ret.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check store location %s: %w", ret.basePath, err)
	}
	if !exists {
		if err := fs.Create(ctx, ret.basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create store location %s: %w", ret.basePath, err)
		}
	}
	return ret, nil
}

// Save persists an entity
func (s *FsStore[K, T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %v: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.entityURL(key)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", location, err)
	}
	return nil
}

// Load retrieves an entity
func (s *FsStore[K, T]) Load(ctx context.Context, key K) (*T, error) {
	var zero K
	if key == zero {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.entityURL(key)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", location, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	ret := new(T)
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", location, err)
	}
	return ret, nil
}

// Delete removes an entity
func (s *FsStore[K, T]) Delete(ctx context.Context, key K) error {
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.entityURL(key)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", location, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err = s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete %s: %w", location, err)
	}
	return nil
}

// List returns all stored entities matching parameters
func (s *FsStore[K, T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}
	var result []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}
		item := new(T)
		if err = json.Unmarshal(data, item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", object.URL(), err)
		}
		if s.filter != nil && !s.filter(item, parameters) {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *FsStore[K, T]) entityURL(key K) string {
	return url.Join(s.basePath, path.Base(fmt.Sprintf("%v", key))+".json")
}

var _ dao.Service[string, struct{}] = (*FsStore[string, struct{}])(nil)
