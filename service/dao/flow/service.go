// Package flow loads flow definitions from YAML or JSON documents and
// provides flow definition stores.
package flow

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viant/procflow/model"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/dao/store"
	"github.com/viant/procflow/service/meta"
)

// Store persists flow definitions keyed by flow ID
type Store = dao.Service[string, model.Flow]

// Loader decodes flow documents
type Loader struct {
	metaService *meta.Service
}

// Load loads a flow from URL; a missing extension defaults to .yaml and a
// missing ID defaults to the file name.
func (l *Loader) Load(ctx context.Context, URL string) (*model.Flow, error) {
	if path.Ext(URL) == "" {
		URL += ".yaml"
	}
	flow := &model.Flow{}
	if err := l.metaService.Load(ctx, URL, flow); err != nil {
		return nil, fmt.Errorf("failed to load flow from %s: %w", URL, err)
	}
	defaults(flow, URL)
	return flow, nil
}

// LoadAll loads every flow document found under URL
func (l *Loader) LoadAll(ctx context.Context, URL string) ([]*model.Flow, error) {
	locations, err := l.metaService.List(ctx, URL)
	if err != nil {
		return nil, err
	}
	var result []*model.Flow
	for _, location := range locations {
		flow, err := l.Load(ctx, location)
		if err != nil {
			return nil, err
		}
		result = append(result, flow)
	}
	return result, nil
}

// Decode decodes a flow document; format is inferred from name's extension
func (l *Loader) Decode(name string, data []byte) (*model.Flow, error) {
	flow := &model.Flow{}
	if err := meta.Decode(name, data, flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow %s: %w", name, err)
	}
	defaults(flow, name)
	return flow, nil
}

func defaults(flow *model.Flow, URL string) {
	name := nameFromURL(URL)
	if flow.ID == "" {
		flow.ID = name
	}
	if flow.Name == "" {
		flow.Name = flow.ID
	}
}

func nameFromURL(URL string) string {
	base := path.Base(URL)
	return strings.TrimSuffix(base, path.Ext(base))
}

// New creates a loader
func New(options ...Option) *Loader {
	ret := &Loader{}
	for _, opt := range options {
		opt(ret)
	}
	if ret.metaService == nil {
		ret.metaService = meta.New(nil, "")
	}
	return ret
}

// Key returns a flow key
func Key(f *model.Flow) string {
	return f.ID
}

// NewMemory creates an in-memory flow store
func NewMemory() Store {
	return store.NewMemoryStore[string, model.Flow](Key)
}

// NewFs creates an afs backed flow store
func NewFs(baseURL string) (Store, error) {
	return store.NewFsStore[string, model.Flow](baseURL, Key)
}

// NewRedis creates a Redis backed flow store
func NewRedis(client *redis.Client) Store {
	return store.NewRedisStore[model.Flow](client, "procflow:flow", time.Duration(0), Key)
}
