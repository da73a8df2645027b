// Package datastore is the external key/value store used by data steps.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/dao/criteria"
	"github.com/viant/procflow/service/dao/store"
)

// DefaultCollection is used when a data step names none
const DefaultCollection = "default"

// ParamCollection filters records by collection
const ParamCollection = "Collection"

// Record is a stored value
type Record struct {
	ID         string      `json:"id"`
	Collection string      `json:"collection"`
	Key        string      `json:"key"`
	Value      interface{} `json:"value"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Store keeps values by collection and key
type Store struct {
	records dao.Service[string, Record]
}

func recordID(collection, key string) string {
	if collection == "" {
		collection = DefaultCollection
	}
	return collection + "/" + key
}

func recordKey(r *Record) string { return r.ID }

func recordFilter(r *Record, parameters []*dao.Parameter) bool {
	return criteria.Match(map[string]string{ParamCollection: r.Collection}, parameters)
}

// Put stores value
func (s *Store) Put(ctx context.Context, collection, key string, value interface{}) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("datastore: key was empty")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return s.records.Save(ctx, &Record{
		ID:         recordID(collection, key),
		Collection: collection,
		Key:        key,
		Value:      value,
		UpdatedAt:  clock.Now(),
	})
}

// Get returns a stored value; dao.ErrNotFound when missing
func (s *Store) Get(ctx context.Context, collection, key string) (interface{}, error) {
	record, err := s.records.Load(ctx, recordID(collection, key))
	if err != nil {
		return nil, err
	}
	return record.Value, nil
}

// Delete removes a value; missing keys are not an error
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	err := s.records.Delete(ctx, recordID(collection, key))
	if errors.Is(err, dao.ErrNotFound) {
		return nil
	}
	return err
}

// List returns all records of a collection
func (s *Store) List(ctx context.Context, collection string) ([]*Record, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	return s.records.List(ctx, dao.NewParameter(ParamCollection, collection))
}

// New wraps a record service
func New(records dao.Service[string, Record]) *Store {
	return &Store{records: records}
}

// NewMemory creates an in-memory store
func NewMemory() *Store {
	return New(store.NewMemoryStore[string, Record](recordKey, store.WithFilter[Record](recordFilter)))
}

// NewFs creates an afs backed store
func NewFs(baseURL string) (*Store, error) {
	records, err := store.NewFsStore[string, Record](baseURL, recordKey, store.WithFilter[Record](recordFilter))
	if err != nil {
		return nil, err
	}
	return New(records), nil
}

// NewRedis creates a Redis backed store
func NewRedis(client *redis.Client, ttl time.Duration) *Store {
	return New(store.NewRedisStore[Record](client, "procflow:data", ttl, recordKey, store.WithFilter[Record](recordFilter)))
}
