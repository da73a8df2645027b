// Package execution provides persistence for execution contexts.
package execution

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/dao/criteria"
	"github.com/viant/procflow/service/dao/store"
)

// Service persists execution contexts keyed by execution ID
type Service = dao.Service[string, execution.Context]

const (
	// ParamFlowID filters by flow ID
	ParamFlowID = "FlowID"
	// ParamStatus filters by execution status
	ParamStatus = "Status"
)

// Key returns an execution key
func Key(c *execution.Context) string {
	return c.ID
}

// Filter matches FlowID and Status parameters
func Filter(c *execution.Context, parameters []*dao.Parameter) bool {
	return criteria.Match(map[string]string{
		ParamFlowID: c.FlowID,
		ParamStatus: string(c.GetStatus()),
	}, parameters)
}

// NewMemory creates an in-memory execution store
func NewMemory() Service {
	return store.NewMemoryStore[string, execution.Context](Key, store.WithFilter[execution.Context](Filter))
}

// NewFs creates an afs backed execution store
func NewFs(baseURL string) (Service, error) {
	return store.NewFsStore[string, execution.Context](baseURL, Key, store.WithFilter[execution.Context](Filter))
}

// NewRedis creates a Redis backed execution store
func NewRedis(client *redis.Client, ttl time.Duration) Service {
	return store.NewRedisStore[execution.Context](client, "procflow:execution", ttl, Key, store.WithFilter[execution.Context](Filter))
}
