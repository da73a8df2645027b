// Package registry validates and stores flow definitions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/event"
)

// ErrFlowNotFound is returned for unknown flow ids
var ErrFlowNotFound = errors.New("flow not found")

// Service is the flow registry
type Service struct {
	store     flow.Store
	publisher event.Publisher
	logger    *slog.Logger
	mux       sync.Mutex
}

// Register validates flow and stores a copy keyed by its id, replacing any
// previous definition.
func (s *Service) Register(ctx context.Context, f *model.Flow) (string, error) {
	if f == nil {
		return "", fmt.Errorf("flow was nil")
	}
	if err := f.Validate(); err != nil {
		s.logger.Warn("flow rejected", logging.FlowID(f.ID), logging.Error(err))
		return "", err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	eventType := event.FlowRegistered
	if _, err := s.store.Load(ctx, f.ID); err == nil {
		eventType = event.FlowReplaced
	} else if !errors.Is(err, dao.ErrNotFound) {
		return "", fmt.Errorf("failed to check flow %v: %w", f.ID, err)
	}
	if err := s.store.Save(ctx, f.Clone()); err != nil {
		return "", fmt.Errorf("failed to store flow %v: %w", f.ID, err)
	}
	s.logger.Info("flow registered", logging.FlowID(f.ID), slog.Bool("replaced", eventType == event.FlowReplaced), slog.Int("steps", len(f.Steps)))
	s.publisher.Publish(ctx, event.New(eventType, f.ID, "").WithMessage(f.Name))
	return f.ID, nil
}

// Get returns a copy of a registered flow
func (s *Service) Get(ctx context.Context, flowID string) (*model.Flow, error) {
	f, err := s.store.Load(ctx, flowID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) || errors.Is(err, dao.ErrInvalidID) {
			return nil, fmt.Errorf("%w: %v", ErrFlowNotFound, flowID)
		}
		return nil, err
	}
	return f.Clone(), nil
}

// List returns all registered flows
func (s *Service) List(ctx context.Context) ([]*model.Flow, error) {
	flows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Flow, 0, len(flows))
	for _, f := range flows {
		ret = append(ret, f.Clone())
	}
	return ret, nil
}

// Delete removes a flow; running executions keep their own copy
func (s *Service) Delete(ctx context.Context, flowID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if err := s.store.Delete(ctx, flowID); err != nil {
		if errors.Is(err, dao.ErrNotFound) || errors.Is(err, dao.ErrInvalidID) {
			return fmt.Errorf("%w: %v", ErrFlowNotFound, flowID)
		}
		return err
	}
	s.logger.Info("flow deleted", logging.FlowID(flowID))
	s.publisher.Publish(ctx, event.New(event.FlowDeleted, flowID, ""))
	return nil
}

// New creates a registry
func New(opts ...Option) *Service {
	ret := &Service{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.store == nil {
		ret.store = flow.NewMemory()
	}
	if ret.publisher == nil {
		ret.publisher = event.Nop{}
	}
	ret.logger = logging.OrDefault(ret.logger)
	return ret
}
