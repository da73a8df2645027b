// Package memory provides an in-process approval gate. Waiting callers are
// woken through channels; records go to pluggable dao stores.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/internal/idgen"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/dao/store"
	"github.com/viant/procflow/service/event"
)

type service struct {
	requests        dao.Service[string, approval.Request]
	resolutions     dao.Service[string, approval.Resolution]
	workItems       dao.Service[string, approval.WorkItem]
	assigner        approval.Assigner
	publisher       event.Publisher
	logger          *slog.Logger
	defaultDeadline time.Duration
	now             func() time.Time

	mux     sync.Mutex
	waiters map[string]chan *approval.Resolution
}

func requestKey(r *approval.Request) string       { return r.ID }
func resolutionKey(r *approval.Resolution) string { return r.RequestID }
func workItemKey(w *approval.WorkItem) string     { return w.ID }

// New creates an approval gate
func New(options ...Option) approval.Service {
	ret := &service{
		requests:    store.NewMemoryStore[string, approval.Request](requestKey),
		resolutions: store.NewMemoryStore[string, approval.Resolution](resolutionKey),
		workItems:   store.NewMemoryStore[string, approval.WorkItem](workItemKey),
		assigner:    approval.DefaultAssigner,
		publisher:   event.Nop{},
		waiters:     map[string]chan *approval.Resolution{},
		now:         clock.Now,
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = logging.OrDefault(ret.logger)
	return ret
}

func (s *service) AddWorkItem(ctx context.Context, item *approval.WorkItem) (*approval.Assignment, error) {
	if item == nil {
		return nil, errors.New("work item was nil")
	}
	if item.ID == "" {
		item.ID = idgen.WithPrefix("wi")
	}
	if item.Priority == "" {
		item.Priority = approval.PriorityNormal
	}
	item.Status = approval.WorkItemOpen
	item.CreatedAt = s.now()
	assignee, err := s.assigner.Assign(ctx, item)
	if err != nil || assignee == "" {
		if err != nil {
			s.logger.Warn("assigner failed, routing to default queue", logging.StepID(item.StepID), logging.Error(err))
		}
		assignee = approval.DefaultQueue
	}
	item.Assignee = assignee
	if err = s.workItems.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save work item %v: %w", item.ID, err)
	}
	s.logger.Info("work item created", logging.ExecutionID(item.ExecutionID), logging.StepID(item.StepID),
		slog.String("work_item", item.ID), slog.String("assignee", assignee), slog.String("priority", string(item.Priority)))
	s.publisher.Publish(ctx, event.New(event.WorkItemCreated, item.FlowID, item.ExecutionID).
		WithStep(item.StepID).WithMessage(item.Title).
		WithData("workItemId", item.ID).WithData("assignee", assignee).WithData("priority", string(item.Priority)))
	return &approval.Assignment{WorkItemID: item.ID, Assignee: assignee, AssignedAt: item.CreatedAt}, nil
}

func (s *service) ListWorkItems(ctx context.Context, filters ...approval.Filter) ([]*approval.WorkItem, error) {
	items, err := s.workItems.List(ctx)
	if err != nil {
		return nil, err
	}
	var ret []*approval.WorkItem
	for _, item := range items {
		if approval.Matches(filters, item.ExecutionID, item.StepID) {
			ret = append(ret, item)
		}
	}
	return ret, nil
}

func (s *service) CompleteWorkItem(ctx context.Context, id, actor string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	item, err := s.workItems.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return fmt.Errorf("%w: work item %v", approval.ErrNotFound, id)
		}
		return err
	}
	if item.Status == approval.WorkItemDone {
		return fmt.Errorf("%w: work item %v", approval.ErrAlreadyResolved, id)
	}
	now := s.now()
	item.Status = approval.WorkItemDone
	item.CompletedBy = actor
	item.CompletedAt = &now
	return s.workItems.Save(ctx, item)
}

func (s *service) RequestApproval(ctx context.Context, request *approval.Request) (*approval.Resolution, error) {
	if request == nil {
		return nil, errors.New("approval request was nil")
	}
	if request.ID == "" {
		request.ID = idgen.WithPrefix("apr")
	}
	request.CreatedAt = s.now()
	if !request.HasDeadline() && s.defaultDeadline > 0 {
		request.Deadline = request.CreatedAt.Add(s.defaultDeadline)
	}

	waiter := make(chan *approval.Resolution, 1)
	s.mux.Lock()
	if _, err := s.resolutions.Load(ctx, request.ID); err == nil {
		s.mux.Unlock()
		return nil, fmt.Errorf("%w: %v", approval.ErrAlreadyResolved, request.ID)
	}
	if err := s.requests.Save(ctx, request); err != nil {
		s.mux.Unlock()
		return nil, fmt.Errorf("failed to save approval request %v: %w", request.ID, err)
	}
	s.waiters[request.ID] = waiter
	s.mux.Unlock()
	defer s.removeWaiter(request.ID)

	s.logger.Info("approval requested", logging.ExecutionID(request.ExecutionID), logging.StepID(request.StepID), slog.String("request", request.ID))
	requested := event.New(event.ApprovalRequested, request.FlowID, request.ExecutionID).
		WithStep(request.StepID).WithData("requestId", request.ID)
	if request.HasDeadline() {
		requested.WithData("deadline", request.Deadline)
	}
	s.publisher.Publish(ctx, requested)

	var expired <-chan time.Time
	if request.HasDeadline() {
		timer := time.NewTimer(request.Deadline.Sub(s.now()))
		defer timer.Stop()
		expired = timer.C
	}

	var resolution *approval.Resolution
	select {
	case resolution = <-waiter:
	case <-expired:
		resolution = s.expire(ctx, request.ID, "deadline passed")
	case <-ctx.Done():
		resolution = s.expire(context.WithoutCancel(ctx), request.ID, "cancelled: "+ctx.Err().Error())
		if resolution.Outcome == approval.OutcomeTimeout {
			return resolution, ctx.Err()
		}
	}
	return resolution, outcomeError(request, resolution)
}

// expire resolves the request as timeout unless another resolution won
func (s *service) expire(ctx context.Context, requestID, comments string) *approval.Resolution {
	resolution, err := s.resolve(ctx, requestID, approval.OutcomeTimeout, approval.SystemActor, comments)
	if err == nil {
		return resolution
	}
	if existing, loadErr := s.resolutions.Load(ctx, requestID); loadErr == nil {
		return existing
	}
	return &approval.Resolution{RequestID: requestID, Outcome: approval.OutcomeTimeout, Approver: approval.SystemActor, Comments: comments, ResolvedAt: s.now()}
}

func outcomeError(request *approval.Request, resolution *approval.Resolution) error {
	switch resolution.Outcome {
	case approval.OutcomeApproved:
		return nil
	case approval.OutcomeTimeout:
		return &types.ApprovalTimeoutError{RequestID: request.ID, StepID: request.StepID, Deadline: request.Deadline}
	}
	return &types.ApprovalRejectedError{RequestID: request.ID, StepID: request.StepID, Approver: resolution.Approver, Comments: resolution.Comments}
}

func (s *service) ListPending(ctx context.Context, filters ...approval.Filter) ([]*approval.Request, error) {
	all, err := s.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if !approval.Matches(filters, r.ExecutionID, r.StepID) {
			continue
		}
		if _, err := s.resolutions.Load(ctx, r.ID); errors.Is(err, dao.ErrNotFound) {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// Resolve records a decision. A decision arriving after the deadline
// resolves the request as timeout and returns ErrExpired.
func (s *service) Resolve(ctx context.Context, requestID string, approved bool, approver, comments string) (*approval.Resolution, error) {
	if requestID == "" {
		return nil, fmt.Errorf("%w: empty request id", approval.ErrNotFound)
	}
	outcome := approval.OutcomeRejected
	if approved {
		outcome = approval.OutcomeApproved
	}
	return s.resolve(ctx, requestID, outcome, approver, comments)
}

func (s *service) resolve(ctx context.Context, requestID string, outcome approval.Outcome, approver, comments string) (*approval.Resolution, error) {
	s.mux.Lock()
	request, err := s.requests.Load(ctx, requestID)
	if err != nil {
		s.mux.Unlock()
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: request %v", approval.ErrNotFound, requestID)
		}
		return nil, err
	}
	if _, err = s.resolutions.Load(ctx, requestID); err == nil {
		s.mux.Unlock()
		return nil, fmt.Errorf("%w: request %v", approval.ErrAlreadyResolved, requestID)
	}
	now := s.now()
	var result error
	if outcome != approval.OutcomeTimeout && request.Expired(now) {
		result = fmt.Errorf("%w: request %v expired at %v", approval.ErrExpired, requestID, request.Deadline.Format(time.RFC3339))
		outcome = approval.OutcomeTimeout
		comments = "late decision by " + approver
		approver = approval.SystemActor
	}
	resolution := &approval.Resolution{RequestID: requestID, Outcome: outcome, Approver: approver, Comments: comments, ResolvedAt: now}
	if err = s.resolutions.Save(ctx, resolution); err != nil {
		s.mux.Unlock()
		return nil, fmt.Errorf("failed to save resolution %v: %w", requestID, err)
	}
	if waiter, ok := s.waiters[requestID]; ok {
		waiter <- resolution
		delete(s.waiters, requestID)
	}
	s.mux.Unlock()

	s.logger.Info("approval resolved", logging.ExecutionID(request.ExecutionID), logging.StepID(request.StepID),
		slog.String("request", requestID), slog.String("outcome", string(outcome)), slog.String("approver", approver))
	s.publisher.Publish(ctx, event.New(event.ApprovalResolved, request.FlowID, request.ExecutionID).
		WithStep(request.StepID).WithStatus(string(outcome)).WithMessage(comments).
		WithData("requestId", requestID).WithData("approver", approver))
	return resolution, result
}

func (s *service) removeWaiter(requestID string) {
	s.mux.Lock()
	delete(s.waiters, requestID)
	s.mux.Unlock()
}

var _ approval.Service = (*service)(nil)
