package approval

import (
	"context"
)

// Service defines the approval gate.
type Service interface {
	// AddWorkItem queues a human task and returns its assignment
	AddWorkItem(ctx context.Context, item *WorkItem) (*Assignment, error)

	// ListWorkItems returns work items matching filters
	ListWorkItems(ctx context.Context, filters ...Filter) ([]*WorkItem, error)

	// CompleteWorkItem marks a work item done
	CompleteWorkItem(ctx context.Context, id, actor string) error

	// RequestApproval blocks until the request is resolved, its deadline
	// passes or ctx is done.
	RequestApproval(ctx context.Context, request *Request) (*Resolution, error)

	// ListPending returns unresolved requests matching filters
	ListPending(ctx context.Context, filters ...Filter) ([]*Request, error)

	// Resolve records a human decision for a pending request
	Resolve(ctx context.Context, requestID string, approved bool, approver, comments string) (*Resolution, error)
}

// Assigner chooses an assignee for a work item
type Assigner interface {
	Assign(ctx context.Context, item *WorkItem) (string, error)
}

// AssignerFunc adapts a function to Assigner
type AssignerFunc func(ctx context.Context, item *WorkItem) (string, error)

// Assign calls fn
func (fn AssignerFunc) Assign(ctx context.Context, item *WorkItem) (string, error) {
	return fn(ctx, item)
}

// DefaultQueue receives items without assignee or role
const DefaultQueue = "queue"

// DefaultAssigner picks the explicit assignee, then the role, then DefaultQueue
var DefaultAssigner = AssignerFunc(func(_ context.Context, item *WorkItem) (string, error) {
	switch {
	case item.Assignee != "":
		return item.Assignee, nil
	case item.Role != "":
		return item.Role, nil
	}
	return DefaultQueue, nil
})
