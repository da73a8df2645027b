package approval

import (
	"context"
	"sync"
	"time"
)

// DecisionFunc decides what to do with a pending request: (true, comments)
// approves, (false, comments) rejects.
type DecisionFunc func(r *Request) (approved bool, comments string)

// AutoActor is recorded as approver by AutoDecider
const AutoActor = "auto"

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request. It returns stop(); cancelling ctx also stops it.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.ListPending(ctx)
				for _, r := range requests {
					ok, comments := fn(r)
					_, _ = svc.Resolve(ctx, r.ID, ok, AutoActor, comments)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) (bool, string) { return false, reason }, interval)
}
