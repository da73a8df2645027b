package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
)

// SLAActor is recorded as the actor of SLA escalations
const SLAActor = "sla-monitor"

// monitorSLA raises escalation work items once the execution runs past the
// flow SLA. Running steps are never preempted.
func (s *Service) monitorSLA(ctx context.Context, r *run) {
	sla := r.flow.SLA
	if sla == nil || (sla.MaxDurationValue() <= 0 && len(sla.Escalation) == 0) {
		return
	}
	fired := make([]bool, len(sla.Escalation))
	breached := false
	ticker := time.NewTicker(s.config.SLAInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if r.exec.GetStatus().IsTerminal() {
			return
		}
		elapsed := r.exec.Elapsed()
		maxDuration := sla.MaxDurationValue()
		if maxDuration > 0 && elapsed > maxDuration && !breached {
			breached = true
			s.logger.WarnContext(ctx, "sla breached", logging.ExecutionID(r.exec.ID), logging.Duration(elapsed))
			s.publisher.Publish(ctx, event.New(event.SLABreached, r.flow.ID, r.exec.ID).WithData("elapsed", elapsed.String()).WithData("maxDuration", sla.MaxDuration))
			r.exec.AddIntervention(&execution.Intervention{
				Timestamp: clock.Now(),
				Actor:     SLAActor,
				Action:    "sla_breached",
				Reason:    fmt.Sprintf("running for %s, max %s", elapsed.Truncate(time.Millisecond), sla.MaxDuration),
			})
			if len(sla.Escalation) == 0 {
				s.escalateSLA(ctx, r, &model.EscalationRule{Priority: string(approval.PriorityHigh)}, elapsed)
			}
		}
		if maxDuration > 0 && !breached {
			continue
		}
		for i, rule := range sla.Escalation {
			if fired[i] || rule == nil || elapsed < rule.AfterValue() {
				continue
			}
			fired[i] = true
			s.escalateSLA(ctx, r, rule, elapsed)
		}
	}
}

func (s *Service) escalateSLA(ctx context.Context, r *run, rule *model.EscalationRule, elapsed time.Duration) {
	if s.approvals == nil {
		return
	}
	priority := approval.Priority(rule.Priority)
	if priority == "" {
		priority = approval.PriorityHigh
	}
	description := rule.Message
	if description == "" {
		description = fmt.Sprintf("execution %s of %s has been running for %s", r.exec.ID, r.flow.Name, elapsed.Truncate(time.Second))
	}
	_, err := s.approvals.AddWorkItem(ctx, &approval.WorkItem{
		ExecutionID: r.exec.ID,
		FlowID:      r.flow.ID,
		Title:       fmt.Sprintf("SLA escalation: %s", r.flow.Name),
		Description: description,
		Priority:    priority,
		Assignee:    rule.Assignee,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add sla work item", logging.ExecutionID(r.exec.ID), logging.Error(err))
	}
}
