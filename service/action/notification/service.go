// Package notification executes notification steps.
package notification

import (
	"context"
	"fmt"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/notify"
)

// Config is the notification step configuration
type Config struct {
	Channel    string
	Recipients []string
	Subject    string
	Template   string
}

// Service executes notification steps
type Service struct {
	notifier notify.Notifier
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeNotification
}

// Execute dispatches the message and returns the delivery receipt
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	if s.notifier == nil {
		return nil, fmt.Errorf("notification step %s: notifier was not configured", call.Step.ID)
	}
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	if config.Channel == "" {
		return nil, fmt.Errorf("notification step %s: channel was empty", call.Step.ID)
	}
	receipt, err := s.notifier.Notify(ctx, &notify.Message{
		ExecutionID: call.ExecutionID(),
		StepID:      call.Step.ID,
		Channel:     config.Channel,
		Recipients:  config.Recipients,
		Subject:     config.Subject,
		Template:    config.Template,
		Data:        call.Data(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"receiptId":   receipt.ID,
		"channel":     receipt.Channel,
		"recipients":  receipt.Recipients,
		"status":      receipt.Status,
		"deliveredAt": receipt.DeliveredAt,
	}, nil
}

// New creates a notification handler
func New(notifier notify.Notifier) *Service {
	return &Service{notifier: notifier}
}
