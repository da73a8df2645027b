package notify

import (
	"context"
	"log/slog"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/internal/idgen"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/runtime/expander"
)

// Log writes notifications to a logger
type Log struct {
	logger *slog.Logger
}

// Notify logs the rendered message
func (l *Log) Notify(ctx context.Context, message *Message) (*Receipt, error) {
	l.logger.InfoContext(ctx, "notification",
		slog.String("channel", message.Channel),
		slog.Any("recipients", message.Recipients),
		slog.String("subject", message.Subject),
		slog.String("body", expander.Text(message.Template, message.Data)),
		logging.ExecutionID(message.ExecutionID),
		logging.StepID(message.StepID))
	return &Receipt{
		ID:          idgen.WithPrefix("ntf"),
		Channel:     message.Channel,
		Recipients:  message.Recipients,
		Status:      "delivered",
		DeliveredAt: clock.Now(),
	}, nil
}

// NewLog creates a log notifier
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logging.OrDefault(logger)}
}
