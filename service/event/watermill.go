package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/viant/procflow/logging"
)

const (
	// DefaultTopic is the topic used by Sink when none is configured
	DefaultTopic = "procflow.events"
	// MetadataType is the message metadata key carrying the event type
	MetadataType = "event_type"
	// MetadataExecutionID is the message metadata key carrying the execution id
	MetadataExecutionID = "execution_id"
)

// Sink forwards events to a watermill publisher as JSON messages
type Sink struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// OnEvent publishes e; failures are logged and do not affect the execution
func (s *Sink) OnEvent(ctx context.Context, e *Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("failed to encode event", slog.String("type", string(e.Type)), logging.Error(err))
		return
	}
	msg := message.NewMessage("evt-"+watermill.NewULID(), payload)
	msg.Metadata.Set(MetadataType, string(e.Type))
	msg.Metadata.Set(MetadataExecutionID, e.ExecutionID)
	msg.SetContext(ctx)
	if err = s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.Error("failed to publish event", slog.String("type", string(e.Type)), logging.ExecutionID(e.ExecutionID), logging.Error(err))
	}
}

// Decode decodes a watermill message produced by Sink
func Decode(msg *message.Message) (*Event, error) {
	ret := &Event{}
	if err := json.Unmarshal(msg.Payload, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewSink creates a watermill sink; empty topic uses DefaultTopic
func NewSink(publisher message.Publisher, topic string, logger *slog.Logger) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{publisher: publisher, topic: topic, logger: logging.OrDefault(logger)}
}

var _ Listener = (*Sink)(nil)
