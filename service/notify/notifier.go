// Package notify dispatches notification step messages to channels.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Well known channels
const (
	ChannelEmail   = "email"
	ChannelChat    = "chat"
	ChannelWebhook = "webhook"
	ChannelLog     = "log"
)

type (
	// Message is a notification request
	Message struct {
		ExecutionID string                 `json:"executionId,omitempty"`
		StepID      string                 `json:"stepId,omitempty"`
		Channel     string                 `json:"channel"`
		Recipients  []string               `json:"recipients,omitempty"`
		Subject     string                 `json:"subject,omitempty"`
		Template    string                 `json:"template,omitempty"`
		Data        map[string]interface{} `json:"data,omitempty"`
	}

	// Receipt acknowledges delivery
	Receipt struct {
		ID          string    `json:"id"`
		Channel     string    `json:"channel"`
		Recipients  []string  `json:"recipients,omitempty"`
		Status      string    `json:"status"`
		DeliveredAt time.Time `json:"deliveredAt"`
	}

	// Notifier delivers messages for one or more channels
	Notifier interface {
		Notify(ctx context.Context, message *Message) (*Receipt, error)
	}

	// NotifierFunc adapts a function to Notifier
	NotifierFunc func(ctx context.Context, message *Message) (*Receipt, error)
)

// Notify calls fn
func (fn NotifierFunc) Notify(ctx context.Context, message *Message) (*Receipt, error) {
	return fn(ctx, message)
}

// UnknownChannelError is returned when no notifier serves a channel
type UnknownChannelError struct {
	Channel string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("no notifier for channel %q", e.Channel)
}

// Router dispatches messages by channel
type Router struct {
	mux       sync.RWMutex
	notifiers map[string]Notifier
	fallback  Notifier
}

// Register sets notifier for channel
func (r *Router) Register(channel string, notifier Notifier) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.notifiers[strings.ToLower(channel)] = notifier
}

// Channels returns registered channels
func (r *Router) Channels() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	var result []string
	for channel := range r.notifiers {
		result = append(result, channel)
	}
	sort.Strings(result)
	return result
}

// Notify routes message to its channel notifier
func (r *Router) Notify(ctx context.Context, message *Message) (*Receipt, error) {
	if message == nil {
		return nil, fmt.Errorf("message was nil")
	}
	r.mux.RLock()
	notifier, ok := r.notifiers[strings.ToLower(message.Channel)]
	if !ok {
		notifier = r.fallback
	}
	r.mux.RUnlock()
	if notifier == nil {
		return nil, &UnknownChannelError{Channel: message.Channel}
	}
	return notifier.Notify(ctx, message)
}

// NewRouter creates a router; fallback serves unregistered channels when set
func NewRouter(fallback Notifier) *Router {
	return &Router{notifiers: map[string]Notifier{}, fallback: fallback}
}
