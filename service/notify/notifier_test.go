package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
)

func TestRouter_Notify(t *testing.T) {
	email := &Recorder{}
	router := NewRouter(nil)
	router.Register(ChannelEmail, email)
	router.Register(ChannelLog, NewLog(logging.Discard()))

	testCases := []struct {
		description string
		channel     string
		expectErr   bool
	}{
		{description: "email", channel: "EMAIL"},
		{description: "log", channel: ChannelLog},
		{description: "unknown", channel: "sms", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			receipt, err := router.Notify(context.Background(), &Message{Channel: tc.channel, Recipients: []string{"ops"}, Template: "hi {{name}}", Data: map[string]interface{}{"name": "bob"}})
			if tc.expectErr {
				var unknown *UnknownChannelError
				assert.True(t, errors.As(err, &unknown))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, receipt.ID)
			assert.Equal(t, []string{"ops"}, receipt.Recipients)
		})
	}
	assert.Len(t, email.Messages(), 1)
	assert.Equal(t, []string{ChannelEmail, ChannelLog}, router.Channels())
}

func TestRouter_Fallback(t *testing.T) {
	fallback := &Recorder{}
	router := NewRouter(fallback)
	_, err := router.Notify(context.Background(), &Message{Channel: "pager"})
	require.NoError(t, err)
	assert.Len(t, fallback.Messages(), 1)
}

func TestWebhook_Notify(t *testing.T) {
	var received Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, nil)
	webhook.Headers["X-Token"] = "secret"
	receipt, err := webhook.Notify(context.Background(), &Message{Channel: ChannelWebhook, Subject: "done", StepID: "notify"})
	require.NoError(t, err)
	assert.Equal(t, "delivered", receipt.Status)
	assert.Equal(t, "done", received.Subject)
	assert.Equal(t, "notify", received.StepID)
}

func TestWebhook_NotifyFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewWebhook("", server.Client()).Notify(context.Background(), &Message{Channel: ChannelWebhook, Recipients: []string{server.URL}})
	assert.ErrorContains(t, err, "unexpected status 502")

	_, err = NewWebhook("", nil).Notify(context.Background(), &Message{Channel: ChannelWebhook})
	assert.Error(t, err)
}
