package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
)

func TestService_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customers/42":
			assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":42,"name":"ann"}`))
		case "/orders":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			data, _ := io.ReadAll(r.Body)
			var body map[string]interface{}
			_ = json.Unmarshal(data, &body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(body["sku"].(string)))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	testCases := []struct {
		description string
		config      map[string]interface{}
		expectBody  interface{}
		expectCode  int
		expectErr   bool
	}{
		{
			description: "get json",
			config: map[string]interface{}{
				"url":     server.URL + "/customers/42",
				"headers": map[string]interface{}{"Authorization": "Bearer t"},
			},
			expectBody: map[string]interface{}{"id": float64(42), "name": "ann"},
			expectCode: 200,
		},
		{
			description: "post body",
			config: map[string]interface{}{
				"method": "post",
				"url":    server.URL + "/orders",
				"body":   map[string]interface{}{"sku": "A-1"},
			},
			expectBody: "A-1",
			expectCode: 201,
		},
		{
			description: "non 2xx",
			config:      map[string]interface{}{"url": server.URL + "/missing"},
			expectErr:   true,
		},
		{
			description: "accepted status list",
			config:      map[string]interface{}{"url": server.URL + "/missing", "status": []interface{}{404}},
			expectCode:  404,
		},
		{
			description: "missing url",
			config:      map[string]interface{}{},
			expectErr:   true,
		},
	}
	handler := New(server.Client())
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			call := &action.Call{Step: graph.NewStep("call", graph.StepTypeAPI), Config: tc.config}
			output, err := handler.Execute(context.Background(), call)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			result := output.(map[string]interface{})
			assert.Equal(t, tc.expectCode, result["status"])
			assert.Equal(t, tc.expectBody, result["body"])
		})
	}
}

func TestService_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer server.Close()
	_, err := New(nil).Execute(context.Background(), &action.Call{Step: graph.NewStep("s", graph.StepTypeAPI), Config: map[string]interface{}{"url": server.URL}})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Equal(t, "down", statusErr.Body)
}
