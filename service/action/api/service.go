// Package api executes HTTP steps.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
)

// Config is the api step configuration
type Config struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
	// Status lists accepted status codes; any 2xx when empty
	Status []int
}

// Response is the api step output
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       interface{}
}

// AsMap returns response as a data bag value
func (r *Response) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"status":  r.StatusCode,
		"headers": r.Headers,
		"body":    r.Body,
	}
}

// StatusError is returned for unexpected response status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Service executes api steps
type Service struct {
	client *http.Client
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeAPI
}

// Execute performs the HTTP request described by the step config
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	if config.URL == "" {
		return nil, fmt.Errorf("api step %s: url was empty", call.Step.ID)
	}
	method := strings.ToUpper(config.Method)
	if method == "" {
		method = http.MethodGet
	}
	body, contentType, err := encodeBody(config.Body)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, method, config.URL, body)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	for k, v := range config.Headers {
		request.Header.Set(k, v)
	}
	response, err := s.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !accepted(config.Status, response.StatusCode) {
		return nil, &StatusError{StatusCode: response.StatusCode, Body: truncate(string(data), 256)}
	}
	result := &Response{StatusCode: response.StatusCode, Headers: map[string]string{}, Body: decodeBody(data)}
	for k := range response.Header {
		result.Headers[k] = response.Header.Get(k)
	}
	return result.AsMap(), nil
}

func accepted(codes []int, status int) bool {
	if len(codes) == 0 {
		return status >= 200 && status <= 299
	}
	for _, code := range codes {
		if code == status {
			return true
		}
	}
	return false
}

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch actual := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		if actual == "" {
			return nil, "", nil
		}
		if json.Valid([]byte(actual)) {
			return strings.NewReader(actual), "application/json", nil
		}
		return strings.NewReader(actual), "text/plain", nil
	case []byte:
		return bytes.NewReader(actual), "application/octet-stream", nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func decodeBody(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	var result interface{}
	if err := json.Unmarshal(data, &result); err == nil {
		return result
	}
	return string(data)
}

func truncate(text string, size int) string {
	if len(text) <= size {
		return text
	}
	return text[:size] + "..."
}

// New creates an api handler; a nil client uses an otelhttp instrumented client
func New(client *http.Client) *Service {
	if client == nil {
		client = &http.Client{
			Timeout:   time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Service{client: client}
}
