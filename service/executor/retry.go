package executor

import (
	"math"
	"strings"
	"time"

	"github.com/viant/procflow/model/graph"
)

// shouldRetry returns (retry?, delay) after attempts failed attempts
func (s *Service) shouldRetry(step *graph.Step, attempts int) (bool, time.Duration) {
	if attempts > step.Retries {
		return false, 0
	}
	cfg := step.Retry
	if cfg == nil {
		cfg = s.config.Retry
	}
	if cfg == nil {
		return true, s.config.RetryDelay
	}
	if strings.ToLower(cfg.Type) == "none" {
		return false, 0
	}

	baseDelay := s.config.RetryDelay
	if cfg.Delay != "" {
		if d, err := time.ParseDuration(cfg.Delay); err == nil {
			baseDelay = d
		}
	}

	switch strings.ToLower(cfg.Type) {
	case "exponential":
		mult := cfg.Multiplier
		if mult <= 1 {
			mult = 2
		}
		delay := float64(baseDelay) * math.Pow(mult, float64(attempts-1))
		if cfg.MaxDelay != "" {
			if md, err := time.ParseDuration(cfg.MaxDelay); err == nil && time.Duration(delay) > md {
				delay = float64(md)
			}
		}
		return true, time.Duration(delay)
	default: // fixed
		return true, baseDelay
	}
}
