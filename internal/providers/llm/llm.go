// Package llm holds the chat-completion transports the gateway dispatches to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
)

// CompletionRequest is one chat call.
type CompletionRequest struct {
	Messages    []models.Turn
	Temperature float64
	MaxTokens   int
	JSONOutput  bool
}

// Provider sends a chat and returns the text of the first completion.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Close() error
}

// ErrMalformedEnvelope is returned when the provider answered 2xx but the
// envelope has no usable assistant completion.
var ErrMalformedEnvelope = errors.New("malformed completion envelope")

// StatusError reports a non-2xx provider response.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration // zero when the provider gave no hint
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("LLM API error [%d]", e.StatusCode)
	}
	return fmt.Sprintf("LLM API error [%d]: %s", e.StatusCode, e.Message)
}

func (e *StatusError) RateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

func (e *StatusError) ServerError() bool { return e.StatusCode >= 500 }

// ParseRetryAfter reads a Retry-After header value given either as seconds
// or as an HTTP date.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
