// Package gateway serializes every outbound LLM call through one FIFO queue
// and retries transient provider failures.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/schema"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 3
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// DefaultBackoff is the wait before retry n (0-based). The last entry repeats.
var DefaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

type Options struct {
	Timeout     time.Duration // per attempt
	MaxRetries  int
	Backoff     []time.Duration
	Temperature float64
	MaxTokens   int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if len(o.Backoff) == 0 {
		o.Backoff = DefaultBackoff
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// DefaultOptions returns the production retry policy.
func DefaultOptions() Options {
	return Options{MaxRetries: DefaultMaxRetries}.withDefaults()
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type result struct {
	text string
	err  error
}

type queueItem struct {
	ctx   context.Context
	turns []models.Turn
	done  chan result
}

// Gateway owns the outbound queue. At most one provider call is in flight.
type Gateway struct {
	provider llm.Provider
	log      *logrus.Logger
	opts     Options
	sleep    SleepFunc

	mu       sync.Mutex
	queue    []*queueItem
	draining bool
	closed   bool
}

func New(provider llm.Provider, opts Options, log *logrus.Logger) *Gateway {
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{
		provider: provider,
		log:      log,
		opts:     opts.withDefaults(),
		sleep:    sleepContext,
	}
}

// WithSleep replaces the backoff sleeper; tests use it to skip real waits.
func (g *Gateway) WithSleep(fn SleepFunc) *Gateway {
	g.sleep = fn
	return g
}

// Pending reports how many calls are waiting behind the one in flight.
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Close rejects new calls and closes the provider. Queued calls still drain.
func (g *Gateway) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	return g.provider.Close()
}

// Send queues turns and waits for the first completion's text.
func (g *Gateway) Send(ctx context.Context, turns []models.Turn) (string, error) {
	const op = "Gateway.Send"

	item := &queueItem{
		ctx:   ctx,
		turns: append([]models.Turn(nil), turns...),
		done:  make(chan result, 1),
	}
	if err := g.enqueue(item); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "gateway is closed", err)
	}

	select {
	case r := <-item.done:
		return r.text, r.err
	case <-ctx.Done():
		return "", utils.E(utils.CodeTimeout, op, "gave up waiting for the model", ctx.Err())
	}
}

// SendStructured sends turns and validates the reply as an interviewer turn.
func (g *Gateway) SendStructured(ctx context.Context, turns []models.Turn) (*models.InterviewerTurn, error) {
	const op = "Gateway.SendStructured"

	raw, err := g.Send(ctx, turns)
	if err != nil {
		return nil, err
	}
	turn, err := schema.ParseInterviewerTurn(raw)
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"error": err.Error(),
			"raw":   truncate(raw, 500),
		}).Error("failed to parse interviewer response")
		return nil, utils.E(utils.CodeInvalidFormat, op, "invalid interviewer response format", err)
	}
	return turn, nil
}

func (g *Gateway) enqueue(item *queueItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return errors.New("closed")
	}
	g.queue = append(g.queue, item)
	if !g.draining {
		g.draining = true
		go g.drain()
	}
	return nil
}

func (g *Gateway) drain() {
	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.draining = false
			g.mu.Unlock()
			return
		}
		item := g.queue[0]
		g.queue[0] = nil
		g.queue = g.queue[1:]
		g.mu.Unlock()

		if err := item.ctx.Err(); err != nil {
			item.done <- result{err: utils.E(utils.CodeTimeout, "Gateway.drain", "request abandoned before dispatch", err)}
			continue
		}
		text, err := g.executeWithRetry(item.ctx, item.turns)
		item.done <- result{text: text, err: err}
	}
}

func (g *Gateway) executeWithRetry(ctx context.Context, turns []models.Turn) (string, error) {
	const op = "Gateway.executeWithRetry"

	for attempt := 0; ; attempt++ {
		text, err := g.execute(ctx, turns)
		if err == nil {
			return text, nil
		}

		var se *llm.StatusError
		retryable := errors.As(err, &se) && (se.RateLimited() || se.ServerError())
		if !retryable || attempt >= g.opts.MaxRetries {
			g.log.WithFields(logrus.Fields{
				"attempts": attempt + 1,
				"error":    err.Error(),
			}).Error("LLM request failed")
			return "", classify(op, err, retryable)
		}

		delay := g.backoff(attempt)
		reason := "server error"
		if se.RateLimited() {
			reason = "rate limited"
			if se.RetryAfter > 0 {
				delay = se.RetryAfter
			}
		}
		g.log.WithFields(logrus.Fields{
			"status":  se.StatusCode,
			"attempt": attempt + 1,
			"max":     g.opts.MaxRetries,
			"delay":   delay.String(),
		}).Warnf("%s, retrying", reason)

		if err := g.sleep(ctx, delay); err != nil {
			return "", utils.E(utils.CodeTimeout, op, "cancelled during backoff", err)
		}
	}
}

func (g *Gateway) execute(ctx context.Context, turns []models.Turn) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	g.log.WithField("messages", len(turns)).Debug("sending chat request")
	return g.provider.Complete(attemptCtx, llm.CompletionRequest{
		Messages:    turns,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		JSONOutput:  true,
	})
}

func (g *Gateway) backoff(attempt int) time.Duration {
	if attempt < len(g.opts.Backoff) {
		return g.opts.Backoff[attempt]
	}
	return g.opts.Backoff[len(g.opts.Backoff)-1]
}

func classify(op string, err error, retryable bool) error {
	switch {
	case retryable:
		return utils.E(utils.CodeUnavailable, op, "upstream model unavailable", err)
	case errors.Is(err, llm.ErrMalformedEnvelope):
		return utils.E(utils.CodeInvalidFormat, op, "malformed provider response", err)
	case errors.Is(err, context.DeadlineExceeded):
		return utils.E(utils.CodeTimeout, op, "model request timed out", err)
	default:
		return utils.E(utils.CodeUpstream, op, "model request failed", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
