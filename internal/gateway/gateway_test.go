package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/utils"
)

const okTurn = `{"messages":[{"text":"Hello"}],"metadata":{"questionNumber":0,"totalQuestions":8,"phase":"greeting"}}`

type step struct {
	text string
	err  error
}

// scriptedProvider replays steps in order and then keeps returning the last one.
type scriptedProvider struct {
	mu       sync.Mutex
	steps    []step
	calls    int
	inFlight int32
	maxSeen  int32
	delay    time.Duration
	seen     []string
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	n := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	for {
		m := atomic.LoadInt32(&p.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&p.maxSeen, m, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(req.Messages) > 0 {
		p.seen = append(p.seen, req.Messages[len(req.Messages)-1].Content)
	}
	i := p.calls
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	p.calls++
	return p.steps[i].text, p.steps[i].err
}

func (p *scriptedProvider) Close() error { return nil }

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestGateway(p llm.Provider) (*Gateway, *sleepRecorder) {
	rec := &sleepRecorder{}
	g := New(p, DefaultOptions(), nil).WithSleep(rec.sleep)
	return g, rec
}

func turns(text string) []models.Turn {
	return []models.Turn{{Role: models.RoleUser, Content: text}}
}

func TestSend_RetriesServerErrorOnce(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &llm.StatusError{StatusCode: http.StatusInternalServerError}},
		{text: okTurn},
	}}
	g, rec := newTestGateway(p)

	turn, err := g.SendStructured(context.Background(), turns("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", turn.Messages[0].Text)
	assert.Equal(t, 2, p.Calls())
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestSend_GivesUpAfterMaxRetries(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &llm.StatusError{StatusCode: http.StatusInternalServerError}},
	}}
	g, rec := newTestGateway(p)

	_, err := g.Send(context.Background(), turns("hi"))
	require.Error(t, err)
	assert.Equal(t, 4, p.Calls())
	assert.Equal(t, utils.CodeUnavailable, utils.CodeOf(err))
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestSend_HonorsRetryAfterOnRateLimit(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &llm.StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 7 * time.Second}},
		{err: &llm.StatusError{StatusCode: http.StatusTooManyRequests}},
		{text: "ok"},
	}}
	g, rec := newTestGateway(p)

	text, err := g.Send(context.Background(), turns("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []time.Duration{7 * time.Second, 2 * time.Second}, rec.delays)
}

func TestSend_DoesNotRetryClientErrors(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &llm.StatusError{StatusCode: http.StatusBadRequest, Message: "bad model"}},
	}}
	g, rec := newTestGateway(p)

	_, err := g.Send(context.Background(), turns("hi"))
	require.Error(t, err)
	assert.Equal(t, 1, p.Calls())
	assert.Empty(t, rec.delays)
	assert.Equal(t, utils.CodeUpstream, utils.CodeOf(err))
}

func TestSend_MalformedEnvelopeIsFormatError(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: errors.Join(llm.ErrMalformedEnvelope, errors.New("no choices"))},
	}}
	g, _ := newTestGateway(p)

	_, err := g.Send(context.Background(), turns("hi"))
	assert.Equal(t, utils.CodeInvalidFormat, utils.CodeOf(err))
	assert.Equal(t, 1, p.Calls())
}

func TestSendStructured_FormatErrorNotRetried(t *testing.T) {
	p := &scriptedProvider{steps: []step{{text: `{"invalid": true}`}}}
	g, rec := newTestGateway(p)

	_, err := g.SendStructured(context.Background(), turns("hi"))
	require.Error(t, err)
	assert.Equal(t, utils.CodeInvalidFormat, utils.CodeOf(err))
	assert.Equal(t, 1, p.Calls())
	assert.Empty(t, rec.delays)
}

func TestSend_SerializesConcurrentCallers(t *testing.T) {
	p := &scriptedProvider{steps: []step{{text: "ok"}}, delay: 5 * time.Millisecond}
	g, _ := newTestGateway(p)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Send(context.Background(), turns("hi"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, p.Calls())
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.maxSeen))
}

func TestSend_DispatchesInArrivalOrder(t *testing.T) {
	p := &scriptedProvider{steps: []step{{text: "ok"}}, delay: 100 * time.Millisecond}
	g, _ := newTestGateway(p)

	var wg sync.WaitGroup
	send := func(name string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Send(context.Background(), turns(name))
		}()
	}

	// The first call occupies the provider; the rest queue behind it.
	send("first")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&p.inFlight) == 1 }, time.Second, time.Millisecond)
	for i, name := range []string{"a", "b", "c"} {
		send(name)
		want := i + 1
		require.Eventually(t, func() bool { return g.Pending() == want }, time.Second, time.Millisecond)
	}
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []string{"first", "a", "b", "c"}, p.seen)
}

func TestSend_CallerTimeoutWhileQueued(t *testing.T) {
	p := &scriptedProvider{steps: []step{{text: "ok"}}, delay: 50 * time.Millisecond}
	g, _ := newTestGateway(p)

	go func() { _, _ = g.Send(context.Background(), turns("slow")) }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&p.inFlight) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := g.Send(ctx, turns("impatient"))
	assert.Equal(t, utils.CodeTimeout, utils.CodeOf(err))

	// The abandoned call is skipped, never dispatched.
	require.Eventually(t, func() bool { return g.Pending() == 0 }, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, p.Calls())
}

func TestSend_PerAttemptTimeout(t *testing.T) {
	p := &blockingProvider{}
	g := New(p, Options{Timeout: 10 * time.Millisecond}, nil)

	_, err := g.Send(context.Background(), turns("hi"))
	assert.Equal(t, utils.CodeTimeout, utils.CodeOf(err))
}

type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ llm.CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingProvider) Close() error { return nil }

func TestClose_RejectsNewCalls(t *testing.T) {
	g, _ := newTestGateway(&scriptedProvider{steps: []step{{text: "ok"}}})
	require.NoError(t, g.Close())

	_, err := g.Send(context.Background(), turns("hi"))
	assert.Equal(t, utils.CodeUnavailable, utils.CodeOf(err))
}
