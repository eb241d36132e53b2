package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Session is one interview. turn serializes writers for the whole duration of
// a turn (including the model call); mu guards the fields so readers never
// wait on the model.
type Session struct {
	ID        string
	UserID    string
	Config    models.InterviewConfig
	CreatedAt time.Time

	turn sync.Mutex

	mu              sync.RWMutex
	history         []models.Turn
	currentQuestion int
	phase           models.Phase
	ended           bool
	report          *models.EvaluationReport
	lastActivity    time.Time
}

func newSession(id, userID string, cfg models.InterviewConfig, now time.Time) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		Config:       cfg,
		CreatedAt:    now,
		phase:        models.PhaseGreeting,
		lastActivity: now,
	}
}

// History returns a copy of the conversation.
func (s *Session) History() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Turn(nil), s.history...)
}

func (s *Session) Report() *models.EvaluationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// State is the read-only projection of the session.
func (s *Session) State() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userTurns := 0
	for _, t := range s.history {
		if t.Role == models.RoleUser {
			userTurns++
		}
	}
	return models.SessionState{
		ID:              s.ID,
		UserID:          s.UserID,
		Config:          s.Config,
		CurrentQuestion: s.currentQuestion,
		Phase:           s.phase,
		Ended:           s.ended,
		MessageCount:    userTurns,
		CreatedAt:       s.CreatedAt,
		LastActivity:    s.lastActivity,
		Report:          s.report,
	}
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity()) > ttl
}

// SessionStore is the set of live sessions keyed by id.
type SessionStore interface {
	Put(s *Session)
	// Get returns a live session, evicting and failing if it has expired.
	Get(id string) (*Session, error)
	Delete(id string)
	// Sweep evicts idle sessions and returns how many were removed.
	Sweep() int
	Len() int
	Close()
}

type memoryStore struct {
	ttl time.Duration
	now func() time.Time
	log *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type StoreOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration // <= 0 disables the background sweep
	Now           func() time.Time
	Logger        *logrus.Logger
}

// NewMemoryStore creates the in-process store and starts its sweep task.
// Close stops the task.
func NewMemoryStore(opts StoreOptions) SessionStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	st := &memoryStore{
		ttl:      opts.TTL,
		now:      opts.Now,
		log:      opts.Logger,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		st.wg.Add(1)
		go st.sweepLoop(opts.SweepInterval)
	}
	return st
}

func (st *memoryStore) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

func (st *memoryStore) Get(id string) (*Session, error) {
	const op = "SessionStore.Get"

	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "interview session not found", utils.ErrNotFound)
	}
	if s.expired(st.now(), st.ttl) {
		st.evict(s)
		return nil, utils.E(utils.CodeNotFound, op, "interview session has expired due to inactivity", utils.ErrNotFound)
	}
	return s, nil
}

func (st *memoryStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *memoryStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// evict removes s only if it is still the session stored under its id.
func (st *memoryStore) evict(s *Session) {
	st.mu.Lock()
	if cur, ok := st.sessions[s.ID]; ok && cur == s {
		delete(st.sessions, s.ID)
	}
	st.mu.Unlock()
}

func (st *memoryStore) Sweep() int {
	st.mu.Lock()
	snapshot := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		snapshot = append(snapshot, s)
	}
	st.mu.Unlock()

	now := st.now()
	cleaned := 0
	for _, s := range snapshot {
		// A held turn lock means a turn is in progress, so the session is not idle.
		if !s.turn.TryLock() {
			continue
		}
		if s.expired(now, st.ttl) {
			st.evict(s)
			cleaned++
		}
		s.turn.Unlock()
	}
	if cleaned > 0 {
		st.log.WithField("count", cleaned).Info("cleaned up expired sessions")
	}
	return cleaned
}

func (st *memoryStore) sweepLoop(every time.Duration) {
	defer st.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *memoryStore) Close() {
	st.stopOnce.Do(func() { close(st.stop) })
	st.wg.Wait()
}
