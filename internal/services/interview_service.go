package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/prompts"
	"github.com/yoockh/yoointerview/internal/schema"
	"github.com/yoockh/yoointerview/internal/utils"
)

// LLMGateway is the part of the gateway the orchestrator needs.
type LLMGateway interface {
	Send(ctx context.Context, turns []models.Turn) (string, error)
	SendStructured(ctx context.Context, turns []models.Turn) (*models.InterviewerTurn, error)
}

type MessageGuard interface {
	ClassifyAndTransform(text string) string
}

type ReportCache interface {
	Put(ctx context.Context, sessionID string, entry models.CachedReport) error
	Get(ctx context.Context, sessionID string) (*models.CachedReport, bool, error)
}

// Archiver receives every finished interview. Implementations must not block
// the caller on slow storage.
type Archiver interface {
	Archive(ctx context.Context, entry models.ArchiveEntry) error
}

type StartResult struct {
	SessionID string                  `json:"sessionId"`
	Turn      *models.InterviewerTurn `json:"response"`
}

type InterviewService interface {
	Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*StartResult, error)
	SendMessage(ctx context.Context, sessionID, text string) (*models.InterviewerTurn, error)
	End(ctx context.Context, sessionID string) (*models.EvaluationReport, error)
	GetState(ctx context.Context, sessionID string) (*models.SessionState, error)
	// GetReport falls back to the report cache once the session is gone.
	// userID must match the session owner when the session has one.
	GetReport(ctx context.Context, sessionID, userID string) (*models.EvaluationReport, error)
}

type interviewService struct {
	sessions SessionStore
	llm      LLMGateway
	guard    MessageGuard
	reports  ReportCache
	archive  Archiver
	log      *logrus.Logger
	now      func() time.Time
	newID    func() string
}

type InterviewOption func(*interviewService)

func WithReportCache(c ReportCache) InterviewOption {
	return func(s *interviewService) { s.reports = c }
}

func WithArchiver(a Archiver) InterviewOption {
	return func(s *interviewService) { s.archive = a }
}

func WithClock(now func() time.Time) InterviewOption {
	return func(s *interviewService) { s.now = now }
}

func WithIDGenerator(fn func() string) InterviewOption {
	return func(s *interviewService) { s.newID = fn }
}

func NewInterviewService(sessions SessionStore, llm LLMGateway, guard MessageGuard, log *logrus.Logger, opts ...InterviewOption) InterviewService {
	if log == nil {
		log = logger.Discard()
	}
	s := &interviewService{
		sessions: sessions,
		llm:      llm,
		guard:    guard,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *interviewService) Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*StartResult, error) {
	const op = "InterviewService.Start"

	cfg = cfg.WithDefaults()
	if msg := validateConfig(cfg); msg != "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, msg, nil)
	}

	now := s.now().UTC()
	sess := newSession(s.newID(), userID, cfg, now)
	history := []models.Turn{
		{Role: models.RoleSystem, Content: prompts.BuildSystemPrompt(prompts.OptionsFromConfig(cfg))},
		{Role: models.RoleUser, Content: prompts.StartInterviewMessage},
	}

	turn, err := s.llm.SendStructured(ctx, history)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "error": err.Error()}).Error("failed to start interview")
		return nil, err
	}
	assistant, err := assistantTurn(turn)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to serialize interviewer turn", err)
	}

	sess.history = append(history, assistant)
	sess.currentQuestion = turn.Metadata.QuestionNumber
	sess.phase = turn.Metadata.Phase
	s.sessions.Put(sess)

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"role":       cfg.Role,
		"type":       cfg.Type,
		"difficulty": cfg.Difficulty,
	}).Info("interview started")
	return &StartResult{SessionID: sess.ID, Turn: turn}, nil
}

func (s *interviewService) SendMessage(ctx context.Context, sessionID, text string) (*models.InterviewerTurn, error) {
	const op = "InterviewService.SendMessage"

	sess, release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess.mu.Lock()
	if sess.ended {
		sess.mu.Unlock()
		return nil, utils.E(utils.CodeInvalidState, op, "interview session has already ended", nil)
	}
	if strings.TrimSpace(text) == "" {
		sess.mu.Unlock()
		return nil, utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}
	sess.lastActivity = s.now().UTC()
	candidate := append(append([]models.Turn(nil), sess.history...), models.Turn{
		Role:    models.RoleUser,
		Content: s.guard.ClassifyAndTransform(text),
	})
	sess.mu.Unlock()

	turn, err := s.llm.SendStructured(ctx, candidate)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "session_id": sessionID, "error": err.Error()}).Error("interviewer turn failed")
		return nil, err
	}
	assistant, err := assistantTurn(turn)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to serialize interviewer turn", err)
	}

	sess.mu.Lock()
	sess.history = append(candidate, assistant)
	sess.currentQuestion = turn.Metadata.QuestionNumber
	sess.phase = turn.Metadata.Phase
	sess.lastActivity = s.now().UTC()
	sess.mu.Unlock()
	return turn, nil
}

func (s *interviewService) End(ctx context.Context, sessionID string) (*models.EvaluationReport, error) {
	const op = "InterviewService.End"

	sess, release, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess.mu.Lock()
	if sess.ended {
		report := sess.report
		sess.mu.Unlock()
		if report == nil {
			return nil, utils.E(utils.CodeInvalidState, op, "interview ended without a report", nil)
		}
		return report, nil
	}
	sess.ended = true
	sess.lastActivity = s.now().UTC()
	history := append([]models.Turn(nil), sess.history...)
	sess.mu.Unlock()

	// ended stays true even if the evaluation fails; a later end then
	// reports the missing report as an invalid state.
	report, err := s.evaluate(ctx, op, sess.Config, history)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "session_id": sessionID, "error": err.Error()}).Error("evaluation failed")
		return nil, err
	}

	endedAt := s.now().UTC()
	sess.mu.Lock()
	sess.report = report
	sess.lastActivity = endedAt
	sess.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"session_id":    sessionID,
		"overall_score": report.OverallScore,
	}).Info("interview evaluated")

	s.afterEnd(ctx, sess, history, report, endedAt)
	return report, nil
}

func (s *interviewService) evaluate(ctx context.Context, op string, cfg models.InterviewConfig, history []models.Turn) (*models.EvaluationReport, error) {
	raw, err := s.llm.Send(ctx, prompts.BuildEvaluationRequest(cfg, RenderTranscript(history)))
	if err != nil {
		return nil, err
	}
	report, err := schema.ParseEvaluationReport(raw)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidFormat, op, "invalid evaluation report format", err)
	}
	return report, nil
}

// afterEnd caches and archives the report. Failures are logged only.
func (s *interviewService) afterEnd(ctx context.Context, sess *Session, history []models.Turn, report *models.EvaluationReport, endedAt time.Time) {
	bg := context.WithoutCancel(ctx)
	if s.reports != nil {
		if err := s.reports.Put(bg, sess.ID, models.CachedReport{UserID: sess.UserID, Report: report}); err != nil {
			s.log.WithFields(logrus.Fields{"session_id": sess.ID, "error": err.Error()}).Warn("failed to cache report")
		}
	}
	if s.archive != nil {
		entry := models.ArchiveEntry{
			SessionID:  sess.ID,
			UserID:     sess.UserID,
			Config:     sess.Config,
			Report:     report,
			Turns:      history,
			Transcript: RenderTranscript(history),
			StartedAt:  sess.CreatedAt,
			EndedAt:    endedAt,
		}
		if err := s.archive.Archive(bg, entry); err != nil {
			s.log.WithFields(logrus.Fields{"session_id": sess.ID, "error": err.Error()}).Warn("failed to archive interview")
		}
	}
}

func (s *interviewService) GetState(ctx context.Context, sessionID string) (*models.SessionState, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &st, nil
}

func (s *interviewService) GetReport(ctx context.Context, sessionID, userID string) (*models.EvaluationReport, error) {
	const op = "InterviewService.GetReport"

	sess, err := s.sessions.Get(sessionID)
	if err == nil {
		if !ownedBy(sess.UserID, userID) {
			return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
		}
		if r := sess.Report(); r != nil {
			return r, nil
		}
		return nil, utils.E(utils.CodeInvalidState, op, "interview has not been evaluated yet", nil)
	}
	if !utils.IsCode(err, utils.CodeNotFound) || s.reports == nil {
		return nil, err
	}

	cached, hit, cerr := s.reports.Get(ctx, sessionID)
	if cerr != nil {
		s.log.WithFields(logrus.Fields{"session_id": sessionID, "error": cerr.Error()}).Warn("report cache lookup failed")
		return nil, err
	}
	if !hit {
		return nil, err
	}
	if !ownedBy(cached.UserID, userID) {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return cached.Report, nil
}

// ownedBy reports whether userID may read a session owned by owner.
// Anonymous sessions are open to anyone holding the id.
func ownedBy(owner, userID string) bool {
	return owner == "" || owner == userID
}

// acquire looks up the session and takes its turn lock. The lookup is repeated
// under the lock so a session evicted while we waited is reported as gone.
func (s *interviewService) acquire(sessionID string) (*Session, func(), error) {
	const op = "InterviewService.acquire"

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.turn.Lock()
	cur, err := s.sessions.Get(sessionID)
	if err != nil || cur != sess {
		sess.turn.Unlock()
		if err == nil {
			err = utils.E(utils.CodeNotFound, op, "interview session not found", utils.ErrNotFound)
		}
		return nil, nil, err
	}
	return sess, sess.turn.Unlock, nil
}

func assistantTurn(turn *models.InterviewerTurn) (models.Turn, error) {
	b, err := json.Marshal(turn)
	if err != nil {
		return models.Turn{}, err
	}
	return models.Turn{Role: models.RoleAssistant, Content: string(b)}, nil
}

// RenderTranscript turns the history into the plain text the evaluator reads.
// System turns are skipped; assistant turns contribute their spoken text.
func RenderTranscript(history []models.Turn) string {
	var b strings.Builder
	for _, t := range history {
		switch t.Role {
		case models.RoleUser:
			b.WriteString("Candidate: ")
			b.WriteString(t.Content)
		case models.RoleAssistant:
			b.WriteString("Interviewer: ")
			b.WriteString(spokenText(t.Content))
		default:
			continue
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func spokenText(content string) string {
	var turn models.InterviewerTurn
	if err := json.Unmarshal([]byte(content), &turn); err != nil || len(turn.Messages) == 0 {
		return content
	}
	texts := make([]string, 0, len(turn.Messages))
	for _, m := range turn.Messages {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, " ")
}

func validateConfig(c models.InterviewConfig) string {
	n := utf8.RuneCountInString(strings.TrimSpace(c.Role))
	switch {
	case n < 2 || n > 200:
		return "role must be between 2 and 200 characters"
	case !oneOf(c.Type, models.InterviewTechnical, models.InterviewBehavioral, models.InterviewMixed):
		return "type must be one of technical, behavioral, mixed"
	case !oneOf(c.Difficulty, models.DifficultyJunior, models.DifficultyMid, models.DifficultySenior):
		return "difficulty must be one of junior, mid, senior"
	case !oneOf(c.Language, models.LanguageEnglish, models.LanguageSpanish):
		return "language must be one of en, es"
	case !oneOf(c.Persona, models.PersonaFriendly, models.PersonaStrict, models.PersonaCasual):
		return "persona must be one of friendly, strict, casual"
	case c.TotalQuestions < models.MinTotalQuestions || c.TotalQuestions > models.MaxTotalQuestions:
		return "totalQuestions must be between 5 and 15"
	}
	return ""
}

func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
