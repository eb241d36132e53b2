package models

import "time"

type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewMixed      InterviewType = "mixed"
)

type Difficulty string

const (
	DifficultyJunior Difficulty = "junior"
	DifficultyMid    Difficulty = "mid"
	DifficultySenior Difficulty = "senior"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// DisplayName is the language name used inside prompts.
func (l Language) DisplayName() string {
	switch l {
	case LanguageSpanish:
		return "Spanish"
	default:
		return "English"
	}
}

type Persona string

const (
	PersonaFriendly Persona = "friendly"
	PersonaStrict   Persona = "strict"
	PersonaCasual   Persona = "casual"
)

type Phase string

const (
	PhaseGreeting    Phase = "greeting"
	PhaseWarmup      Phase = "warmup"
	PhaseTechnical   Phase = "technical"
	PhaseBehavioral  Phase = "behavioral"
	PhaseSituational Phase = "situational"
	PhaseClosing     Phase = "closing"
)

const (
	DefaultTotalQuestions = 8
	MinTotalQuestions     = 5
	MaxTotalQuestions     = 15
)

// InterviewConfig is fixed when a session is created.
type InterviewConfig struct {
	Role           string        `json:"role" bson:"role"`
	Type           InterviewType `json:"type" bson:"type"`
	Difficulty     Difficulty    `json:"difficulty" bson:"difficulty"`
	Language       Language      `json:"language" bson:"language"`
	Persona        Persona       `json:"persona" bson:"persona"`
	TotalQuestions int           `json:"totalQuestions" bson:"total_questions"`
	ResumeText     string        `json:"resumeText,omitempty" bson:"resume_text,omitempty"`
	JobDescription string        `json:"jobDescription,omitempty" bson:"job_description,omitempty"`
}

// WithDefaults fills optional fields the way the start endpoint documents.
func (c InterviewConfig) WithDefaults() InterviewConfig {
	if c.Language == "" {
		c.Language = LanguageEnglish
	}
	if c.Persona == "" {
		c.Persona = PersonaFriendly
	}
	if c.TotalQuestions == 0 {
		c.TotalQuestions = DefaultTotalQuestions
	}
	return c
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one chat message. Assistant turns hold the serialized InterviewerTurn.
type Turn struct {
	Role    Role   `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

// InterviewerMessage is one spoken bubble of the interviewer avatar.
type InterviewerMessage struct {
	Text             string `json:"text" validate:"required"`
	FacialExpression string `json:"facialExpression"`
	Animation        string `json:"animation"`
	Emotion          string `json:"emotion"`
}

type TurnMetadata struct {
	QuestionNumber int      `json:"questionNumber" validate:"min=0"`
	TotalQuestions int      `json:"totalQuestions" validate:"min=1"`
	Phase          Phase    `json:"phase" validate:"required,oneof=greeting warmup technical behavioral situational closing"`
	ScoreHint      *float64 `json:"scoreHint,omitempty" validate:"omitempty,min=0,max=10"`
}

// InterviewerTurn is the validated structured reply of the interviewer model.
type InterviewerTurn struct {
	Messages []InterviewerMessage `json:"messages" validate:"required,min=1,dive"`
	Metadata TurnMetadata         `json:"metadata"`
}

type QuestionScore struct {
	Question string  `json:"question" bson:"question" validate:"required"`
	Answer   string  `json:"answer" bson:"answer"`
	Score    float64 `json:"score" bson:"score" validate:"min=1,max=10"`
	Feedback string  `json:"feedback" bson:"feedback" validate:"required"`
}

// EvaluationReport is produced once per session by the evaluator model.
type EvaluationReport struct {
	OverallScore       int             `json:"overallScore" bson:"overall_score" validate:"min=0,max=100"`
	Strengths          []string        `json:"strengths" bson:"strengths" validate:"required,min=1"`
	Improvements       []string        `json:"improvements" bson:"improvements" validate:"required,min=1"`
	QuestionScores     []QuestionScore `json:"questionScores" bson:"question_scores" validate:"required,min=1,dive"`
	SuggestedResources []string        `json:"suggestedResources" bson:"suggested_resources"`
}

// SessionState is the read-only projection returned by GetState.
type SessionState struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId,omitempty"`
	Config          InterviewConfig   `json:"config"`
	CurrentQuestion int               `json:"currentQuestion"`
	Phase           Phase             `json:"phase"`
	Ended           bool              `json:"ended"`
	MessageCount    int               `json:"messageCount"`
	CreatedAt       time.Time         `json:"createdAt"`
	LastActivity    time.Time         `json:"lastActivity"`
	Report          *EvaluationReport `json:"report,omitempty"`
}
