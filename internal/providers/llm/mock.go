package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

// Mock answers without network access. It walks through the interview
// phases one question per user turn and returns a fixed evaluation when the
// conversation is an evaluation request. Used for local development.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Close() error { return nil }

func (m *Mock) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Messages) > 0 && strings.HasPrefix(req.Messages[0].Content, "You are an expert interview evaluator") {
		return mockReport, nil
	}

	answered := 0
	for _, t := range req.Messages {
		if t.Role == models.RoleUser {
			answered++
		}
	}
	question := answered - 1
	phase := models.PhaseGreeting
	switch {
	case question == 0:
	case question <= 2:
		phase = models.PhaseWarmup
	case question <= 5:
		phase = models.PhaseTechnical
	case question <= 7:
		phase = models.PhaseBehavioral
	default:
		phase = models.PhaseClosing
	}

	text := "Hi, I'm Alex. Thanks for joining. Let's start with a quick introduction about yourself."
	if question > 0 {
		text = "Thanks for sharing. Can you walk me through a recent project you are proud of?"
	}
	turn := models.InterviewerTurn{
		Messages: []models.InterviewerMessage{{
			Text:             text,
			FacialExpression: "smile",
			Animation:        "Talking",
			Emotion:          "friendly",
		}},
		Metadata: models.TurnMetadata{
			QuestionNumber: question,
			TotalQuestions: models.DefaultTotalQuestions,
			Phase:          phase,
		},
	}
	b, err := json.Marshal(turn)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const mockReport = `{
  "overallScore": 72,
  "strengths": ["Clear communication"],
  "improvements": ["Quantify the impact of your work"],
  "questionScores": [
    {"question": "Tell me about yourself", "answer": "Summary of background", "score": 7, "feedback": "Good structure, add concrete results."}
  ],
  "suggestedResources": ["Cracking the Coding Interview"]
}`
