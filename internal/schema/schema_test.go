package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
)

const validTurn = `{
  "messages": [
    {"text": "Hello! Tell me about yourself.", "facialExpression": "smile", "animation": "Talking", "emotion": "friendly"}
  ],
  "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": "greeting"}
}`

func TestParseInterviewerTurn_Valid(t *testing.T) {
	turn, err := ParseInterviewerTurn(validTurn)
	require.NoError(t, err)
	require.Len(t, turn.Messages, 1)
	assert.Equal(t, "Hello! Tell me about yourself.", turn.Messages[0].Text)
	assert.Equal(t, "smile", turn.Messages[0].FacialExpression)
	assert.Equal(t, 0, turn.Metadata.QuestionNumber)
	assert.Equal(t, models.PhaseGreeting, turn.Metadata.Phase)
	assert.Nil(t, turn.Metadata.ScoreHint)
}

func TestParseInterviewerTurn_RejectsUnrelatedObject(t *testing.T) {
	_, err := ParseInterviewerTurn(`{"invalid": true}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFormat))

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "interviewer turn", fe.Target)
}

func TestParseInterviewerTurn_FencedEqualsUnfenced(t *testing.T) {
	plain, err := ParseInterviewerTurn(validTurn)
	require.NoError(t, err)

	for _, fenced := range []string{
		"```json\n" + validTurn + "\n```",
		"```\n" + validTurn + "\n```",
		"Here you go:\n```json\n" + validTurn + "\n```\n",
	} {
		got, err := ParseInterviewerTurn(fenced)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestParseInterviewerTurn_CoercesCosmeticEnums(t *testing.T) {
	raw := `{
	  "messages": [
	    {"text": "Hi", "facialExpression": "ecstatic", "animation": "talking", "emotion": "FRIENDLY"},
	    {"text": "Next"}
	  ],
	  "metadata": {"questionNumber": 1, "totalQuestions": 8, "phase": "warmup", "scoreHint": 6.5}
	}`
	turn, err := ParseInterviewerTurn(raw)
	require.NoError(t, err)

	assert.Equal(t, DefaultExpression, turn.Messages[0].FacialExpression)
	assert.Equal(t, "Talking", turn.Messages[0].Animation)
	assert.Equal(t, "friendly", turn.Messages[0].Emotion)

	assert.Equal(t, DefaultExpression, turn.Messages[1].FacialExpression)
	assert.Equal(t, DefaultAnimation, turn.Messages[1].Animation)
	assert.Equal(t, DefaultEmotion, turn.Messages[1].Emotion)

	require.NotNil(t, turn.Metadata.ScoreHint)
	assert.InDelta(t, 6.5, *turn.Metadata.ScoreHint, 1e-9)
}

func TestParseInterviewerTurn_RejectsStructuralProblems(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "Sure! Let's begin.",
		"array":          `[1,2,3]`,
		"no messages":    `{"messages": [], "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": "greeting"}}`,
		"empty text":     `{"messages": [{"text": ""}], "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": "greeting"}}`,
		"unknown phase":  `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": "lunch"}}`,
		"negative count": `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": -1, "totalQuestions": 8, "phase": "warmup"}}`,
		"zero total":     `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": 0, "totalQuestions": 0, "phase": "warmup"}}`,
		"hint too high":  `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": "warmup", "scoreHint": 11}}`,
		"null metadata":  `{"messages": [{"text": "hi"}], "metadata": null}`,
		"no question":    `{"messages": [{"text": "hi"}], "metadata": {"totalQuestions": 8, "phase": "warmup"}}`,
		"no total":       `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": 0, "phase": "warmup"}}`,
		"null phase":     `{"messages": [{"text": "hi"}], "metadata": {"questionNumber": 0, "totalQuestions": 8, "phase": null}}`,
		"metadata array": `{"messages": [{"text": "hi"}], "metadata": []}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInterviewerTurn(raw)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

const validReport = `{
  "overallScore": 72.4,
  "strengths": ["Clear communication"],
  "improvements": ["More concrete examples"],
  "questionScores": [
    {"question": "Tell me about yourself", "answer": "I build APIs", "score": 7, "feedback": "Good"}
  ],
  "suggestedResources": ["System Design Primer"]
}`

func TestParseEvaluationReport_Valid(t *testing.T) {
	r, err := ParseEvaluationReport("```json\n" + validReport + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 72, r.OverallScore)
	assert.Equal(t, []string{"Clear communication"}, r.Strengths)
	require.Len(t, r.QuestionScores, 1)
	assert.Equal(t, 7.0, r.QuestionScores[0].Score)
}

func TestParseEvaluationReport_DefaultsResources(t *testing.T) {
	raw := `{"overallScore": 50, "strengths": ["a"], "improvements": ["b"],
	  "questionScores": [{"question": "q", "answer": "a", "score": 5, "feedback": "f"}]}`
	r, err := ParseEvaluationReport(raw)
	require.NoError(t, err)
	assert.NotNil(t, r.SuggestedResources)
	assert.Empty(t, r.SuggestedResources)
}

func TestParseEvaluationReport_Rejects(t *testing.T) {
	q := `[{"question": "q", "answer": "a", "score": 5, "feedback": "f"}]`
	cases := map[string]string{
		"score too high":    `{"overallScore": 101, "strengths": ["a"], "improvements": ["b"], "questionScores": ` + q + `}`,
		"score negative":    `{"overallScore": -1, "strengths": ["a"], "improvements": ["b"], "questionScores": ` + q + `}`,
		"score string":      `{"overallScore": "80", "strengths": ["a"], "improvements": ["b"], "questionScores": ` + q + `}`,
		"missing scores":    `{"overallScore": 80, "strengths": ["a"], "improvements": ["b"]}`,
		"empty scores":      `{"overallScore": 80, "strengths": ["a"], "improvements": ["b"], "questionScores": []}`,
		"question score 0":  `{"overallScore": 80, "strengths": ["a"], "improvements": ["b"], "questionScores": [{"question": "q", "score": 0, "feedback": "f"}]}`,
		"question score 11": `{"overallScore": 80, "strengths": ["a"], "improvements": ["b"], "questionScores": [{"question": "q", "score": 11, "feedback": "f"}]}`,
		"no strengths":      `{"overallScore": 80, "strengths": [], "improvements": ["b"], "questionScores": ` + q + `}`,
		"interviewer turn":  validTurn,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvaluationReport(raw)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```{\"a\":1}```"))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, "thinking", CoerceExpression("Thinking"))
	assert.Equal(t, DefaultExpression, CoerceExpression("grinning"))
	assert.Equal(t, "HeadShake", CoerceAnimation(" headshake "))
	assert.Equal(t, DefaultAnimation, CoerceAnimation(""))
	assert.Equal(t, "empathetic", CoerceEmotion("Empathetic"))
	assert.Equal(t, DefaultEmotion, CoerceEmotion("melancholic"))
}
