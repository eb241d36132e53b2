// Package schema turns raw model output into validated interview values.
//
// Phase is validated strictly. Facial expression, animation and emotion are
// parsed with a default: the model drifts on these cosmetic fields, so an
// unknown or missing value folds to the field default instead of failing the
// whole turn.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yoockh/yoointerview/internal/models"
)

// ErrInvalidFormat marks model output that cannot be parsed or validated.
// It is never transient; retrying the same conversation will not fix it.
var ErrInvalidFormat = errors.New("invalid-format")

// FormatError carries the reason a payload was rejected.
type FormatError struct {
	Target string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %s", e.Target, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

const (
	DefaultExpression = "default"
	DefaultAnimation  = "Talking"
	DefaultEmotion    = "neutral"
)

var (
	FacialExpressions = []string{
		"default", "smile", "sad", "angry", "surprised",
		"thinking", "serious", "curious", "friendly", "concerned",
		"encouraging", "neutral", "happy", "empathetic",
	}
	Animations = []string{
		"Idle", "Talking", "Nodding", "HeadShake",
		"ThumbsUp", "Waving", "Thinking",
	}
	Emotions = []string{
		"neutral", "happy", "empathetic", "encouraging",
		"serious", "curious", "friendly", "concerned",
	}
)

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// StripCodeFence removes a markdown code fence around a JSON payload, if any.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func coerce(allowed []string, fallback, v string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a
		}
	}
	return fallback
}

func CoerceExpression(v string) string { return coerce(FacialExpressions, DefaultExpression, v) }
func CoerceAnimation(v string) string  { return coerce(Animations, DefaultAnimation, v) }
func CoerceEmotion(v string) string    { return coerce(Emotions, DefaultEmotion, v) }

// ParseInterviewerTurn parses and validates one interviewer reply.
func ParseInterviewerTurn(raw string) (*models.InterviewerTurn, error) {
	var turn models.InterviewerTurn
	if err := decodeStrict(raw, "interviewer turn", &turn, "messages", "metadata"); err != nil {
		return nil, err
	}
	if err := requireNested(raw, "interviewer turn", "metadata", "questionNumber", "totalQuestions", "phase"); err != nil {
		return nil, err
	}
	for i := range turn.Messages {
		m := &turn.Messages[i]
		m.FacialExpression = CoerceExpression(m.FacialExpression)
		m.Animation = CoerceAnimation(m.Animation)
		m.Emotion = CoerceEmotion(m.Emotion)
	}
	if err := validate.Struct(&turn); err != nil {
		return nil, &FormatError{Target: "interviewer turn", Reason: err.Error()}
	}
	return &turn, nil
}

type rawReport struct {
	OverallScore       *float64               `json:"overallScore"`
	Strengths          []string               `json:"strengths"`
	Improvements       []string               `json:"improvements"`
	QuestionScores     []models.QuestionScore `json:"questionScores"`
	SuggestedResources []string               `json:"suggestedResources"`
}

// ParseEvaluationReport parses and validates the evaluator's report.
func ParseEvaluationReport(raw string) (*models.EvaluationReport, error) {
	var r rawReport
	if err := decodeStrict(raw, "evaluation report", &r, "overallScore", "strengths", "improvements", "questionScores"); err != nil {
		return nil, err
	}
	if r.OverallScore == nil || math.IsNaN(*r.OverallScore) || *r.OverallScore < 0 || *r.OverallScore > 100 {
		return nil, &FormatError{Target: "evaluation report", Reason: "overallScore must be a number in [0,100]"}
	}
	report := &models.EvaluationReport{
		OverallScore:       int(math.Round(*r.OverallScore)),
		Strengths:          r.Strengths,
		Improvements:       r.Improvements,
		QuestionScores:     r.QuestionScores,
		SuggestedResources: r.SuggestedResources,
	}
	if report.SuggestedResources == nil {
		report.SuggestedResources = []string{}
	}
	if err := validate.Struct(report); err != nil {
		return nil, &FormatError{Target: "evaluation report", Reason: err.Error()}
	}
	return report, nil
}

// requireNested checks that the object under key holds every required field.
// A zero value that decodes silently is not the same as a present one.
func requireNested(raw, target, key string, required ...string) error {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &outer); err != nil {
		return &FormatError{Target: target, Reason: "not a JSON object: " + err.Error()}
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(outer[key], &inner); err != nil || inner == nil {
		return &FormatError{Target: target, Reason: key + " must be an object"}
	}
	for _, k := range required {
		v, ok := inner[k]
		if !ok || string(v) == "null" {
			return &FormatError{Target: target, Reason: "missing field " + key + "." + k}
		}
	}
	return nil
}

// decodeStrict unmarshals into dst after checking the payload is a JSON
// object holding every required key.
func decodeStrict(raw, target string, dst any, required ...string) error {
	body := StripCodeFence(raw)
	if body == "" {
		return &FormatError{Target: target, Reason: "empty response"}
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return &FormatError{Target: target, Reason: "not a JSON object: " + err.Error()}
	}
	for _, k := range required {
		v, ok := generic[k]
		if !ok || string(v) == "null" {
			return &FormatError{Target: target, Reason: "missing field " + k}
		}
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return &FormatError{Target: target, Reason: err.Error()}
	}
	return nil
}
