package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

type InterviewHandler struct {
	svc   services.InterviewService
	voice services.VoiceService
}

// NewInterviewHandler builds the handler. voice may be nil when speech
// recognition is disabled.
func NewInterviewHandler(svc services.InterviewService, voice services.VoiceService) *InterviewHandler {
	return &InterviewHandler{svc: svc, voice: voice}
}

type StartInterviewRequest struct {
	Role           string `json:"role" binding:"required,min=2,max=200"`
	Type           string `json:"type" binding:"required,oneof=technical behavioral mixed"`
	Difficulty     string `json:"difficulty" binding:"required,oneof=junior mid senior"`
	Language       string `json:"language" binding:"omitempty,oneof=en es"`
	Persona        string `json:"persona" binding:"omitempty,oneof=friendly strict casual"`
	TotalQuestions int    `json:"totalQuestions" binding:"omitempty,min=5,max=15"`
	ResumeText     string `json:"resumeText" binding:"max=10000"`
	JobDescription string `json:"jobDescription" binding:"max=10000"`
}

func (r StartInterviewRequest) config() models.InterviewConfig {
	return models.InterviewConfig{
		Role:           r.Role,
		Type:           models.InterviewType(r.Type),
		Difficulty:     models.Difficulty(r.Difficulty),
		Language:       models.Language(r.Language),
		Persona:        models.Persona(r.Persona),
		TotalQuestions: r.TotalQuestions,
		ResumeText:     r.ResumeText,
		JobDescription: r.JobDescription,
	}.WithDefaults()
}

type SendMessageRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	Message   string `json:"message" binding:"required,min=1,max=5000"`
}

type EndInterviewRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
}

type TurnResponse struct {
	SessionID string                  `json:"sessionId"`
	Response  *models.InterviewerTurn `json:"response"`
}

type ReportResponse struct {
	SessionID string                   `json:"sessionId"`
	Report    *models.EvaluationReport `json:"report"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	res, err := h.svc.Start(c.Request.Context(), userID(c), req.config())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, TurnResponse{SessionID: res.SessionID, Response: res.Turn})
}

func (h *InterviewHandler) Message(c *gin.Context) {
	const op = "InterviewHandler.Message"

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if !h.authorize(c, op, req.SessionID) {
		return
	}

	turn, err := h.svc.SendMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TurnResponse{SessionID: req.SessionID, Response: turn})
}

func (h *InterviewHandler) End(c *gin.Context) {
	const op = "InterviewHandler.End"

	var req EndInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if !h.authorize(c, op, req.SessionID) {
		return
	}

	report, err := h.svc.End(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReportResponse{SessionID: req.SessionID, Report: report})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	const op = "InterviewHandler.Get"

	id, ok := sessionIDParam(c, op)
	if !ok {
		return
	}
	st, err := h.svc.GetState(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeSession(c, op, st) {
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *InterviewHandler) Report(c *gin.Context) {
	const op = "InterviewHandler.Report"

	id, ok := sessionIDParam(c, op)
	if !ok {
		return
	}
	report, err := h.svc.GetReport(c.Request.Context(), id, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReportResponse{SessionID: id, Report: report})
}

// Voice accepts a LINEAR16 16kHz clip, either as the "audio" multipart field
// or as the raw request body.
func (h *InterviewHandler) Voice(c *gin.Context) {
	const op = "InterviewHandler.Voice"

	if h.voice == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "voice answers are disabled", nil))
		return
	}
	id, ok := sessionIDParam(c, op)
	if !ok || !h.authorize(c, op, id) {
		return
	}

	audio, err := readAudio(c)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio", err))
		return
	}

	res, err := h.voice.Answer(c.Request.Context(), id, audio)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId":  id,
		"transcript": res.Transcript,
		"confidence": res.Confidence,
		"response":   res.Turn,
	})
}

func (h *InterviewHandler) authorize(c *gin.Context, op, sessionID string) bool {
	st, err := h.svc.GetState(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return false
	}
	return authorizeSession(c, op, st)
}

func readAudio(c *gin.Context) ([]byte, error) {
	limit := int64(services.MaxVoiceClipBytes) + 1
	if fh, err := c.FormFile("audio"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, limit))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, limit))
}
