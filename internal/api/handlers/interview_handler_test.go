package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const testSessionID = "3f1c2b8e-7a4d-4c1e-9b2f-5d6e7f8a9b0c"

type fakeInterviews struct {
	states    map[string]*models.SessionState
	startCfg  models.InterviewConfig
	startUser string
	sent      string
	endErr    error
	report    *models.EvaluationReport
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{
		states: map[string]*models.SessionState{testSessionID: {ID: testSessionID}},
		report: &models.EvaluationReport{OverallScore: 77, QuestionScores: []models.QuestionScore{{Question: "q", Score: 8, Feedback: "f"}}},
	}
}

func greeting(q int) *models.InterviewerTurn {
	return &models.InterviewerTurn{
		Messages: []models.InterviewerMessage{{Text: "Hi", FacialExpression: "smile", Animation: "Talking", Emotion: "friendly"}},
		Metadata: models.TurnMetadata{QuestionNumber: q, TotalQuestions: 8, Phase: models.PhaseGreeting},
	}
}

func (f *fakeInterviews) Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*services.StartResult, error) {
	f.startCfg, f.startUser = cfg, userID
	return &services.StartResult{SessionID: testSessionID, Turn: greeting(0)}, nil
}

func (f *fakeInterviews) SendMessage(ctx context.Context, id, text string) (*models.InterviewerTurn, error) {
	f.sent = text
	return greeting(1), nil
}

func (f *fakeInterviews) End(ctx context.Context, id string) (*models.EvaluationReport, error) {
	if f.endErr != nil {
		return nil, f.endErr
	}
	return f.report, nil
}

func (f *fakeInterviews) GetState(ctx context.Context, id string) (*models.SessionState, error) {
	if st, ok := f.states[id]; ok {
		return st, nil
	}
	return nil, utils.E(utils.CodeNotFound, "fake", "interview session not found", utils.ErrNotFound)
}

func (f *fakeInterviews) GetReport(ctx context.Context, id, userID string) (*models.EvaluationReport, error) {
	if st, ok := f.states[id]; ok && st.UserID != "" && st.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, "fake", "forbidden", nil)
	}
	return f.report, nil
}

type fakeVoice struct{ got []byte }

func (v *fakeVoice) Answer(ctx context.Context, id string, audio []byte) (*services.VoiceAnswer, error) {
	v.got = audio
	return &services.VoiceAnswer{Transcript: "hello there", Confidence: 0.8, Turn: greeting(1)}, nil
}

func newTestRouter(h *InterviewHandler, user string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != "" {
			c.Set("user_id", user)
		}
		c.Next()
	})
	g := r.Group("/api/interview")
	g.POST("/start", h.Start)
	g.POST("/message", h.Message)
	g.POST("/end", h.End)
	g.GET("/:id", h.Get)
	g.GET("/:id/report", h.Report)
	g.POST("/:id/voice", h.Voice)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestInterviewHandler_Start(t *testing.T) {
	svc := newFakeInterviews()
	r := newTestRouter(NewInterviewHandler(svc, nil), "user-1")

	w := doJSON(r, http.MethodPost, "/api/interview/start", gin.H{
		"role": "Backend Dev", "type": "technical", "difficulty": "mid",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testSessionID, resp.SessionID)
	assert.Equal(t, 0, resp.Response.Metadata.QuestionNumber)
	assert.Equal(t, "user-1", svc.startUser)
	assert.Equal(t, models.LanguageEnglish, svc.startCfg.Language)
	assert.Equal(t, models.PersonaFriendly, svc.startCfg.Persona)
	assert.Equal(t, 8, svc.startCfg.TotalQuestions)
}

func TestInterviewHandler_StartValidation(t *testing.T) {
	r := newTestRouter(NewInterviewHandler(newFakeInterviews(), nil), "")

	cases := map[string]gin.H{
		"missing role":   {"type": "technical", "difficulty": "mid"},
		"bad type":       {"role": "Dev", "type": "quiz", "difficulty": "mid"},
		"bad difficulty": {"role": "Dev", "type": "mixed", "difficulty": "lead"},
		"bad language":   {"role": "Dev", "type": "mixed", "difficulty": "mid", "language": "de"},
		"too many":       {"role": "Dev", "type": "mixed", "difficulty": "mid", "totalQuestions": 20},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/interview/start", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, utils.CodeInvalidArgument, decodeError(t, w).Code)
		})
	}
}

func TestInterviewHandler_Message(t *testing.T) {
	svc := newFakeInterviews()
	r := newTestRouter(NewInterviewHandler(svc, nil), "")

	w := doJSON(r, http.MethodPost, "/api/interview/message", gin.H{"sessionId": testSessionID, "message": "I have 3 years of experience"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "I have 3 years of experience", svc.sent)

	w = doJSON(r, http.MethodPost, "/api/interview/message", gin.H{"sessionId": "not-a-uuid", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/interview/message", gin.H{"sessionId": "9b2f3f1c-7a4d-4c1e-9b2f-5d6e7f8a9b0c", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.CodeNotFound, decodeError(t, w).Code)
}

func TestInterviewHandler_EndMapsErrors(t *testing.T) {
	svc := newFakeInterviews()
	r := newTestRouter(NewInterviewHandler(svc, nil), "")

	w := doJSON(r, http.MethodPost, "/api/interview/end", gin.H{"sessionId": testSessionID})
	require.Equal(t, http.StatusOK, w.Code)
	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 77, resp.Report.OverallScore)

	for code, status := range map[utils.Code]int{
		utils.CodeInvalidState:  http.StatusConflict,
		utils.CodeUnavailable:   http.StatusServiceUnavailable,
		utils.CodeInvalidFormat: http.StatusBadGateway,
		utils.CodeTimeout:       http.StatusGatewayTimeout,
	} {
		svc.endErr = utils.E(code, "InterviewService.End", "failed", nil)
		w := doJSON(r, http.MethodPost, "/api/interview/end", gin.H{"sessionId": testSessionID})
		assert.Equal(t, status, w.Code, string(code))
		assert.Equal(t, code, decodeError(t, w).Code)
	}
}

func TestInterviewHandler_OwnershipEnforced(t *testing.T) {
	svc := newFakeInterviews()
	svc.states[testSessionID].UserID = "owner"

	other := newTestRouter(NewInterviewHandler(svc, nil), "intruder")
	w := doJSON(other, http.MethodGet, "/api/interview/"+testSessionID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(other, http.MethodPost, "/api/interview/message", gin.H{"sessionId": testSessionID, "message": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.sent)

	w = doJSON(other, http.MethodGet, "/api/interview/"+testSessionID+"/report", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	owner := newTestRouter(NewInterviewHandler(svc, nil), "owner")
	w = doJSON(owner, http.MethodGet, "/api/interview/"+testSessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(owner, http.MethodGet, "/api/interview/"+testSessionID+"/report", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInterviewHandler_GetAndReport(t *testing.T) {
	r := newTestRouter(NewInterviewHandler(newFakeInterviews(), nil), "")

	w := doJSON(r, http.MethodGet, "/api/interview/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/interview/"+testSessionID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testSessionID, resp.SessionID)
	assert.Equal(t, 77, resp.Report.OverallScore)
}

func TestInterviewHandler_Voice(t *testing.T) {
	disabled := newTestRouter(NewInterviewHandler(newFakeInterviews(), nil), "")
	req := httptest.NewRequest(http.MethodPost, "/api/interview/"+testSessionID+"/voice", bytes.NewReader([]byte{1, 2}))
	w := httptest.NewRecorder()
	disabled.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	voice := &fakeVoice{}
	r := newTestRouter(NewInterviewHandler(newFakeInterviews(), voice), "")

	req = httptest.NewRequest(http.MethodPost, "/api/interview/"+testSessionID+"/voice", bytes.NewReader([]byte{1, 2, 3}))
	req.Header.Set("Content-Type", "application/octet-stream")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []byte{1, 2, 3}, voice.got)
	assert.Contains(t, w.Body.String(), `"transcript":"hello there"`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "answer.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte{9, 8, 7, 6})
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/api/interview/"+testSessionID+"/voice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []byte{9, 8, 7, 6}, voice.got)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/health", NewHealthHandler(func() int { return 3 }, func() int { return 1 }).Health)

	w := doJSON(r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["activeSessions"])
	assert.EqualValues(t, 1, body["pendingLLM"])
}
