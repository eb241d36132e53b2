package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/utils"
)

type fakeSTT struct {
	text     string
	conf     float64
	err      error
	language string
	calls    int
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	f.calls++
	f.language = language
	return f.text, f.conf, f.err
}

func (f *fakeSTT) Close() error { return nil }

func startVoiceSession(t *testing.T, cfg models.InterviewConfig) (InterviewService, string) {
	t.Helper()
	svc, _, _ := newTestService(t, &fakeLLM{})
	res, err := svc.Start(context.Background(), "", cfg)
	require.NoError(t, err)
	return svc, res.SessionID
}

func TestVoiceService_AnswerFeedsTranscript(t *testing.T) {
	cfg := backendDev
	cfg.Language = models.LanguageSpanish
	interviews, id := startVoiceSession(t, cfg)
	rec := &fakeSTT{text: "Tengo tres años de experiencia", conf: 0.91}

	out, err := NewVoiceService(interviews, rec, "en-US", nil).Answer(context.Background(), id, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "Tengo tres años de experiencia", out.Transcript)
	assert.InDelta(t, 0.91, out.Confidence, 1e-9)
	assert.Equal(t, 1, out.Turn.Metadata.QuestionNumber)
	assert.Equal(t, "es-ES", rec.language)
}

func TestVoiceService_RejectsBadAudio(t *testing.T) {
	interviews, id := startVoiceSession(t, backendDev)
	rec := &fakeSTT{text: "hi"}
	v := NewVoiceService(interviews, rec, "", nil)

	_, err := v.Answer(context.Background(), id, nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = v.Answer(context.Background(), id, make([]byte, MaxVoiceClipBytes+1))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.Zero(t, rec.calls)
}

func TestVoiceService_RecognitionErrors(t *testing.T) {
	interviews, id := startVoiceSession(t, backendDev)

	_, err := NewVoiceService(interviews, &fakeSTT{err: stt.ErrNoSpeech}, "", nil).Answer(context.Background(), id, []byte{1})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = NewVoiceService(interviews, &fakeSTT{err: errors.New("quota exceeded")}, "", nil).Answer(context.Background(), id, []byte{1})
	assert.True(t, utils.IsCode(err, utils.CodeUpstream))
}

func TestVoiceService_EndedOrMissingSession(t *testing.T) {
	interviews, id := startVoiceSession(t, backendDev)
	rec := &fakeSTT{text: "hello"}
	v := NewVoiceService(interviews, rec, "", nil)

	_, err := v.Answer(context.Background(), "missing", []byte{1})
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = interviews.End(context.Background(), id)
	require.NoError(t, err)
	_, err = v.Answer(context.Background(), id, []byte{1})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
	assert.Zero(t, rec.calls)
}
