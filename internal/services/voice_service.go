package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/utils"
)

// MaxVoiceClipBytes bounds a single spoken answer.
const MaxVoiceClipBytes = 10 << 20

type VoiceAnswer struct {
	Transcript string                  `json:"transcript"`
	Confidence float64                 `json:"confidence"`
	Turn       *models.InterviewerTurn `json:"turn"`
}

// VoiceService turns a recorded answer into a regular interview message.
type VoiceService interface {
	Answer(ctx context.Context, sessionID string, audio []byte) (*VoiceAnswer, error)
}

type voiceService struct {
	interviews InterviewService
	stt        stt.Provider
	fallback   string
	log        *logrus.Logger
}

func NewVoiceService(interviews InterviewService, provider stt.Provider, languageFallback string, log *logrus.Logger) VoiceService {
	if log == nil {
		log = logger.Discard()
	}
	return &voiceService{interviews: interviews, stt: provider, fallback: languageFallback, log: log}
}

func (s *voiceService) Answer(ctx context.Context, sessionID string, audio []byte) (*VoiceAnswer, error) {
	const op = "VoiceService.Answer"

	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if len(audio) > MaxVoiceClipBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio clip is too large", nil)
	}

	state, err := s.interviews.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Ended {
		return nil, utils.E(utils.CodeInvalidState, op, "interview session has already ended", nil)
	}

	text, conf, err := s.stt.Transcribe(ctx, audio, stt.LanguageCode(string(state.Config.Language), s.fallback))
	if err != nil {
		if errors.Is(err, stt.ErrNoSpeech) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "no speech detected in audio", err)
		}
		s.log.WithFields(logrus.Fields{"session_id": sessionID, "error": err.Error()}).Error("speech recognition failed")
		return nil, utils.E(utils.CodeUpstream, op, "speech recognition failed", err)
	}

	turn, err := s.interviews.SendMessage(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}
	return &VoiceAnswer{Transcript: text, Confidence: conf, Turn: turn}, nil
}
