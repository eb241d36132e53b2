package stt

import (
	"context"
	"strings"
)

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// LanguageCode maps an interview language to the BCP-47 code the recognizer
// expects. Unknown values fall back to fallback.
func LanguageCode(lang, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "en-us":
		return "en-US"
	case "es", "es-es":
		return "es-ES"
	case "":
		if fallback == "" {
			return "en-US"
		}
		return fallback
	default:
		if strings.Contains(lang, "-") {
			return lang
		}
		if fallback == "" {
			return "en-US"
		}
		return fallback
	}
}
