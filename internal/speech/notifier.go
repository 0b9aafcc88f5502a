package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*SpeakingPrinter)(nil)

// SpeakingPrinter prints each line through a text speaker and also queues
// it on the Mouth. Waiting follows the Mouth.
type SpeakingPrinter struct {
	text  domain.Speaker
	mouth *Mouth
	log   *logger.Logger
}

// NewSpeakingPrinter creates a speaker that both prints and speaks.
func NewSpeakingPrinter(text domain.Speaker, mouth *Mouth, log *logger.Logger) *SpeakingPrinter {
	return &SpeakingPrinter{text: text, mouth: mouth, log: log}
}

// Speak prints the line, then queues the cleaned text for speech.
func (s *SpeakingPrinter) Speak(ctx context.Context, text string) error {
	if err := s.text.Speak(ctx, text); err != nil {
		return err
	}
	return s.mouth.Speak(ctx, cleanForSpeech(text))
}

// WaitWhileSpeaking waits for the Mouth.
func (s *SpeakingPrinter) WaitWhileSpeaking(ctx context.Context) error {
	return s.mouth.WaitWhileSpeaking(ctx)
}

var ansiCodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// cleanForSpeech strips terminal formatting that shouldn't be spoken.
func cleanForSpeech(msg string) string {
	return strings.TrimSpace(ansiCodes.ReplaceAllString(msg, ""))
}
