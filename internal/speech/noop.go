package speech

import (
	"context"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.AudioService = (*NoOpAudio)(nil)

// NoOpAudio logs instead of playing. Used when no audio device is present
// or audio is disabled.
type NoOpAudio struct {
	log *logger.Logger
}

// NewNoOpAudio creates a silent audio service.
func NewNoOpAudio(log *logger.Logger) *NoOpAudio {
	return &NoOpAudio{log: log}
}

// Play only logs the request.
func (n *NoOpAudio) Play(ctx context.Context, path string) error {
	n.log.Info("audio disabled: would play %s", path)
	return nil
}
