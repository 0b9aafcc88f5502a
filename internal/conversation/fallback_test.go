package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

type stubParser struct {
	intent *domain.Intent
	err    error
	calls  int
}

func (s *stubParser) Parse(_ context.Context, input string) (*domain.Intent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.intent
	out.Utterance = input
	return &out, nil
}

func TestFallbackParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	ctx := context.Background()
	unknown := &domain.Intent{Type: domain.IntentUnknown}
	imitate := &domain.Intent{Type: domain.IntentImitateAnimal, Slots: map[string]string{"animal": "dog"}}

	t.Run("primary match skips fallback", func(t *testing.T) {
		fb := &stubParser{intent: unknown}
		p := NewFallbackParser(&stubParser{intent: imitate}, fb, log)
		got, err := p.Parse(ctx, "imitate a dog")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentImitateAnimal, got.Type)
		assert.Zero(t, fb.calls)
	})

	t.Run("unknown goes to fallback", func(t *testing.T) {
		p := NewFallbackParser(&stubParser{intent: unknown}, &stubParser{intent: imitate}, log)
		got, err := p.Parse(ctx, "bark for me")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentImitateAnimal, got.Type)
		assert.Equal(t, "bark for me", got.Utterance)
	})

	t.Run("fallback error keeps unknown", func(t *testing.T) {
		p := NewFallbackParser(&stubParser{intent: unknown}, &stubParser{err: errors.New("offline")}, log)
		got, err := p.Parse(ctx, "bark for me")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentUnknown, got.Type)
	})

	t.Run("blank input never reaches fallback", func(t *testing.T) {
		fb := &stubParser{intent: imitate}
		p := NewFallbackParser(&stubParser{intent: unknown}, fb, log)
		_, err := p.Parse(ctx, "  ")
		require.NoError(t, err)
		assert.Zero(t, fb.calls)
	})
}
