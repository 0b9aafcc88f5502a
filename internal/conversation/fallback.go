package conversation

import (
	"context"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*FallbackParser)(nil)

// FallbackParser asks a second parser when the first one returns
// IntentUnknown. Errors from the fallback are logged and the unknown
// intent is kept.
type FallbackParser struct {
	primary  domain.IntentParser
	fallback domain.IntentParser
	log      *logger.Logger
}

// NewFallbackParser chains primary and fallback.
func NewFallbackParser(primary, fallback domain.IntentParser, log *logger.Logger) *FallbackParser {
	return &FallbackParser{primary: primary, fallback: fallback, log: log}
}

// Parse implements domain.IntentParser.
func (p *FallbackParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	intent, err := p.primary.Parse(ctx, input)
	if err != nil || intent.Type != domain.IntentUnknown || strings.TrimSpace(input) == "" {
		return intent, err
	}

	alt, err := p.fallback.Parse(ctx, input)
	if err != nil {
		p.log.Error("fallback parser: %v", err)
		return intent, nil
	}
	if alt.Type != domain.IntentUnknown {
		p.log.Info("fallback classified %q -> %s", input, alt.Type)
	}
	return alt, nil
}
