// Package conversation turns typed or transcribed utterances into intents
// and prints the assistant's side of the conversation.
package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*TemplateParser)(nil)

// TemplateSource supplies intent template files, names in match order.
// locale.Bundle implements it.
type TemplateSource interface {
	Intents() ([]string, map[string][]string)
}

// TemplateParser matches utterances against compiled intent templates.
type TemplateParser struct {
	log   *logger.Logger
	rules []templateRule
}

type templateRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
	source string // "file:line" for logs
}

// NewTemplateParser compiles every line of every registered intent file.
// Unregistered files are skipped; a template that fails to compile is an
// error.
func NewTemplateParser(src TemplateSource, log *logger.Logger) (*TemplateParser, error) {
	p := &TemplateParser{log: log}

	names, files := src.Intents()
	for _, name := range names {
		intent, ok := domain.IntentFromFile(name)
		if !ok {
			log.Warn("intent file %s has no handler, skipped", name)
			continue
		}
		for i, line := range files[name] {
			re, err := compileTemplate(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, i+1, err)
			}
			p.rules = append(p.rules, templateRule{
				regex:  re,
				intent: intent,
				source: fmt.Sprintf("%s:%d", name, i+1),
			})
		}
	}

	log.Debug("intent parser: %d templates compiled", len(p.rules))
	return p, nil
}

// Parse returns the first matching intent. Slot values are trimmed and
// lower-cased. Input that matches nothing yields IntentUnknown.
func (p *TemplateParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.rules {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		slots := make(map[string]string)
		for i, name := range rule.regex.SubexpNames() {
			if name == "" || i >= len(m) {
				continue
			}
			slots[name] = normalizeSlot(m[i])
		}
		p.log.Debug("matched intent %s via %s, slots=%v", rule.intent, rule.source, slots)
		return &domain.Intent{Type: rule.intent, Utterance: trimmed, Slots: slots}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Utterance: trimmed}, nil
}

func normalizeSlot(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'?!.,`)
	return strings.Join(strings.Fields(s), " ")
}
