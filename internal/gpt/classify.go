package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*Classifier)(nil)

// chatter is the part of Client the Classifier uses.
type chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Classifier asks the model which intent an utterance carries.
type Classifier struct {
	client chatter
	prompt string
	log    *logger.Logger
}

// NewClassifier creates a classifier that steers the model towards the
// given animal names.
func NewClassifier(client *Client, animals []string, log *logger.Logger) *Classifier {
	return newClassifier(client, animals, log)
}

func newClassifier(client chatter, animals []string, log *logger.Logger) *Classifier {
	return &Classifier{
		client: client,
		prompt: fmt.Sprintf(promptClassify, strings.Join(animals, ", ")),
		log:    log,
	}
}

type classifyResponse struct {
	Intent string `json:"intent"`
	Animal string `json:"animal"`
}

var intentNames = map[string]domain.IntentType{
	"what_does_it_say": domain.IntentWhatDoesItSay,
	"imitate_animal":   domain.IntentImitateAnimal,
	"help":             domain.IntentHelp,
	"quit":             domain.IntentQuit,
}

// Parse classifies input. A reply that cannot be decoded yields
// IntentUnknown rather than an error; transport failures are errors.
func (c *Classifier) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	raw, err := c.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: c.prompt},
		{Role: RoleUser, Content: input},
	})
	if err != nil {
		return nil, err
	}

	intent := &domain.Intent{Type: domain.IntentUnknown, Utterance: input}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		c.log.Warn("gpt: unparseable classification %q: %v", truncate(raw, 80), err)
		return intent, nil
	}

	t, ok := intentNames[strings.ToLower(strings.TrimSpace(resp.Intent))]
	if !ok {
		return intent, nil
	}
	intent.Type = t
	if animal := strings.ToLower(strings.TrimSpace(resp.Animal)); animal != "" {
		intent.Slots = map[string]string{domain.SlotAnimal: animal}
	}
	c.log.Debug("gpt: classified %q -> %s (animal=%q)", input, t, resp.Animal)
	return intent, nil
}

// stripCodeFence removes ```json ... ``` wrappers models like to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
