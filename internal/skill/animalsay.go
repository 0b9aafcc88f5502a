// Package skill implements the animal-say skill: it tells the user what an
// animal says and plays recorded animal sounds.
package skill

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Named value tables.
const (
	TableAlias   = "animal.alias"
	TableImitate = "animal.imitate"
	TableSound   = "animal.sound"
)

// Dialog names.
const (
	DialogUnknownAnimal = "unknown.animal"
	DialogAnimalSays    = "animal.says"
	DialogSoundsLike    = "animal.sounds.like"
	DialogHelp          = "help"
	DialogNotUnderstood = "not.understood"
)

// SoundIndex is the read side of soundindex.Index used by the skill.
type SoundIndex interface {
	Pick(code string, rng *rand.Rand) (string, error)
}

// Option configures a Skill.
type Option func(*Skill)

// WithRand sets the source used to pick sound files.
func WithRand(r *rand.Rand) Option {
	return func(s *Skill) {
		s.rng = r
	}
}

// Skill answers the two animal intents. Handlers are not reentrant; the
// host dispatches one intent at a time.
type Skill struct {
	index   SoundIndex
	locale  domain.Localizer
	speaker domain.Speaker
	audio   domain.AudioService
	log     *logger.Logger
	rng     *rand.Rand

	handlers map[domain.IntentType]func(context.Context, string)
}

// New creates the skill around an already built sound index.
func New(index SoundIndex, loc domain.Localizer, speaker domain.Speaker, audio domain.AudioService, log *logger.Logger, opts ...Option) *Skill {
	s := &Skill{
		index:   index,
		locale:  loc,
		speaker: speaker,
		audio:   audio,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handlers = map[domain.IntentType]func(context.Context, string){
		domain.IntentWhatDoesItSay: s.HandleWhatDoesItSay,
		domain.IntentImitateAnimal: s.HandleImitateAnimal,
	}
	return s
}

// Handle routes a parsed intent to its handler. IntentQuit is left to the
// caller and reported as domain.ErrUnhandledIntent.
func (s *Skill) Handle(ctx context.Context, intent *domain.Intent) error {
	switch intent.Type {
	case domain.IntentHelp:
		s.speakDialog(ctx, DialogHelp, nil)
		return nil
	case domain.IntentUnknown:
		s.speakDialog(ctx, DialogNotUnderstood, nil)
		return nil
	}

	handler, ok := s.handlers[intent.Type]
	if !ok {
		return fmt.Errorf("%s: %w", intent.Type, domain.ErrUnhandledIntent)
	}

	animal, ok := intent.Slot(domain.SlotAnimal)
	if !ok {
		s.speakDialog(ctx, DialogUnknownAnimal, map[string]string{"animal": intent.Utterance})
		return nil
	}

	s.log.Debug("handling %s for %q", intent.Type, animal)
	handler(ctx, animal)
	return nil
}

// HandleWhatDoesItSay speaks the descriptive phrase for animal, or the
// unknown-animal dialog if the name or its phrase is not known.
func (s *Skill) HandleWhatDoesItSay(ctx context.Context, animal string) {
	canonical, ok := lookup(s.locale.NamedValues(TableAlias), animal)
	if !ok {
		s.unknown(ctx, animal)
		return
	}
	phrase, ok := lookup(s.locale.NamedValues(TableImitate), canonical)
	if !ok {
		s.unknown(ctx, animal)
		return
	}
	s.speakDialog(ctx, DialogAnimalSays, map[string]string{"animal": canonical, "sound": phrase})
}

// HandleImitateAnimal announces the animal, waits for the announcement to
// finish and plays a random recording for it. Failures after the name has
// been resolved are logged and dropped.
func (s *Skill) HandleImitateAnimal(ctx context.Context, animal string) {
	canonical, ok := lookup(s.locale.NamedValues(TableAlias), animal)
	if !ok {
		s.unknown(ctx, animal)
		return
	}
	code, ok := lookup(s.locale.NamedValues(TableSound), canonical)
	if !ok {
		s.unknown(ctx, animal)
		return
	}

	if err := s.imitate(ctx, canonical, code); err != nil {
		if errors.Is(err, domain.ErrNoSoundFiles) {
			s.log.Error("imitate %s: no sound files: %v", canonical, err)
		} else {
			s.log.Error("imitate %s: playback failed: %v", canonical, err)
		}
	}
}

// imitate runs the speak/wait/pick/play sequence, turning a panic into an
// error so nothing escapes to the host loop.
func (s *Skill) imitate(ctx context.Context, canonical, code string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	line := s.locale.Dialog(DialogSoundsLike, map[string]string{"animal": canonical})
	if err := s.speaker.Speak(ctx, line); err != nil {
		return fmt.Errorf("speaking lead-in: %w", err)
	}
	if err := s.speaker.WaitWhileSpeaking(ctx); err != nil {
		return fmt.Errorf("waiting for speech: %w", err)
	}

	path, err := s.index.Pick(code, s.rng)
	if err != nil {
		return err
	}
	s.log.Info("imitate %s: playing %s", canonical, path)
	if err := s.audio.Play(ctx, path); err != nil {
		return fmt.Errorf("playing %s: %w", path, err)
	}
	return nil
}

func (s *Skill) unknown(ctx context.Context, animal string) {
	s.log.Debug("unknown animal %q", animal)
	s.speakDialog(ctx, DialogUnknownAnimal, map[string]string{"animal": animal})
}

func (s *Skill) speakDialog(ctx context.Context, name string, data map[string]string) {
	if err := s.speaker.Speak(ctx, s.locale.Dialog(name, data)); err != nil {
		s.log.Error("speak %s: %v", name, err)
	}
}

// lookup is an explicit presence check on a lower-cased key; empty values
// count as missing.
func lookup(table map[string]string, key string) (string, bool) {
	v, ok := table[strings.ToLower(key)]
	return v, ok && v != ""
}
