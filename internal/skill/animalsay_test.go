package skill

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
	"github.com/hammamikhairi/animalsay/internal/soundindex"
)

// fakeLocale renders dialogs as "name animal=x sound=y" so tests can assert
// on the dialog and its data.
type fakeLocale struct {
	tables map[string]map[string]string
}

func (f *fakeLocale) NamedValues(name string) map[string]string {
	out := map[string]string{}
	for k, v := range f.tables[name] {
		out[k] = v
	}
	return out
}

func (f *fakeLocale) Dialog(name string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{name}
	for _, k := range keys {
		parts = append(parts, k+"="+data[k])
	}
	return strings.Join(parts, " ")
}

// fakeSpeaker records the order of Speak and WaitWhileSpeaking calls.
type fakeSpeaker struct {
	calls   []string
	waitErr error
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.calls = append(f.calls, "speak:"+text)
	return nil
}

func (f *fakeSpeaker) WaitWhileSpeaking(ctx context.Context) error {
	f.calls = append(f.calls, "wait")
	return f.waitErr
}

type fakeAudio struct {
	played []string
	err    error
	panics bool
}

func (f *fakeAudio) Play(ctx context.Context, path string) error {
	if f.panics {
		panic("audio backend exploded")
	}
	f.played = append(f.played, path)
	return f.err
}

type harness struct {
	skill   *Skill
	speaker *fakeSpeaker
	audio   *fakeAudio
	logs    *bytes.Buffer
	dir     string
}

func newHarness(t *testing.T, files ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("RIFF"), 0o644))
	}

	logs := &bytes.Buffer{}
	log := logger.New(logger.LevelNormal, logs)
	loc := &fakeLocale{tables: map[string]map[string]string{
		TableAlias:   {"cat": "feline", "kitty": "feline", "dog": "canine", "ghost": "spirit"},
		TableImitate: {"feline": "meow", "canine": "woof"},
		TableSound:   {"feline": "cat_snd", "canine": "dog_snd"},
	}}
	h := &harness{
		speaker: &fakeSpeaker{},
		audio:   &fakeAudio{},
		logs:    logs,
		dir:     dir,
	}
	idx := soundindex.Build(dir, log)
	h.skill = New(idx, loc, h.speaker, h.audio, log, WithRand(rand.New(rand.NewSource(7))))
	return h
}

func TestWhatDoesItSay(t *testing.T) {
	tests := []struct {
		animal string
		want   string
	}{
		{"cat", "animal.says animal=feline sound=meow"},
		{"Kitty", "animal.says animal=feline sound=meow"},
		{"dragon", "unknown.animal animal=dragon"},
		{"ghost", "unknown.animal animal=ghost"}, // alias hit, no phrase
	}

	for _, tt := range tests {
		t.Run(tt.animal, func(t *testing.T) {
			h := newHarness(t)
			h.skill.HandleWhatDoesItSay(context.Background(), tt.animal)
			assert.Equal(t, []string{"speak:" + tt.want}, h.speaker.calls)
			assert.Empty(t, h.audio.played)
			assert.NotContains(t, h.logs.String(), "[ERR]")
		})
	}
}

func TestImitateAnimalPlaysAfterLeadIn(t *testing.T) {
	h := newHarness(t, "cat_snd-1.wav")
	h.skill.HandleImitateAnimal(context.Background(), "cat")

	assert.Equal(t, []string{"speak:animal.sounds.like animal=feline", "wait"}, h.speaker.calls)
	assert.Equal(t, []string{filepath.Join(h.dir, "cat_snd-1.wav")}, h.audio.played)
}

func TestImitateUnknownAnimal(t *testing.T) {
	h := newHarness(t, "cat_snd-1.wav")
	h.skill.HandleImitateAnimal(context.Background(), "dragon")
	h.skill.HandleImitateAnimal(context.Background(), "ghost") // alias hit, no sound code

	assert.Equal(t, []string{
		"speak:unknown.animal animal=dragon",
		"speak:unknown.animal animal=ghost",
	}, h.speaker.calls)
	assert.Empty(t, h.audio.played)
	assert.NotContains(t, h.logs.String(), "[ERR]")
}

func TestImitateWithoutSoundFilesLogsAndContinues(t *testing.T) {
	h := newHarness(t) // empty index for "cat_snd"

	assert.NotPanics(t, func() {
		h.skill.HandleImitateAnimal(context.Background(), "cat")
	})

	assert.Equal(t, []string{"speak:animal.sounds.like animal=feline", "wait"}, h.speaker.calls)
	assert.Empty(t, h.audio.played)
	assert.Contains(t, h.logs.String(), "[ERR]")
	assert.Contains(t, h.logs.String(), "no sound files")
}

func TestImitatePlaybackFailuresAreSwallowed(t *testing.T) {
	t.Run("play error", func(t *testing.T) {
		h := newHarness(t, "cat_snd-1.wav")
		h.audio.err = errors.New("device busy")
		h.skill.HandleImitateAnimal(context.Background(), "cat")
		assert.Contains(t, h.logs.String(), "playback failed")
		assert.Contains(t, h.logs.String(), "device busy")
	})

	t.Run("panic", func(t *testing.T) {
		h := newHarness(t, "cat_snd-1.wav")
		h.audio.panics = true
		assert.NotPanics(t, func() {
			h.skill.HandleImitateAnimal(context.Background(), "cat")
		})
		assert.Contains(t, h.logs.String(), "audio backend exploded")
	})

	t.Run("wait cancelled", func(t *testing.T) {
		h := newHarness(t, "cat_snd-1.wav")
		h.speaker.waitErr = context.Canceled
		h.skill.HandleImitateAnimal(context.Background(), "cat")
		assert.Empty(t, h.audio.played)
		assert.Contains(t, h.logs.String(), "waiting for speech")
	})
}

func TestImitateSamplesAllFiles(t *testing.T) {
	h := newHarness(t, "cat_snd-1.wav", "cat_snd-2.wav", "cat_snd-3.wav")
	for i := 0; i < 300; i++ {
		h.skill.HandleImitateAnimal(context.Background(), "cat")
	}

	seen := map[string]bool{}
	for _, p := range h.audio.played {
		seen[p] = true
	}
	assert.Len(t, seen, 3)
}

func TestHandleDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("routes by intent", func(t *testing.T) {
		h := newHarness(t, "dog_snd-1.wav")
		require.NoError(t, h.skill.Handle(ctx, &domain.Intent{
			Type:  domain.IntentWhatDoesItSay,
			Slots: map[string]string{domain.SlotAnimal: "dog"},
		}))
		require.NoError(t, h.skill.Handle(ctx, &domain.Intent{
			Type:  domain.IntentImitateAnimal,
			Slots: map[string]string{domain.SlotAnimal: "dog"},
		}))
		assert.Equal(t, []string{
			"speak:animal.says animal=canine sound=woof",
			"speak:animal.sounds.like animal=canine",
			"wait",
		}, h.speaker.calls)
		assert.Len(t, h.audio.played, 1)
	})

	t.Run("missing slot", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.skill.Handle(ctx, &domain.Intent{
			Type:      domain.IntentImitateAnimal,
			Utterance: "imitate",
		}))
		assert.Equal(t, []string{"speak:unknown.animal animal=imitate"}, h.speaker.calls)
	})

	t.Run("help and unknown", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.skill.Handle(ctx, &domain.Intent{Type: domain.IntentHelp}))
		require.NoError(t, h.skill.Handle(ctx, &domain.Intent{Type: domain.IntentUnknown, Utterance: "sing"}))
		assert.Equal(t, []string{"speak:help", "speak:not.understood"}, h.speaker.calls)
	})

	t.Run("quit is not handled", func(t *testing.T) {
		h := newHarness(t)
		err := h.skill.Handle(ctx, &domain.Intent{Type: domain.IntentQuit})
		assert.True(t, errors.Is(err, domain.ErrUnhandledIntent))
	})
}
