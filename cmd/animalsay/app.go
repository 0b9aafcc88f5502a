package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/animalsay/internal/config"
	"github.com/hammamikhairi/animalsay/internal/conversation"
	"github.com/hammamikhairi/animalsay/internal/display"
	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/gpt"
	"github.com/hammamikhairi/animalsay/internal/locale"
	"github.com/hammamikhairi/animalsay/internal/logger"
	"github.com/hammamikhairi/animalsay/internal/skill"
	"github.com/hammamikhairi/animalsay/internal/soundindex"
	"github.com/hammamikhairi/animalsay/internal/speech"
	"github.com/hammamikhairi/animalsay/internal/wakeword"
)

// Host-side dialogs.
const (
	dialogWelcome = "welcome"
	dialogGoodbye = "goodbye"
)

// core is everything that does not touch audio hardware.
type core struct {
	index  *soundindex.Index
	locale *locale.Bundle
	parser domain.IntentParser
}

func buildCore(c *config.Config, log *logger.Logger) (*core, error) {
	index := soundindex.Build(c.SoundsDir, log.Named("index"), soundindex.WithExtensions(c.Extensions...))

	var overrides fs.FS
	if c.LocaleDir != "" {
		overrides = os.DirFS(c.LocaleDir)
	}
	loc, err := locale.LoadDefault(c.Lang, overrides, log.Named("locale"))
	if err != nil {
		return nil, err
	}

	templates, err := conversation.NewTemplateParser(loc, log.Named("parser"))
	if err != nil {
		return nil, fmt.Errorf("compiling intents: %w", err)
	}
	co := &core{index: index, locale: loc, parser: templates}

	key, endpoint := os.Getenv(gpt.EnvChatKey), os.Getenv(gpt.EnvChatEndpoint)
	switch {
	case !c.AI.Enabled:
	case key == "" || endpoint == "":
		log.Info("AI fallback disabled: set %s and %s env vars to enable", gpt.EnvChatKey, gpt.EnvChatEndpoint)
	default:
		client := gpt.NewClient(endpoint, key, log.Named("gpt"), gpt.WithModel(c.AI.Model))
		animals := slices.Sorted(maps.Keys(loc.NamedValues(skill.TableImitate)))
		co.parser = conversation.NewFallbackParser(templates, gpt.NewClassifier(client, animals, log.Named("gpt")), log)
		log.Info("AI fallback enabled")
	}
	return co, nil
}

// output is the speech and audio side of the app.
type output struct {
	speaker domain.Speaker
	audio   domain.AudioService
	mouth   *speech.Mouth       // nil without TTS
	sounds  *speech.SoundPlayer // nil without an audio device
	mode    string              // "azure" or "text"
}

// buildOutput opens the audio device and, when credentials are present,
// the Azure voice. Either may be missing; the app degrades to printing.
func buildOutput(ctx context.Context, c *config.Config, screen display.Screen, log *logger.Logger) *output {
	text := conversation.NewCLISpeaker(log, screen.PrintChat)
	out := &output{speaker: text, audio: speech.NewNoOpAudio(log), mode: "text"}

	player, err := speech.NewPlayer(c.Speech.SampleRate, log.Named("player"))
	if err != nil {
		log.Error("audio player init failed, sounds disabled: %v", err)
		return out
	}
	out.sounds = speech.NewSoundPlayer(player, log.Named("sound"))
	out.audio = out.sounds

	key := os.Getenv(speech.EnvAzureSpeechKey)
	region := os.Getenv(speech.EnvAzureSpeechRegion)
	switch {
	case !c.Speech.Enabled:
		return out
	case key == "" || region == "":
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		return out
	}

	tts := speech.NewAzureClient(key, region, log.Named("azure"),
		speech.WithVoice(c.Speech.Voice),
		speech.WithSampleRate(c.Speech.SampleRate),
	)
	cache := speech.NewAudioCache(tts.Voice(), c.Speech.CacheDir, c.Speech.DiskCache, 0, log.Named("cache"))
	out.mouth = speech.NewMouth(tts, player, log.Named("mouth"), speech.WithCache(cache))
	out.mouth.Start(ctx)
	out.speaker = speech.NewSpeakingPrinter(text, out.mouth, log)
	out.mode = "azure"
	log.Info("TTS enabled (voice=%s, region=%s, format=%s)", tts.Voice(), region, tts.Format())
	return out
}

// voiceInput is the part of *speech.Ear the host loop drives.
type voiceInput interface {
	C() <-chan string
	Mute()
	Unmute()
}

// app is the host loop: one utterance at a time, parsed and dispatched to
// the skill.
type app struct {
	core
	out    *output
	skill  *skill.Skill
	screen display.Screen
	ear    voiceInput // nil without voice input
	log    *logger.Logger

	// muteGen identifies the latest handled request, so only its
	// playback unmutes the ear.
	muteGen atomic.Int64
}

func newApp(co *core, out *output, screen display.Screen, log *logger.Logger) *app {
	return &app{
		core:   *co,
		out:    out,
		skill:  skill.New(co.index, co.locale, out.speaker, out.audio, log.Named("skill")),
		screen: screen,
		log:    log,
	}
}

// startVoice starts Whisper voice input, gated by an ONNX wake-word model
// when one is configured.
func (a *app) startVoice(ctx context.Context, c *config.Config) error {
	v := c.Voice
	if _, err := os.Stat(v.WhisperModel); err != nil {
		return fmt.Errorf("whisper model not found at %s: %w", v.WhisperModel, err)
	}
	tempDir := ".animalsay/stt"
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return err
	}

	opts := []speech.EarOption{
		speech.WithTempDir(tempDir),
		speech.WithRecordDuration(time.Duration(v.RecordSecs) * time.Second),
		speech.WithWakeWords(v.WakeWords...),
	}
	if v.Wake.Model != "" {
		det := wakeword.New(wakeword.Config{
			WakewordModel:  v.Wake.Model,
			MelspecModel:   v.Wake.Melspec,
			EmbeddingModel: v.Wake.Embedding,
			OnnxLib:        v.Wake.OnnxLib,
			Threshold:      v.Wake.Threshold,
		}, a.log.Named("wakeword"))
		go func() {
			if err := det.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("wake-word detector stopped: %v", err)
			}
		}()
		if a.out.mouth != nil {
			go pauseWhileSpeaking(ctx, det, a.out.mouth)
		}
		opts = append(opts, speech.WithWakeTrigger(det.C()))
	}

	ear := speech.NewEar(v.WhisperBin, v.WhisperModel, a.out.mouth, a.log.Named("ear"), opts...)
	go ear.Run(ctx)
	a.ear = ear
	a.log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)", v.WhisperBin, v.WhisperModel, v.RecordSecs)
	return nil
}

// pauseWhileSpeaking keeps the detector deaf to our own voice.
func pauseWhileSpeaking(ctx context.Context, det *wakeword.Detector, mouth *speech.Mouth) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		switch speaking := mouth.IsSpeaking(); {
		case speaking && !paused:
			det.Pause()
			paused = true
		case !speaking && paused:
			det.Resume()
			paused = false
		}
	}
}

// prefetchLines returns the lines worth synthesizing ahead of time: the
// welcome and goodbye dialogs and the imitate lead-in for every animal
// that has sound files.
func (a *app) prefetchLines() []string {
	lines := a.locale.DialogLines(dialogWelcome, nil)
	lines = append(lines, a.locale.DialogLines(dialogGoodbye, nil)...)

	codes := a.locale.NamedValues(skill.TableSound)
	for _, animal := range slices.Sorted(maps.Keys(codes)) {
		if _, ok := a.index.Files(codes[animal]); !ok {
			continue
		}
		lines = append(lines, a.locale.DialogLines(skill.DialogSoundsLike, map[string]string{"animal": animal})...)
	}
	return lines
}

// prefetch warms the TTS cache so common lines play without a round trip.
func (a *app) prefetch(ctx context.Context) {
	if a.out.mouth == nil {
		return
	}
	lines := a.prefetchLines()
	a.out.mouth.Prefetch(ctx, lines...)
	a.log.Debug("prefetching %d lines", len(lines))
}

// run reads typed and spoken input until ctx ends, input closes or the
// user quits. prompt, if set, is called whenever the app is ready for the
// next line.
func (a *app) run(ctx context.Context, typed <-chan string, prompt func()) {
	// Receiving on a nil channel blocks forever, so no ear means keyboard
	// only.
	var voice <-chan string
	if a.ear != nil {
		voice = a.ear.C()
	}

	a.say(ctx, a.locale.Dialog(dialogWelcome, nil))
	for {
		if prompt != nil {
			prompt()
		}

		var input string
		select {
		case <-ctx.Done():
			return
		case line, ok := <-typed:
			if !ok {
				return
			}
			input = line
		case input = <-voice:
			a.screen.PrintVoice(input)
		}

		if !a.handle(ctx, input) {
			return
		}
	}
}

// handle dispatches one utterance. It returns false when the user asked to
// quit.
func (a *app) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	// A new request cuts off whatever is still being said.
	if a.out.mouth != nil {
		a.out.mouth.Interrupt()
	}

	// Keep the microphone off while we answer and play, so the clip is
	// not heard as a command.
	if a.ear != nil {
		gen := a.muteGen.Add(1)
		a.ear.Mute()
		defer func() { go a.unmuteWhenQuiet(ctx, gen) }()
	}

	intent, err := a.parser.Parse(ctx, input)
	if err != nil {
		a.log.Error("parsing input: %v", err)
		a.screen.PrintUrgent(fmt.Sprintf("Could not understand that: %v", err))
		return true
	}
	a.log.Debug("intent: %s (slots=%v)", intent.Type, intent.Slots)

	err = a.skill.Handle(ctx, intent)
	switch {
	case err == nil:
		return true
	case intent.Type == domain.IntentQuit && errors.Is(err, domain.ErrUnhandledIntent):
		a.say(ctx, a.locale.Dialog(dialogGoodbye, nil))
		a.drain(ctx, 5*time.Second)
		return false
	default:
		a.log.Error("handling %s: %v", intent.Type, err)
		a.screen.PrintUrgent(fmt.Sprintf("Something went wrong: %v", err))
		return true
	}
}

// unmuteWhenQuiet unmutes the ear once speech and playback for request gen
// have finished, unless a newer request has muted it since.
func (a *app) unmuteWhenQuiet(ctx context.Context, gen int64) {
	a.drain(ctx, 30*time.Second)
	if a.muteGen.Load() == gen {
		a.ear.Unmute()
	}
}

func (a *app) say(ctx context.Context, text string) {
	if err := a.out.speaker.Speak(ctx, text); err != nil {
		a.log.Error("speak: %v", err)
	}
}

// drain waits, up to limit, for speech and sound playback to finish.
func (a *app) drain(ctx context.Context, limit time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	if err := a.out.speaker.WaitWhileSpeaking(ctx); err != nil {
		a.log.Debug("drain speech: %v", err)
	}
	if a.out.sounds != nil {
		if err := a.out.sounds.Wait(ctx); err != nil {
			a.log.Debug("drain sounds: %v", err)
		}
	}
}
