package speech

import (
	"context"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// DefaultWakeWords start a voice command. Matching is case-insensitive.
var DefaultWakeWords = []string{
	"hey animal",
	"hey animals",
	"animal say",
	"hey zoo",
}

// annotation matches whisper annotations such as "(dog barking)",
// "[BLANK_AUDIO]" or "[00:00:00.000 --> 00:00:02.000]".
var annotation = regexp.MustCompile(`[\(\[][^\)\]]*[\)\]]`)

// hallucinations are transcripts whisper produces from silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thank you":               true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"the end.":                true,
}

// mouthControl is what the Ear needs from the Mouth: echo avoidance and
// barge-in.
type mouthControl interface {
	IsSpeaking() bool
	Interrupt()
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets how long each command chunk lasts.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithProbeDuration sets how long each wake-word probe lasts.
func WithProbeDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.probeDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithWakeWords overrides the default wake phrases.
func WithWakeWords(words ...string) EarOption {
	return func(e *Ear) {
		if len(words) > 0 {
			e.wakeWords = words
		}
	}
}

// WithListenTimeout caps how long a single command may run.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.listenTimeout = d }
}

// WithWakeTrigger replaces transcript wake-word spotting with an external
// detector: each value on ch starts a command capture.
func WithWakeTrigger(ch <-chan struct{}) EarOption {
	return func(e *Ear) { e.trigger = ch }
}

// Ear is wake-word-gated voice input on top of a local Whisper model.
// It probes short clips for a wake word, then records the command until
// the speaker goes quiet, and delivers the text on C().
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	mouth      mouthControl // optional

	wakeWords      []string
	recordDuration time.Duration
	probeDuration  time.Duration
	listenTimeout  time.Duration
	trigger        <-chan struct{} // optional hardware wake word

	// record is swapped in tests; defaults to a whisper recording.
	record func(ctx context.Context, d time.Duration) string

	mu     sync.Mutex
	muted  bool
	textCh chan string
}

// NewEar creates a voice input listener. mouth may be nil.
func NewEar(whisperBin, modelPath string, mouth mouthControl, log *logger.Logger, opts ...EarOption) *Ear {
	if m, ok := mouth.(*Mouth); ok && m == nil {
		mouth = nil
	}
	e := &Ear{
		whisperBin:     whisperBin,
		modelPath:      modelPath,
		tempDir:        ".animalsay-stt",
		log:            log,
		mouth:          mouth,
		wakeWords:      DefaultWakeWords,
		recordDuration: 2 * time.Second,
		probeDuration:  2 * time.Second,
		listenTimeout:  10 * time.Second,
		textCh:         make(chan string, 8),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.wakeWords = longestFirst(e.wakeWords)
	e.record = e.recordWhisper

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// C returns the channel that receives transcribed commands.
func (e *Ear) C() <-chan string { return e.textCh }

// Mute temporarily disables listening.
func (e *Ear) Mute() {
	e.mu.Lock()
	e.muted = true
	e.mu.Unlock()
}

// Unmute re-enables listening.
func (e *Ear) Unmute() {
	e.mu.Lock()
	e.muted = false
	e.mu.Unlock()
}

func (e *Ear) isMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// Run listens until ctx is cancelled. Call it in a goroutine.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (probe=%s, chunk=%s, wake=%v)", e.probeDuration, e.recordDuration, e.wakeWords)
	for ctx.Err() == nil {
		if e.isMuted() || e.mouthBusy() {
			sleepCtx(ctx, 200*time.Millisecond)
			continue
		}
		var cmd string
		if e.trigger != nil {
			cmd = e.awaitTrigger(ctx)
		} else {
			cmd = e.listenOnce(ctx)
		}
		if cmd != "" {
			select {
			case e.textCh <- cmd:
			case <-ctx.Done():
			}
		}
	}
	e.log.Info("ear: stopped")
}

// listenOnce runs one probe and, on a wake word, captures the command.
func (e *Ear) listenOnce(ctx context.Context) string {
	heard := cleanTranscription(e.record(ctx, e.probeDuration))
	if heard == "" || e.mouthBusy() {
		return ""
	}

	rest, ok := stripWakeWord(heard, e.wakeWords)
	if !ok {
		return ""
	}
	e.log.Info("ear: wake word in %q", heard)
	if e.mouth != nil {
		e.mouth.Interrupt()
	}
	if rest != "" {
		return rest
	}
	return e.captureCommand(ctx)
}

// awaitTrigger blocks until the wake detector fires, then captures the
// command.
func (e *Ear) awaitTrigger(ctx context.Context) string {
	select {
	case <-ctx.Done():
		return ""
	case <-e.trigger:
	}
	if e.isMuted() {
		return ""
	}
	e.log.Info("ear: wake trigger")
	if e.mouth != nil {
		e.mouth.Interrupt()
	}
	return e.captureCommand(ctx)
}

// captureCommand records chunks until the speaker goes quiet or the listen
// timeout passes.
func (e *Ear) captureCommand(ctx context.Context) string {
	deadline := time.Now().Add(e.listenTimeout)
	var parts []string
	silent := 0

	for ctx.Err() == nil && time.Now().Before(deadline) {
		chunk := cleanTranscription(e.record(ctx, e.recordDuration))
		if chunk == "" {
			silent++
			// More patience before the first words than after them.
			maxSilent := 4
			if len(parts) > 0 {
				maxSilent = 2
			}
			if silent >= maxSilent {
				break
			}
			continue
		}
		silent = 0
		if rest, ok := stripWakeWord(chunk, e.wakeWords); ok {
			chunk = rest
		}
		if chunk != "" {
			parts = append(parts, chunk)
		}
	}

	cmd := strings.TrimSpace(strings.Join(parts, " "))
	e.log.Debug("ear: command %q", cmd)
	return cmd
}

func (e *Ear) mouthBusy() bool {
	return e.mouth != nil && e.mouth.IsSpeaking()
}

// recordWhisper records for d and returns whisper's transcript.
func (e *Ear) recordWhisper(ctx context.Context, d time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		e.whisperBin,
		e.modelPath,
		e.tempDir,
		"wav",
		func(text string) {
			result = text
			wg.Done()
		},
		verbose,
	)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}
	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()
	return result
}

// longestFirst orders wake words so "hey animals" wins over "hey animal".
func longestFirst(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// stripWakeWord finds the first wake word in text and returns what follows
// it, trimmed of punctuation.
func stripWakeWord(text string, wakeWords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range wakeWords {
		wl := strings.ToLower(w)
		idx := strings.Index(lower, wl)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(wl):]
		return strings.Trim(rest, " ,.!?\t\r\n"), true
	}
	return "", false
}

// cleanTranscription drops annotations, collapses whitespace and discards
// known silence hallucinations.
func cleanTranscription(s string) string {
	s = annotation.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
