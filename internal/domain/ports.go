package domain

import "context"

// Speaker renders text as speech. Speak may return before the audio has
// finished; WaitWhileSpeaking blocks until all queued speech is done or ctx
// ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	WaitWhileSpeaking(ctx context.Context) error
}

// AudioService plays sound files. Play is fire-and-forget: it returns once
// playback has been requested, reporting only errors it can detect up front
// (missing file, undecodable data).
type AudioService interface {
	Play(ctx context.Context, path string) error
}

// Localizer supplies the per-locale tables and dialog templates.
type Localizer interface {
	// NamedValues returns the key/value table stored under name
	// (e.g. "animal.alias"). Missing tables are empty, not an error.
	NamedValues(name string) map[string]string
	// Dialog renders one line of the named dialog with data substituted.
	Dialog(name string, data map[string]string) string
}

// IntentParser converts a raw utterance into an intent.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
