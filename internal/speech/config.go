package speech

import "time"

// Default voice for TTS.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// Output format of the shared audio context. Every clip, TTS or sound
// file, is resampled to DefaultSampleRate and mixed to stereo.
const (
	DefaultSampleRate = 24000
	ChannelCount      = 2
	BitDepth          = 16
)

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

// SpeechRequest is a queued item waiting to be spoken.
type SpeechRequest struct {
	ID       string
	Text     string
	QueuedAt time.Time
}
