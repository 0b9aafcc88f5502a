package wakeword

import (
	"time"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Shapes of the openWakeWord models.
const (
	sampleRate    = 16000
	chunkSamples  = 1280 // 80 ms
	melWindowSize = 76   // mel frames per embedding
	melStepSize   = 8    // mel frames between embeddings
	embeddingDim  = 96
	nEmbedFrames  = 16 // embeddings per classifier input
	melBins       = 32
	nMelFrames    = 5 // per chunk

	// scoreWindowSize trailing scores are kept; the max of the window is
	// compared to the threshold, since the peak may land a frame early or
	// late.
	scoreWindowSize = 5

	// recentWindow is how many of the newest embeddings reach the
	// classifier. Older slots are zeroed so long stretches of silence
	// cannot drag the score down.
	recentWindow = 5
)

// model runs the three networks. *models implements it.
type model interface {
	Melspec(chunk []int16) ([]float32, error) // nMelFrames*melBins values
	Embed(window []float32) ([]float32, error) // embeddingDim values
	Score(embeds []float32) (float32, error)
}

// pipeline turns raw audio into classifier scores.
type pipeline struct {
	m   model
	log *logger.Logger

	pending []int16   // samples not yet forming a full chunk
	mel     []float32 // mel frames not yet consumed
	embeds  []float32 // sliding window of nEmbedFrames embeddings
	input   []float32 // zero-padded classifier input
}

func newPipeline(m model, log *logger.Logger) *pipeline {
	return &pipeline{
		m:       m,
		log:     log,
		pending: make([]int16, 0, chunkSamples*2),
		mel:     make([]float32, 0, (melWindowSize+nMelFrames)*melBins),
		embeds:  make([]float32, nEmbedFrames*embeddingDim),
		input:   make([]float32, nEmbedFrames*embeddingDim),
	}
}

func (p *pipeline) reset() {
	p.pending = p.pending[:0]
	p.mel = p.mel[:0]
	clear(p.embeds)
}

// push feeds samples and calls emit once per new classifier score.
func (p *pipeline) push(samples []int16, emit func(score float32)) {
	p.pending = append(p.pending, samples...)

	chunk := make([]int16, chunkSamples)
	for len(p.pending) >= chunkSamples {
		copy(chunk, p.pending)
		n := copy(p.pending, p.pending[chunkSamples:])
		p.pending = p.pending[:n]

		if p.addChunk(chunk) {
			score, err := p.score()
			if err != nil {
				p.log.Error("wakeword: classifier failed: %v", err)
				continue
			}
			emit(score)
		}
	}
}

// addChunk runs the melspectrogram and as many embeddings as the mel
// buffer allows. It reports whether a new embedding arrived.
func (p *pipeline) addChunk(chunk []int16) bool {
	frames, err := p.m.Melspec(chunk)
	if err != nil {
		p.log.Error("wakeword: melspectrogram failed: %v", err)
		return false
	}
	for _, v := range frames {
		p.mel = append(p.mel, v/10+2)
	}

	fresh := false
	for len(p.mel) >= melWindowSize*melBins {
		e, err := p.m.Embed(p.mel[:melWindowSize*melBins])
		if err != nil {
			p.log.Error("wakeword: embedding failed: %v", err)
			return fresh
		}
		copy(p.embeds, p.embeds[embeddingDim:])
		copy(p.embeds[(nEmbedFrames-1)*embeddingDim:], e[:embeddingDim])
		fresh = true

		n := copy(p.mel, p.mel[melStepSize*melBins:])
		p.mel = p.mel[:n]
	}
	return fresh
}

func (p *pipeline) score() (float32, error) {
	pad := (nEmbedFrames - recentWindow) * embeddingDim
	clear(p.input[:pad])
	copy(p.input[pad:], p.embeds[pad:])
	return p.m.Score(p.input)
}

// trigger decides when a run of scores is a detection.
type trigger struct {
	threshold float64
	cooldown  time.Duration

	window [scoreWindowSize]float32
	next   int
	last   time.Time
}

// observe records score and returns the window max and whether it fires.
// Firing clears the window so one peak is reported once.
func (t *trigger) observe(score float32, now time.Time) (float32, bool) {
	t.window[t.next%scoreWindowSize] = score
	t.next++

	var peak float32
	for _, s := range t.window {
		peak = max(peak, s)
	}
	if float64(peak) < t.threshold || now.Sub(t.last) <= t.cooldown {
		return peak, false
	}
	t.last = now
	t.window = [scoreWindowSize]float32{}
	return peak, true
}

func (t *trigger) reset() {
	t.window = [scoreWindowSize]float32{}
	t.next = 0
}
