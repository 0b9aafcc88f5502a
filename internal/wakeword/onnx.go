package wakeword

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// session is one ONNX network with a single input and output tensor.
type session struct {
	in   *ort.Tensor[float32]
	out  *ort.Tensor[float32]
	sess *ort.AdvancedSession
}

func newSession(path string, inShape, outShape ort.Shape) (*session, error) {
	in, err := ort.NewEmptyTensor[float32](inShape)
	if err != nil {
		return nil, fmt.Errorf("%s input tensor: %w", path, err)
	}
	out, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		in.Destroy()
		return nil, fmt.Errorf("%s output tensor: %w", path, err)
	}
	inInfo, outInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sess, err := ort.NewAdvancedSession(path,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out},
		nil,
	)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, fmt.Errorf("%s session: %w", path, err)
	}
	return &session{in: in, out: out, sess: sess}, nil
}

func (s *session) run() ([]float32, error) {
	if err := s.sess.Run(); err != nil {
		return nil, err
	}
	return s.out.GetData(), nil
}

func (s *session) destroy() {
	s.sess.Destroy()
	s.in.Destroy()
	s.out.Destroy()
}

// models holds the three openWakeWord networks.
type models struct {
	melspec, embed, wake *session
}

var _ model = (*models)(nil)

func openModels(cfg Config, log *logger.Logger) (*models, error) {
	log.Debug("wakeword: initializing ONNX runtime (lib=%s)", cfg.OnnxLib)
	if cfg.OnnxLib != "" {
		ort.SetSharedLibraryPath(cfg.OnnxLib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}

	m := &models{}
	var err error
	if m.melspec, err = newSession(cfg.MelspecModel,
		ort.NewShape(1, chunkSamples), ort.NewShape(1, 1, nMelFrames, melBins)); err != nil {
		m.close()
		return nil, err
	}
	if m.embed, err = newSession(cfg.EmbeddingModel,
		ort.NewShape(1, melWindowSize, melBins, 1), ort.NewShape(1, 1, 1, embeddingDim)); err != nil {
		m.close()
		return nil, err
	}
	if m.wake, err = newSession(cfg.WakewordModel,
		ort.NewShape(1, nEmbedFrames, embeddingDim), ort.NewShape(1, 1)); err != nil {
		m.close()
		return nil, err
	}
	return m, nil
}

func (m *models) Melspec(chunk []int16) ([]float32, error) {
	in := m.melspec.in.GetData()
	for i, v := range chunk {
		in[i] = float32(v)
	}
	return m.melspec.run()
}

func (m *models) Embed(window []float32) ([]float32, error) {
	copy(m.embed.in.GetData(), window)
	return m.embed.run()
}

func (m *models) Score(embeds []float32) (float32, error) {
	copy(m.wake.in.GetData(), embeds)
	out, err := m.wake.run()
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func (m *models) close() {
	for _, s := range []*session{m.melspec, m.embed, m.wake} {
		if s != nil {
			s.destroy()
		}
	}
	_ = ort.DestroyEnvironment()
}

// capture streams 16 kHz mono s16 microphone audio.
type capture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	frames chan []int16
	drops  atomic.Int64
	log    *logger.Logger
}

func openCapture(log *logger.Logger) (*capture, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("audio context: %w", err)
	}
	c := &capture{ctx: mctx, frames: make(chan []int16, 32), log: log}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = sampleRate
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.Alsa.NoMMap = 1

	c.device, err = malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: c.onData})
	if err != nil {
		c.freeContext()
		return nil, fmt.Errorf("capture device: %w", err)
	}
	if err := c.device.Start(); err != nil {
		c.device.Uninit()
		c.freeContext()
		return nil, fmt.Errorf("capture start: %w", err)
	}
	log.Debug("wakeword: capture started (rate=%d)", sampleRate)
	return c, nil
}

// onData runs on the audio thread; it never blocks.
func (c *capture) onData(_, raw []byte, _ uint32) {
	if len(raw) < 2 {
		return
	}
	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	select {
	case c.frames <- pcm:
	default:
		c.drops.Add(1)
	}
}

func (c *capture) close() {
	_ = c.device.Stop()
	c.device.Uninit()
	c.freeContext()
	if n := c.drops.Load(); n > 0 {
		c.log.Debug("wakeword: %d audio frames dropped", n)
	}
}

func (c *capture) freeContext() {
	_ = c.ctx.Uninit()
	c.ctx.Free()
}
