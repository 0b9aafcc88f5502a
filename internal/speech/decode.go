package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/hammamikhairi/animalsay/internal/domain"
)

// OpenSound opens a sound file and returns a decoded stream. The caller
// closes the stream, which also closes the file.
func OpenSound(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" && ext != ".mp3" {
		return nil, beep.Format{}, fmt.Errorf("%s: %w", ext, domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &fileStream{StreamSeekCloser: stream, file: f}, format, nil
}

// DecodeWAV decodes an in-memory WAV clip (TTS output).
func DecodeWAV(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	stream, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decoding wav: %w", err)
	}
	return stream, format, nil
}

// fileStream closes the file whether or not the decoder already did.
type fileStream struct {
	beep.StreamSeekCloser
	file io.Closer
}

func (s *fileStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.file.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}

// pcmReader adapts a beep stream to the interleaved signed 16-bit
// little-endian stereo bytes oto consumes.
type pcmReader struct {
	s    beep.Streamer
	buf  [][2]float64
	done bool
}

const frameBytes = ChannelCount * BitDepth / 8

func newPCMReader(s beep.Streamer) *pcmReader {
	return &pcmReader{s: s}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := len(p) / frameBytes
	if n == 0 {
		return 0, nil
	}
	if cap(r.buf) < n {
		r.buf = make([][2]float64, n)
	}
	samples := r.buf[:n]

	got, ok := r.s.Stream(samples)
	if !ok {
		r.done = true
		if got == 0 {
			return 0, io.EOF
		}
	}

	for i := 0; i < got; i++ {
		for c := 0; c < ChannelCount; c++ {
			binary.LittleEndian.PutUint16(p[i*frameBytes+c*2:], uint16(toInt16(samples[i][c])))
		}
	}
	return got * frameBytes, nil
}

func toInt16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
