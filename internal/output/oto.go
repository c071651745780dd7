package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process, so it is created once with the
// format of the first stream and reused afterwards.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

var ErrFormatLocked = errors.New("output: oto context already running another format")

func initOto(f Format) error {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   f.Buffer,
		}
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
			otoFormat = f
		}
	})
	if otoErr != nil {
		return otoErr
	}
	if f.SampleRate != otoFormat.SampleRate || f.Channels != otoFormat.Channels {
		return fmt.Errorf("%w: have %d Hz/%d ch, want %d Hz/%d ch", ErrFormatLocked,
			otoFormat.SampleRate, otoFormat.Channels, f.SampleRate, f.Channels)
	}
	return nil
}

type otoDevice struct {
	player *oto.Player
}

// OpenOto plays src through an oto v3 player fed by a float32 LE reader.
func OpenOto(f Format, src Source) (Device, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := initOto(f); err != nil {
		return nil, fmt.Errorf("oto init: %w", err)
	}
	p := otoCtx.NewPlayer(&pcmReader{src: src, channels: f.Channels})
	p.Play()
	return &otoDevice{player: p}, nil
}

func (d *otoDevice) Name() string { return "oto" }

func (d *otoDevice) Close() error {
	d.player.Pause()
	return d.player.Close()
}

// pcmReader turns Fill calls into little-endian float32 bytes.
type pcmReader struct {
	src      Source
	channels int
	scratch  []float32
}

func (r *pcmReader) Read(p []byte) (int, error) {
	frameBytes := 4 * r.channels
	n := (len(p) / frameBytes) * r.channels
	if n == 0 {
		n = len(p) / 4
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	buf := r.scratch[:n]
	r.src.Fill(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}
