package output

import (
	"fmt"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// ======================================================
// beep speaker (default backend)
// ======================================================

// speakerDevice is a beep.Streamer that never ends; silence comes from the
// source itself on underrun or pause.
type speakerDevice struct {
	src      Source
	channels int
	scratch  []float32
}

// OpenSpeaker initialises the process-wide beep speaker. A second call
// replaces the previous speaker context.
func OpenSpeaker(f Format, src Source) (Device, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	sr := beep.SampleRate(f.SampleRate)
	n := f.bufferFrames()
	if err := speaker.Init(sr, n); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}

	d := &speakerDevice{
		src:      src,
		channels: f.Channels,
		scratch:  make([]float32, n*f.Channels),
	}
	speaker.Play(d)
	return d, nil
}

func (d *speakerDevice) Stream(samples [][2]float64) (int, bool) {
	need := len(samples) * d.channels
	if cap(d.scratch) < need {
		d.scratch = make([]float32, need)
	}
	buf := d.scratch[:need]
	d.src.Fill(buf)
	toStereo(samples, buf, d.channels)
	return len(samples), true
}

func (d *speakerDevice) Err() error { return nil }

func (d *speakerDevice) Name() string { return "beep speaker" }

func (d *speakerDevice) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// toStereo maps interleaved frames onto beep's stereo pairs. Mono is
// duplicated on both sides; channels past the second are dropped.
func toStereo(dst [][2]float64, src []float32, channels int) {
	for i := range dst {
		base := i * channels
		if base >= len(src) {
			dst[i] = [2]float64{}
			continue
		}
		l := float64(src[base])
		r := l
		if channels > 1 && base+1 < len(src) {
			r = float64(src[base+1])
		}
		dst[i] = [2]float64{l, r}
	}
}
