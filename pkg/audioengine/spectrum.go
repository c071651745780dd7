package audioengine

import (
	"context"
	"math/cmplx"
	"time"

	"hdxecho/pkg/spec"

	"github.com/mjibson/go-dsp/fft"
)

// Magnitudes runs a real-input FFT over window and returns |X[k]| per bin.
func Magnitudes(window []float64) []float64 {
	coeffs := fft.FFTReal(window)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// spectrumTick copies the head of the queue into window without consuming
// it, then publishes the magnitudes. Returns false when the queue is too
// short, in which case the last spectrum stays in place.
func (s *State) spectrumTick(window []float64) bool {
	captured := false
	err := s.with(func() {
		if s.queue.Len() >= spec.SpectrumTrigger {
			s.queue.Peek(window)
			captured = true
		}
	})
	if err != nil || !captured {
		return false
	}

	mags := Magnitudes(window)
	return s.with(func() { s.fft = mags }) == nil
}

func (s *State) spectrumLoop(ctx context.Context, interval time.Duration) error {
	window := make([]float64, spec.SpectrumWindow)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.spectrumTick(window)
		}
	}
}
