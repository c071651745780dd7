package audioengine

import (
	"time"

	"hdxecho/internal/output"
	"hdxecho/pkg/spec"

	"github.com/rs/zerolog"
)

type options struct {
	log              zerolog.Logger
	opener           output.Opener
	volume           float64
	threshold        int
	spectrumInterval time.Duration
	backoff          time.Duration
	outputBuffer     time.Duration
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		log:              zerolog.Nop(),
		opener:           output.OpenerFunc(output.OpenSpeaker),
		volume:           spec.DefaultVolume,
		threshold:        spec.MinBufferThreshold,
		spectrumInterval: spec.SpectrumInterval,
		backoff:          spec.BackoffInterval,
		outputBuffer:     spec.OutputBuffer,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithOutput selects the device opener used by Start.
func WithOutput(op output.Opener) Option {
	return func(o *options) {
		if op != nil {
			o.opener = op
		}
	}
}

// WithVolume sets the starting volume, clamped to [0,1].
func WithVolume(v float64) Option {
	return func(o *options) { o.volume = clampVolume(v) }
}

func WithBufferThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

func WithSpectrumInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.spectrumInterval = d
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

func WithOutputBuffer(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.outputBuffer = d
		}
	}
}
