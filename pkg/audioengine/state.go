package audioengine

import (
	"fmt"
	"math"
	"sync"

	"hdxecho/internal/source"

	"github.com/rs/zerolog"
)

// decodeSlot holds the reader and decoder while no worker is using them.
// The decode worker takes the whole slot out under the lock and puts it
// back under the lock, so nobody else can touch it in between.
type decodeSlot struct {
	reader  source.FormatReader
	decoder source.Decoder
}

// State is the one record shared by the output callback, the decode worker,
// the spectrum worker and transport callers. Every field is guarded by mu.
//
// The section of Fill that runs under mu is O(1) per sample and never
// allocates; every other critical section only flips flags or moves
// pointers. Decoding and FFT work happen outside the lock.
type State struct {
	mu sync.Mutex

	queue     sampleQueue
	threshold int

	desc       Descriptor
	sampleRate int
	channels   int
	maxSamples uint64
	timeBase   source.TimeBase
	trackID    uint32

	volume             float64
	isPause            bool
	isFinished         bool
	isSeeking          bool
	totalSamplesPlayed uint64

	slot *decodeSlot
	fft  []float64

	device       string
	decodeActive bool
	poisoned     bool

	log zerolog.Logger
}

func newState(desc Descriptor, tb source.TimeBase, slot *decodeSlot, o options) *State {
	return &State{
		threshold:  o.threshold,
		desc:       desc,
		sampleRate: desc.SampleRate,
		channels:   desc.Channels,
		maxSamples: desc.Duration.Seconds * uint64(desc.SampleRate),
		timeBase:   tb,
		trackID:    desc.TrackID,
		volume:     o.volume,
		slot:       slot,
		log:        o.log,
	}
}

// with runs fn under the lock. A panic inside fn poisons the state and is
// reported as ErrLockPoisoned to this and every later caller.
func (s *State) with(fn func()) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrLockPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.log.Error().Interface("panic", r).Msg("playback state poisoned")
			err = fmt.Errorf("%w: %v", ErrLockPoisoned, r)
		}
	}()
	fn()
	return nil
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// TogglePause flips the pause flag.
func (s *State) TogglePause() error {
	return s.with(func() { s.isPause = !s.isPause })
}

// AdjustVolume adds delta to the volume, saturating at 0 and 1.
func (s *State) AdjustVolume(delta float64) error {
	if math.IsNaN(delta) {
		return nil
	}
	return s.with(func() { s.volume = clampVolume(s.volume + delta) })
}

// Skip moves the play position by seconds (negative rewinds) and asks the
// decode worker to reposition. Landing on or past the end finishes the
// track; landing before it revives a finished one.
func (s *State) Skip(seconds float64) error {
	if math.IsNaN(seconds) {
		return nil
	}
	return s.with(func() { s.skipLocked(seconds) })
}

func (s *State) skipLocked(seconds float64) {
	delta := saturatingInt64(seconds * float64(s.sampleRate) * float64(s.channels))
	limit := int64(s.maxSamples)

	s.isFinished = false
	target := saturatingAdd(int64(s.totalSamplesPlayed), delta)
	if target >= limit {
		target = limit - 1
		s.isFinished = true
	}
	if target < 0 {
		target = 0
	}

	s.totalSamplesPlayed = uint64(target)
	s.isSeeking = true
}

// saturatingInt64 converts f, clamping at the int64 range.
func saturatingInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func saturatingAdd(a, b int64) int64 {
	c := a + b
	if b > 0 && c < a {
		return math.MaxInt64
	}
	if b < 0 && c > a {
		return math.MinInt64
	}
	return c
}

// Fill is the output callback. It writes one frame of channels samples at
// a time, substituting silence when the queue runs dry, and counts frames
// played until the track is finished.
func (s *State) Fill(out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned || s.isPause || s.channels <= 0 {
		clear(out)
		return
	}

	vol := float32(s.volume)
	for i := 0; i < len(out); i += s.channels {
		end := min(i+s.channels, len(out))
		for j := i; j < end; j++ {
			v, _ := s.queue.Pop()
			out[j] = v * vol
		}
		if !s.isFinished && (s.maxSamples == 0 || s.totalSamplesPlayed < s.maxSamples) {
			s.totalSamplesPlayed++
		}
	}
}

func (s *State) setDevice(name string) {
	s.mu.Lock()
	s.device = name
	s.mu.Unlock()
}

// takeSlot empties the slot for teardown, ignoring poisoning.
func (s *State) takeSlot() *decodeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slot
	s.slot = nil
	s.isFinished = true
	return slot
}

// Snapshot is a copy of everything a renderer or status reply needs.
type Snapshot struct {
	Descriptor
	Device        string    `json:"device"`
	Buffered      int       `json:"buffered"`
	Threshold     int       `json:"threshold"`
	Paused        bool      `json:"paused"`
	Finished      bool      `json:"finished"`
	Seeking       bool      `json:"seeking"`
	Volume        float64   `json:"volume"`
	SamplesPlayed uint64    `json:"samples_played"`
	Timestamp     string    `json:"timestamp"`
	Spectrum      []float64 `json:"spectrum,omitempty"`
}

func (s *State) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.with(func() {
		snap = Snapshot{
			Descriptor:    s.desc,
			Device:        s.device,
			Buffered:      s.queue.Len(),
			Threshold:     s.threshold,
			Paused:        s.isPause,
			Finished:      s.isFinished,
			Seeking:       s.isSeeking,
			Volume:        s.volume,
			SamplesPlayed: s.totalSamplesPlayed,
		}
		if len(s.fft) > 0 {
			snap.Spectrum = append([]float64(nil), s.fft...)
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	snap.Timestamp, _ = CurrentTimestamp(snap.SamplesPlayed, snap.SampleRate)
	return snap, nil
}
