package audioengine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hdxecho/internal/output"

	"golang.org/x/sync/errgroup"
)

// Session is one loaded track: its playback state, its output device and
// the decode and spectrum workers. Stop cancels and joins the workers
// before releasing the device and the file.
type Session struct {
	state *State
	opts  options

	mu      sync.Mutex
	device  output.Device
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	stopped bool
}

func newSession(st *State, o options) *Session {
	return &Session{state: st, opts: o}
}

// Descriptor returns the probed track information.
func (s *Session) Descriptor() Descriptor { return s.state.desc }

// Start opens the output device and spawns the workers. On a device error
// the session is kept as a silent one: it still answers snapshots and
// transport calls, but nothing is decoded.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrNoSession
	}
	if s.started {
		return nil
	}

	f := output.Format{
		SampleRate: s.state.sampleRate,
		Channels:   s.state.channels,
		Buffer:     s.opts.outputBuffer,
	}
	dev, err := s.opts.opener.Open(f, s.state)
	if err != nil {
		s.state.setDevice("none")
		s.opts.log.Error().Err(err).Msg("output device unavailable, continuing without audio")
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	s.device = dev
	s.state.setDevice(dev.Name())

	ctx, s.cancel = context.WithCancel(ctx)
	s.group, s.ctx = errgroup.WithContext(ctx)
	s.started = true

	s.state.mu.Lock()
	s.state.decodeActive = true
	s.state.mu.Unlock()

	s.group.Go(func() error { return s.state.decodeLoop(s.ctx, s.opts.backoff) })
	s.group.Go(func() error { return s.state.spectrumLoop(s.ctx, s.opts.spectrumInterval) })

	s.opts.log.Info().
		Str("path", s.state.desc.Path).
		Str("device", dev.Name()).
		Msg("playback started")
	return nil
}

// Stop tears the session down. Safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel, group, dev := s.cancel, s.group, s.device
	s.mu.Unlock()

	var errs []error
	if cancel != nil {
		cancel()
		errs = append(errs, group.Wait())
	}
	if dev != nil {
		errs = append(errs, dev.Close())
	}
	if slot := s.state.takeSlot(); slot != nil {
		errs = append(errs, slot.reader.Close())
	}
	return errors.Join(errs...)
}

// respawnDecode restarts the decode worker after a skip revived a track
// whose worker had already exited.
func (s *Session) respawnDecode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.started {
		return
	}
	s.opts.log.Debug().Msg("decode worker respawned")
	s.group.Go(func() error { return s.state.decodeLoop(s.ctx, s.opts.backoff) })
}

func (s *Session) TogglePause() error { return s.state.TogglePause() }

func (s *Session) AdjustVolume(delta float64) error { return s.state.AdjustVolume(delta) }

func (s *Session) Skip(seconds float64) error {
	running := s.isRunning()
	respawn := false
	err := s.state.with(func() {
		s.state.skipLocked(seconds)
		if running && !s.state.isFinished && !s.state.decodeActive {
			s.state.decodeActive = true
			respawn = true
		}
	})
	if respawn {
		s.respawnDecode()
	}
	return err
}

func (s *Session) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

func (s *Session) Snapshot() (Snapshot, error) { return s.state.Snapshot() }

// Done reports whether the track has finished and the queue is drained.
func (s *Session) Done() bool {
	done := false
	err := s.state.with(func() {
		done = s.state.isFinished && s.state.queue.Len() == 0
	})
	return err != nil || done
}
