package audioengine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Player keeps at most one live session. Loading a new track stops and
// joins the previous one first.
type Player struct {
	opts []Option
	log  zerolog.Logger

	loadMu  sync.Mutex
	mu      sync.Mutex
	session *Session
}

func NewPlayer(opts ...Option) *Player {
	return &Player{opts: opts, log: newOptions(opts).log}
}

// Load opens path and starts it. If the file cannot be opened the current
// session keeps playing. If the device fails the new session is still
// installed (without audio) and the ErrDevice is returned alongside it.
func (p *Player) Load(ctx context.Context, path string) (*Session, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	sess, err := Open(path, p.opts...)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	prev := p.session
	p.session = sess
	p.mu.Unlock()

	if prev != nil {
		if err := prev.Stop(); err != nil {
			p.log.Warn().Err(err).Str("path", prev.Descriptor().Path).Msg("stop previous session")
		}
	}
	return sess, sess.Start(ctx)
}

// Session returns the current session, or nil.
func (p *Player) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Player) current() (*Session, error) {
	if s := p.Session(); s != nil {
		return s, nil
	}
	return nil, ErrNoSession
}

func (p *Player) TogglePause() error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.TogglePause()
}

func (p *Player) AdjustVolume(delta float64) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.AdjustVolume(delta)
}

func (p *Player) Skip(seconds float64) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.Skip(seconds)
}

func (p *Player) Snapshot() (Snapshot, error) {
	s, err := p.current()
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot()
}

// Stop ends the current session, if any.
func (p *Player) Stop() error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return ErrNoSession
	}
	return s.Stop()
}
