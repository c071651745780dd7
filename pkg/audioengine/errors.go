package audioengine

import "errors"

var (
	// ErrIO wraps failures to open or stat the input file.
	ErrIO = errors.New("audioengine: i/o error")

	// ErrDevice is returned by Start when no output stream could be built.
	// The session stays alive without audio.
	ErrDevice = errors.New("audioengine: output device unavailable")

	// ErrLockPoisoned means a panic escaped while the playback state was
	// locked. The state is frozen from then on.
	ErrLockPoisoned = errors.New("audioengine: playback state poisoned")

	ErrNoSession = errors.New("audioengine: no active session")
)
