// Package output opens hardware (or fake) audio devices that pull
// interleaved float32 samples from a Source on their own schedule.
package output

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Source is drained by a device from its realtime thread. Fill must fill
// all of out and must not block.
type Source interface {
	Fill(out []float32)
}

type Format struct {
	SampleRate int
	Channels   int
	Buffer     time.Duration
}

type Device interface {
	Name() string
	Close() error
}

type Opener interface {
	Open(f Format, src Source) (Device, error)
}

// OpenerFunc adapts a plain function to Opener.
type OpenerFunc func(f Format, src Source) (Device, error)

func (fn OpenerFunc) Open(f Format, src Source) (Device, error) { return fn(f, src) }

// Backend names accepted by ForBackend.
const (
	Speaker   = "speaker"
	PortAudio = "portaudio"
	Oto       = "oto"
	Null      = "null"
)

var (
	ErrUnknownBackend = errors.New("output: unknown backend")
	ErrBadFormat      = errors.New("output: invalid stream format")
)

var backends = map[string]OpenerFunc{
	Speaker:   OpenSpeaker,
	PortAudio: OpenPortAudio,
	Oto:       OpenOto,
	Null:      OpenNull,
}

// Backends lists the names ForBackend understands.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ForBackend(name string) (Opener, error) {
	fn, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return fn, nil
}

func (f Format) validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: %d Hz, %d channels", ErrBadFormat, f.SampleRate, f.Channels)
	}
	return nil
}

// bufferFrames converts f.Buffer into a frame count, 100ms when unset.
func (f Format) bufferFrames() int {
	d := f.Buffer
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	n := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}
