// Package logging builds the process logger. Nothing here is global: Init
// returns a Guard that owns the writer and must be closed before exit so
// buffered lines reach the file.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hdxecho/pkg/spec"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

type Options struct {
	// File receives the log; empty means Out.
	File string
	// Out is used when File is empty; nil means stderr. Close leaves it open.
	Out   io.Writer
	Level string
	// Console switches to zerolog's human readable writer.
	Console bool
}

type Guard struct {
	Logger zerolog.Logger

	diode diode.Writer
	file  *os.File
	once  sync.Once
	err   error
}

// Init opens the log destination behind a non-blocking diode writer, so a
// slow disk never stalls the audio workers. Lines are dropped, not queued,
// when the ring is full.
func Init(opts Options) (*Guard, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	var (
		out  io.Writer = keepOpen{os.Stderr}
		file *os.File
	)
	if opts.Out != nil {
		out = keepOpen{opts.Out}
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out, file = f, f
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: file != nil}
	}

	dw := diode.NewWriter(out, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
	})

	return &Guard{
		Logger: zerolog.New(dw).Level(level).With().Timestamp().Str("engine", spec.EngineName).Logger(),
		diode:  dw,
		file:   file,
	}, nil
}

// keepOpen hides Close so the diode does not close a writer it does not own.
type keepOpen struct{ w io.Writer }

func (k keepOpen) Write(p []byte) (int, error) { return k.w.Write(p) }

// Close flushes pending lines and releases the file. Safe to call twice.
func (g *Guard) Close() error {
	g.once.Do(func() {
		// the diode closes the file itself when it wraps it directly
		g.err = g.diode.Close()
		if g.file != nil {
			if err := g.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				g.err = errors.Join(g.err, err)
			}
		}
	})
	return g.err
}
