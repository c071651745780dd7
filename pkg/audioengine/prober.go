package audioengine

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"hdxecho/internal/source"
)

type DurationInfo struct {
	Readable string `json:"readable"`
	Seconds  uint64 `json:"seconds"`
}

// Descriptor describes the track a session plays.
type Descriptor struct {
	Path       string       `json:"path"`
	Codec      string       `json:"codec"`
	SampleRate int          `json:"sample_rate"`
	Channels   int          `json:"channels"`
	TrackID    uint32       `json:"track_id"`
	FileSize   string       `json:"file_size"`
	Duration   DurationInfo `json:"duration"`
}

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb"}

// HumanReadableSize formats size in base-1024 units with two decimals.
func HumanReadableSize(size uint64) string {
	v := float64(size)
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f%s", v, sizeUnits[unit])
}

// TrackDuration derives the duration from the frame count, "Unknown" when
// the container does not declare it.
func TrackDuration(t source.Track) DurationInfo {
	if t.NFrames == 0 || t.SampleRate <= 0 {
		return DurationInfo{Readable: "Unknown"}
	}
	secs := uint64(math.Round(float64(t.NFrames) / float64(t.SampleRate)))
	return DurationInfo{Readable: FormatClock(secs), Seconds: secs}
}

// Open probes path and returns a session ready to Start. The file handle
// belongs to the session from here on.
func Open(path string, opts ...Option) (*Session, error) {
	o := newOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	reader, err := source.Probe(f, path)
	if err != nil {
		f.Close()
		// a missing or unreadable side file, such as the key locker
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	track, err := source.SelectTrack(reader.Tracks())
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	dec, err := source.NewDecoder(track)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	desc := Descriptor{
		Path:       path,
		Codec:      track.Codec,
		SampleRate: track.SampleRate,
		Channels:   track.Channels,
		TrackID:    track.ID,
		FileSize:   HumanReadableSize(uint64(fi.Size())),
		Duration:   TrackDuration(track),
	}

	o.log.Debug().
		Str("path", path).
		Str("codec", desc.Codec).
		Int("rate", desc.SampleRate).
		Int("channels", desc.Channels).
		Str("duration", desc.Duration.Readable).
		Msg("probed")

	st := newState(desc, track.TimeBase, &decodeSlot{reader: reader, decoder: dec}, o)
	return newSession(st, o), nil
}
