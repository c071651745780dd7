// Package source demultiplexes audio containers into packets and decodes
// those packets into interleaved float32 samples.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"hdxecho/internal/container"
)

var (
	ErrUnknownFormat    = errors.New("source: unrecognised container format")
	ErrNoAudioTrack     = errors.New("source: no audio track found")
	ErrNoSampleRate     = errors.New("source: track declares no sample rate")
	ErrUnsupportedCodec = errors.New("source: unsupported codec")
)

// Codec names carried by Track.Codec.
const (
	CodecPCM      = "pcm"
	CodecPCMFloat = "pcm_float"
	CodecMP3      = "mp3"
	CodecVorbis   = "vorbis"
	CodecFLAC     = "flac"
	CodecOpus     = "opus"
)

// TimeBase converts a timestamp in track units into wall time.
type TimeBase struct {
	Numer uint32
	Denom uint32
}

func NewTimeBase(sampleRate int) TimeBase {
	return TimeBase{Numer: 1, Denom: uint32(sampleRate)}
}

func (tb TimeBase) CalcTime(ts uint64) time.Duration {
	if tb.Denom == 0 {
		return 0
	}
	return time.Duration(ts*uint64(tb.Numer)) * time.Second / time.Duration(tb.Denom)
}

// FrameAt returns the frame index at t for the given rate, rounded to nearest.
func FrameAt(t time.Duration, sampleRate int) uint64 {
	if t <= 0 || sampleRate <= 0 {
		return 0
	}
	return (uint64(t)*uint64(sampleRate) + uint64(time.Second)/2) / uint64(time.Second)
}

type Track struct {
	ID            uint32
	Codec         string
	SampleRate    int
	Channels      int
	BitsPerSample int
	NFrames       uint64 // 0 when the container does not say
	TimeBase      TimeBase
}

// Packet is one demuxed unit. Payload is codec specific; TrimFrames asks the
// decoder to drop that many leading frames (set after an accurate seek).
type Packet struct {
	TrackID    uint32
	Payload    any
	TrimFrames int
}

type SeekTo struct {
	Time    time.Duration
	TrackID uint32
}

type FormatReader interface {
	Tracks() []Track
	NextPacket() (*Packet, error)
	// Seek repositions to the packet holding to.Time; the next packet is
	// trimmed so decoding resumes on the exact frame.
	Seek(to SeekTo) error
	Close() error
}

type Decoder interface {
	Decode(p *Packet) ([]float32, error)
}

// Probe sniffs the container of rs and returns a reader positioned at the
// first audio packet. path is used for the extension fallback and to find
// the HDXV key locker. On error rs is left open for the caller.
func Probe(rs io.ReadSeekCloser, path string) (FormatReader, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch detectFormat(head, path) {
	case "wav":
		return newWavReader(rs)
	case "mp3":
		return newMP3Reader(rs)
	case "ogg":
		return newVorbisReader(rs)
	case "flac":
		return newFLACReader(rs)
	case "hdxv":
		return newHDXVReader(rs, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
}

func detectFormat(head []byte, path string) string {
	switch {
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return "wav"
	case len(head) >= 4 && string(head[:4]) == "fLaC":
		return "flac"
	case len(head) >= 4 && string(head[:4]) == "OggS":
		return "ogg"
	case container.IsVolume(head):
		return "hdxv"
	case len(head) >= 3 && string(head[:3]) == "ID3":
		return "mp3"
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return "mp3"
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return "wav"
	case ".mp3":
		return "mp3"
	case ".ogg", ".oga":
		return "ogg"
	case ".flac":
		return "flac"
	case ".hdxv":
		return "hdxv"
	}
	return ""
}

// SelectTrack returns the first track that declares a sample rate.
func SelectTrack(tracks []Track) (Track, error) {
	for _, t := range tracks {
		if t.SampleRate > 0 {
			return t, nil
		}
	}
	if len(tracks) > 0 {
		return Track{}, fmt.Errorf("%w: %w", ErrNoAudioTrack, ErrNoSampleRate)
	}
	return Track{}, ErrNoAudioTrack
}

// NewDecoder instantiates the decoder matching t.Codec.
func NewDecoder(t Track) (Decoder, error) {
	if t.Channels <= 0 {
		return nil, fmt.Errorf("%w: %s with %d channels", ErrUnsupportedCodec, t.Codec, t.Channels)
	}
	switch t.Codec {
	case CodecPCM:
		if t.BitsPerSample <= 0 || t.BitsPerSample > 32 {
			return nil, fmt.Errorf("%w: pcm %d-bit", ErrUnsupportedCodec, t.BitsPerSample)
		}
		return newIntDecoder(t.Channels, t.BitsPerSample), nil
	case CodecMP3:
		return &pcm16Decoder{channels: t.Channels}, nil
	case CodecVorbis:
		return &floatDecoder{channels: t.Channels}, nil
	case CodecFLAC:
		return newFLACDecoder(t.Channels, t.BitsPerSample), nil
	case CodecOpus:
		return newOpusDecoder(t.SampleRate, t.Channels)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, t.Codec)
}

// trim drops the first frames*channels samples.
func trim(samples []float32, frames, channels int) []float32 {
	if frames <= 0 {
		return samples
	}
	n := frames * channels
	if n >= len(samples) {
		return samples[:0]
	}
	return samples[n:]
}

func payloadError(codec string, p *Packet) error {
	return fmt.Errorf("source: %s decoder got payload %T", codec, p.Payload)
}
