package source

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

type flacReader struct {
	stream *flac.Stream
	track  Track
	trim   int
}

func newFLACReader(rs io.ReadSeekCloser) (*flacReader, error) {
	stream, err := flac.NewSeek(rs)
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}
	info := stream.Info
	return &flacReader{
		stream: stream,
		track: Track{
			Codec:         CodecFLAC,
			SampleRate:    int(info.SampleRate),
			Channels:      int(info.NChannels),
			BitsPerSample: int(info.BitsPerSample),
			NFrames:       info.NSamples,
			TimeBase:      NewTimeBase(int(info.SampleRate)),
		},
	}, nil
}

func (r *flacReader) Tracks() []Track { return []Track{r.track} }

func (r *flacReader) NextPacket() (*Packet, error) {
	f, err := r.stream.ParseNext()
	if err != nil {
		return nil, err
	}
	p := &Packet{TrackID: r.track.ID, Payload: f, TrimFrames: r.trim}
	r.trim = 0
	return p, nil
}

// Seek lands on the frame holding the target sample; the difference is
// trimmed from the next packet.
func (r *flacReader) Seek(to SeekTo) error {
	if to.TrackID != r.track.ID {
		return fmt.Errorf("flac: no track %d", to.TrackID)
	}
	target := FrameAt(to.Time, r.track.SampleRate)
	if r.track.NFrames > 0 && target >= r.track.NFrames {
		target = r.track.NFrames - 1
	}
	got, err := r.stream.Seek(target)
	if err != nil {
		return err
	}
	if got <= target {
		r.trim = int(target - got)
	}
	return nil
}

func (r *flacReader) Close() error { return r.stream.Close() }

type flacDecoder struct {
	channels int
	bits     int
}

func newFLACDecoder(channels, bits int) *flacDecoder {
	return &flacDecoder{channels: channels, bits: bits}
}

func (d *flacDecoder) Decode(p *Packet) ([]float32, error) {
	f, ok := p.Payload.(*frame.Frame)
	if !ok {
		return nil, payloadError(CodecFLAC, p)
	}
	if len(f.Subframes) == 0 {
		return nil, nil
	}

	bits := d.bits
	if f.BitsPerSample > 0 {
		bits = int(f.BitsPerSample)
	}
	scale := 1 / float32(int64(1)<<(bits-1))

	frames := len(f.Subframes[0].Samples)
	out := make([]float32, frames*d.channels)
	for ch := 0; ch < d.channels && ch < len(f.Subframes); ch++ {
		samples := f.Subframes[ch].Samples
		for i := 0; i < frames && i < len(samples); i++ {
			out[i*d.channels+ch] = float32(samples[i]) * scale
		}
	}
	return trim(out, p.TrimFrames, d.channels), nil
}
