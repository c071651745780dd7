package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3

	wavChunkFrames = 1024
)

type wavReader struct {
	rs    io.ReadSeekCloser
	dec   *wav.Decoder
	track Track
	buf   *audio.IntBuffer
	trim  int
}

func newWavReader(rs io.ReadSeekCloser) (*wavReader, error) {
	r := &wavReader{rs: rs}
	if err := r.rewind(); err != nil {
		return nil, err
	}

	d := r.dec
	channels := int(d.NumChans)
	bits := int(d.BitDepth)

	codec := CodecPCM
	if d.WavAudioFormat == wavFormatFloat {
		codec = CodecPCMFloat
	} else if d.WavAudioFormat != wavFormatPCM {
		codec = fmt.Sprintf("wav_fmt_%d", d.WavAudioFormat)
	}

	var nFrames uint64
	if frameBytes := channels * bits / 8; frameBytes > 0 {
		nFrames = uint64(d.PCMLen()) / uint64(frameBytes)
	}

	r.track = Track{
		ID:            0,
		Codec:         codec,
		SampleRate:    int(d.SampleRate),
		Channels:      channels,
		BitsPerSample: bits,
		NFrames:       nFrames,
		TimeBase:      NewTimeBase(int(d.SampleRate)),
	}
	r.buf = &audio.IntBuffer{
		Data:   make([]int, wavChunkFrames*max(channels, 1)),
		Format: d.Format(),
	}
	return r, nil
}

// rewind builds a fresh decoder positioned on the first PCM byte.
func (r *wavReader) rewind() error {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return err
	}
	d := wav.NewDecoder(r.rs)
	if !d.IsValidFile() {
		return fmt.Errorf("%w: invalid wav header", ErrUnknownFormat)
	}
	if err := d.FwdToPCM(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	r.dec = d
	return nil
}

func (r *wavReader) Tracks() []Track { return []Track{r.track} }

func (r *wavReader) NextPacket() (*Packet, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	data := make([]int, n)
	copy(data, r.buf.Data[:n])

	p := &Packet{TrackID: r.track.ID, Payload: data, TrimFrames: r.trim}
	r.trim = 0
	return p, nil
}

// Seek re-reads the data chunk from the start and discards frames up to the
// target; go-audio keeps chunk state that a raw Seek on the file would break.
func (r *wavReader) Seek(to SeekTo) error {
	if to.TrackID != r.track.ID {
		return fmt.Errorf("wav: no track %d", to.TrackID)
	}
	if err := r.rewind(); err != nil {
		return err
	}

	target := FrameAt(to.Time, r.track.SampleRate) * uint64(r.track.Channels)
	var skipped uint64
	for skipped < target {
		want := uint64(len(r.buf.Data))
		if rest := target - skipped; rest < want {
			want = rest
		}
		chunk := &audio.IntBuffer{Data: r.buf.Data[:want], Format: r.buf.Format}
		n, err := r.dec.PCMBuffer(chunk)
		skipped += uint64(n)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				return nil // past the end; the next packet reports EOF
			}
			return err
		}
	}
	r.trim = 0
	return nil
}

func (r *wavReader) Close() error { return r.rs.Close() }
