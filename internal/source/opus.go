package source

import (
	"fmt"

	"hdxecho/pkg/spec"

	"github.com/hraban/opus"
)

type StreamDecoder struct {
	dec      *opus.Decoder
	channels int
	pcm      []float32
}

func NewStreamDecoder(rate, channels int) (*StreamDecoder, error) {
	d, err := opus.NewDecoder(rate, channels)
	if err != nil {
		return nil, err
	}
	return &StreamDecoder{
		dec:      d,
		channels: channels,
		pcm:      make([]float32, spec.MaxFrameSamples*channels),
	}, nil
}

// DecodeFrame returns the interleaved samples of one opus frame. The slice
// is reused by the next call.
func (sd *StreamDecoder) DecodeFrame(frame []byte) ([]float32, error) {
	n, err := sd.dec.DecodeFloat32(frame, sd.pcm)
	if err != nil {
		return nil, err
	}
	return sd.pcm[:n*sd.channels], nil
}

type opusDecoder struct {
	sd *StreamDecoder
}

func newOpusDecoder(rate, channels int) (*opusDecoder, error) {
	sd, err := NewStreamDecoder(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: opus: %w", ErrUnsupportedCodec, err)
	}
	return &opusDecoder{sd: sd}, nil
}

func (d *opusDecoder) Decode(p *Packet) ([]float32, error) {
	frame, ok := p.Payload.([]byte)
	if !ok {
		return nil, payloadError(CodecOpus, p)
	}
	pcm, err := d.sd.DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	pcm = trim(pcm, p.TrimFrames, d.sd.channels)
	out := make([]float32, len(pcm))
	copy(out, pcm)
	return out, nil
}
