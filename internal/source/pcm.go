package source

import (
	"encoding/binary"
)

// intDecoder scales integer PCM (as produced by go-audio) into [-1, 1).
// 8-bit wav is unsigned with its midpoint at 128.
type intDecoder struct {
	channels int
	offset   int
	scale    float32
}

func newIntDecoder(channels, bits int) *intDecoder {
	d := &intDecoder{
		channels: channels,
		scale:    1 / float32(int64(1)<<(bits-1)),
	}
	if bits == 8 {
		d.offset = 128
	}
	return d
}

func (d *intDecoder) Decode(p *Packet) ([]float32, error) {
	ints, ok := p.Payload.([]int)
	if !ok {
		return nil, payloadError(CodecPCM, p)
	}
	out := make([]float32, len(ints))
	for i, v := range ints {
		out[i] = float32(v-d.offset) * d.scale
	}
	return trim(out, p.TrimFrames, d.channels), nil
}

// pcm16Decoder converts signed 16-bit little endian bytes.
type pcm16Decoder struct {
	channels int
}

func (d *pcm16Decoder) Decode(p *Packet) ([]float32, error) {
	raw, ok := p.Payload.([]byte)
	if !ok {
		return nil, payloadError(CodecMP3, p)
	}
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}
	return trim(out, p.TrimFrames, d.channels), nil
}

// floatDecoder passes through samples that are already float32.
type floatDecoder struct {
	channels int
}

func (d *floatDecoder) Decode(p *Packet) ([]float32, error) {
	in, ok := p.Payload.([]float32)
	if !ok {
		return nil, payloadError(CodecVorbis, p)
	}
	return trim(in, p.TrimFrames, d.channels), nil
}
