package source

import (
	"fmt"
	"io"
	"os"

	"hdxecho/pkg/spec"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hraban/opus"
)

// EncodeWavToOpus streams a 48kHz stereo 16-bit wav through the opus
// encoder, one 20ms frame per emit call. The last frame is padded with
// silence. It returns the duration in seconds.
func EncodeWavToOpus(path string, emit func(frame []byte) error) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if dec.SampleRate != spec.SampleRate || dec.NumChans != spec.Channels || dec.BitDepth != 16 {
		return 0, fmt.Errorf("%w: %s is %dHz/%dch/%dbit, volumes need %dHz/%dch/16bit",
			ErrUnsupportedCodec, path, dec.SampleRate, dec.NumChans, dec.BitDepth, spec.SampleRate, spec.Channels)
	}

	enc, err := opus.NewEncoder(spec.SampleRate, spec.Channels, opus.AppAudio)
	if err != nil {
		return 0, err
	}

	pcmBuf := make([]int16, spec.FrameSamples*spec.Channels)
	opusBuf := make([]byte, 1500)

	// 1 detik per siklus I/O
	intBuf := &audio.IntBuffer{
		Data:   make([]int, spec.SampleRate*spec.Channels),
		Format: &audio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
	}

	// carry holds a partial frame between reads
	carry := 0
	total := 0
	flush := func() error {
		n, err := enc.Encode(pcmBuf, opusBuf)
		if err != nil {
			return err
		}
		frame := make([]byte, n)
		copy(frame, opusBuf[:n])
		return emit(frame)
	}

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n == 0 {
			break
		}
		for _, v := range intBuf.Data[:n] {
			pcmBuf[carry] = int16(v)
			carry++
			if carry == len(pcmBuf) {
				if err := flush(); err != nil {
					return 0, err
				}
				carry = 0
			}
		}
		total += n
	}

	if carry > 0 {
		clear(pcmBuf[carry:])
		if err := flush(); err != nil {
			return 0, err
		}
	}

	return float64(total) / spec.Channels / spec.SampleRate, nil
}
