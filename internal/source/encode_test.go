package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hdxecho/pkg/spec"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeStereoWav(t *testing.T, rate, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, frames*2)
	for i := range data {
		data[i] = (i % 400) * 10
	}
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	buf := &audio.IntBuffer{Data: data, Format: &audio.Format{NumChannels: 2, SampleRate: rate}, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodeWavToOpus(t *testing.T) {
	// two and a half frames
	path := writeStereoWav(t, spec.SampleRate, spec.FrameSamples*5/2)

	var frames int
	dur, err := EncodeWavToOpus(path, func(frame []byte) error {
		if len(frame) == 0 {
			t.Error("empty opus frame")
		}
		frames++
		return nil
	})
	if err != nil {
		t.Fatalf("EncodeWavToOpus() error = %v", err)
	}
	if frames != 3 {
		t.Errorf("frames = %d; want 3", frames)
	}
	if dur != 0.05 {
		t.Errorf("duration = %v; want 0.05", dur)
	}
}

func TestEncodeWavToOpusRejectsRate(t *testing.T) {
	path := writeStereoWav(t, 44100, 100)
	_, err := EncodeWavToOpus(path, func([]byte) error { return nil })
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("error = %v; want ErrUnsupportedCodec", err)
	}
}
