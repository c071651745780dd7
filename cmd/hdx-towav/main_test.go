package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestToInt16(t *testing.T) {
	got := toInt16(nil, []float32{0, 1, -1, 2, -2, 0.5})
	want := []int{0, 32767, -32767, 32767, -32768, 16383}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("toInt16() = %v; want %v", got, want)
		}
	}
}

func TestConvertAll(t *testing.T) {
	src := t.TempDir()
	data := make([]int, 1000)
	for i := range data {
		data[i] = i*10 - 5000
	}
	f, err := os.Create(filepath.Join(src, "ramp.wav"))
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	enc.Write(&audio.IntBuffer{Data: data, Format: &audio.Format{NumChannels: 1, SampleRate: 8000}, SourceBitDepth: 16})
	enc.Close()
	f.Close()
	os.WriteFile(filepath.Join(src, "broken.flac"), []byte("not audio"), 0644)
	os.WriteFile(filepath.Join(src, "readme.txt"), []byte("skip me"), 0644)

	files, err := collect(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("collect() = %v; want 2 audio files", files)
	}

	dest := t.TempDir()
	if failed := convertAll(context.Background(), files, dest, 2); failed != 1 {
		t.Errorf("failed = %d; want 1", failed)
	}

	out, err := os.Open(filepath.Join(dest, "ramp.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	d := wav.NewDecoder(out)
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if d.SampleRate != 8000 || len(pcm.Data) != len(data) {
		t.Fatalf("converted %d samples at %dHz", len(pcm.Data), d.SampleRate)
	}
	// s/32768*32767 truncates toward zero, so allow one step
	for i, v := range pcm.Data {
		if diff := v - data[i]; diff > 1 || diff < -1 {
			t.Fatalf("sample %d = %d; want %d", i, v, data[i])
		}
	}
}
