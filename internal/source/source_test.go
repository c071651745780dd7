package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		path string
		want string
	}{
		{"riff wave", []byte("RIFF\x00\x00\x00\x00WAVE"), "a.bin", "wav"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "a", "flac"},
		{"ogg", []byte("OggS\x00\x02"), "a", "ogg"},
		{"hdxv", []byte("HDXV02ALBM"), "a", "hdxv"},
		{"id3", []byte("ID3\x04\x00"), "a", "mp3"},
		{"mpeg sync", []byte{0xFF, 0xFB, 0x90, 0x64}, "a", "mp3"},
		{"extension fallback", []byte("????"), "song.FLAC", "flac"},
		{"unknown", []byte("????"), "notes.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.head, tt.path); got != tt.want {
				t.Errorf("detectFormat() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSelectTrack(t *testing.T) {
	if _, err := SelectTrack(nil); !errors.Is(err, ErrNoAudioTrack) {
		t.Errorf("SelectTrack(nil) error = %v; want ErrNoAudioTrack", err)
	}

	_, err := SelectTrack([]Track{{ID: 1}})
	if !errors.Is(err, ErrNoAudioTrack) || !errors.Is(err, ErrNoSampleRate) {
		t.Errorf("SelectTrack(no rate) error = %v", err)
	}

	got, err := SelectTrack([]Track{{ID: 1}, {ID: 2, SampleRate: 44100}, {ID: 3, SampleRate: 48000}})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 2 {
		t.Errorf("SelectTrack() picked track %d; want 2", got.ID)
	}
}

func TestNewDecoderUnsupported(t *testing.T) {
	_, err := NewDecoder(Track{Codec: "alac", SampleRate: 44100, Channels: 2})
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("error = %v; want ErrUnsupportedCodec", err)
	}
	_, err = NewDecoder(Track{Codec: CodecPCMFloat, SampleRate: 44100, Channels: 2, BitsPerSample: 32})
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("float wav error = %v; want ErrUnsupportedCodec", err)
	}
}

func TestTimeBase(t *testing.T) {
	tb := NewTimeBase(44100)
	if got := tb.CalcTime(44100 * 3); got != 3*time.Second {
		t.Errorf("CalcTime() = %v; want 3s", got)
	}
	if got := FrameAt(tb.CalcTime(12345), 44100); got != 12345 {
		t.Errorf("FrameAt(CalcTime(12345)) = %d", got)
	}
	if got := FrameAt(-time.Second, 44100); got != 0 {
		t.Errorf("FrameAt(negative) = %d; want 0", got)
	}
}

// writeWav writes a mono 16-bit ramp and returns its path and samples.
func writeWav(t *testing.T, rate, frames int) (string, []int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ramp.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	data := make([]int, frames)
	for i := range data {
		data[i] = (i % 2000) - 1000
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func openProbe(t *testing.T, path string) FormatReader {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Probe(f, path)
	if err != nil {
		f.Close()
		t.Fatalf("Probe() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestWavProbeAndDecode(t *testing.T) {
	path, data := writeWav(t, 8000, 8000)
	r := openProbe(t, path)

	track, err := SelectTrack(r.Tracks())
	if err != nil {
		t.Fatal(err)
	}
	if track.SampleRate != 8000 || track.Channels != 1 || track.NFrames != 8000 || track.Codec != CodecPCM {
		t.Fatalf("track = %+v", track)
	}

	dec, err := NewDecoder(track)
	if err != nil {
		t.Fatal(err)
	}

	var total int
	var first float32
	for {
		p, err := r.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPacket() error = %v", err)
		}
		out, err := dec.Decode(p)
		if err != nil {
			t.Fatal(err)
		}
		if total == 0 && len(out) > 0 {
			first = out[0]
		}
		total += len(out)
	}

	if total != len(data) {
		t.Errorf("decoded %d samples; want %d", total, len(data))
	}
	if want := float32(data[0]) / 32768; first != want {
		t.Errorf("first sample = %v; want %v", first, want)
	}
}

func TestWav8BitIsUnsigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u8.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 8, 1, 1)
	buf := &audio.IntBuffer{
		Data:           []int{128, 128, 0, 255, 192},
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		SourceBitDepth: 8,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r := openProbe(t, path)
	track := r.Tracks()[0]
	dec, err := NewDecoder(track)
	if err != nil {
		t.Fatal(err)
	}
	p, err := r.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	out, err := dec.Decode(p)
	if err != nil {
		t.Fatal(err)
	}

	want := []float32{0, 0, -1, 127.0 / 128, 0.5}
	if len(out) != len(want) {
		t.Fatalf("decoded %d samples; want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v; want %v", i, out[i], want[i])
		}
	}
}

func TestWavAccurateSeek(t *testing.T) {
	path, data := writeWav(t, 8000, 8000)
	r := openProbe(t, path)
	track := r.Tracks()[0]
	dec, _ := NewDecoder(track)

	if err := r.Seek(SeekTo{Time: track.TimeBase.CalcTime(4321), TrackID: track.ID}); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	p, err := r.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	out, _ := dec.Decode(p)
	if want := float32(data[4321]) / 32768; len(out) == 0 || out[0] != want {
		t.Errorf("sample after seek = %v; want %v", out, want)
	}

	if err := r.Seek(SeekTo{Time: 0, TrackID: 9}); err == nil {
		t.Error("Seek() to an unknown track should fail")
	}
}

func TestProbeUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("just some text"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := Probe(f, path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Probe() error = %v; want ErrUnknownFormat", err)
	}
}
