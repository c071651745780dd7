package audioengine

import (
	"errors"
	"math"
	"testing"
)

func TestAdjustVolumeSaturates(t *testing.T) {
	deltas := []float64{-1, -0.75, -0.1, 0, 0.05, 0.3, 0.99, 1}

	for _, d := range deltas {
		st := newTestState(44100, 2, 10, nil)
		for i := 0; i < 40; i++ {
			if err := st.AdjustVolume(d); err != nil {
				t.Fatal(err)
			}
			if st.volume < 0 || st.volume > 1 {
				t.Fatalf("delta %v step %d: volume %v out of range", d, i, st.volume)
			}
		}
	}

	st := newTestState(44100, 2, 10, nil, WithVolume(0.25))
	st.AdjustVolume(0.5)
	if st.volume != 0.75 {
		t.Errorf("volume = %v; want 0.75", st.volume)
	}
	st.AdjustVolume(1)
	st.AdjustVolume(-0.25)
	if st.volume != 0.75 {
		t.Errorf("volume after saturating = %v; want 0.75", st.volume)
	}
}

func TestTogglePause(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	st.TogglePause()
	if !st.isPause {
		t.Fatal("expected paused")
	}
	st.TogglePause()
	if st.isPause {
		t.Fatal("expected playing")
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name         string
		channels     int
		played       uint64
		finished     bool
		seconds      float64
		wantPlayed   uint64
		wantFinished bool
	}{
		{"past end", 1, 0, false, 15, 10*44100 - 1, true},
		{"exactly to end", 1, 0, false, 10, 10*44100 - 1, true},
		{"forward", 1, 44100, false, 2, 3 * 44100, false},
		{"stereo moves by samples", 2, 0, false, 1, 2 * 44100, false},
		{"rewind below zero", 1, 44100, false, -600, 0, false},
		{"revives finished", 1, 10*44100 - 1, true, -5, 10*44100 - 1 - 5*44100, false},
		{"stays finished", 1, 10*44100 - 1, true, 1, 10*44100 - 1, true},
		{"huge forward saturates", 2, 1000, false, 1e15, 10*44100 - 1, true},
		{"infinite forward", 2, 1000, false, math.Inf(1), 10*44100 - 1, true},
		{"infinite rewind", 2, 1000, false, math.Inf(-1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(44100, tt.channels, 10, nil)
			st.totalSamplesPlayed = tt.played
			st.isFinished = tt.finished

			if err := st.Skip(tt.seconds); err != nil {
				t.Fatal(err)
			}
			if st.totalSamplesPlayed != tt.wantPlayed {
				t.Errorf("played = %d; want %d", st.totalSamplesPlayed, tt.wantPlayed)
			}
			if st.isFinished != tt.wantFinished {
				t.Errorf("finished = %v; want %v", st.isFinished, tt.wantFinished)
			}
			if !st.isSeeking {
				t.Error("skip should request a seek")
			}
		})
	}
}

func TestSkipNaN(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	st.totalSamplesPlayed = 1000
	if err := st.Skip(math.NaN()); err != nil {
		t.Fatal(err)
	}
	if st.totalSamplesPlayed != 1000 || st.isSeeking {
		t.Errorf("NaN skip moved the position: played=%d seeking=%v", st.totalSamplesPlayed, st.isSeeking)
	}
}

func TestFillUnderrun(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	out := []float32{9, 9, 9, 9, 9, 9}

	st.Fill(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v; want silence", i, v)
		}
	}
	if st.totalSamplesPlayed != 3 {
		t.Errorf("played = %d; want 3 frames", st.totalSamplesPlayed)
	}
}

func TestFillPaused(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	st.queue.Push([]float32{1, 1, 1, 1})
	st.isPause = true

	out := []float32{9, 9, 9, 9}
	st.Fill(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v; want silence", i, v)
		}
	}
	if st.totalSamplesPlayed != 0 {
		t.Errorf("played = %d; pause must not advance", st.totalSamplesPlayed)
	}
	if st.queue.Len() != 4 {
		t.Errorf("queue = %d; pause must not drain", st.queue.Len())
	}
}

func TestFillVolumeAndPartialUnderrun(t *testing.T) {
	st := newTestState(44100, 2, 10, nil, WithVolume(0.5))
	st.queue.Push([]float32{1, -1, 0.5})

	out := make([]float32, 6)
	st.Fill(out)
	want := []float32{0.5, -0.5, 0.25, 0, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v; want %v", out, want)
		}
	}
	if st.queue.Len() != 0 {
		t.Errorf("queue = %d; want drained", st.queue.Len())
	}
}

func TestFillStopsCountingWhenFinished(t *testing.T) {
	st := newTestState(8000, 1, 1, nil)
	st.totalSamplesPlayed = 7998

	out := make([]float32, 10)
	st.Fill(out)
	if st.totalSamplesPlayed != 8000 {
		t.Errorf("played = %d; want clamp at 8000", st.totalSamplesPlayed)
	}

	st.isFinished = true
	st.totalSamplesPlayed = 100
	st.Fill(out)
	if st.totalSamplesPlayed != 100 {
		t.Errorf("played = %d; finished track must not advance", st.totalSamplesPlayed)
	}
}

func TestPoisonedState(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	st.queue.Push([]float32{1, 1})

	err := st.with(func() { panic("boom") })
	if !errors.Is(err, ErrLockPoisoned) {
		t.Fatalf("with(panic) error = %v; want ErrLockPoisoned", err)
	}

	for name, op := range map[string]func() error{
		"TogglePause":  st.TogglePause,
		"AdjustVolume": func() error { return st.AdjustVolume(0.1) },
		"Skip":         func() error { return st.Skip(1) },
		"Snapshot":     func() error { _, err := st.Snapshot(); return err },
	} {
		if err := op(); !errors.Is(err, ErrLockPoisoned) {
			t.Errorf("%s error = %v; want ErrLockPoisoned", name, err)
		}
	}

	out := []float32{9, 9}
	st.Fill(out)
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("poisoned Fill wrote %v; want silence", out)
	}
}

func TestSnapshot(t *testing.T) {
	st := newTestState(44100, 2, 10, nil)
	st.queue.Push(make([]float32, 10))
	st.totalSamplesPlayed = 44101
	st.fft = []float64{1, 2, 3}
	st.setDevice("fake")

	snap, err := st.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Buffered != 10 || snap.SampleRate != 44100 || snap.Channels != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Threshold != 4096 || snap.Volume != 0.3 || snap.Device != "fake" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Timestamp != "00:02" {
		t.Errorf("Timestamp = %q; want 00:02", snap.Timestamp)
	}

	snap.Spectrum[0] = 42
	if st.fft[0] != 1 {
		t.Error("snapshot spectrum must be a copy")
	}
}

func TestSampleQueue(t *testing.T) {
	var q sampleQueue
	q.Push([]float32{1, 2, 3})
	if v, _ := q.Pop(); v != 1 {
		t.Fatalf("Pop() = %v; want 1", v)
	}
	q.Push([]float32{4})

	dst := make([]float64, 5)
	if n := q.Peek(dst); n != 3 || dst[0] != 2 || dst[2] != 4 {
		t.Errorf("Peek() = %d %v", n, dst)
	}
	for _, want := range []float32{2, 3, 4} {
		if v, ok := q.Pop(); !ok || v != want {
			t.Fatalf("Pop() = %v %v; want %v", v, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue should report underrun")
	}
	q.Push([]float32{5})
	q.Clear()
	if q.Len() != 0 {
		t.Error("Clear() left samples")
	}
}
