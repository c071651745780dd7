package audioengine

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"hdxecho/internal/output"
	"hdxecho/internal/source"

	"github.com/rs/zerolog"
)

// fakeReader serves payloads of []float32 for track 1. Seeking rewinds to
// the packet that holds the target frame.
type fakeReader struct {
	packets   []*source.Packet
	frames    int // frames per packet
	rate      int
	pos       int
	seekErr   error
	seeks     []source.SeekTo
	nextCalls atomic.Int64
	closed    atomic.Bool
}

func newFakeReader(n, frames, channels, rate int) *fakeReader {
	r := &fakeReader{frames: frames, rate: rate}
	for i := 0; i < n; i++ {
		pcm := make([]float32, frames*channels)
		for j := range pcm {
			pcm[j] = 0.5
		}
		r.packets = append(r.packets, &source.Packet{TrackID: 1, Payload: pcm})
	}
	return r
}

func (r *fakeReader) Tracks() []source.Track { return nil }

func (r *fakeReader) NextPacket() (*source.Packet, error) {
	r.nextCalls.Add(1)
	if r.pos >= len(r.packets) {
		return nil, io.EOF
	}
	p := r.packets[r.pos]
	r.pos++
	return p, nil
}

func (r *fakeReader) Seek(to source.SeekTo) error {
	r.seeks = append(r.seeks, to)
	if r.seekErr != nil {
		return r.seekErr
	}
	r.pos = int(source.FrameAt(to.Time, r.rate)) / r.frames
	return nil
}

func (r *fakeReader) Close() error {
	r.closed.Store(true)
	return nil
}

type fakeDecoder struct{ fail bool }

func (d fakeDecoder) Decode(p *source.Packet) ([]float32, error) {
	if d.fail {
		return nil, errors.New("corrupt packet")
	}
	pcm := p.Payload.([]float32)
	return append([]float32(nil), pcm...), nil
}

// fakeDevice pulls from the source on a short ticker, like a sound card.
type fakeDevice struct {
	stop   chan struct{}
	done   chan struct{}
	closed atomic.Int64
	once   sync.Once
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Close() error {
	d.once.Do(func() { close(d.stop) })
	<-d.done
	d.closed.Add(1)
	return nil
}

type fakeOpener struct {
	mu      sync.Mutex
	devices []*fakeDevice
	err     error
}

func (o *fakeOpener) Open(f output.Format, src output.Source) (output.Device, error) {
	if o.err != nil {
		return nil, o.err
	}
	d := &fakeDevice{stop: make(chan struct{}), done: make(chan struct{})}
	buf := make([]float32, 256*f.Channels)
	go func() {
		defer close(d.done)
		t := time.NewTicker(time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-t.C:
				src.Fill(buf)
			}
		}
	}()
	o.mu.Lock()
	o.devices = append(o.devices, d)
	o.mu.Unlock()
	return d, nil
}

func (o *fakeOpener) opened() []*fakeDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*fakeDevice(nil), o.devices...)
}

// newTestState builds a state for a track of the given length without
// touching the filesystem.
func newTestState(rate, channels int, seconds uint64, r *fakeReader, opts ...Option) *State {
	o := newOptions(append([]Option{WithLogger(zerolog.Nop())}, opts...))
	desc := Descriptor{
		Path:       "fake.wav",
		Codec:      source.CodecPCM,
		SampleRate: rate,
		Channels:   channels,
		TrackID:    1,
		FileSize:   "1.00kb",
		Duration:   DurationInfo{Readable: FormatClock(seconds), Seconds: seconds},
	}
	var slot *decodeSlot
	if r != nil {
		slot = &decodeSlot{reader: r, decoder: fakeDecoder{}}
	}
	return newState(desc, source.NewTimeBase(rate), slot, o)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
