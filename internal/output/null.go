package output

import (
	"sync"
	"time"
)

const nullPeriod = 10 * time.Millisecond

// nullDevice drains the source at real-time pace and discards the samples.
// Used on machines without a sound card and in tests.
type nullDevice struct {
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func OpenNull(f Format, src Source) (Device, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	frames := int(int64(f.SampleRate) * int64(nullPeriod) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}
	buf := make([]float32, frames*f.Channels)

	d := &nullDevice{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(d.stopped)
		t := time.NewTicker(nullPeriod)
		defer t.Stop()
		for {
			select {
			case <-d.done:
				return
			case <-t.C:
				src.Fill(buf)
			}
		}
	}()
	return d, nil
}

func (d *nullDevice) Name() string { return "null" }

func (d *nullDevice) Close() error {
	d.once.Do(func() { close(d.done) })
	<-d.stopped
	return nil
}
