package output

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portAudioDevice struct {
	stream *portaudio.Stream
	name   string
}

// OpenPortAudio opens the default output device with an output-only
// callback stream. PortAudio calls src.Fill from its own thread.
func OpenPortAudio(f Format, src Source) (Device, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	name := "portaudio"
	if info, err := portaudio.DefaultOutputDevice(); err == nil && info != nil {
		name = info.Name
	}

	stream, err := portaudio.OpenDefaultStream(
		0,
		f.Channels,
		float64(f.SampleRate),
		portaudio.FramesPerBufferUnspecified,
		func(out []float32) { src.Fill(out) },
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio start: %w", err)
	}

	return &portAudioDevice{stream: stream, name: name}, nil
}

func (d *portAudioDevice) Name() string { return d.name }

func (d *portAudioDevice) Close() error {
	return errors.Join(d.stream.Stop(), d.stream.Close(), portaudio.Terminate())
}
