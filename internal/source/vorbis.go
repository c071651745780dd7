package source

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

const vorbisChunkFrames = 2048

type vorbisReader struct {
	rs    io.ReadSeekCloser
	dec   *oggvorbis.Reader
	track Track
	buf   []float32
}

func newVorbisReader(rs io.ReadSeekCloser) (*vorbisReader, error) {
	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}

	var nFrames uint64
	if l := dec.Length(); l > 0 {
		nFrames = uint64(l)
	}

	return &vorbisReader{
		rs:  rs,
		dec: dec,
		track: Track{
			Codec:      CodecVorbis,
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			NFrames:    nFrames,
			TimeBase:   NewTimeBase(dec.SampleRate()),
		},
		buf: make([]float32, vorbisChunkFrames*max(dec.Channels(), 1)),
	}, nil
}

func (r *vorbisReader) Tracks() []Track { return []Track{r.track} }

// NextPacket returns the next run of interleaved samples. The reader may
// return (0, nil) between ogg pages, so it retries a few times.
func (r *vorbisReader) NextPacket() (*Packet, error) {
	for attempt := 0; attempt < 8; attempt++ {
		n, err := r.dec.Read(r.buf)
		if n > 0 {
			data := make([]float32, n)
			copy(data, r.buf[:n])
			return &Packet{TrackID: r.track.ID, Payload: data}, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, io.EOF
}

func (r *vorbisReader) Seek(to SeekTo) error {
	if to.TrackID != r.track.ID {
		return fmt.Errorf("vorbis: no track %d", to.TrackID)
	}
	pos := int64(FrameAt(to.Time, r.track.SampleRate))
	if l := r.dec.Length(); l > 0 && pos > l {
		pos = l
	}
	return r.dec.SetPosition(pos)
}

func (r *vorbisReader) Close() error { return r.rs.Close() }
