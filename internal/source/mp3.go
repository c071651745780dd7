package source

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits 16-bit little endian stereo.
const (
	mp3Channels   = 2
	mp3FrameBytes = 4
	mp3ChunkBytes = 4608 // one MPEG-1 layer III frame
)

type mp3Reader struct {
	rs    io.ReadSeekCloser
	dec   *mp3.Decoder
	track Track
	buf   []byte
}

func newMP3Reader(rs io.ReadSeekCloser) (*mp3Reader, error) {
	dec, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	var nFrames uint64
	if l := dec.Length(); l > 0 {
		nFrames = uint64(l) / mp3FrameBytes
	}

	return &mp3Reader{
		rs:  rs,
		dec: dec,
		track: Track{
			Codec:         CodecMP3,
			SampleRate:    dec.SampleRate(),
			Channels:      mp3Channels,
			BitsPerSample: 16,
			NFrames:       nFrames,
			TimeBase:      NewTimeBase(dec.SampleRate()),
		},
		buf: make([]byte, mp3ChunkBytes),
	}, nil
}

func (r *mp3Reader) Tracks() []Track { return []Track{r.track} }

func (r *mp3Reader) NextPacket() (*Packet, error) {
	n, err := io.ReadFull(r.dec, r.buf)
	n -= n % mp3FrameBytes
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	data := make([]byte, n)
	copy(data, r.buf[:n])
	return &Packet{TrackID: r.track.ID, Payload: data}, nil
}

// Seek is sample accurate: go-mp3 decodes from the enclosing frame and
// discards up to the byte offset itself.
func (r *mp3Reader) Seek(to SeekTo) error {
	if to.TrackID != r.track.ID {
		return fmt.Errorf("mp3: no track %d", to.TrackID)
	}
	off := int64(FrameAt(to.Time, r.track.SampleRate)) * mp3FrameBytes
	if l := r.dec.Length(); l > 0 && off > l {
		off = l
	}
	_, err := r.dec.Seek(off, io.SeekStart)
	return err
}

func (r *mp3Reader) Close() error { return r.rs.Close() }
