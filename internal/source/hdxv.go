package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"hdxecho/internal/container"
	"hdxecho/internal/security"
	"hdxecho/pkg/spec"
)

// hdxvReader walks the AUDI area of an HDXV volume. Each record is a
// big-endian uint16 length followed by an AES-GCM sealed opus frame.
// Reading stops at the end of the track last positioned on (the first
// track until Seek picks another).
type hdxvReader struct {
	rs       io.ReadSeekCloser
	cipher   *security.FrameCipher
	tracks   []Track
	entries  []container.TrackEntry
	pos      int64
	end      int64
	audioEnd int64
	trim     int
}

func newHDXVReader(rs io.ReadSeekCloser, path string) (*hdxvReader, error) {
	vol, err := container.UnpackVolume(rs)
	if errors.Is(err, container.ErrNoTracks) {
		return nil, fmt.Errorf("%w: %w", ErrNoAudioTrack, err)
	}
	if err != nil {
		return nil, err
	}

	key, err := security.LoadAudioKey(path)
	if err != nil {
		return nil, fmt.Errorf("hdxv key locker: %w", err)
	}
	fc, err := security.NewFrameCipher(key)
	if err != nil {
		return nil, err
	}

	r := &hdxvReader{
		rs:       rs,
		cipher:   fc,
		entries:  vol.Meta.Content,
		audioEnd: vol.AudioStart + vol.AudioSize,
	}
	for i, e := range r.entries {
		r.tracks = append(r.tracks, Track{
			ID:         trackID(i, e),
			Codec:      CodecOpus,
			SampleRate: spec.SampleRate,
			Channels:   spec.Channels,
			NFrames:    uint64(math.Round(e.Duration * spec.SampleRate)),
			TimeBase:   NewTimeBase(spec.SampleRate),
		})
	}

	if err := r.moveTo(int64(r.entries[0].Offset)); err != nil {
		return nil, err
	}
	r.end = r.trackEnd(r.entries[0])
	return r, nil
}

func trackID(i int, e container.TrackEntry) uint32 {
	if e.TrackNumber > 0 {
		return uint32(e.TrackNumber)
	}
	return uint32(i + 1)
}

func (r *hdxvReader) Tracks() []Track { return r.tracks }

func (r *hdxvReader) trackEnd(e container.TrackEntry) int64 {
	return min(int64(e.Offset+e.Size), r.audioEnd)
}

func (r *hdxvReader) moveTo(pos int64) error {
	if _, err := r.rs.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	r.pos = pos
	return nil
}

// trackAt returns the id of the track whose byte range holds pos.
func (r *hdxvReader) trackAt(pos int64) uint32 {
	for i, e := range r.entries {
		start := int64(e.Offset)
		if pos >= start && pos < start+int64(e.Size) {
			return trackID(i, e)
		}
	}
	return 0
}

func (r *hdxvReader) readRecordLen() (uint16, error) {
	var sz uint16
	if err := binary.Read(r.rs, binary.BigEndian, &sz); err != nil {
		return 0, err
	}
	return sz, nil
}

func (r *hdxvReader) NextPacket() (*Packet, error) {
	if r.pos+2 > r.end {
		return nil, io.EOF
	}
	owner := r.trackAt(r.pos)

	sz, err := r.readRecordLen()
	if err != nil {
		return nil, err
	}
	enc := make([]byte, sz)
	if _, err := io.ReadFull(r.rs, enc); err != nil {
		return nil, err
	}
	r.pos += 2 + int64(sz)

	frame, err := r.cipher.Open(enc)
	if err != nil {
		return nil, fmt.Errorf("hdxv decrypt: %w", err)
	}

	p := &Packet{TrackID: owner, Payload: frame, TrimFrames: r.trim}
	r.trim = 0
	return p, nil
}

// Seek skips whole 20ms records from the start of the track, then trims the
// remainder from the record that holds the target.
func (r *hdxvReader) Seek(to SeekTo) error {
	idx := -1
	for i, e := range r.entries {
		if trackID(i, e) == to.TrackID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("hdxv: no track %d", to.TrackID)
	}
	e := r.entries[idx]
	start, end := int64(e.Offset), r.trackEnd(e)

	target := FrameAt(to.Time, spec.SampleRate)
	skip := target / spec.FrameSamples

	if err := r.moveTo(start); err != nil {
		return err
	}
	for i := uint64(0); i < skip && r.pos+2 <= end; i++ {
		sz, err := r.readRecordLen()
		if err != nil {
			return err
		}
		if _, err := r.rs.Seek(int64(sz), io.SeekCurrent); err != nil {
			return err
		}
		r.pos += 2 + int64(sz)
	}
	r.end = end
	r.trim = int(target % spec.FrameSamples)
	return nil
}

func (r *hdxvReader) Close() error { return r.rs.Close() }
