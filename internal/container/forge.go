package container

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"hdxecho/pkg/spec"
)

// Sealer encrypts a single frame record.
type Sealer interface {
	Seal(frame []byte) ([]byte, error)
}

// TrackEncoder produces the codec frames of one track through emit and
// returns the track duration in seconds.
type TrackEncoder func(entry TrackEntry, emit func(frame []byte) error) (float64, error)

var ErrRecordTooLarge = errors.New("container: sealed record exceeds 65535 bytes")

// Forge writes a complete volume to w: header tags, the AUDI area of
// length-prefixed sealed frames, an optional artwork tag and the JSFD
// table of contents. Offsets in the returned structure are absolute file
// positions. progress, when set, is called after every track.
func Forge(w io.WriteSeeker, meta VolumeStructure, artwork []byte, sealer Sealer, encode TrackEncoder, progress func(done, total int)) (VolumeStructure, error) {
	if _, err := w.Write([]byte(spec.VolumeMagicV2)); err != nil {
		return meta, err
	}

	// 1. HEADER
	if err := WriteTag(w, spec.Album, []byte(meta.Album)); err != nil {
		return meta, err
	}
	if meta.Publisher != "" {
		if err := WriteTag(w, spec.Publisher, []byte(meta.Publisher)); err != nil {
			return meta, err
		}
	}
	if meta.Genre != "" {
		if err := WriteTag(w, spec.Genre, []byte(meta.Genre)); err != nil {
			return meta, err
		}
	}

	// 2. AUDIO BLOCK, size patched once every track is written
	if _, err := w.Write([]byte(spec.AudioData)); err != nil {
		return meta, err
	}
	sizePos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return meta, err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(0)); err != nil {
		return meta, err
	}
	audioStart := sizePos + 4
	pos := uint64(audioStart)

	tracks := make([]TrackEntry, 0, len(meta.Content))
	for i, track := range meta.Content {
		if track.TrackNumber == 0 {
			track.TrackNumber = i + 1
		}
		track.Offset = pos

		emit := func(frame []byte) error {
			sealed, err := sealer.Seal(frame)
			if err != nil {
				return err
			}
			if len(sealed) > math.MaxUint16 {
				return ErrRecordTooLarge
			}
			if err := binary.Write(w, binary.BigEndian, uint16(len(sealed))); err != nil {
				return err
			}
			if _, err := w.Write(sealed); err != nil {
				return err
			}
			pos += uint64(2 + len(sealed))
			return nil
		}

		dur, err := encode(track, emit)
		if err != nil {
			return meta, fmt.Errorf("track %d %q: %w", track.TrackNumber, track.Title, err)
		}
		track.Duration = dur
		track.Size = pos - track.Offset
		tracks = append(tracks, track)

		if progress != nil {
			progress(i+1, len(meta.Content))
		}
	}

	// 3. UPDATE AUDI SIZE
	audioSize := int64(pos) - audioStart
	if audioSize > math.MaxUint32 {
		return meta, fmt.Errorf("container: audio area of %d bytes does not fit the tag size", audioSize)
	}
	if _, err := w.Seek(sizePos, io.SeekStart); err != nil {
		return meta, err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(audioSize)); err != nil {
		return meta, err
	}
	if _, err := w.Seek(int64(pos), io.SeekStart); err != nil {
		return meta, err
	}

	if len(artwork) > 0 {
		if err := WriteTag(w, spec.Artwork, artwork); err != nil {
			return meta, err
		}
	}

	// 4. JSFD SEALING
	meta.Content = tracks
	toc, err := json.Marshal(meta)
	if err != nil {
		return meta, err
	}
	return meta, WriteTag(w, spec.JsonFileData, toc)
}
