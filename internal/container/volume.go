package container

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"hdxecho/pkg/spec"
)

var (
	ErrNotVolume = errors.New("container: not an HDXV volume")
	ErrNoTracks  = errors.New("container: no tracks in volume")
)

// TrackEntry mengikuti isi "content" pada JSFD
type TrackEntry struct {
	TrackNumber int     `json:"track_number"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	OriginFile  string  `json:"origin_file,omitempty"`
	Offset      uint64  `json:"offset"`
	Size        uint64  `json:"size"`
	Duration    float64 `json:"duration"`
}

type VolumeStructure struct {
	Album     string       `json:"album"`
	Artist    string       `json:"artist"`
	Publisher string       `json:"publisher"`
	Content   []TrackEntry `json:"content"`
	Genre     string       `json:"genre"`
	CopyRight string       `json:"copyright"`

	ArtworkPath string `json:"artwork_path,omitempty"`
}

type Volume struct {
	AlbumTitle string
	Publisher  string
	AudioStart int64
	AudioSize  int64
	Meta       VolumeStructure
}

// IsVolume reports whether head starts with the HDXV magic.
func IsVolume(head []byte) bool {
	return len(head) >= len(spec.VolumeMagicV2) && string(head[:len(spec.VolumeMagicV2)]) == spec.VolumeMagicV2
}

// UnpackVolume walks the TLV tags of an HDXV file. The AUDI area is not read,
// only located; frames are pulled lazily by the playback reader.
func UnpackVolume(r io.ReadSeeker) (*Volume, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// 1. Validasi Magic Number
	magic := make([]byte, len(spec.VolumeMagicV2))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if !IsVolume(magic) {
		return nil, fmt.Errorf("%w: magic %q", ErrNotVolume, magic)
	}

	vol := &Volume{}
	hasToc := false

	// 2. Loop pembacaan Tag
	tagBuf := make([]byte, 4)
	for {
		if _, err := io.ReadFull(r, tagBuf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		tag := string(tagBuf)

		var size uint32
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return nil, err
		}

		switch tag {
		case spec.Album:
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			vol.AlbumTitle = string(buf)

		case spec.Publisher:
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			vol.Publisher = string(buf)

		case spec.AudioData:
			pos, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, err
			}
			vol.AudioStart = pos
			vol.AudioSize = int64(size)
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}

		case spec.JsonFileData:
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			if err := json.Unmarshal(buf, &vol.Meta); err != nil {
				return nil, fmt.Errorf("failed to parse JSFD: %w", err)
			}
			hasToc = true

		default:
			// Loncat ke tag berikutnya
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}

	if !hasToc || len(vol.Meta.Content) == 0 {
		return nil, fmt.Errorf("%w (JSFD missing or empty)", ErrNoTracks)
	}
	if vol.AlbumTitle == "" {
		vol.AlbumTitle = vol.Meta.Album
	}

	return vol, nil
}

// WriteTag writes one tag/size/data record.
func WriteTag(w io.Writer, tag string, data []byte) error {
	if _, err := w.Write([]byte(tag)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
