package audioengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"hdxecho/internal/source"
)

type stepResult int

const (
	stepContinue stepResult = iota
	stepBackoff
	stepExit
)

// decodeStep runs one iteration of the decode worker:
//
//  1. finished: exit
//  2. seek pending: drop the queue and reposition the reader
//  3. queue above threshold: back off
//  4. otherwise check the slot out, decode one packet, check it back in
//
// The lock is never held while the reader or decoder does work.
func (s *State) decodeStep() stepResult {
	var (
		slot    *decodeSlot
		seekTo  *source.SeekTo
		trackID uint32
		result  = stepContinue
	)

	err := s.with(func() {
		if s.isFinished {
			s.decodeActive = false
			result = stepExit
			return
		}
		if s.isSeeking {
			s.isSeeking = false
			s.queue.Clear()
			seekTo = &source.SeekTo{
				Time:    s.timeBase.CalcTime(s.totalSamplesPlayed),
				TrackID: s.trackID,
			}
		} else if s.queue.Len() > s.threshold {
			result = stepBackoff
			return
		}
		slot, s.slot = s.slot, nil
		if slot == nil {
			s.decodeActive = false
			result = stepExit
		}
		trackID = s.trackID
	})
	if err != nil {
		return stepExit
	}
	if result != stepContinue {
		return result
	}

	if seekTo != nil {
		return s.checkIn(slot, nil, s.seek(slot, *seekTo))
	}

	samples, err := decodeNext(slot, trackID)
	return s.checkIn(slot, samples, err)
}

// checkIn returns the slot and applies the outcome of the work done while
// it was checked out. A non-nil err ends the track.
func (s *State) checkIn(slot *decodeSlot, samples []float32, err error) stepResult {
	result := stepContinue
	lockErr := s.with(func() {
		s.slot = slot
		if err != nil {
			s.isFinished = true
			s.decodeActive = false
			result = stepExit
			return
		}
		s.queue.Push(samples)
	})
	if lockErr != nil {
		return stepExit
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.log.Debug().Msg("end of stream")
		} else {
			s.log.Warn().Err(err).Msg("decode stopped")
		}
	}
	return result
}

func (s *State) seek(slot *decodeSlot, to source.SeekTo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("seek panic: %v", r)
		}
	}()
	if err := slot.reader.Seek(to); err != nil {
		return fmt.Errorf("seek to %s: %w", to.Time, err)
	}
	return nil
}

// decodeNext reads one packet. A packet of another track means the
// selected track has ended.
func decodeNext(slot *decodeSlot, trackID uint32) (samples []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			samples, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	p, err := slot.reader.NextPacket()
	if err != nil {
		return nil, err
	}
	if p.TrackID != trackID {
		return nil, fmt.Errorf("packet of track %d: %w", p.TrackID, io.EOF)
	}
	return slot.decoder.Decode(p)
}

// decodeLoop drives decodeStep until the track finishes or ctx is done.
func (s *State) decodeLoop(ctx context.Context, backoff time.Duration) error {
	t := time.NewTimer(backoff)
	defer t.Stop()

	for {
		if ctx.Err() != nil {
			s.markDecodeStopped()
			return nil
		}
		switch s.decodeStep() {
		case stepExit:
			return nil
		case stepBackoff:
			t.Reset(backoff)
			select {
			case <-ctx.Done():
				s.markDecodeStopped()
				return nil
			case <-t.C:
			}
		}
	}
}

func (s *State) markDecodeStopped() {
	s.mu.Lock()
	s.decodeActive = false
	s.mu.Unlock()
}
