/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hdxecho/internal/source"
	"hdxecho/pkg/audioengine"
)

func cmdStatus(p *audioengine.Player) string {
	snap, err := p.Snapshot()
	if err != nil {
		return benign(err)
	}
	snap.Spectrum = nil
	j, _ := json.Marshal(snap)
	return string(j)
}

func cmdSpectrum(p *audioengine.Player) string {
	snap, err := p.Snapshot()
	if err != nil {
		return benign(err)
	}
	if snap.Spectrum == nil {
		snap.Spectrum = []float64{}
	}
	j, _ := json.Marshal(snap.Spectrum)
	return string(j)
}

func cmdPlay(p *audioengine.Player, path string) string {
	_, err := p.Load(context.Background(), path)
	switch {
	case err == nil:
		return "OK PLAYING"
	case errors.Is(err, audioengine.ErrDevice):
		return "OK NO_AUDIO"
	case errors.Is(err, audioengine.ErrIO):
		return "ERR IO"
	case errors.Is(err, source.ErrUnknownFormat):
		return "ERR FORMAT"
	case errors.Is(err, source.ErrNoAudioTrack):
		return "ERR NO_TRACK"
	case errors.Is(err, source.ErrUnsupportedCodec):
		return "ERR CODEC"
	}
	return "ERR INTERNAL"
}

func cmdPause(p *audioengine.Player) string {
	if err := p.TogglePause(); err != nil {
		return benign(err)
	}
	snap, err := p.Snapshot()
	if err != nil {
		return benign(err)
	}
	if snap.Paused {
		return "OK PAUSED"
	}
	return "OK RESUMED"
}

func cmdVolume(p *audioengine.Player, delta float64) string {
	if err := p.AdjustVolume(delta); err != nil {
		return benign(err)
	}
	snap, err := p.Snapshot()
	if err != nil {
		return benign(err)
	}
	return fmt.Sprintf("OK %.2f", snap.Volume)
}

func cmdSkip(p *audioengine.Player, secs float64) string {
	if err := p.Skip(secs); err != nil {
		return benign(err)
	}
	snap, err := p.Snapshot()
	if err != nil {
		return benign(err)
	}
	return "OK " + snap.Timestamp
}

func cmdStop(p *audioengine.Player) string {
	if err := p.Stop(); err != nil {
		if errors.Is(err, audioengine.ErrNoSession) {
			return benign(err)
		}
		return "ERR INTERNAL"
	}
	return "OK STOPPED"
}
