/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"hdxecho/pkg/audioengine"

	"github.com/rs/zerolog"
)

// server speaks the line protocol on a unix socket. Any client may read
// status; the first client that sends a control command owns playback
// until it disconnects.
type server struct {
	player *audioengine.Player
	log    zerolog.Logger

	controlMu    sync.Mutex
	controlOwner net.Conn
	eventSink    func(string)
}

func newServer(p *audioengine.Player, log zerolog.Logger) *server {
	return &server{player: p, log: log}
}

// ===============================
// Control ownership
// ===============================

func (s *server) isOwner(c net.Conn) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return s.controlOwner == c
}

func (s *server) claimOwner(c net.Conn) bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.controlOwner == nil {
		s.controlOwner = c
		s.eventSink = func(msg string) {
			c.Write([]byte(msg + "\n"))
		}
		return true
	}
	return s.controlOwner == c
}

// releaseOwner stops playback when the owner goes away.
func (s *server) releaseOwner(c net.Conn) {
	s.controlMu.Lock()
	owned := s.controlOwner == c
	if owned {
		s.controlOwner = nil
		s.eventSink = nil
	}
	s.controlMu.Unlock()

	if owned {
		s.player.Stop()
	}
}

func (s *server) emit(msg string) {
	s.controlMu.Lock()
	sink := s.eventSink
	s.controlMu.Unlock()
	if sink != nil {
		sink(msg)
	}
}

// ===============================
// IPC Server
// ===============================

func (s *server) listen(ctx context.Context, socket string) error {
	_ = os.Remove(socket)
	ln, err := net.Listen("unix", socket)
	if err != nil {
		return err
	}
	defer os.Remove(socket)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go s.watch(ctx)

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn().Err(err).Msg("accept")
			continue
		}
		go s.handleConn(c)
	}
}

// watch tells the owner when the current track has played out.
func (s *server) watch(ctx context.Context) {
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()

	var reported *audioengine.Session
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sess := s.player.Session()
			if sess == nil || sess == reported || !sess.Done() {
				continue
			}
			reported = sess
			s.emit("EVENT FINISHED " + sess.Descriptor().Path)
		}
	}
}

func (s *server) handleConn(c net.Conn) {
	defer func() {
		s.releaseOwner(c)
		c.Close()
	}()

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		reply := s.dispatch(c, line)
		if _, err := c.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

// dispatch parses VERB + raw argument (the argument may contain spaces)
// and returns the single reply line.
func (s *server) dispatch(c net.Conn, line string) string {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToUpper(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	// read-only commands
	switch cmd {
	case "ABOUT":
		return fmt.Sprintf("%s V.%d.%d", server_name, version_major, version_minor)
	case "PING":
		return "PONG"
	case "WHOAMI":
		if s.isOwner(c) {
			return "OWNER"
		}
		return "OBSERVER"
	case "STATUS":
		return cmdStatus(s.player)
	case "SPECTRUM":
		return cmdSpectrum(s.player)
	}

	// control commands
	switch cmd {
	case "PLAY", "PAUSE", "VOLUME", "SKIP", "STOP":
	default:
		return "ERR UNKNOWN"
	}
	if !s.claimOwner(c) {
		return "ERR CONTROL_LOCKED"
	}

	switch cmd {
	case "PLAY":
		if arg == "" {
			return "ERR ARG"
		}
		reply := cmdPlay(s.player, arg)
		s.log.Info().Str("path", arg).Str("reply", reply).Msg("play")
		return reply
	case "PAUSE":
		return cmdPause(s.player)
	case "VOLUME":
		delta, ok := argFloat(arg)
		if !ok {
			return "ERR ARG"
		}
		return cmdVolume(s.player, delta)
	case "SKIP":
		secs, ok := argFloat(arg)
		if !ok {
			return "ERR ARG"
		}
		return cmdSkip(s.player, secs)
	default: // STOP
		return cmdStop(s.player)
	}
}

func argFloat(arg string) (float64, bool) {
	if arg == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// benign maps the errors a display layer should shrug off to a status
// reply. Anything else is an internal error.
func benign(err error) string {
	switch {
	case errors.Is(err, audioengine.ErrNoSession):
		return "OK NO_SESSION"
	case errors.Is(err, audioengine.ErrLockPoisoned):
		return "OK UNAVAILABLE"
	}
	return "ERR INTERNAL"
}
