/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hdxecho/internal/config"
	"hdxecho/internal/logging"
	"hdxecho/internal/output"
	"hdxecho/pkg/audioengine"

	"github.com/spf13/pflag"
)

const (
	version_major = 1
	version_minor = 0
	app_name      = "HDX-Echo Player"
	general_usage = "Usage: hdx-play [-c config] [-o backend] <file> [file...]"

	volumeStep = 0.05
	skipStep   = 5.0
)

func main() {
	cfgPath := pflag.StringP("config", "c", "", "path to hdx-echo.toml")
	backend := pflag.StringP("output", "o", "", "output backend ("+strings.Join(output.Backends(), ", ")+")")
	pflag.Parse()

	fmt.Printf("%s version %d.%d\n", app_name, version_major, version_minor)
	if pflag.NArg() == 0 {
		fmt.Println(general_usage)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Output.Backend = *backend
	}
	opener, err := output.ForBackend(cfg.Output.Backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] %v\n", err)
		os.Exit(1)
	}

	guard, err := logging.Init(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] logging: %v\n", err)
		os.Exit(1)
	}
	defer guard.Close()

	player := audioengine.NewPlayer(
		audioengine.WithLogger(guard.Logger),
		audioengine.WithOutput(opener),
		audioengine.WithOutputBuffer(cfg.Output.Buffer()),
		audioengine.WithVolume(cfg.Engine.Volume),
		audioengine.WithBufferThreshold(cfg.Engine.MinBuffer),
		audioengine.WithSpectrumInterval(cfg.Engine.SpectrumInterval()),
		audioengine.WithBackoff(cfg.Engine.Backoff()),
	)
	defer player.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initTerminal()
	defer cleanupTerminal()

	keys := readKeys()
	for i, path := range pflag.Args() {
		if !playOne(ctx, player, keys, path, i+1, pflag.NArg()) {
			return
		}
	}
}

// playOne returns false when the user asked to quit.
func playOne(ctx context.Context, p *audioengine.Player, keys <-chan string, path string, idx, total int) bool {
	sess, err := p.Load(ctx, path)
	if err != nil && !errors.Is(err, audioengine.ErrDevice) {
		fmt.Printf("[!] %s: %v\n", path, err)
		time.Sleep(time.Second)
		return true
	}
	defer p.Stop()

	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			if sess.Done() {
				return true
			}
			render(p, idx, total)
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			switch key {
			case "q":
				return false
			case "n":
				return true
			case "p", " ":
				p.TogglePause()
			case "+", "=":
				p.AdjustVolume(volumeStep)
			case "-":
				p.AdjustVolume(-volumeStep)
			case "l", "right":
				p.Skip(skipStep)
			case "j", "left":
				p.Skip(-skipStep)
			}
		}
	}
}

func render(p *audioengine.Player, idx, total int) {
	snap, err := p.Snapshot()
	if err != nil {
		return
	}
	fmt.Print("\033[H\033[J")
	fmt.Println("=== HDX-ECHO PLAYER ===")
	fmt.Printf("Track %d/%d : %s\n", idx, total, snap.Path)
	fmt.Printf("Codec %s | %d Hz | %d ch | %s\n", snap.Codec, snap.SampleRate, snap.Channels, snap.FileSize)
	fmt.Printf("Output %s\n", snap.Device)

	status := "PLAYING"
	if snap.Paused {
		status = "PAUSED"
	}
	fmt.Printf("%s %s / %s  vol %.2f  buf %d\n", status, snap.Timestamp, snap.Duration.Readable, snap.Volume, snap.Buffered)
	fmt.Println(spectrumBars(snap.Spectrum, 32))
	fmt.Println("[P] Pause [+/-] Volume [J/L] Seek [N] Next [Q] Quit")
}

// spectrumBars folds the lower half of the spectrum into width columns.
func spectrumBars(mags []float64, width int) string {
	const levels = " ▁▂▃▄▅▆▇█"
	runes := []rune(levels)
	if len(mags) < 2 {
		return strings.Repeat(" ", width)
	}
	half := mags[:len(mags)/2]
	per := max(len(half)/width, 1)

	var peak float64
	cols := make([]float64, 0, width)
	for i := 0; i+per <= len(half) && len(cols) < width; i += per {
		var sum float64
		for _, m := range half[i : i+per] {
			sum += m
		}
		cols = append(cols, sum)
		peak = max(peak, sum)
	}

	var b strings.Builder
	for _, c := range cols {
		lvl := 0
		if peak > 0 {
			lvl = int(c / peak * float64(len(runes)-1))
		}
		b.WriteRune(runes[lvl])
	}
	return b.String()
}

// readKeys turns raw stdin bytes into key names. Arrow keys arrive as
// ESC [ C and ESC [ D.
func readKeys() <-chan string {
	ch := make(chan string)
	go func() {
		buf := make([]byte, 8)
		for {
			n, err := os.Stdin.Read(buf)
			// with "min 0" an idle terminal reads as EOF
			if n == 0 && (err == nil || errors.Is(err, io.EOF)) {
				time.Sleep(20 * time.Millisecond)
				continue
			}
			if err != nil {
				close(ch)
				return
			}
			seq := string(buf[:n])
			switch seq {
			case "\033[C":
				ch <- "right"
			case "\033[D":
				ch <- "left"
			default:
				for _, r := range strings.ToLower(seq) {
					ch <- string(r)
				}
			}
		}
	}()
	return ch
}

func initTerminal() {
	exec.Command("stty", "-F", "/dev/tty", "cbreak", "min", "0", "-echo").Run()
	fmt.Print("\033[?25l")
}

func cleanupTerminal() {
	exec.Command("stty", "-F", "/dev/tty", "sane").Run()
	fmt.Print("\033[?25h")
}
