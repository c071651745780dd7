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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"hdxecho/internal/source"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	version_major = 1
	version_minor = 0
	usage_text    = "Usage: hdx-towav --sourcepath <dir> --destpath <dir> [--workers 2]"
	app_name      = "HDX-ToWav"
)

var audioExt = map[string]bool{".flac": true, ".mp3": true, ".ogg": true, ".oga": true, ".wav": true}

func main() {
	sourcePath := pflag.String("sourcepath", "", "directory of source audio files")
	destPath := pflag.String("destpath", "", "directory for the 16-bit wav output")
	workers := pflag.IntP("workers", "w", 2, "simultaneous conversions")
	pflag.Parse()

	if *sourcePath == "" || *destPath == "" {
		fmt.Printf("%s version %d.%d\n%s\n", app_name, version_major, version_minor, usage_text)
		return
	}
	if err := os.MkdirAll(*destPath, os.ModePerm); err != nil {
		fmt.Printf("[Error] %v\n", err)
		os.Exit(1)
	}

	files, err := collect(*sourcePath)
	if err != nil {
		fmt.Printf("[Error] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[Batch] %d file(s), %d worker(s)\n", len(files), *workers)

	failed := convertAll(context.Background(), files, *destPath, *workers)
	if failed > 0 {
		fmt.Printf("\n[Done] %d file(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("\n[Success] Semua konversi selesai.")
}

func collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && audioExt[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertAll runs at most workers conversions at once. A failed file is
// reported and counted; it does not cancel the batch.
func convertAll(ctx context.Context, files []string, destDir string, workers int) int {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	results := make([]error, len(files))
	for i, path := range files {
		g.Go(func() error {
			fmt.Printf("[Process] %s\n", filepath.Base(path))
			results[i] = convert(path, destDir)
			if results[i] != nil {
				fmt.Printf("[Error] %s: %v\n", filepath.Base(path), results[i])
			}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, err := range results {
		if err != nil {
			failed++
		}
	}
	return failed
}

// convert decodes srcFile with the playback readers and writes it as a
// 16-bit wav at the source rate and channel count.
func convert(srcFile, destDir string) error {
	f, err := os.Open(srcFile)
	if err != nil {
		return err
	}
	r, err := source.Probe(f, srcFile)
	if err != nil {
		f.Close()
		return err
	}
	defer r.Close()

	track, err := source.SelectTrack(r.Tracks())
	if err != nil {
		return err
	}
	dec, err := source.NewDecoder(track)
	if err != nil {
		return err
	}

	name := filepath.Base(srcFile)
	destFile := filepath.Join(destDir, strings.TrimSuffix(name, filepath.Ext(name))+".wav")
	if mustAbs(destFile) == mustAbs(srcFile) {
		return fmt.Errorf("refusing to overwrite %s", srcFile)
	}
	out, err := os.Create(destFile)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, track.SampleRate, 16, track.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: track.Channels, SampleRate: track.SampleRate},
		SourceBitDepth: 16,
	}

	for {
		p, err := r.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if p.TrackID != track.ID {
			continue
		}
		samples, err := dec.Decode(p)
		if err != nil {
			return err
		}
		buf.Data = toInt16(buf.Data[:0], samples)
		if err := enc.Write(buf); err != nil {
			return err
		}
	}
	return enc.Close()
}

func toInt16(dst []int, samples []float32) []int {
	for _, s := range samples {
		v := int(s * 32767)
		dst = append(dst, min(max(v, -32768), 32767))
	}
	return dst
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
