/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"hdxecho/internal/container"
	"hdxecho/pkg/audioengine"

	"github.com/spf13/pflag"
)

const (
	version_minor = 0
	version_major = 1
	app_name      = "HDX-Meta"
	general_usage = "Usage: hdx-meta [--json] [--jsondump] <file>"
)

func main() {
	asJSON := pflag.BoolP("json", "j", false, "print the descriptor as JSON")
	jsonDump := pflag.Bool("jsondump", false, "dump the JSFD table of an .hdxv volume")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Printf("\n%s %d.%d\n%s\n", app_name, version_major, version_minor, general_usage)
		os.Exit(2)
	}
	if err := run(os.Stdout, pflag.Arg(0), *asJSON, *jsonDump); err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, path string, asJSON, jsonDump bool) error {
	sess, err := audioengine.Open(path)
	if err != nil {
		return err
	}
	desc := sess.Descriptor()
	if err := sess.Stop(); err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(desc); err != nil {
			return err
		}
	} else {
		printDescriptor(w, desc)
	}

	if jsonDump {
		return dumpTOC(w, path)
	}
	return nil
}

func printDescriptor(w io.Writer, d audioengine.Descriptor) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "File        : %s\n", d.Path)
	fmt.Fprintf(w, "Codec       : %s\n", d.Codec)
	fmt.Fprintf(w, "Sample Rate : %d Hz\n", d.SampleRate)
	fmt.Fprintf(w, "Channels    : %d\n", d.Channels)
	fmt.Fprintf(w, "Track       : %d\n", d.TrackID)
	fmt.Fprintf(w, "Size        : %s\n", d.FileSize)
	fmt.Fprintf(w, "Duration    : %s\n", d.Duration.Readable)
	fmt.Fprintln(w, "========================================")
}

func dumpTOC(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vol, err := container.UnpackVolume(f)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(vol.Meta)
}
