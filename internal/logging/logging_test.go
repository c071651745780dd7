package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGuardFlushesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dev.log")

	g, err := Init(Options{File: path, Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	g.Logger.Debug().Str("path", "a.flac").Msg("probed")
	g.Logger.Trace().Msg("hidden")
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines; want 1:\n%s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["message"] != "probed" || entry["path"] != "a.flac" || entry["engine"] != "HDX-Echo" {
		t.Errorf("entry = %v", entry)
	}
}

type closeTracker struct {
	strings.Builder
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestGuardLeavesSharedWriterOpen(t *testing.T) {
	out := &closeTracker{}
	g, err := Init(Options{Out: out})
	if err != nil {
		t.Fatal(err)
	}
	g.Logger.Info().Msg("hello")
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if out.closed {
		t.Error("Close() closed a writer the guard does not own")
	}
	if !strings.Contains(out.String(), `"message":"hello"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if _, err := Init(Options{Level: "loud"}); err == nil {
		t.Error("Init() with an unknown level should fail")
	}
}
