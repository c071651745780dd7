package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hdxecho/internal/container"
	"hdxecho/internal/security"
	"hdxecho/internal/source"
	"hdxecho/pkg/spec"

	"github.com/chzyer/readline"
)

const (
	version_minor = 0
	version_major = 1
	app_name      = "HDX-Volmaker"
)

func main() {
	jsonPath, destFolder, password, err := runVolmakerInterview()
	if err != nil {
		fmt.Printf("[FAIL] %v\n", err)
		os.Exit(1)
	}

	finalPath, err := forgeVolume(jsonPath, destFolder, password)
	if err != nil {
		fmt.Printf("\n[FAIL] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n[SUCCESS] Volume Forged: %s\n", finalPath)
}

// forgeVolume builds <destFolder>/<album>.hdxv and its key locker from the
// JSON structure at jsonPath. Track origin files resolve relative to it.
func forgeVolume(jsonPath, destFolder, password string) (string, error) {
	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("read structure: %w", err)
	}
	var meta container.VolumeStructure
	if err := json.Unmarshal(jsonData, &meta); err != nil {
		return "", fmt.Errorf("parse structure: %w", err)
	}
	if len(meta.Content) == 0 {
		return "", fmt.Errorf("%s lists no tracks", jsonPath)
	}

	var artwork []byte
	if meta.ArtworkPath != "" {
		artwork, err = os.ReadFile(resolve(jsonPath, meta.ArtworkPath))
		if err != nil {
			fmt.Printf(" [!] Gagal baca artwork: %v\n", err)
		}
	}

	fc, err := security.NewFrameCipher(security.DeriveKey(password, []byte(spec.Salt)))
	if err != nil {
		return "", err
	}

	safeAlbum := strings.ReplaceAll(meta.Album, " ", "_")
	finalPath := filepath.Join(destFolder, safeAlbum+".hdxv")
	f, err := os.Create(finalPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Printf("\n[START] FORGING: %s\n", meta.Album)
	bar := NewProgress(len(meta.Content))
	encode := func(entry container.TrackEntry, emit func([]byte) error) (float64, error) {
		return source.EncodeWavToOpus(resolve(jsonPath, entry.OriginFile), emit)
	}
	if _, err := container.Forge(f, meta, artwork, fc, encode, func(done, _ int) { bar.Set(done) }); err != nil {
		os.Remove(finalPath)
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}
	fmt.Println(" >> Metadata JSFD Sealed Successfully.")

	if err := security.CreateKeyLocker(finalPath, password); err != nil {
		return "", fmt.Errorf("key locker: %w", err)
	}
	return finalPath, nil
}

func resolve(jsonPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(jsonPath), p)
}

func runVolmakerInterview() (string, string, string, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: ">> "})
	if err != nil {
		return "", "", "", err
	}
	defer rl.Close()

	fmt.Printf("\n%s version %d.%d\n", app_name, version_major, version_minor)
	j := ask(rl, "1. JSON Struct Path", "your-struct.json")
	d := ask(rl, "2. Destination Folder (must exist)", ".")
	p := ask(rl, "3. Password Master", "hardix2025")

	return j, d, p, nil
}

func ask(rl *readline.Instance, prompt, def string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
