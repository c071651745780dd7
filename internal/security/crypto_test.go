package security

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hdxecho/pkg/spec"
)

func TestFrameCipherRoundTrip(t *testing.T) {
	key := DeriveKey("hardix2025", []byte(spec.Salt))
	c, err := NewFrameCipher(key)
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.Seal([]byte("opus-frame"))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := Decrypt(sealed, key)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(plain, []byte("opus-frame")) {
		t.Errorf("Decrypt() = %q; want %q", plain, "opus-frame")
	}

	if _, err := c.Open(sealed[:4]); err == nil {
		t.Error("Open() on a truncated record should fail")
	}
}

func TestKeyLocker(t *testing.T) {
	dir := t.TempDir()
	hdxv := filepath.Join(dir, "album.hdxv")

	if got := KeyLockerPath(hdxv); got != filepath.Join(dir, "album_keys.dat") {
		t.Fatalf("KeyLockerPath() = %s", got)
	}

	if err := CreateKeyLocker(hdxv, "secret"); err != nil {
		t.Fatal(err)
	}

	pass, err := UnlockKeyLocker(KeyLockerPath(hdxv))
	if err != nil {
		t.Fatalf("UnlockKeyLocker() error = %v", err)
	}
	if pass != "secret" {
		t.Errorf("UnlockKeyLocker() = %q; want %q", pass, "secret")
	}

	key, err := LoadAudioKey(hdxv)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(key, DeriveKey("secret", []byte(spec.Salt))) {
		t.Error("LoadAudioKey() derived an unexpected key")
	}
}

func TestUnlockRejectsForeignFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x_keys.dat")
	if err := os.WriteFile(p, []byte("NOTALOCKER"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := UnlockKeyLocker(p); !errors.Is(err, ErrInvalidLocker) {
		t.Errorf("UnlockKeyLocker() error = %v; want ErrInvalidLocker", err)
	}
}
