package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"hdxecho/pkg/spec"

	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidLocker is returned when a _keys.dat file does not carry the locker magic.
var ErrInvalidLocker = errors.New("security: not a valid key locker")

// DeriveKey menghasilkan kunci 32-byte dari password dan salt
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 4096, 32, sha256.New)
}

// FrameCipher decrypts HDXV audio frames. The AEAD is built once per
// volume so the decode path does not rebuild AES state on every packet.
type FrameCipher struct {
	gcm cipher.AEAD
}

func NewFrameCipher(key []byte) (*FrameCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FrameCipher{gcm: gcm}, nil
}

// Open decrypts one nonce||ciphertext record.
func (c *FrameCipher) Open(data []byte) ([]byte, error) {
	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, io.ErrUnexpectedEOF
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return c.gcm.Open(nil, nonce, ciphertext, nil)
}

// Seal encrypts data with a random nonce, prefixing the nonce.
func (c *FrameCipher) Seal(data []byte) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.gcm.Seal(nonce, nonce, data, nil), nil
}

// Encrypt mengenkripsi data menggunakan AES-GCM dengan Random Nonce
func Encrypt(data []byte, key []byte) ([]byte, error) {
	c, err := NewFrameCipher(key)
	if err != nil {
		return nil, err
	}
	return c.Seal(data)
}

// Decrypt mendekripsi data menggunakan AES-GCM
func Decrypt(data []byte, key []byte) ([]byte, error) {
	c, err := NewFrameCipher(key)
	if err != nil {
		return nil, err
	}
	return c.Open(data)
}

// KeyLockerPath maps vol.hdxv to vol_keys.dat.
func KeyLockerPath(hdxvPath string) string {
	return strings.TrimSuffix(hdxvPath, ".hdxv") + spec.KeyLockerSuffix
}

// CreateKeyLocker membuat file .dat (Key Locker) yang berisi password terenkripsi Master Key
func CreateKeyLocker(hdxvPath, password string) error {
	keyForDat := DeriveKey(spec.MasterBfKey, []byte(spec.Salt))

	encryptedPass, err := Encrypt([]byte(password), keyForDat)
	if err != nil {
		return err
	}

	f, err := os.Create(KeyLockerPath(hdxvPath))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte(spec.BfKeyMagicV2)); err != nil {
		return err
	}
	_, err = f.Write(encryptedPass)
	return err
}

// UnlockKeyLocker returns the volume password sealed in lockerPath.
func UnlockKeyLocker(lockerPath string) (string, error) {
	data, err := os.ReadFile(lockerPath)
	if err != nil {
		return "", err
	}

	magicLen := len(spec.BfKeyMagicV2)
	if len(data) < magicLen || string(data[:magicLen]) != spec.BfKeyMagicV2 {
		return "", ErrInvalidLocker
	}

	keyForDat := DeriveKey(spec.MasterBfKey, []byte(spec.Salt))
	dec, err := Decrypt(data[magicLen:], keyForDat)
	if err != nil {
		return "", fmt.Errorf("unlock %s: %w", lockerPath, err)
	}

	return string(dec), nil
}

// LoadAudioKey unlocks the locker next to hdxvPath and derives the frame key.
func LoadAudioKey(hdxvPath string) ([]byte, error) {
	pass, err := UnlockKeyLocker(KeyLockerPath(hdxvPath))
	if err != nil {
		return nil, err
	}
	return DeriveKey(pass, []byte(spec.Salt)), nil
}
