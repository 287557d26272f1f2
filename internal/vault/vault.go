// Package vault encrypts document files, thumbnails and signature images at
// rest and derives stable names for their decrypted copies.
package vault

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of the master key in bytes
const KeySize = chacha20poly1305.KeySize

var ErrCiphertextTooShort = errors.New("vault: ciphertext too short")

// Vault seals and opens blobs with XChaCha20-Poly1305. Each sealed blob is
// nonce || ciphertext.
type Vault struct {
	key []byte
}

// New creates a vault from a raw key
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault: key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Vault{key: append([]byte(nil), key...)}, nil
}

// NewFromHex creates a vault from a hex encoded key
func NewFromHex(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("vault: decode key: %w", err)
	}
	return New(key)
}

// Seal encrypts plaintext
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal
func (v *Vault) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: open: %w", err)
	}
	return plaintext, nil
}

// SealFile encrypts plaintext into path, creating parent directories
func (v *Vault) SealFile(path string, plaintext []byte) error {
	sealed, err := v.Seal(plaintext)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("vault: create directory: %w", err)
	}
	return os.WriteFile(path, sealed, 0o600)
}

// OpenFile reads and decrypts path
func (v *Vault) OpenFile(path string) ([]byte, error) {
	sealed, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return v.Open(sealed)
}

// DecryptTo decrypts src into dst
func (v *Vault) DecryptTo(src, dst string) error {
	plaintext, err := v.OpenFile(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("vault: create directory: %w", err)
	}
	return os.WriteFile(dst, plaintext, 0o600)
}

// Name derives a stable file name for id. The BLAKE2b digest is keyed so
// names do not leak ids across vaults; base58 keeps it short and path safe.
func (v *Vault) Name(id string) string {
	h, err := blake2b.New256(v.key)
	if err != nil {
		// only fails for keys longer than 64 bytes
		panic(err)
	}
	h.Write([]byte(id))
	return base58.Encode(h.Sum(nil))
}
