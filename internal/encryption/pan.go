// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package encryption provides the PAN (sensitive identifier) codec: an
// explicitly-constructed collaborator, never a package-level singleton,
// wrapping AES-256-GCM with a pre-formed 32-byte key. Adapted from the
// teacher's internal/config.CredentialEncryptor, but the key here is used
// directly rather than derived via HKDF, since the configuration surface
// already promises exactly 32 bytes of key material.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const KeySize = 32

var (
	ErrInvalidKeySize     = fmt.Errorf("encryption key must be exactly %d bytes", KeySize)
	ErrCiphertextTooShort = errors.New("ciphertext shorter than nonce+overhead")
	ErrDecryptionFailed   = errors.New("decryption failed: tag mismatch or corrupt ciphertext")
)

// Codec encrypts, decrypts, fingerprints, and wire-encodes PAN values. It
// holds a constructed cipher.AEAD over the supplied key; there is no
// package-level instance, so every caller constructs and passes its own.
type Codec struct {
	gcm cipher.AEAD
}

// NewCodec builds a Codec from a pre-formed 32-byte AES-256 key. The key
// is typically the base64-decoded form of the encryption_key config field.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("construct AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("construct GCM mode: %w", err)
	}
	return &Codec{gcm: gcm}, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random 96-bit
// nonce, prepended to the ciphertext+tag.
func (c *Codec) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt is the inverse of Encrypt. It fails closed on any tag mismatch
// or truncated input rather than returning a partial result.
func (c *Codec) Decrypt(ciphertext []byte) (string, error) {
	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Fingerprint returns the SHA-256 hex digest of plaintext, used for
// duplicate-PAN detection without ever decrypting a stored ciphertext.
func (c *Codec) Fingerprint(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// EncodeWire base64-encodes ciphertext for embedding in JSON bus payloads.
func (c *Codec) EncodeWire(ciphertext []byte) string {
	return base64.StdEncoding.EncodeToString(ciphertext)
}

// DecodeWire is the inverse of EncodeWire.
func (c *Codec) DecodeWire(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
