// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Keystore parameters.
const (
	// encPrefix marks an encrypted stored value and versions the format.
	encPrefix = "enc1:"

	masterKeySize = 32
	saltSize      = 16
	pbkdf2Iters   = 10000
	derivedKeyLen = 32
)

// ErrDecryptFailed indicates a stored value could not be decrypted, most
// likely because the key file was replaced or the value was tampered with.
var ErrDecryptFailed = errors.New("keystore: decryption failed")

// =============================================================================
// KEYSTORE
// =============================================================================

// Keystore encrypts settings values at rest using AES-GCM with a key derived
// from a per-install master key file via PBKDF2.
type Keystore struct {
	master []byte
}

// OpenKeystore loads the master key from dir, generating one on first use.
// The key file is created 0600.
func OpenKeystore(dir string) (*Keystore, error) {
	path := filepath.Join(dir, "keystore.key")

	master, err := os.ReadFile(path)
	if err == nil && len(master) == masterKeySize {
		return &Keystore{master: master}, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("keystore: failed to read key file: %w", err)
	}

	master = make([]byte, masterKeySize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("keystore: failed to generate key: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("keystore: failed to create dir: %w", err)
	}
	if err := os.WriteFile(path, master, 0600); err != nil {
		return nil, fmt.Errorf("keystore: failed to write key file: %w", err)
	}
	return &Keystore{master: master}, nil
}

// Encrypt seals plaintext into the versioned stored form
// enc1:base64(salt | nonce | ciphertext).
func (k *Keystore) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("keystore: failed to generate salt: %w", err)
	}

	gcm, err := k.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("keystore: failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return encPrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a value produced by Encrypt. Values without the enc1:
// prefix are returned unchanged, so plaintext values written before the
// keystore existed keep working.
func (k *Keystore) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encPrefix) {
		return stored, nil
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(blob) < saltSize {
		return "", ErrDecryptFailed
	}

	salt := blob[:saltSize]
	gcm, err := k.aead(salt)
	if err != nil {
		return "", err
	}

	rest := blob[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return "", ErrDecryptFailed
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// aead derives the AES-GCM cipher for a given salt.
func (k *Keystore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(k.master, salt, pbkdf2Iters, derivedKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: cipher init failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: GCM init failed: %w", err)
	}
	return gcm, nil
}
