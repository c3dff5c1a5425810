// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jeranaias/parley-tui/internal/store"
)

// Store keys for settings values.
const (
	KeyCredential = "api_key"
	KeyBaseURL    = "base_url"
	KeyModel      = "model"
	KeyTheme      = "theme"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the key/value passthrough over the durable store. Defaults
// apply when a key has never been set.
type Settings struct {
	store    store.Store
	keystore *Keystore // nil means credentials are stored in plaintext

	defaultBaseURL string
	defaultModel   string
}

// New creates a Settings collaborator. The defaults fill in base URL and
// model when the store has no value for them. A nil keystore disables
// credential encryption at rest.
func New(st store.Store, ks *Keystore, defaultBaseURL, defaultModel string) *Settings {
	return &Settings{
		store:          st,
		keystore:       ks,
		defaultBaseURL: defaultBaseURL,
		defaultModel:   defaultModel,
	}
}

// =============================================================================
// GENERIC PASSTHROUGH
// =============================================================================

// Value returns the raw stored value for a settings name, or empty.
func (s *Settings) Value(name string) string {
	if name == KeyCredential {
		return s.Credential()
	}
	v, _ := s.store.Get(name)
	return v
}

// SetValue stores a settings value under name.
func (s *Settings) SetValue(name, value string) error {
	if name == KeyCredential {
		return s.SetCredential(value)
	}
	return s.store.Set(name, value)
}

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

// Credential returns the decrypted API credential, or empty when unset or
// undecryptable.
func (s *Settings) Credential() string {
	stored, ok := s.store.Get(KeyCredential)
	if !ok {
		return ""
	}
	if s.keystore == nil {
		return stored
	}
	plain, err := s.keystore.Decrypt(stored)
	if err != nil {
		return ""
	}
	return plain
}

// SetCredential stores the API credential, encrypted when a keystore is
// configured. An empty credential removes the key.
func (s *Settings) SetCredential(value string) error {
	if value == "" {
		return s.store.Remove(KeyCredential)
	}
	if s.keystore != nil {
		enc, err := s.keystore.Encrypt(value)
		if err != nil {
			return err
		}
		return s.store.Set(KeyCredential, enc)
	}
	return s.store.Set(KeyCredential, value)
}

// CredentialFingerprint returns a short SHA-256 fingerprint for display.
// SECURITY: Never expose credential fragments - use the fingerprint.
func (s *Settings) CredentialFingerprint() string {
	cred := s.Credential()
	if cred == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(cred))
	return hex.EncodeToString(h[:4])
}

// CredentialMasked returns a display string that never includes the key.
func (s *Settings) CredentialMasked() string {
	cred := s.Credential()
	if cred == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[set, fingerprint=%s]", s.CredentialFingerprint())
}

// BaseURL returns the configured endpoint base URL, falling back to the
// default from config.
func (s *Settings) BaseURL() string {
	if v, ok := s.store.Get(KeyBaseURL); ok && v != "" {
		return v
	}
	return s.defaultBaseURL
}

// SetBaseURL stores the endpoint base URL.
func (s *Settings) SetBaseURL(value string) error {
	return s.store.Set(KeyBaseURL, value)
}

// Model returns the configured model name, falling back to the default.
func (s *Settings) Model() string {
	if v, ok := s.store.Get(KeyModel); ok && v != "" {
		return v
	}
	return s.defaultModel
}

// SetModel stores the model name.
func (s *Settings) SetModel(value string) error {
	return s.store.Set(KeyModel, value)
}

// Theme returns the stored theme preference: "dark", "light" or "" (auto).
func (s *Settings) Theme() string {
	v, _ := s.store.Get(KeyTheme)
	return v
}

// SetTheme stores the theme preference.
func (s *Settings) SetTheme(value string) error {
	return s.store.Set(KeyTheme, value)
}
