// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/store"
)

func newTestSettings(t *testing.T) (*Settings, *store.FileStore) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)
	return New(st, ks, "https://api.openai.com/v1", "gpt-4o-mini"), st
}

func TestSettings_Defaults(t *testing.T) {
	s, _ := newTestSettings(t)

	assert.Equal(t, "https://api.openai.com/v1", s.BaseURL())
	assert.Equal(t, "gpt-4o-mini", s.Model())
	assert.Equal(t, "", s.Credential())
	assert.Equal(t, "", s.Theme())
}

func TestSettings_SetAndGet(t *testing.T) {
	s, _ := newTestSettings(t)

	require.NoError(t, s.SetBaseURL("http://localhost:8080/v1"))
	require.NoError(t, s.SetModel("local-model"))
	require.NoError(t, s.SetTheme("dark"))

	assert.Equal(t, "http://localhost:8080/v1", s.BaseURL())
	assert.Equal(t, "local-model", s.Model())
	assert.Equal(t, "dark", s.Theme())
}

func TestSettings_CredentialEncryptedAtRest(t *testing.T) {
	s, st := newTestSettings(t)

	require.NoError(t, s.SetCredential("sk-secret-value"))

	// The store must never hold the plaintext credential.
	raw, ok := st.Get(KeyCredential)
	require.True(t, ok)
	assert.NotContains(t, raw, "sk-secret-value")
	assert.True(t, strings.HasPrefix(raw, "enc1:"))

	assert.Equal(t, "sk-secret-value", s.Credential())
}

func TestSettings_ClearCredential(t *testing.T) {
	s, st := newTestSettings(t)
	require.NoError(t, s.SetCredential("sk-x"))
	require.NoError(t, s.SetCredential(""))

	_, ok := st.Get(KeyCredential)
	assert.False(t, ok)
	assert.Equal(t, "", s.Credential())
}

func TestSettings_CredentialMasked(t *testing.T) {
	s, _ := newTestSettings(t)

	assert.Equal(t, "[not set]", s.CredentialMasked())

	require.NoError(t, s.SetCredential("sk-secret"))
	masked := s.CredentialMasked()
	assert.NotContains(t, masked, "sk-secret")
	assert.Contains(t, masked, "fingerprint=")
}

func TestSettings_GenericPassthrough(t *testing.T) {
	s, _ := newTestSettings(t)

	require.NoError(t, s.SetValue("theme", "light"))
	assert.Equal(t, "light", s.Value("theme"))

	// Credential routed through the keystore even via the generic path.
	require.NoError(t, s.SetValue(KeyCredential, "sk-generic"))
	assert.Equal(t, "sk-generic", s.Value(KeyCredential))
}
