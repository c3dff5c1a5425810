// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystore_RoundTrip(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	for _, plaintext := range []string{"sk-test", "", "ünïcode 🔑", "long " + string(make([]byte, 1024))} {
		enc, err := ks.Encrypt(plaintext)
		require.NoError(t, err)

		dec, err := ks.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plaintext, dec)
	}
}

func TestKeystore_CiphertextVaries(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	a, _ := ks.Encrypt("same input")
	b, _ := ks.Encrypt("same input")
	assert.NotEqual(t, a, b, "fresh salt and nonce per encryption")
}

func TestKeystore_PersistentMasterKey(t *testing.T) {
	dir := t.TempDir()

	ks1, err := OpenKeystore(dir)
	require.NoError(t, err)
	enc, err := ks1.Encrypt("survives restart")
	require.NoError(t, err)

	// Reopen: same key file, same plaintext out.
	ks2, err := OpenKeystore(dir)
	require.NoError(t, err)
	dec, err := ks2.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "survives restart", dec)
}

func TestKeystore_WrongKeyFails(t *testing.T) {
	ks1, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)
	enc, _ := ks1.Encrypt("secret")

	ks2, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	_, err = ks2.Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestKeystore_PlaintextPassthrough(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	// Values without the enc1: prefix predate the keystore; returned as-is.
	dec, err := ks.Decrypt("legacy-plain-key")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain-key", dec)
}

func TestKeystore_TamperedValueFails(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir())
	require.NoError(t, err)

	_, err = ks.Decrypt("enc1:not-base64!!!")
	assert.ErrorIs(t, err, ErrDecryptFailed)

	_, err = ks.Decrypt("enc1:AAAA")
	assert.ErrorIs(t, err, ErrDecryptFailed)
}
