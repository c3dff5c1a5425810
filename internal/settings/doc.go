// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings is the key/value settings collaborator.
//
// It stores the credential, base URL, model name and theme preference in the
// durable store. The core session code treats this package as an opaque
// service: it reads values once per turn and never caches them. The API
// credential is encrypted at rest through the keystore; everything else is
// stored as plain values.
package settings
