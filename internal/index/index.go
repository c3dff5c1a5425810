// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides full-text search over conversation messages.
//
// Messages are mirrored into a SQLite database with an fts5 index. The
// conversation store remains the source of truth; the index is a
// disposable derivative that can be rebuilt from it at any time, so
// index failures never block chatting.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// MESSAGE INDEX
// =============================================================================

// Index is a searchable mirror of conversation messages.
type Index struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the index database at path and applies the
// schema. Use ":memory:" for an ephemeral index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// SQLite supports one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: applying schema: %v", ErrDatabaseError, err)
	}

	return &Index{db: db}, nil
}

// Close releases the database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// ReindexAll replaces the entire index with the given conversations.
func (idx *Index) ReindexAll(convs []*model.Conversation) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages`); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	for _, conv := range convs {
		if err := insertConversation(tx, conv); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_indexed', ?)`,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// IndexConversation replaces one conversation's messages in the index.
func (idx *Index) IndexConversation(conv *model.Conversation) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conv_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if err := insertConversation(tx, conv); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// RemoveConversation drops a conversation's messages from the index.
func (idx *Index) RemoveConversation(convID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec(`DELETE FROM messages WHERE conv_id = ?`, convID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// MessageCount returns the number of indexed messages.
func (idx *Index) MessageCount() (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

func insertConversation(tx *sql.Tx, conv *model.Conversation) error {
	stmt, err := tx.Prepare(`
		INSERT INTO messages (msg_id, conv_id, conv_title, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, m := range conv.Messages {
		_, err := stmt.Exec(
			m.ID,
			conv.ID,
			conv.Title,
			string(m.Role),
			m.Content,
			m.Timestamp.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("%w: inserting message %s: %v", ErrDatabaseError, m.ID, err)
		}
	}
	return nil
}
