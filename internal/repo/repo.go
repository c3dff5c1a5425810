// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package repo

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/store"
)

// Store keys for the conversation collection and the active pointer.
const (
	KeyConversations = "conversations"
	KeyActive        = "active_conversation"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when an operation references a conversation ID
// that is not in the collection.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &RepoError{Message: "conversation not found"}

// RepoError represents a repository-level error.
type RepoError struct {
	Message string
}

// Error implements the error interface.
func (e *RepoError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing repository errors.
func (e *RepoError) Is(target error) bool {
	t, ok := target.(*RepoError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is the lightweight listing view of a conversation.
type Summary struct {
	ID           string
	Title        string
	IsActive     bool
	MessageCount int
	UpdatedAt    time.Time
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository holds the conversation collection, most-recently-created first,
// and the single active-conversation pointer.
type Repository struct {
	mu            sync.Mutex
	store         store.Store
	conversations map[string]*model.Conversation
	order         []string // iteration order, most-recently-created first
	activeID      string   // empty means no active conversation
}

// Open loads the collection from the store. If the collection is empty after
// loading, a first conversation is created implicitly and made active, so the
// application always starts with somewhere to type.
func Open(st store.Store) (*Repository, error) {
	r := &Repository{
		store:         st,
		conversations: make(map[string]*model.Conversation),
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	if len(r.order) == 0 {
		if _, err := r.Create(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// load replaces in-memory state from the store.
func (r *Repository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conversations = make(map[string]*model.Conversation)
	r.order = nil
	r.activeID = ""

	raw, ok := r.store.Get(KeyConversations)
	if ok && raw != "" {
		var convs []*model.Conversation
		if err := json.Unmarshal([]byte(raw), &convs); err != nil {
			return fmt.Errorf("stored conversations are corrupt: %w", err)
		}
		for _, conv := range convs {
			r.conversations[conv.ID] = conv
			r.order = append(r.order, conv.ID)
		}
	}

	// The active pointer must reference an existing conversation or be unset.
	if active, ok := r.store.Get(KeyActive); ok {
		if _, exists := r.conversations[active]; exists {
			r.activeID = active
		}
	}
	if r.activeID == "" && len(r.order) > 0 {
		r.activeID = r.order[0]
	}
	return nil
}

// Reload re-reads the collection from the store, picking up changes made by
// an external writer.
func (r *Repository) Reload() error {
	return r.load()
}

// =============================================================================
// CRUD OPERATIONS
// =============================================================================

// Create inserts a new empty conversation at the front of the iteration
// order, makes it active, persists, and returns it.
func (r *Repository) Create() (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.snapshotLocked()

	conv := model.NewConversation()
	r.conversations[conv.ID] = conv
	r.order = append([]string{conv.ID}, r.order...)
	r.activeID = conv.ID

	if err := r.commitLocked(); err != nil {
		// Roll back so memory never diverges from the durable store,
		// including the previously active pointer.
		r.restoreLocked(prev)
		return nil, err
	}
	return conv.Clone(), nil
}

// Delete removes a conversation. If it was active, the active pointer is
// reassigned to the next conversation in order, or unset when the collection
// becomes empty. The reassignment commits atomically with the removal, so a
// dangling active reference can never persist.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return ErrNotFound
	}

	prev := r.snapshotLocked()

	delete(r.conversations, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.activeID == id {
		if len(r.order) > 0 {
			r.activeID = r.order[0]
		} else {
			r.activeID = ""
		}
	}

	if err := r.commitLocked(); err != nil {
		r.restoreLocked(prev)
		return err
	}
	return nil
}

// SetActive makes the given conversation active and persists the pointer.
func (r *Repository) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return ErrNotFound
	}
	prev := r.activeID
	r.activeID = id
	if err := r.commitLocked(); err != nil {
		r.activeID = prev
		return err
	}
	return nil
}

// AppendMessage appends one message to a conversation and persists. The
// conversation's title is derived from the content when this is its first
// message and the role is user.
func (r *Repository) AppendMessage(id string, role model.Role, content string) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return model.Message{}, ErrNotFound
	}

	prev := conv.Clone()
	msg := model.NewMessage(role, content)
	conv.Append(msg)

	if err := r.commitLocked(); err != nil {
		r.conversations[id] = prev
		return model.Message{}, err
	}
	return msg, nil
}

// SetSystemDirective replaces a conversation's system directive and persists.
func (r *Repository) SetSystemDirective(id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return ErrNotFound
	}

	prev := conv.SystemDirective
	conv.SetSystemDirective(text)
	if err := r.commitLocked(); err != nil {
		conv.SystemDirective = prev
		return err
	}
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Get returns a copy of the conversation, or ErrNotFound.
func (r *Repository) Get(id string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// Active returns a copy of the active conversation, or false when unset.
func (r *Repository) Active() (*model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeID == "" {
		return nil, false
	}
	conv, ok := r.conversations[r.activeID]
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// ActiveID returns the active conversation ID, or empty when unset.
func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// List returns conversation summaries, most-recently-created first.
func (r *Repository) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		conv := r.conversations[id]
		summaries = append(summaries, Summary{
			ID:           conv.ID,
			Title:        conv.Title,
			IsActive:     id == r.activeID,
			MessageCount: conv.MessageCount(),
			UpdatedAt:    conv.UpdatedAt,
		})
	}
	return summaries
}

// Len returns the number of conversations in the collection.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// All returns copies of every conversation in iteration order. Used by the
// search indexer to rebuild its database.
func (r *Repository) All() []*model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	convs := make([]*model.Conversation, 0, len(r.order))
	for _, id := range r.order {
		convs = append(convs, r.conversations[id].Clone())
	}
	return convs
}

// =============================================================================
// COMMIT PATH
// =============================================================================

// commitLocked serializes the collection and active pointer and writes both
// in one atomic store update. Caller holds mu. This is the single persistence
// path for every mutation.
func (r *Repository) commitLocked() error {
	convs := make([]*model.Conversation, 0, len(r.order))
	for _, id := range r.order {
		convs = append(convs, r.conversations[id])
	}

	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("failed to serialize conversations: %w", err)
	}

	set := map[string]string{KeyConversations: string(data)}
	var remove []string
	if r.activeID != "" {
		set[KeyActive] = r.activeID
	} else {
		remove = append(remove, KeyActive)
	}

	if err := r.store.Apply(set, remove); err != nil {
		return fmt.Errorf("failed to persist conversations: %w", err)
	}
	return nil
}

// snapshot holds repository state for rollback on a failed commit.
type snapshot struct {
	conversations map[string]*model.Conversation
	order         []string
	activeID      string
}

func (r *Repository) snapshotLocked() snapshot {
	conversations := make(map[string]*model.Conversation, len(r.conversations))
	for id, conv := range r.conversations {
		conversations[id] = conv
	}
	order := make([]string, len(r.order))
	copy(order, r.order)
	return snapshot{conversations: conversations, order: order, activeID: r.activeID}
}

func (r *Repository) restoreLocked(s snapshot) {
	r.conversations = s.conversations
	r.order = s.order
	r.activeID = s.activeID
}
