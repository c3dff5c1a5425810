// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMaxResults caps search output when the caller passes no limit.
const DefaultMaxResults = 50

// Result is a single message hit.
type Result struct {
	MessageID string
	ConvID    string
	ConvTitle string
	Role      string
	Snippet   string // Matching excerpt with [ ] markers around hits
	Timestamp time.Time
}

// Search finds messages matching the query, best match first. An empty
// query returns no results. limit <= 0 applies DefaultMaxResults.
func (idx *Index) Search(query string, limit int) ([]Result, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT
			m.msg_id, m.conv_id, m.conv_title, m.role, m.created_at,
			snippet(messages_fts, 0, '[', ']', '...', 12)
		FROM messages_fts fts
		JOIN messages m ON m.id = fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var createdAt string
		if err := rows.Scan(&r.MessageID, &r.ConvID, &r.ConvTitle, &r.Role, &createdAt, &r.Snippet); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, createdAt)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return results, nil
}

// buildFTSQuery converts free-form user input into a safe fts5 MATCH
// expression. Each term is quoted so fts5 operators in user input
// (AND, OR, NEAR, *, ^) are matched literally rather than parsed.
func buildFTSQuery(query string) string {
	terms := strings.Fields(strings.TrimSpace(query))
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		// Double quotes inside a quoted string are escaped by doubling.
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
