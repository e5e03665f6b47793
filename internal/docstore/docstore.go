// Package docstore is a small document database: named collections of JSON
// documents with get/list/create/update/delete and live snapshot
// subscriptions. Documents are stored as JSONB in libSQL.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var ErrNotFound = errors.New("document not found")

// Document is a stored JSON document together with its store-assigned ID.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt string
}

// Decode unmarshals the document body into dest.
func (d Document) Decode(dest any) error {
	if err := json.Unmarshal(d.Data, dest); err != nil {
		return fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return nil
}

// Query narrows a List call. The zero value lists the whole collection in
// insertion order.
type Query struct {
	// Where and Equals form an optional top-level field equality filter.
	Where  string
	Equals any

	OrderBy string
	// ByLength orders by the length of the array field named in OrderBy.
	ByLength bool
	Desc     bool
	Limit    int
}

// Snapshot is the full content of a collection at one point in time.
type Snapshot struct {
	Collection string
	Docs       []Document
	Err        error
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func fieldPath(field string) (string, error) {
	if !fieldName.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return "$." + field, nil
}
