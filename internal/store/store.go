// Package store defines the document store the onboarding flows read and
// write. Records are JSON objects grouped into named collections and
// addressed by a string id.
package store

import (
	"context"
	"errors"
)

const (
	PendingUsers = "pending_users"
	Users        = "users"
	Companies    = "companies"
)

var ErrNotFound = errors.New("document not found")

// Document is the stored JSON object. Numbers come back as float64, as
// with any JSON decode.
type Document map[string]any

// Record is a document together with its id.
type Record struct {
	ID   string
	Data Document
}

// Store is safe for concurrent use.
type Store interface {
	// Get returns the document stored under id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// FindOne returns one document whose top-level field equals value,
	// or ErrNotFound. Scalar fields compare by their text form, so a
	// boolean matches "true" and a number its JSON literal. When several
	// match, which one is returned is unspecified.
	FindOne(ctx context.Context, collection, field, value string) (*Record, error)

	// Exists reports whether any document has field equal to value.
	Exists(ctx context.Context, collection, field, value string) (bool, error)

	// Set creates or replaces the document under id.
	Set(ctx context.Context, collection, id string, data Document) error

	// Update merges fields into an existing document. A nil value removes
	// the field. Returns ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Int64 reads a numeric field regardless of how the backend decoded it.
func (d Document) Int64(key string) int64 {
	switch v := d[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Without returns a shallow copy minus the given keys.
func (d Document) Without(keys ...string) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
