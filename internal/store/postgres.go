package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"niveshx-api/internal/db"

	"github.com/lib/pq"
)

// PGStore keeps every collection in the documents table as jsonb.
type PGStore struct {
	db *db.DB
}

func NewPGStore(db *db.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return decode(raw)
}

func (s *PGStore) FindOne(ctx context.Context, collection, field, value string) (*Record, error) {
	var (
		id  string
		raw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data->>($2::text) = $3
		LIMIT 1
	`, collection, field, value).Scan(&id, &raw)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s where %s: %w", collection, field, err)
	}

	data, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &Record{ID: id, Data: data}, nil
}

func (s *PGStore) Exists(ctx context.Context, collection, field, value string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM documents
			WHERE collection = $1 AND data->>($2::text) = $3
			LIMIT 1
		)
	`, collection, field, value).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("exists %s where %s: %w", collection, field, err)
	}
	return exists, nil
}

func (s *PGStore) Set(ctx context.Context, collection, id string, data Document) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, id, string(raw))

	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, collection, id string, fields Document) error {
	set, removed := splitRemovals(fields)

	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = (data - $3::text[]) || $4::jsonb,
		    updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, pq.Array(removed), string(raw))

	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)

	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// splitRemovals separates nil-valued keys, which Update deletes, from the
// fields to merge.
func splitRemovals(fields Document) (Document, []string) {
	set := make(Document, len(fields))
	removed := []string{}
	for k, v := range fields {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		set[k] = v
	}
	return set, removed
}
