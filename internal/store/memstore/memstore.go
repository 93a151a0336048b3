// Package memstore is an in-process store.Store. Documents are kept as
// encoded JSON so callers see the same decoded shapes the postgres store
// returns.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"niveshx-api/internal/store"
)

type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte

	// Fail, when set, is returned by every operation. Tests use it to
	// simulate an unreachable backend.
	Fail error
}

func New() *Store {
	return &Store{docs: make(map[string]map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.docs[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return decode(raw)
}

func (s *Store) FindOne(ctx context.Context, collection, field, value string) (*store.Record, error) {
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// ids are walked in order so results are stable across runs
	ids := make([]string, 0, len(s.docs[collection]))
	for id := range s.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		raw := s.docs[collection][id]
		text, ok, err := fieldText(raw, field)
		if err != nil {
			return nil, err
		}
		if !ok || text != value {
			continue
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		return &store.Record{ID: id, Data: doc}, nil
	}
	return nil, store.ErrNotFound
}

// fieldText renders a top-level field the way postgres' ->> does for
// scalars: strings unquoted, numbers and booleans as their JSON literal.
// Null, missing, object and array fields never match.
func fieldText(raw []byte, field string) (string, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", false, fmt.Errorf("decode document: %w", err)
	}
	v, ok := fields[field]
	if !ok || len(v) == 0 {
		return "", false, nil
	}
	switch v[0] {
	case '"':
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return "", false, fmt.Errorf("decode field %s: %w", field, err)
		}
		return str, true, nil
	case 'n', '{', '[':
		return "", false, nil
	default:
		return string(v), true, nil
	}
}

func (s *Store) Exists(ctx context.Context, collection, field, value string) (bool, error) {
	_, err := s.FindOne(ctx, collection, field, value)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data store.Document) error {
	if s.Fail != nil {
		return s.Fail
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	s.docs[collection][id] = raw
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields store.Document) error {
	if s.Fail != nil {
		return s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.docs[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	doc, err := decode(raw)
	if err != nil {
		return err
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}

	raw, err = json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	s.docs[collection][id] = raw
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if s.Fail != nil {
		return s.Fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[collection], id)
	return nil
}

func decode(raw []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

var _ store.Store = (*Store)(nil)
