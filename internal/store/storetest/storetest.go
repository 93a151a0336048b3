// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"niveshx-api/internal/store"
)

// Run exercises s against the store.Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, store.Users, "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		err := s.Set(ctx, store.Users, "u1", store.Document{
			"email":      "b@x.com",
			"isVerified": true,
			"createdAt":  int64(1700000000000),
		})
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		doc, err := s.Get(ctx, store.Users, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if doc.String("email") != "b@x.com" {
			t.Fatalf("email = %q, want %q", doc.String("email"), "b@x.com")
		}
		if !doc.Bool("isVerified") {
			t.Fatal("isVerified = false, want true")
		}
		if doc.Int64("createdAt") != 1700000000000 {
			t.Fatalf("createdAt = %d, want 1700000000000", doc.Int64("createdAt"))
		}
	})

	t.Run("find one", func(t *testing.T) {
		rec, err := s.FindOne(ctx, store.Users, "email", "b@x.com")
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		if rec.ID != "u1" {
			t.Fatalf("ID = %q, want u1", rec.ID)
		}

		_, err = s.FindOne(ctx, store.Users, "email", "c@x.com")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindOne() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("exists is collection scoped", func(t *testing.T) {
		ok, err := s.Exists(ctx, store.Users, "email", "b@x.com")
		if err != nil || !ok {
			t.Fatalf("Exists() = %v, %v, want true, nil", ok, err)
		}
		ok, err = s.Exists(ctx, store.Companies, "email", "b@x.com")
		if err != nil || ok {
			t.Fatalf("Exists() = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("update merges and removes", func(t *testing.T) {
		err := s.Update(ctx, store.Users, "u1", store.Document{
			"companyId":  "c1",
			"isVerified": nil,
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		doc, err := s.Get(ctx, store.Users, "u1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if doc.String("companyId") != "c1" {
			t.Fatalf("companyId = %q, want c1", doc.String("companyId"))
		}
		if _, ok := doc["isVerified"]; ok {
			t.Fatal("isVerified still present after nil update")
		}
		if doc.String("email") != "b@x.com" {
			t.Fatalf("email = %q, want untouched", doc.String("email"))
		}
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.Update(ctx, store.Users, "missing", store.Document{"a": "b"})
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, store.Users, "u1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := s.Delete(ctx, store.Users, "u1"); err != nil {
			t.Fatalf("second Delete() error = %v", err)
		}
		_, err := s.Get(ctx, store.Users, "u1")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
		}
	})
}
