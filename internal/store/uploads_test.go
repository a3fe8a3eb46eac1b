package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"sticky-uploads/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "uploads_test",
		Path:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestStore_InsertGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := UploadRecord{
		ID:          "abc-123",
		Filename:    "report.pdf",
		StoredName:  "report.pdf",
		Storage:     "sticky-uploads/internal/storage.LocalStorage",
		ContentType: "application/pdf",
		Size:        1024,
		TokenScope:  "/upload/default/",
	}
	if err := s.InsertUpload(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetUpload(ctx, "abc-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != "report.pdf" || got.Size != 1024 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Storage != rec.Storage {
		t.Fatalf("expected storage %s, got %s", rec.Storage, got.Storage)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestStore_EmptyDriverDefaultsToSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Name: "default_driver_test",
		Path: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	rec := UploadRecord{
		ID: "d1", Filename: "a.txt", StoredName: "a.txt",
		Storage: "s", ContentType: "text/plain", Size: 1,
		TokenScope: "/upload/default/",
	}
	if err := s.InsertUpload(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.GetUpload(ctx, "d1"); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestStore_MalformedTimestampSurfaced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx, `INSERT INTO _uploads
		(id, filename, stored_name, storage, content_type, size, token_scope, created_at)
		VALUES ('bad', 'a.txt', 'a.txt', 's', 'text/plain', 1, '/upload/default/', 'yesterday-ish')`)
	if err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	if _, err := s.GetUpload(ctx, "bad"); err == nil {
		t.Fatal("expected get to surface the malformed timestamp")
	}
	if _, err := s.ListUploads(ctx); err == nil {
		t.Fatal("expected list to surface the malformed timestamp")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUpload(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := UploadRecord{
		ID: "old", Filename: "a.txt", StoredName: "a.txt",
		Storage: "s", ContentType: "text/plain", Size: 1,
		TokenScope: "/upload/default/", CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := UploadRecord{
		ID: "new", Filename: "b.txt", StoredName: "b.txt",
		Storage: "s", ContentType: "text/plain", Size: 2,
		TokenScope: "/upload/default/", CreatedAt: time.Now(),
	}
	if err := s.InsertUpload(ctx, older); err != nil {
		t.Fatalf("insert older: %v", err)
	}
	if err := s.InsertUpload(ctx, newer); err != nil {
		t.Fatalf("insert newer: %v", err)
	}

	records, err := s.ListUploads(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "new" || records[1].ID != "old" {
		t.Fatalf("expected newest first, got %s then %s", records[0].ID, records[1].ID)
	}
}
