package storage

import (
	"io"
	"strings"
	"testing"
)

func TestBadgerStorage_SaveOpenExists(t *testing.T) {
	s := NewBadgerStorage(t.TempDir())
	defer s.Close()

	stored, err := s.Save("test.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored != "test.png" {
		t.Fatalf("expected stored name test.png, got %s", stored)
	}
	if !s.Exists(stored) {
		t.Fatal("expected key to exist after save")
	}

	f, err := s.Open(stored)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("expected png-bytes, got %q", data)
	}
}

func TestBadgerStorage_SaveDoesNotClobber(t *testing.T) {
	s := NewBadgerStorage(t.TempDir())
	defer s.Close()

	first, err := s.Save("a.txt", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := s.Save("a.txt", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh stored name, got %s twice", second)
	}
}

func TestBadgerStorage_SharedAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	// Request handlers construct a fresh instance per operation and never
	// close it; all instances on one path must reach the same database.
	first := NewBadgerStorage(dir)
	defer first.Close()

	if _, err := first.Save("test.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := NewBadgerStorage(dir)
	if !second.Exists("test.png") {
		t.Fatal("expected a second instance on the same path to see the saved file")
	}
	f, err := second.Open("test.png")
	if err != nil {
		t.Fatalf("open via second instance: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("expected png-bytes, got %q", data)
	}
}

func TestBadgerStorage_ReopenAfterClose(t *testing.T) {
	dir := t.TempDir()

	s := NewBadgerStorage(dir)
	if _, err := s.Save("a.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewBadgerStorage(dir)
	defer reopened.Close()
	if !reopened.Exists("a.txt") {
		t.Fatal("expected data to survive a close and reopen")
	}
}

func TestBadgerStorage_Missing(t *testing.T) {
	s := NewBadgerStorage(t.TempDir())
	defer s.Close()

	if s.Exists("nope") {
		t.Fatal("expected missing key to not exist")
	}
	if _, err := s.Open("nope"); err == nil {
		t.Fatal("expected open of missing key to fail")
	}
}
