package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorage_SaveOpenExists(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	stored, err := s.Save("docs/test.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored != "docs/test.txt" {
		t.Fatalf("expected stored name docs/test.txt, got %s", stored)
	}
	if !s.Exists(stored) {
		t.Fatal("expected file to exist after save")
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
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", data)
	}
}

func TestLocalStorage_SaveDoesNotClobber(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

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
	if filepath.Ext(second) != ".txt" {
		t.Fatalf("expected extension preserved, got %s", second)
	}

	f, err := s.Open(first)
	if err != nil {
		t.Fatalf("open original: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "one" {
		t.Fatalf("original content overwritten: %q", data)
	}
}

func TestLocalStorage_MissingFile(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	if s.Exists("nope.txt") {
		t.Fatal("expected missing file to not exist")
	}
	if _, err := s.Open("nope.txt"); err == nil {
		t.Fatal("expected open of missing file to fail")
	}
}

func TestLocalStorage_PathEscapeConfined(t *testing.T) {
	base := t.TempDir()
	s := NewLocalStorage(base)

	stored, err := s.Save("../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Fatalf("expected file confined under base path: %v", err)
	}
	if !s.Exists(stored) {
		t.Fatal("expected saved file to exist under its stored name")
	}
}
