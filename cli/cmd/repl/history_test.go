package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
)

func TestHistory_AddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", HistoryFile)
	h := NewHistory(path)

	for _, entry := range []string{"{a}", "  {b}  ", "", "{b}", "{a}"} {
		if err := h.Add(entry); err != nil {
			t.Fatalf("Add(%q) error = %v", entry, err)
		}
	}

	want := []string{"{b}", "{a}"}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %q, want %q", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(data) != "{b}\n{a}\n" {
		t.Errorf("history file = %q, want %q", data, "{b}\n{a}\n")
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded Entries() = %q, want %q", got, want)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "nope"))

	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")

	_ = h.Add("first")
	_ = h.Add("second")

	if got, err := h.Entry(1); err != nil || got != "second" {
		t.Errorf("Entry(1) = (%q, %v), want (%q, nil)", got, err, "second")
	}

	for _, i := range []int{-1, 2} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestHistory_Trim(t *testing.T) {
	h := NewHistory("")

	for i := range maxHistory + 1 {
		if err := h.Add(strconv.Itoa(i)); err != nil {
			t.Fatal(err)
		}
	}

	if h.Len() != maxHistory {
		t.Fatalf("Len() = %d, want %d", h.Len(), maxHistory)
	}

	if got, _ := h.Entry(0); got != "1" {
		t.Errorf("Entry(0) = %q, want %q", got, "1")
	}
}
