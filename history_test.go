package zino_test

import (
	"errors"
	"testing"

	"github.com/zinolib/gozino"
)

func TestParseHistoryOperatorEntry(t *testing.T) {
	lines := []string{
		"1700000000 alice",
		" Looked into this, seems fine.",
		" Closing soon.",
		" ",
		"1700000100 user=\"monitor\" state change embedded",
	}

	entries, err := zino.ParseHistory(lines)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].User != "alice" {
		t.Errorf("entries[0].User = %q, want alice", entries[0].User)
	}
	want := "Looked into this, seems fine. Closing soon."
	if entries[0].Log != want {
		t.Errorf("entries[0].Log = %q, want %q", entries[0].Log, want)
	}
	if entries[1].User != "monitor" {
		t.Errorf("entries[1].User = %q, want monitor", entries[1].User)
	}
}

func TestParseHistoryContinuesAfterEmbeddedBlankMarker(t *testing.T) {
	lines := []string{
		"1753277415 ford",
		" time is an illusion,",
		" ",
		" lunchtime doubly so",
		" ",
	}

	entries, err := zino.ParseHistory(lines)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].User != "ford" {
		t.Errorf("entries[0].User = %q, want ford", entries[0].User)
	}
	want := "time is an illusion,  lunchtime doubly so"
	if entries[0].Log != want {
		t.Errorf("entries[0].Log = %q, want %q", entries[0].Log, want)
	}
}

func TestParseHistoryLastEntryWithoutMarker(t *testing.T) {
	lines := []string{
		"1700000000 bob",
		" final note, no trailing marker",
	}

	entries, err := zino.ParseHistory(lines)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Log != "final note, no trailing marker" {
		t.Errorf("Log = %q", entries[0].Log)
	}
}

func TestParseLog(t *testing.T) {
	lines := []string{
		"1700000000 interface down",
		"1700000100 interface up",
	}

	entries, err := zino.ParseLog(lines)
	if err != nil {
		t.Fatalf("ParseLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Log != "interface down" {
		t.Errorf("Log = %q", entries[0].Log)
	}
}

func TestParseLogBadTimestamp(t *testing.T) {
	_, err := zino.ParseLog([]string{"not-a-number free text"})
	if !errors.Is(err, zino.ErrRetry) {
		t.Fatalf("err = %v, want ErrRetry", err)
	}
}
