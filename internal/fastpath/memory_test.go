package fastpath

import (
	"fmt"
	"testing"
)

func TestMemoryEviction(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 4; i++ {
		m.Add(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	if m.Len() != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", m.Len())
	}
	if _, ok := m.Lookup("q0"); ok {
		t.Error("Oldest entry should have been evicted")
	}
	if answer, ok := m.Lookup("q3"); !ok || answer != "a3" {
		t.Errorf("Newest entry missing, got %q ok=%v", answer, ok)
	}
}

func TestMemoryIgnoresEmpty(t *testing.T) {
	m := NewMemory(0)
	m.Add("", "answer")
	m.Add("question", "")
	if m.Len() != 0 {
		t.Errorf("Expected empty pairs to be ignored, got %d entries", m.Len())
	}
}

func TestMemoryCaseInsensitiveLookup(t *testing.T) {
	m := NewMemory(0)
	m.Add("What Is Go?", "a language")
	if answer, ok := m.Lookup("what is go?"); !ok || answer != "a language" {
		t.Errorf("Expected case-insensitive match, got %q ok=%v", answer, ok)
	}
	if _, ok := m.Lookup("what is go"); ok {
		t.Error("Lookup must be exact, not fuzzy")
	}
}

func TestMemoryMostRecentWins(t *testing.T) {
	m := NewMemory(0)
	m.Add("q", "old")
	m.Add("q", "new")
	if answer, _ := m.Lookup("q"); answer != "new" {
		t.Errorf("Expected most recent answer, got %q", answer)
	}
}
