package fastpath

import "testing"

func TestResolveMath(t *testing.T) {
	r := NewResolver(NewMemory(0))
	res, ok := r.Resolve("2+2")
	if !ok {
		t.Fatal("Expected math fast path to resolve")
	}
	if res.Answer != "4" {
		t.Errorf("Expected 4, got %q", res.Answer)
	}
	if res.Stage != StageMath {
		t.Errorf("Expected stage %s, got %s", StageMath, res.Stage)
	}
	if res.FromMemory {
		t.Error("Math hit should not be flagged as memory")
	}
}

func TestResolveFacts(t *testing.T) {
	r := NewResolver(NewMemory(0))
	res, ok := r.Resolve("What is the capital city of Kenya?")
	if !ok {
		t.Fatal("Expected facts fast path to resolve")
	}
	if res.Answer != "Nairobi" {
		t.Errorf("Expected Nairobi, got %q", res.Answer)
	}
	if res.Stage != StageFacts {
		t.Errorf("Expected stage %s, got %s", StageFacts, res.Stage)
	}
}

func TestResolveMemoryExactRecall(t *testing.T) {
	r := NewResolver(NewMemory(0))
	r.Memory().Add("Who won the 1970 World Cup?", "Brazil")

	res, ok := r.Resolve("who won the 1970 world cup?")
	if !ok {
		t.Fatal("Expected memory fast path to resolve")
	}
	if res.Answer != "Brazil" {
		t.Errorf("Expected Brazil, got %q", res.Answer)
	}
	if res.Stage != StageMemory || !res.FromMemory {
		t.Errorf("Expected memory stage, got %s from_memory=%v", res.Stage, res.FromMemory)
	}

	// recall must not mutate the stored answer
	again, ok := r.Resolve("Who won the 1970 World Cup?")
	if !ok || again.Answer != "Brazil" {
		t.Errorf("Expected idempotent recall, got %+v ok=%v", again, ok)
	}
}

func TestResolveMiss(t *testing.T) {
	r := NewResolver(NewMemory(0))
	if res, ok := r.Resolve("explain quantum entanglement"); ok {
		t.Errorf("Expected no fast path hit, got %+v", res)
	}
}

func TestResolveRecordsHitsInMemory(t *testing.T) {
	r := NewResolver(NewMemory(0))
	r.Resolve("3*7")
	if answer, ok := r.Memory().Lookup("3*7"); !ok || answer != "21" {
		t.Errorf("Expected math hit recorded in memory, got %q ok=%v", answer, ok)
	}
}
