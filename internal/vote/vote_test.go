package vote

import "testing"

func TestNormalizeGrouping(t *testing.T) {
	if Normalize("Paris") != Normalize("paris.") {
		t.Error("Expected Paris and paris. to normalize identically")
	}
	if Normalize("Paris") == Normalize("London") {
		t.Error("Expected Paris and London to differ")
	}
	if got := Normalize("  The   `answer`  is 42!  "); got != "the answer is 42" {
		t.Errorf("Normalize mismatch: %q", got)
	}
}

func TestSelectMajority(t *testing.T) {
	got := Select([]string{"Paris", "paris.", "London"})
	if got != "Paris" {
		t.Errorf("Expected Paris to win by count, got %q", got)
	}
}

func TestSelectReturnsOriginalText(t *testing.T) {
	got := Select([]string{"PARIS!", "paris", "London"})
	if got != "PARIS!" {
		t.Errorf("Expected first original of the winning group, got %q", got)
	}
}

func TestSelectTieGoesToLonger(t *testing.T) {
	got := Select([]string{"A", "AB", "ABC"})
	if got != "ABC" {
		t.Errorf("Expected longest answer on tie, got %q", got)
	}
}

func TestSelectSingle(t *testing.T) {
	if got := Select([]string{"only"}); got != "only" {
		t.Errorf("Expected single candidate back, got %q", got)
	}
}

func TestSelectEmptyAndWhitespace(t *testing.T) {
	if got := Select(nil); got != "" {
		t.Errorf("Expected empty string for no candidates, got %q", got)
	}
	// candidates that normalize to nothing fall back to the first raw
	if got := Select([]string{"   ", "..."}); got != "   " {
		t.Errorf("Expected first raw candidate, got %q", got)
	}
}

func TestSelectDeterministic(t *testing.T) {
	in := []string{"alpha", "beta", "gamma"}
	first := Select(in)
	for i := 0; i < 10; i++ {
		if got := Select(in); got != first {
			t.Fatalf("Select is not deterministic: %q vs %q", got, first)
		}
	}
}
