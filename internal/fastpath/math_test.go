package fastpath

import "testing"

func TestTryMathBasics(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"2+2", "4"},
		{"6/3", "2"},
		{" (2 + 3) * 4 ", "20"},
		{"10 % 3", "1"},
		{"-5 + 2", "-3"},
		{"2 * (3 + 4) - 1", "13"},
		{"0.1 + 0.2", "0.3"},
		{"7 / 2", "3.5"},
	}
	for _, c := range cases {
		got, ok := TryMath(c.input)
		if !ok {
			t.Errorf("TryMath(%q) did not match", c.input)
			continue
		}
		if got != c.want {
			t.Errorf("TryMath(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestTryMathRejects(t *testing.T) {
	inputs := []string{
		"42",         // no operator
		"2+a",        // invalid charset
		"what is 2+2",
		"1/0",        // division by zero
		"5 % 0",
		"2 +",        // dangling operator
		"(2+3",       // unbalanced parens
		"",
	}
	for _, input := range inputs {
		if got, ok := TryMath(input); ok {
			t.Errorf("TryMath(%q) = %q, expected no match", input, got)
		}
	}
}

func TestTryMathIsPure(t *testing.T) {
	first, ok1 := TryMath("12 * 12")
	second, ok2 := TryMath("12 * 12")
	if !ok1 || !ok2 || first != second {
		t.Errorf("Expected identical results, got %q/%v and %q/%v", first, ok1, second, ok2)
	}
}
