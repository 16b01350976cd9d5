package fastpath

import (
	"regexp"
	"strings"
)

// fact is an ordered key/value pair; ordering keeps substring matching
// deterministic when a question could match more than one key.
type fact struct {
	key   string
	value string
}

// Tiny internal fact table. Kept deliberately small to avoid false
// certainty; anything beyond it goes to the providers.
var facts = []fact{
	{"capital city of kenya", "Nairobi"},
	{"capital city of tanzania", "Dodoma"},
	{"president of china", "Xi Jinping"},
	{"mount kenya continent", "Africa"},
	{"largest mountain in the world", "Mount Everest"},
}

var capitals = map[string]string{
	"kenya":        "Nairobi",
	"tanzania":     "Dodoma",
	"south africa": "Pretoria (administrative), Cape Town (legislative), Bloemfontein (judicial)",
}

var capitalPattern = regexp.MustCompile(`capital\s+(?:city\s+)?of\s+([a-z\s\-]+?)\??$`)

// LookupFact checks the "capital of X" pattern and then the static fact
// table against a lowercased question. First structural match wins.
func LookupFact(ql string) (string, bool) {
	if strings.Contains(ql, "capital") && strings.Contains(ql, " of ") {
		if m := capitalPattern.FindStringSubmatch(ql); m != nil {
			if answer, ok := capitals[strings.TrimSpace(m[1])]; ok {
				return answer, true
			}
		}
	}
	for _, f := range facts {
		if strings.Contains(ql, f.key) {
			return f.value, true
		}
	}
	return "", false
}
