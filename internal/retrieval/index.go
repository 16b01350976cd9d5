// Package retrieval supplies top-k relevant text snippets for a query,
// used to enrich prompts before provider fan-out.
package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Snippet is one retrieved piece of context
type Snippet struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
	Text  string  `json:"snippet"`
}

// Index returns top-k relevant snippets for a query
type Index interface {
	Query(ctx context.Context, q string, k int) ([]Snippet, error)
}

const snippetLength = 400

type document struct {
	path string
	text string
}

// FileIndex is a keyword index over a directory of plain-text documents
// (.txt/.md/.json). Scoring is token overlap; good enough for prompt
// enrichment without an embedding model in the loop.
type FileIndex struct {
	dataDir string
	mu      sync.RWMutex
	docs    []document
}

// NewFileIndex creates and populates an index over dataDir. A missing or
// empty directory yields an index that returns no snippets.
func NewFileIndex(dataDir string) (*FileIndex, error) {
	x := &FileIndex{dataDir: dataDir}
	if err := x.Reindex(); err != nil {
		return nil, err
	}
	return x, nil
}

// Reindex rescans the data directory
func (x *FileIndex) Reindex() error {
	var docs []document
	if x.dataDir != "" {
		filepath.Walk(x.dataDir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".txt", ".md", ".json":
			default:
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			docs = append(docs, document{path: path, text: string(data)})
			return nil
		})
	}

	x.mu.Lock()
	x.docs = docs
	x.mu.Unlock()
	return nil
}

// Query scores every document by token overlap with the query and returns
// the top k snippets, ordered by score then path for determinism.
func (x *FileIndex) Query(ctx context.Context, q string, k int) ([]Snippet, error) {
	if k <= 0 {
		k = 4
	}
	terms := tokenize(q)
	if len(terms) == 0 {
		return nil, nil
	}

	x.mu.RLock()
	docs := x.docs
	x.mu.RUnlock()

	var snippets []Snippet
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lower := strings.ToLower(d.text)
		score := 0.0
		first := -1
		for _, t := range terms {
			if idx := strings.Index(lower, t); idx >= 0 {
				score++
				if first < 0 || idx < first {
					first = idx
				}
			}
		}
		if score == 0 {
			continue
		}
		snippets = append(snippets, Snippet{
			Path:  d.path,
			Score: score / float64(len(terms)),
			Text:  excerpt(d.text, first),
		})
	}

	sort.Slice(snippets, func(i, j int) bool {
		if snippets[i].Score != snippets[j].Score {
			return snippets[i].Score > snippets[j].Score
		}
		return snippets[i].Path < snippets[j].Path
	})
	if len(snippets) > k {
		snippets = snippets[:k]
	}
	return snippets, nil
}

func tokenize(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func excerpt(text string, around int) string {
	start := around - snippetLength/4
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}
