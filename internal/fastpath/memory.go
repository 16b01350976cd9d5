package fastpath

import (
	"strings"
	"sync"
)

// Exchange is one remembered question/answer pair
type Exchange struct {
	Question string
	Answer   string
}

// Memory is a bounded ring of the most recent exchanges, used only for
// exact-match recall. It is shared across concurrent requests; Add holds
// the lock so eviction is atomic with append.
type Memory struct {
	mu       sync.Mutex
	entries  []Exchange
	capacity int
}

const defaultMemoryCapacity = 50

// NewMemory creates a memory ring with the given capacity (50 when <= 0)
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Add records a question/answer pair, evicting the oldest entry when full.
// Empty questions or answers are ignored.
func (m *Memory) Add(question, answer string) {
	if question == "" || answer == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.capacity {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, Exchange{Question: question, Answer: answer})
}

// Lookup returns the stored answer for a case-insensitive exact question
// match, scanning most recent first.
func (m *Memory) Lookup(question string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if strings.ToLower(m.entries[i].Question) == q && m.entries[i].Answer != "" {
			return m.entries[i].Answer, true
		}
	}
	return "", false
}

// Len returns the number of remembered exchanges
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
