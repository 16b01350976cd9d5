package fastpath

import "strings"

// Stage names double as provider labels on fast-path answers
const (
	StageMath   = "local-math"
	StageFacts  = "local-facts"
	StageMemory = "local-memory"
)

// Result is a fast-path answer
type Result struct {
	Answer     string
	Stage      string
	FromMemory bool
}

// Resolver tries the no-network chain: math, facts, exact memory recall.
// The memory ring is injected so tests can run against a fresh instance.
type Resolver struct {
	memory *Memory
}

// NewResolver creates a resolver over the given memory ring
func NewResolver(memory *Memory) *Resolver {
	return &Resolver{memory: memory}
}

// Memory exposes the ring so the orchestrator can record provider answers
func (r *Resolver) Memory() *Memory {
	return r.memory
}

// Resolve runs the stages strictly in order; the first match wins and no
// later stage is consulted. Math and fact hits are recorded into memory
// for future exact recall; a memory hit returns the stored record as is.
func (r *Resolver) Resolve(question string) (*Result, bool) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, false
	}
	ql := strings.ToLower(q)

	if answer, ok := TryMath(ql); ok {
		r.memory.Add(q, answer)
		return &Result{Answer: answer, Stage: StageMath}, true
	}

	if answer, ok := LookupFact(ql); ok {
		r.memory.Add(q, answer)
		return &Result{Answer: answer, Stage: StageFacts}, true
	}

	if answer, ok := r.memory.Lookup(ql); ok {
		return &Result{Answer: answer, Stage: StageMemory, FromMemory: true}, true
	}

	return nil, false
}
