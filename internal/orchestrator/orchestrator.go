// Package orchestrator answers questions by trying the no-network fast
// path first, then fanning the prompt out across every active provider
// and reconciling the candidates by vote.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/events"
	"github.com/quorumhub/quorum-gateway/internal/fastpath"
	"github.com/quorumhub/quorum-gateway/internal/metrics"
	"github.com/quorumhub/quorum-gateway/internal/provider"
	"github.com/quorumhub/quorum-gateway/internal/retrieval"
	"github.com/quorumhub/quorum-gateway/internal/store"
	"github.com/quorumhub/quorum-gateway/internal/vote"
)

const (
	// NoAnswerText is the sentinel returned when no provider produced a
	// usable result. It is a reportable terminal state, not an error.
	NoAnswerText = "I don't have an exact answer yet for that."

	// LabelEnsemble marks answers reconciled from two or more candidates
	LabelEnsemble = "ensemble"

	// LabelNone marks the sentinel no-answer state
	LabelNone = "none"

	systemPrompt = "Answer directly and correctly. Be concise. If asked for code, provide runnable code blocks."

	// stragglers get this much beyond the per-call timeout before the
	// aggregate deadline abandons them
	graceMargin = 5 * time.Second

	recentTurns = 6
)

// ErrEmptyQuestion is returned before any provider call when the input
// fails validation.
var ErrEmptyQuestion = errors.New("question must not be empty")

// ErrNoProviders is returned by First when no active provider answered
var ErrNoProviders = errors.New("no active provider produced an answer")

var answerPrefix = regexp.MustCompile(`(?i)^\s*answer\s*:\s*`)

// Result is the outcome of one answer pipeline run
type Result struct {
	Answer        string
	Provider      string
	ProvidersUsed []string
	FromMemory    bool
}

// AskRequest is the external ask contract
type AskRequest struct {
	Question  string
	SessionID string
	Provider  string
}

// AskResult extends Result with the session the exchange was recorded under
type AskResult struct {
	Result
	SessionID string
}

// Deps carries the orchestrator's collaborators. Store, Index and Events
// are optional; the core pipeline runs without them.
type Deps struct {
	Registry *provider.Registry
	Resolver *fastpath.Resolver
	Store    *store.Store
	Index    retrieval.Index
	Events   *events.Stream
	Config   *config.Config
	Logger   *slog.Logger
}

// Orchestrator coordinates the fast path, fan-out and reconciliation
type Orchestrator struct {
	registry   *provider.Registry
	resolver   *fastpath.Resolver
	store      *store.Store
	index      retrieval.Index
	events     *events.Stream
	timeout    time.Duration
	deliberate time.Duration
	topK       int
	logger     *slog.Logger
}

// New creates an orchestrator from its dependencies
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		registry:   deps.Registry,
		resolver:   deps.Resolver,
		store:      deps.Store,
		index:      deps.Index,
		events:     deps.Events,
		timeout:    deps.Config.Orchestrator.GetTimeout(),
		deliberate: deps.Config.Orchestrator.Deliberation(),
		topK:       deps.Config.Retrieval.TopK,
		logger:     deps.Logger,
	}
}

// Ask runs the full pipeline for one question: validation, session
// bookkeeping, context enrichment, answering, persistence.
func (o *Orchestrator) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	started := time.Now()

	q := strings.TrimSpace(req.Question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	sessionID := req.SessionID
	if o.store != nil {
		sid, err := o.store.EnsureSession(ctx, sessionID)
		if err != nil {
			o.logger.Error("Session bookkeeping failed", "error", err)
		} else {
			sessionID = sid
		}
	}

	res, err := o.Answer(ctx, q, req.Provider, o.buildContext(ctx, sessionID, q))
	if err != nil {
		return nil, err
	}

	if o.store != nil && sessionID != "" {
		if err := o.store.AppendTurn(ctx, sessionID, "user", q); err != nil {
			o.logger.Error("Failed to persist user turn", "session", sessionID, "error", err)
		}
		if err := o.store.AppendTurn(ctx, sessionID, "assistant", res.Answer); err != nil {
			o.logger.Error("Failed to persist assistant turn", "session", sessionID, "error", err)
		}
	}
	if o.events != nil {
		o.events.PublishExchange(ctx, sessionID, q, res.Answer, res.Provider)
	}

	metrics.AnswerLatency.Observe(time.Since(started).Seconds())
	return &AskResult{Result: *res, SessionID: sessionID}, nil
}

// buildContext assembles retrieval snippets and recent session turns into
// the context block appended to the prompt. Failures degrade to less
// context, never to a failed request.
func (o *Orchestrator) buildContext(ctx context.Context, sessionID, question string) string {
	var parts []string

	if o.index != nil {
		snippets, err := o.index.Query(ctx, question, o.topK)
		if err != nil {
			o.logger.Debug("Retrieval query failed", "error", err)
		}
		for _, s := range snippets {
			parts = append(parts, "- "+s.Text)
		}
	}

	if o.store != nil && sessionID != "" {
		turns, err := o.store.RecentContext(ctx, sessionID, recentTurns)
		if err != nil {
			o.logger.Debug("Recent context fetch failed", "error", err)
		}
		for _, t := range turns {
			parts = append(parts, fmt.Sprintf("%s: %s", t.Role, t.Content))
		}
	}

	return strings.Join(parts, "\n")
}

// Answer resolves one question: deliberation pause, fast path, then
// provider fan-out with voting. The only error it returns is input
// validation; everything downstream degrades to the no-answer sentinel.
func (o *Orchestrator) Answer(ctx context.Context, question, forced, contextBlock string) (*Result, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	o.pause(ctx)

	if hit, ok := o.resolver.Resolve(q); ok {
		metrics.FastPathHits.WithLabelValues(hit.Stage).Inc()
		return &Result{
			Answer:        hit.Answer,
			Provider:      hit.Stage,
			ProvidersUsed: []string{},
			FromMemory:    hit.FromMemory,
		}, nil
	}

	prompt := q
	if contextBlock != "" {
		prompt = fmt.Sprintf("%s\n\nContext:\n%s", q, contextBlock)
	}

	order := o.registry.Order(forced)
	active := o.registry.Active(order)

	// Forced single provider: call it alone, fall back to the full
	// ensemble when it fails instead of failing the request.
	if forced != "" && len(active) == 1 && active[0] == forced {
		if text, err := o.call(ctx, forced, prompt); err == nil && text != "" {
			o.resolver.Memory().Add(q, text)
			return &Result{Answer: text, Provider: forced, ProvidersUsed: []string{forced}}, nil
		}
		o.logger.Warn("Forced provider failed, falling back to ensemble", "provider", forced)
		active = o.registry.Active(o.registry.Order(""))
	}

	candidates := o.fanOut(ctx, prompt, active)
	if len(candidates) == 0 {
		return &Result{Answer: NoAnswerText, Provider: LabelNone, ProvidersUsed: []string{}}, nil
	}

	used := make([]string, 0, len(candidates))
	texts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		used = append(used, c.provider)
		texts = append(texts, c.text)
	}

	label := used[0]
	answer := texts[0]
	if len(candidates) > 1 {
		label = LabelEnsemble
		answer = vote.Select(texts)
		metrics.EnsembleSize.Observe(float64(len(candidates)))
	}

	o.resolver.Memory().Add(q, answer)
	return &Result{Answer: answer, Provider: label, ProvidersUsed: used}, nil
}

// First tries active providers in preference order and returns the first
// non-empty answer with its provider name. Used for critic and summary
// calls where one opinion is enough.
func (o *Orchestrator) First(ctx context.Context, prompt, system string, temperature *float64) (string, string, error) {
	for _, name := range o.registry.Active(o.registry.Order("")) {
		client, ok := o.registry.Get(name)
		if !ok {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		metrics.ProviderCalls.WithLabelValues(name).Inc()
		text, err := client.Complete(callCtx, &provider.Request{
			Prompt:      prompt,
			System:      system,
			Temperature: temperature,
		})
		cancel()
		if err != nil {
			metrics.ProviderFailures.WithLabelValues(name, string(provider.Kind(err))).Inc()
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, name, nil
		}
	}
	return "", "", ErrNoProviders
}

type candidate struct {
	provider string
	text     string
}

// fanOut issues the prompt to every active provider concurrently, one
// worker per provider, bounded by the per-call timeout plus a grace
// margin overall. Whatever completes in time is collected in completion
// order; errors and empty answers are dropped, not retried.
func (o *Orchestrator) fanOut(ctx context.Context, prompt string, active []string) []candidate {
	if len(active) == 0 {
		return nil
	}

	aggCtx, cancel := context.WithTimeout(ctx, o.timeout+graceMargin)
	defer cancel()

	results := make(chan candidate, len(active))
	p := pool.New().WithMaxGoroutines(len(active))
	for _, name := range active {
		p.Go(func() {
			if text, err := o.call(aggCtx, name, prompt); err == nil && text != "" {
				results <- candidate{provider: name, text: text}
			}
		})
	}
	p.Wait()
	close(results)

	candidates := make([]candidate, 0, len(active))
	for c := range results {
		candidates = append(candidates, c)
	}
	return candidates
}

// call runs one bounded completion against a named provider and strips a
// leading "Answer:" prefix from the response.
func (o *Orchestrator) call(ctx context.Context, name, prompt string) (string, error) {
	client, ok := o.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", name)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	metrics.ProviderCalls.WithLabelValues(name).Inc()
	text, err := client.Complete(callCtx, &provider.Request{Prompt: prompt, System: systemPrompt})
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(name, string(provider.Kind(err))).Inc()
		o.logger.Debug("Provider call failed", "provider", name, "kind", provider.Kind(err))
		return "", err
	}
	return stripAnswer(text), nil
}

// pause applies the bounded deliberation delay unless the context ends first
func (o *Orchestrator) pause(ctx context.Context) {
	if o.deliberate <= 0 {
		return
	}
	timer := time.NewTimer(o.deliberate)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func stripAnswer(text string) string {
	return strings.TrimSpace(answerPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
}

// Memory exposes the short-term ring for status reporting
func (o *Orchestrator) Memory() *fastpath.Memory {
	return o.resolver.Memory()
}
