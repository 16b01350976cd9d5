// Package creative implements the high-temperature sampling pipeline:
// diverse candidate generation across providers, novelty-weighted ranking
// and a single critique/refine pass on the winner.
package creative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/metrics"
	"github.com/quorumhub/quorum-gateway/internal/provider"
)

const (
	// FallbackText is returned when neither sampling nor the deterministic
	// fallback produced any candidate.
	FallbackText = "I have an idea, but no models replied."

	fallbackSystem = "Be boldly creative yet precise. Offer concrete details."

	criticSystem = "You are a concise, tough critic and editor. " +
		"Find any factual gaps, fuzzy claims, missing steps, or unclear parts. " +
		"Propose precise improvements only; keep it under 160 words."

	minSeeds = 3
	maxSeeds = 8

	sampleTemperature = 0.9
	sampleMaxTokens   = 900

	// critique runs only if at least this much budget remains
	critiqueReserve = 3 * time.Second

	shingleSize = 4
)

// ErrEmptyPrompt is returned before any provider call when the prompt is blank
var ErrEmptyPrompt = errors.New("prompt must not be empty")

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
	structureMark = regexp.MustCompile("(?m)^#+\\s|^[-*]\\s|```|^\\d+\\.")
	improvedBlock = regexp.MustCompile(`(?is)improved(?: answer| version)?[:\n]+(.*)$`)
)

// Completer issues one low-fan-out completion; satisfied by the
// orchestrator's First method.
type Completer interface {
	First(ctx context.Context, prompt, system string, temperature *float64) (string, string, error)
}

// Result is the outcome of one imagine run
type Result struct {
	Final      string   `json:"final"`
	Alternates []string `json:"alternates"`
	Count      int      `json:"count"`
}

// Sampler runs the creative pipeline against the provider registry
type Sampler struct {
	registry  *provider.Registry
	completer Completer
	budget    time.Duration
	logger    *slog.Logger
}

// New creates a sampler
func New(registry *provider.Registry, completer Completer, cfg *config.Config, logger *slog.Logger) *Sampler {
	return &Sampler{
		registry:  registry,
		completer: completer,
		budget:    cfg.Creative.GetBudget(),
		logger:    logger,
	}
}

// Imagine generates diverse candidates, ranks them by novelty and shape,
// refines the winner once if budget allows and returns the final answer
// with up to three alternates.
func (s *Sampler) Imagine(ctx context.Context, prompt string, seeds int) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	started := time.Now()
	if seeds < minSeeds {
		seeds = minSeeds
	}
	if seeds > maxSeeds {
		seeds = maxSeeds
	}

	candidates := s.sample(ctx, prompt, seeds)
	if len(candidates) == 0 {
		if base, _, err := s.completer.First(ctx, prompt, fallbackSystem, nil); err == nil && base != "" {
			candidates = []string{base}
		}
	}
	metrics.CreativeSamples.Add(float64(len(candidates)))

	ranked := rank(candidates)
	if len(ranked) == 0 {
		return &Result{Final: FallbackText, Alternates: []string{}, Count: 0}, nil
	}
	best := ranked[0]

	if time.Since(started) < s.budget-critiqueReserve {
		best = s.refine(ctx, prompt, best)
	}

	alternates := ranked[1:]
	if len(alternates) > 3 {
		alternates = alternates[:3]
	}
	return &Result{
		Final:      strings.TrimSpace(best),
		Alternates: alternates,
		Count:      len(candidates),
	}, nil
}

// sample collects up to n high-temperature completions, distributed
// round-robin across the active providers and issued concurrently.
func (s *Sampler) sample(ctx context.Context, prompt string, n int) []string {
	active := s.registry.Active(s.registry.Order(""))
	if len(active) == 0 {
		return nil
	}

	results := make(chan string, n)
	p := pool.New().WithMaxGoroutines(len(active))
	for i := 0; i < n; i++ {
		name := active[i%len(active)]
		seed := i
		p.Go(func() {
			client, ok := s.registry.Get(name)
			if !ok {
				return
			}
			temp := sampleTemperature
			metrics.ProviderCalls.WithLabelValues(name).Inc()
			text, err := client.Complete(ctx, &provider.Request{
				Prompt:      fmt.Sprintf("%s\n\n(Variation %d)", prompt, seed+1),
				System:      fallbackSystem,
				Temperature: &temp,
				MaxTokens:   sampleMaxTokens,
			})
			if err != nil {
				metrics.ProviderFailures.WithLabelValues(name, string(provider.Kind(err))).Inc()
				s.logger.Debug("Creative sample failed", "provider", name, "kind", provider.Kind(err))
				return
			}
			if text = strings.TrimSpace(text); text != "" {
				results <- text
			}
		})
	}
	p.Wait()
	close(results)

	candidates := make([]string, 0, n)
	for text := range results {
		candidates = append(candidates, text)
	}
	return candidates
}

// refine asks a critic for improvements and merges them into the draft.
// Any failure leaves the draft untouched.
func (s *Sampler) refine(ctx context.Context, prompt, draft string) string {
	ask := fmt.Sprintf("Original Prompt:\n%s\n\nDraft Answer:\n%s\n\nCritique and improved version:", prompt, draft)
	lowTemp := 0.2
	critique, _, err := s.completer.First(ctx, ask, criticSystem, &lowTemp)
	if err != nil || critique == "" {
		return draft
	}
	if m := improvedBlock.FindStringSubmatch(critique); m != nil {
		if improved := strings.TrimSpace(m[1]); improved != "" {
			return improved
		}
		return draft
	}
	return draft + "\n\n— Improvements —\n" + critique
}

// rank orders candidates best-first by a blend of novelty against the
// other candidates, depth, sentence count and visible structure.
func rank(candidates []string) []string {
	type scored struct {
		score float64
		text  string
	}
	list := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		nov := novelty(i, candidates)
		sentences := float64(len(sentenceSplit.Split(c, -1)))
		if sentences < 1 {
			sentences = 1
		}
		structure := 0.0
		if structureMark.MatchString(c) {
			structure = 1.0
		}
		lengthBonus := float64(len(c)) / 600.0
		if lengthBonus > 1.0 {
			lengthBonus = 1.0
		}
		score := 0.55*nov + 0.25*lengthBonus + 0.20*(sentences/12.0) + 0.15*structure
		list = append(list, scored{score: score, text: c})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	ranked := make([]string, 0, len(list))
	for _, s := range list {
		ranked = append(ranked, s.text)
	}
	return ranked
}

// novelty measures how little candidate i shares with the others via
// word shingle overlap. No overlap scores 1.0.
func novelty(i int, candidates []string) float64 {
	self := shingles(candidates[i])
	total := 0
	for _, n := range self {
		total += n
	}
	if total == 0 {
		return 0.0
	}

	overlap := 0
	for j, other := range candidates {
		if j == i {
			continue
		}
		os := shingles(other)
		for gram, n := range self {
			if m, ok := os[gram]; ok {
				if m < n {
					overlap += m
				} else {
					overlap += n
				}
			}
		}
	}
	return 1.0 / (1.0 + float64(overlap)/float64(total))
}

func shingles(text string) map[string]int {
	toks := strings.Fields(strings.ToLower(text))
	grams := make(map[string]int)
	for i := 0; i+shingleSize <= len(toks); i++ {
		grams[strings.Join(toks[i:i+shingleSize], " ")]++
	}
	return grams
}
