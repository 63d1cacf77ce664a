package recommender

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/toolmatch/internal/ai"
	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/filtering"
	"github.com/spigell/toolmatch/internal/lexicon"
	"github.com/spigell/toolmatch/internal/matching"
)

type stubGenerator struct {
	response string
	err      error
	delay    time.Duration
}

func (s *stubGenerator) GenerateContent(ctx context.Context, _ string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

type recordingMetrics struct {
	mu              sync.Mutex
	modes           []string
	interpretations []string
	loadErrors      int
}

func (m *recordingMetrics) ObserveInterpretation(_, _ string, _ time.Duration, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interpretations = append(m.interpretations, outcome)
}

func (m *recordingMetrics) ObserveMatch(mode string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, mode)
}

func (m *recordingMetrics) ObserveDataLoad(_ time.Duration, _ int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.loadErrors++
	}
}

func tool(name string, overall float64) *catalog.Tool {
	return &catalog.Tool{Name: name, FinalScore: overall}
}

func enrichment(level catalog.CodingLevel, free bool, differentiator string, uc map[string]float64) *catalog.Enrichment {
	compat := make(map[string]catalog.UseCaseCompatibility, len(uc))
	for tag, strength := range uc {
		compat[tag] = catalog.UseCaseCompatibility{Strength: strength, Type: catalog.CompatibilityPrimary}
	}
	return &catalog.Enrichment{
		UseCaseCompatibility: compat,
		TechnicalProfile: catalog.TechnicalProfile{
			CodingLevel: level,
			UserLevels:  []catalog.ExperienceLevel{catalog.ExperienceBeginner, catalog.ExperienceIntermediate},
		},
		BestFor:     catalog.BestFor{KeyDifferentiator: differentiator},
		PricingTier: catalog.PricingTier{HasFreeTier: free},
		Limitations: []string{"Limited export options"},
	}
}

func fixtureDataset() *catalog.Dataset {
	return &catalog.Dataset{
		Tools: []*catalog.Tool{
			tool("SiteBuilder", 80),
			tool("CodeForge", 90),
			tool("ProCoder", 95),
			tool("PixelDream", 70),
			tool("Unenriched", 99),
		},
		Enrichments: catalog.Enrichments{
			"SiteBuilder": enrichment(catalog.CodingNoCode, true, "Drag and drop pages", map[string]float64{"website-creation": 95}),
			"CodeForge":   enrichment(catalog.CodingDeveloper, false, "", map[string]float64{"website-creation": 90, "code-generation": 95}),
			"ProCoder":    enrichment(catalog.CodingExpert, false, "", map[string]float64{"code-generation": 98}),
			"PixelDream":  enrichment(catalog.CodingLowCode, true, "", map[string]float64{"image-generation": 92}),
		},
	}
}

func newTestRecommender(t *testing.T, gen ai.Generator, source catalog.Source, m *recordingMetrics, log *zap.Logger) *Recommender {
	t.Helper()

	cfg := Config{
		Source:  source,
		Lexicon: lexicon.Default(),
		Logger:  log,
	}
	if m != nil {
		cfg.Metrics = m
	}
	if gen != nil {
		cfg.Interpreter = ai.NewInterpreter(gen, cfg.Lexicon, ai.Options{Provider: "stub", Timeout: 50 * time.Millisecond}, log)
	}

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new recommender: %v", err)
	}
	return r
}

func names(results []*matching.ToolMatch) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Name())
	}
	return out
}

func TestMatchAIPathWithFencedResponse(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `{
		"useCases": ["website-creation"],
		"excludeTools": [],
		"requiredFeatures": ["custom domain"],
		"constraints": {"codingLevel": "no-code", "budget": "free", "experienceLevel": "beginner"},
		"reasoning": "Beginner wants a free website without code."
	}` + "\n```"}
	m := &recordingMetrics{}

	r := newTestRecommender(t, gen, &catalog.StaticSource{Dataset: fixtureDataset()}, m, nil)
	resp, err := r.Match(context.Background(), "I'm a beginner, want to make a website for free without code")
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if resp.Mode != ModeAIPowered {
		t.Fatalf("expected ai-powered mode, got %s", resp.Mode)
	}
	if got := names(resp.Results); !reflect.DeepEqual(got, []string{"SiteBuilder"}) {
		t.Fatalf("unexpected results: %v", got)
	}

	top := resp.Results[0]
	if top.Score != 97 {
		t.Fatalf("expected score 97, got %v", top.Score)
	}
	wantReasons := []string{
		"Excellent for: website-creation",
		"Drag and drop pages",
		"Matches your coding level (no-code)",
		"Free tier available",
	}
	if !reflect.DeepEqual(top.Reasons, wantReasons) {
		t.Fatalf("unexpected reasons: %v", top.Reasons)
	}
	if resp.AIReasoning == "" || resp.RequestID == "" {
		t.Fatalf("expected reasoning and request id, got %+v", resp)
	}
	if !reflect.DeepEqual(resp.RequiredFeatures, []string{"custom domain"}) {
		t.Fatalf("unexpected required features: %v", resp.RequiredFeatures)
	}
	if !reflect.DeepEqual(m.modes, []string{"ai-powered"}) || !reflect.DeepEqual(m.interpretations, []string{"success"}) {
		t.Fatalf("unexpected metrics: modes=%v interpretations=%v", m.modes, m.interpretations)
	}
}

func TestMatchLogsPipelineAndScoreBreakdown(t *testing.T) {
	gen := &stubGenerator{response: `{"useCases": ["website-creation"], "constraints": {"codingLevel": "no-code"}}`}
	core, logs := observer.New(zap.DebugLevel)

	r := newTestRecommender(t, gen, &catalog.StaticSource{Dataset: fixtureDataset()}, nil, zap.New(core))
	resp, err := r.Match(context.Background(), "make a website without code")
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	described := logs.FilterMessage("filter pipeline").All()
	if len(described) != 1 {
		t.Fatalf("expected the pipeline to be described once, got %d", len(described))
	}
	statuses, ok := described[0].ContextMap()["filters"].([]filtering.Status)
	if !ok || len(statuses) != 3 {
		t.Fatalf("unexpected pipeline description: %v", described[0].ContextMap()["filters"])
	}
	for _, st := range statuses {
		if (st.Name == "coding_level" || st.Name == "use_case_intersection") && !st.Enabled {
			t.Fatalf("%s must be enabled, got %+v", st.Name, st)
		}
	}

	scored := logs.FilterMessage("tool scored").All()
	if len(scored) != len(resp.Results) {
		t.Fatalf("expected one breakdown per result, got %d for %d results", len(scored), len(resp.Results))
	}
	first := scored[0].ContextMap()
	if first["tool"] != "SiteBuilder" || first["use_case"] != 57.0 || first["coding"] != 20.0 {
		t.Fatalf("unexpected breakdown: %v", first)
	}
}

func TestMatchExcludedToolNeverAppears(t *testing.T) {
	withoutExclusion := &stubGenerator{response: `{"useCases": ["code-generation"]}`}
	withExclusion := &stubGenerator{response: `{"useCases": ["code-generation"], "excludeTools": ["procoder"]}`}
	source := &catalog.StaticSource{Dataset: fixtureDataset()}

	resp, err := newTestRecommender(t, withoutExclusion, source, nil, nil).Match(context.Background(), "write code")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got := names(resp.Results); !reflect.DeepEqual(got, []string{"ProCoder", "CodeForge"}) {
		t.Fatalf("unexpected results without exclusion: %v", got)
	}

	resp, err = newTestRecommender(t, withExclusion, source, nil, nil).Match(context.Background(), "write code")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got := names(resp.Results); !reflect.DeepEqual(got, []string{"CodeForge"}) {
		t.Fatalf("unexpected results with exclusion: %v", got)
	}
}

func TestMatchShortQueryFallsBackToOverallOrder(t *testing.T) {
	gen := &stubGenerator{response: "I cannot help with that."}
	m := &recordingMetrics{}

	resp, err := newTestRecommender(t, gen, &catalog.StaticSource{Dataset: fixtureDataset()}, m, nil).Match(context.Background(), "abc")
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if resp.Mode != ModeFallback || resp.FallbackReason != string(ai.FailureMalformedResponse) {
		t.Fatalf("expected fallback after malformed response, got %s (%s)", resp.Mode, resp.FallbackReason)
	}
	if len(resp.UseCases) != 0 {
		t.Fatalf("expected no use cases, got %v", resp.UseCases)
	}
	if got := names(resp.Results); !reflect.DeepEqual(got, []string{"ProCoder", "CodeForge", "SiteBuilder", "PixelDream"}) {
		t.Fatalf("unexpected results: %v", got)
	}
	for _, result := range resp.Results {
		if result.Score != 40 || result.Confidence != 20 {
			t.Fatalf("unexpected score/confidence for %s: %v/%v", result.Name(), result.Score, result.Confidence)
		}
	}
	if !reflect.DeepEqual(m.interpretations, []string{"malformed_response"}) {
		t.Fatalf("unexpected interpretation metrics: %v", m.interpretations)
	}
}

func TestMatchFallbackIsTotal(t *testing.T) {
	tests := []struct {
		name   string
		gen    ai.Generator
		reason string
	}{
		{name: "no interpreter", gen: nil, reason: "interpreter not configured"},
		{name: "service error", gen: &stubGenerator{err: errors.New("503")}, reason: string(ai.FailureServiceUnavailable)},
		{name: "timeout", gen: &stubGenerator{response: `{"useCases": []}`, delay: time.Second}, reason: string(ai.FailureServiceUnavailable)},
		{name: "malformed", gen: &stubGenerator{response: `{"useCases": "images"}`}, reason: string(ai.FailureMalformedResponse)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			r := newTestRecommender(t, tt.gen, &catalog.StaticSource{Dataset: fixtureDataset()}, nil, zap.New(core))

			resp, err := r.Match(context.Background(), "I want to generate images from text")
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if resp.Mode != ModeFallback || resp.FallbackReason != tt.reason {
				t.Fatalf("expected fallback (%s), got %s (%s)", tt.reason, resp.Mode, resp.FallbackReason)
			}
			if len(resp.Results) == 0 || resp.Results[0].Name() != "PixelDream" {
				t.Fatalf("expected PixelDream first, got %v", names(resp.Results))
			}

			transitions := logs.FilterMessage("state transition").All()
			if len(transitions) != 2 {
				t.Fatalf("expected 2 transitions, got %d", len(transitions))
			}
			if to := transitions[1].ContextMap()["to"]; to != string(StateLocalFallback) {
				t.Fatalf("expected final state %s, got %v", StateLocalFallback, to)
			}
		})
	}
}

func TestMatchDataUnavailable(t *testing.T) {
	m := &recordingMetrics{}
	gen := &stubGenerator{response: `{"useCases": ["website-creation"]}`}

	for _, g := range []ai.Generator{gen, &stubGenerator{err: errors.New("down")}} {
		r := newTestRecommender(t, g, &catalog.StaticSource{}, m, nil)
		_, err := r.Match(context.Background(), "build a website")
		if !errors.Is(err, catalog.ErrDataUnavailable) {
			t.Fatalf("expected ErrDataUnavailable, got %v", err)
		}
	}

	if m.loadErrors != 2 || len(m.modes) != 0 {
		t.Fatalf("unexpected metrics: loadErrors=%d modes=%v", m.loadErrors, m.modes)
	}
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*catalog.Dataset, error) {
	return nil, errors.New("disk on fire")
}

func TestMatchWrapsForeignSourceErrors(t *testing.T) {
	_, err := newTestRecommender(t, nil, failingSource{}, nil, nil).Match(context.Background(), "build a website")
	if !errors.Is(err, catalog.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestMatchAppliesThresholdAndCap(t *testing.T) {
	dataset := &catalog.Dataset{Enrichments: catalog.Enrichments{}}
	for i := 0; i < 15; i++ {
		name := fmt.Sprintf("Builder%02d", i)
		dataset.Tools = append(dataset.Tools, tool(name, float64(50+i)))
		dataset.Enrichments[name] = enrichment(catalog.CodingNoCode, true, "", map[string]float64{"website-creation": float64(60 + i)})
	}

	resp, err := newTestRecommender(t, nil, &catalog.StaticSource{Dataset: dataset}, nil, nil).Match(context.Background(), "build a landing page website")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(resp.Results) != matching.MaxResults {
		t.Fatalf("expected %d results, got %d", matching.MaxResults, len(resp.Results))
	}
	for _, result := range resp.Results {
		if result.Score < matching.MinimumScore {
			t.Fatalf("result %s below threshold: %v", result.Name(), result.Score)
		}
	}
}

func TestMatchIsSafeForConcurrentUse(t *testing.T) {
	r := newTestRecommender(t, nil, &catalog.StaticSource{Dataset: fixtureDataset()}, nil, nil)
	queries := []string{"build a website", "I want to generate images", "write code", "abc"}

	want := make(map[string][]string, len(queries))
	for _, q := range queries {
		resp, err := r.Match(context.Background(), q)
		if err != nil {
			t.Fatalf("match %q: %v", q, err)
		}
		want[q] = names(resp.Results)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		q := queries[i%len(queries)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.Match(context.Background(), q)
			if err != nil {
				errs <- err
				return
			}
			if got := names(resp.Results); !reflect.DeepEqual(got, want[q]) {
				errs <- fmt.Errorf("query %q: expected %v, got %v", q, want[q], got)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestStateTransitions(t *testing.T) {
	s := newRequestState(zap.NewNop())
	if err := s.transition(StateLocalFallback); err == nil {
		t.Fatalf("attempt_ai -> local_fallback must be rejected")
	}

	var invalid *InvalidTransitionError
	err := s.transition(StateAttemptAI)
	if !errors.As(err, &invalid) || invalid.From != StateAttemptAI {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	if err := s.transition(StateAISucceeded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.transition(StateLocalFallback); err == nil {
		t.Fatalf("ai_succeeded is terminal")
	}
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without source")
	}
}
