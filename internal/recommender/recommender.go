package recommender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/ai"
	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/filtering"
	"github.com/spigell/toolmatch/internal/lexicon"
	"github.com/spigell/toolmatch/internal/logger"
	"github.com/spigell/toolmatch/internal/matching"
	"github.com/spigell/toolmatch/internal/metrics"
)

const tracerName = "github.com/spigell/toolmatch/internal/recommender"

// Mode tells which path produced the results.
type Mode string

const (
	ModeAIPowered Mode = "ai-powered"
	ModeFallback  Mode = "fallback"
)

// Interpreter turns a query into structured criteria.
type Interpreter interface {
	Interpret(ctx context.Context, query string) ai.Outcome
	Provider() string
	Model() string
}

// Response is the answer to a single query.
type Response struct {
	RequestID        string                `json:"requestId"`
	Mode             Mode                  `json:"mode"`
	Results          []*matching.ToolMatch `json:"results"`
	UseCases         []string              `json:"useCases"`
	AIReasoning      string                `json:"aiReasoning,omitempty"`
	RequiredFeatures []string              `json:"requiredFeatures,omitempty"`
	FallbackReason   string                `json:"fallbackReason,omitempty"`
}

type Config struct {
	Source  catalog.Source
	Lexicon *lexicon.Lexicon
	// Interpreter is optional. Without it every query takes the local path.
	Interpreter Interpreter
	Metrics     metrics.Metrics
	Logger      *zap.Logger
	// Limit caps the number of results. Values outside 1..matching.MaxResults mean matching.MaxResults.
	Limit int
}

// Recommender answers queries. It holds no per-request state and is safe for concurrent use.
type Recommender struct {
	source      catalog.Source
	lexicon     *lexicon.Lexicon
	interpreter Interpreter
	metrics     metrics.Metrics
	logger      *zap.Logger
	limit       int
}

func New(cfg Config) (*Recommender, error) {
	if cfg.Source == nil {
		return nil, errors.New("data source is required")
	}
	if cfg.Lexicon == nil {
		cfg.Lexicon = lexicon.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Recommender{
		source:      cfg.Source,
		lexicon:     cfg.Lexicon,
		interpreter: cfg.Interpreter,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		limit:       cfg.Limit,
	}, nil
}

// Match recommends tools for the query. Interpreter failures never surface: they switch to the local path.
// A data failure is returned as an error wrapping catalog.ErrDataUnavailable.
func (r *Recommender) Match(ctx context.Context, query string) (*Response, error) {
	started := time.Now()
	requestID := uuid.NewString()
	log := logger.WithRequestID(r.logger, requestID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "recommender.Recommender.Match",
		trace.WithAttributes(
			attribute.String("request_id", requestID),
			attribute.Int("query_length", len(query)),
		),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	state := newRequestState(log)

	criteria, failure := r.interpret(ctx, query, log)
	if criteria != nil {
		if err := state.transition(StateAISucceeded); err != nil {
			return nil, err
		}
	} else {
		if err := state.transition(StateAIFailed, zap.String("reason", failure)); err != nil {
			return nil, err
		}
		if err := state.transition(StateLocalFallback); err != nil {
			return nil, err
		}
	}

	mode := ModeFallback
	if state.State() == StateAISucceeded {
		mode = ModeAIPowered
	}
	span.SetAttributes(attribute.String("mode", string(mode)))

	entries, err := r.load(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var req *matching.Requirements
	if mode == ModeAIPowered {
		req = matching.NewRequirements(query, criteria.UseCases, criteria.Constraints, criteria.RequiredFeatures...)

		pipeline := filtering.New([]filtering.Filter{
			filtering.NewExcludedTools(criteria.ExcludeTools),
			filtering.NewCodingLevel(req.Constraints.CodingLevel),
			filtering.NewUseCaseIntersection(req.UseCases, filtering.MinimumUseCaseStrength),
		}, log)
		log.Debug("filter pipeline", zap.Any("filters", pipeline.Describe()))

		entries, err = pipeline.RunFilters(ctx, entries)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("filter tools: %w", err)
		}
	} else {
		req = matching.NewRequirements(query, r.lexicon.Extract(query), matching.Constraints{})
	}

	matches := matching.Evaluate(req, entries)
	results := matching.Rank(matches, r.limit)
	for _, m := range results {
		log.Debug("tool scored",
			zap.String("tool", m.Name()),
			zap.Float64("score", m.Score),
			zap.Float64("use_case", m.Components.UseCase),
			zap.Float64("coding", m.Components.Coding),
			zap.Float64("budget", m.Components.Budget),
			zap.Float64("experience", m.Components.Experience),
		)
	}

	resp := &Response{
		RequestID:        requestID,
		Mode:             mode,
		Results:          results,
		UseCases:         req.UseCases,
		RequiredFeatures: req.RequiredFeatures,
	}
	if mode == ModeAIPowered {
		resp.AIReasoning = criteria.Reasoning
	} else {
		resp.FallbackReason = failure
	}

	took := time.Since(started)
	r.metrics.ObserveMatch(string(mode), len(results), took)
	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "")

	log.Info("match completed",
		zap.String("mode", string(mode)),
		zap.Strings("use_cases", req.UseCases),
		zap.Int("candidates", entries.Len()),
		zap.Int("above_threshold", len(matches)),
		zap.Int("results", len(results)),
		zap.Strings("required_features", req.RequiredFeatures),
		zap.Duration("took", took),
	)

	return resp, nil
}

// interpret returns criteria on success, or a short failure reason.
func (r *Recommender) interpret(ctx context.Context, query string, log *zap.Logger) (*ai.Criteria, string) {
	if r.interpreter == nil {
		return nil, "interpreter not configured"
	}
	if query == "" {
		return nil, "empty query"
	}

	started := time.Now()
	outcome := r.interpreter.Interpret(ctx, query)
	took := time.Since(started)

	if !outcome.OK() {
		kind := string(ai.FailureServiceUnavailable)
		if outcome.Failure != nil {
			kind = string(outcome.Failure.Kind)
		}
		r.metrics.ObserveInterpretation(r.interpreter.Provider(), r.interpreter.Model(), took, kind)
		log.Warn("interpreter failed, using local matching",
			zap.String("kind", kind),
			zap.Error(outcome.Err()),
		)
		return nil, kind
	}

	r.metrics.ObserveInterpretation(r.interpreter.Provider(), r.interpreter.Model(), took, "success")
	return outcome.Criteria, ""
}

func (r *Recommender) load(ctx context.Context, log *zap.Logger) (*catalog.Entries, error) {
	started := time.Now()
	dataset, err := r.source.Load(ctx)
	if err != nil {
		r.metrics.ObserveDataLoad(time.Since(started), 0, err)
		if !errors.Is(err, catalog.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", catalog.ErrDataUnavailable, err)
		}
		log.Error("tool data unavailable", zap.Error(err))
		return nil, err
	}
	if dataset == nil {
		err = fmt.Errorf("%w: source returned no data", catalog.ErrDataUnavailable)
		r.metrics.ObserveDataLoad(time.Since(started), 0, err)
		return nil, err
	}
	r.metrics.ObserveDataLoad(time.Since(started), len(dataset.Rejected), nil)

	return dataset.Eligible(), nil
}
