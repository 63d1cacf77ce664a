package ai

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/lexicon"
	"github.com/spigell/toolmatch/internal/logger"
	"github.com/spigell/toolmatch/internal/utils"
)

const (
	tracerName = "github.com/spigell/toolmatch/internal/ai"

	// DefaultTimeout bounds a single interpreter call.
	DefaultTimeout      = 20 * time.Second
	defaultMaxLogLength = 200
	maxQueryRunes       = 2000
)

//go:embed prompt.md
var promptTemplate string

// Generator produces a text completion for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Options struct {
	// Provider names the backend in logs and metrics.
	Provider     string
	Timeout      time.Duration
	MaxLogLength int
}

// Interpreter turns free text into Criteria with a generative model. It never retries.
type Interpreter struct {
	generator Generator
	lexicon   *lexicon.Lexicon
	provider  string
	taxonomy  string
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

func NewInterpreter(generator Generator, lex *lexicon.Lexicon, opts Options, log *zap.Logger) *Interpreter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Interpreter{
		generator: generator,
		lexicon:   lex,
		provider:  opts.Provider,
		taxonomy:  renderTaxonomy(lex.Taxonomy()),
		timeout:   opts.Timeout,
		maxLogLen: opts.MaxLogLength,
		logger:    logger.WithCommonFields(log, opts.Provider, generator.Model()),
	}
}

func (i *Interpreter) Provider() string {
	return i.provider
}

func (i *Interpreter) Model() string {
	return i.generator.Model()
}

// Interpret asks the model for criteria. Every failure is reported in the Outcome, never as a panic or error return.
func (i *Interpreter) Interpret(ctx context.Context, query string) Outcome {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ai.Interpreter.Interpret",
		trace.WithAttributes(
			attribute.String("provider", i.provider),
			attribute.String("model", i.generator.Model()),
		),
	)
	defer span.End()

	outcome := i.interpret(ctx, query)
	if outcome.Failure != nil {
		span.RecordError(outcome.Failure)
		span.SetStatus(codes.Error, string(outcome.Failure.Kind))
		return outcome
	}

	span.SetAttributes(attribute.Int("use_cases", len(outcome.Criteria.UseCases)))
	span.SetStatus(codes.Ok, "")
	return outcome
}

func (i *Interpreter) interpret(ctx context.Context, query string) Outcome {
	prompt := buildPrompt(i.taxonomy, sanitizeQuery(query))

	i.logger.Debug("interpreter request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, i.maxLogLen)),
	)

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	started := time.Now()
	raw, err := i.generator.GenerateContent(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			i.logger.Warn("interpreter timed out", zap.Duration("timeout", i.timeout))
		}
		return Outcome{Failure: serviceUnavailable(err)}
	}

	i.logger.Debug("interpreter response",
		zap.Duration("took", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	criteria, failure := parseResponse(raw)
	if failure != nil {
		return Outcome{Failure: failure}
	}

	// Unknown use cases are kept; they match no tool.
	if unknown := i.unknownUseCases(criteria.UseCases); len(unknown) > 0 {
		i.logger.Warn("use cases outside the taxonomy", zap.Strings("use_cases", unknown))
	}

	return Outcome{Criteria: criteria}
}

func (i *Interpreter) unknownUseCases(useCases []string) []string {
	var unknown []string
	for _, uc := range useCases {
		if !i.lexicon.Known(uc) {
			unknown = append(unknown, uc)
		}
	}
	return unknown
}

func buildPrompt(taxonomy, query string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{TAXONOMY}}", taxonomy)
	return strings.ReplaceAll(prompt, "{{QUERY}}", query)
}

func renderTaxonomy(tags []lexicon.Tag) string {
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString("- ")
		b.WriteString(tag.ID)
		if tag.Description != "" {
			b.WriteString(": ")
			b.WriteString(tag.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// sanitizeQuery keeps the request inside its delimiters and bounds its size.
func sanitizeQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.NewReplacer(
		"<<<", "<",
		">>>", ">",
		"[", "(",
		"]", ")",
		"{{", "{",
		"}}", "}",
	).Replace(query)

	if utf8.RuneCountInString(query) > maxQueryRunes {
		query = string([]rune(query)[:maxQueryRunes])
	}
	return query
}
