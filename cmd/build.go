package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/ai"
	"github.com/spigell/toolmatch/internal/ai/gemini"
	"github.com/spigell/toolmatch/internal/ai/openai"
	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/lexicon"
	"github.com/spigell/toolmatch/internal/metrics"
	"github.com/spigell/toolmatch/internal/recommender"
	"github.com/spigell/toolmatch/internal/secrets"
)

func newRecommender(ctx context.Context, config *Config, m metrics.Metrics, logger *zap.Logger) (*recommender.Recommender, error) {
	if config.Data == nil || config.Data.Catalog == "" || config.Data.Enrichment == "" {
		return nil, errors.New("data.catalog and data.enrichment must be set")
	}

	lex, err := newLexicon(config.Lexicon)
	if err != nil {
		return nil, err
	}

	interpreter, err := newInterpreter(ctx, config.Interpreter, lex, logger)
	if err != nil {
		return nil, err
	}

	cfg := recommender.Config{
		Source:  catalog.NewLoader(config.Data.Catalog, config.Data.Enrichment, config.Data.Timeout, logger),
		Lexicon: lex,
		Metrics: m,
		Logger:  logger,
		Limit:   config.Limit,
	}
	// A typed nil inside the interface would look configured.
	if interpreter != nil {
		cfg.Interpreter = interpreter
	}

	return recommender.New(cfg)
}

func newLexicon(config *LexiconConfig) (*lexicon.Lexicon, error) {
	lex := lexicon.Default()
	if config == nil {
		return lex, nil
	}

	if path := strings.TrimSpace(config.Path); path != "" {
		loaded, err := lexicon.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		lex = loaded
	}

	if config.MinLength > 0 {
		lex = lex.WithMinLength(config.MinLength)
	}

	return lex, nil
}

// newInterpreter returns nil when interpretation is disabled or has no credentials.
// Every query then takes the local path.
func newInterpreter(ctx context.Context, config *InterpreterConfig, lex *lexicon.Lexicon, logger *zap.Logger) (*ai.Interpreter, error) {
	if config == nil || !config.Enabled {
		logger.Info("interpreter disabled, using local matching only")
		return nil, nil
	}

	opts := ai.Options{
		Provider:     config.Provider,
		Timeout:      config.Timeout,
		MaxLogLength: config.MaxLogLength,
	}

	var generator ai.Generator
	switch config.Provider {
	case gemini.Provider:
		gc := config.Gemini
		if gc == nil {
			gc = &GeminiConfig{}
		}
		src := secrets.Source{Name: "gemini api key", Value: gc.APIKey, File: gc.APIKeyFile, Env: "GEMINI_API_KEY"}
		if !src.Configured() {
			logger.Warn("gemini api key is not configured, skipping interpreter")
			return nil, nil
		}
		apiKey, err := secrets.Load(src)
		if err != nil {
			return nil, err
		}
		g, err := gemini.NewGenerator(ctx, apiKey, gc.Model)
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}
		generator = g
	case openai.Provider:
		oc := config.OpenAI
		if oc == nil {
			oc = &OpenAIConfig{}
		}
		src := secrets.Source{Name: "openai api key", Value: oc.APIKey, File: oc.APIKeyFile, Env: "OPENAI_API_KEY"}
		if !src.Configured() {
			logger.Warn("openai api key is not configured, skipping interpreter")
			return nil, nil
		}
		apiKey, err := secrets.Load(src)
		if err != nil {
			return nil, err
		}
		g, err := openai.NewGenerator(ctx, openai.Config{APIKey: apiKey, BaseURL: oc.BaseURL, Model: oc.Model})
		if err != nil {
			return nil, fmt.Errorf("create openai generator: %w", err)
		}
		generator = g
	default:
		return nil, fmt.Errorf("unknown interpreter provider %q", config.Provider)
	}

	logger.Info("interpreter enabled",
		zap.String("provider", config.Provider),
		zap.String("model", generator.Model()),
		zap.Duration("timeout", config.Timeout),
	)

	return ai.NewInterpreter(generator, lex, opts, logger), nil
}
