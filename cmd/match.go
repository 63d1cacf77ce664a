package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/logger"
	"github.com/spigell/toolmatch/internal/matching"
	"github.com/spigell/toolmatch/internal/metrics"
	"github.com/spigell/toolmatch/internal/recommender"
)

const (
	PromptDumpToFile = "Dump results to file"
	PromptExit       = "exit"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match <query...>",
	Short: "Recommend AI tools for a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("interactive", "i", false, "choose a result to see its details")
	matchCmd.Flags().BoolP("output", "o", false, "dump the response as JSON into a temporary file")
	matchCmd.Flags().Int("limit", 0, "maximum number of results (overrides the config)")
}

func match(cmd *cobra.Command, query string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		config.Limit = limit
	}

	rec, err := newRecommender(ctx, config, metrics.NewNoopMetrics(), logger)
	if err != nil {
		logger.Fatal("creating a recommender", zap.Error(err))
	}

	resp, err := rec.Match(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrDataUnavailable) {
			logger.Fatal("no recommendations available", zap.Error(err))
		}
		logger.Fatal("matching failed", zap.Error(err))
	}

	printResponse(logger, resp)

	if output, _ := cmd.Flags().GetBool("output"); output {
		if err := dumpResponse(logger, resp); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive || len(resp.Results) == 0 {
		return
	}

	for {
		if err := chooseResult(logger, resp); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func printResponse(logger *zap.Logger, resp *recommender.Response) {
	fields := []zap.Field{
		zap.String("request_id", resp.RequestID),
		zap.String("mode", string(resp.Mode)),
		zap.Strings("use_cases", resp.UseCases),
		zap.Int("count", len(resp.Results)),
	}
	if resp.AIReasoning != "" {
		fields = append(fields, zap.String("ai_reasoning", resp.AIReasoning))
	}
	if resp.FallbackReason != "" {
		fields = append(fields, zap.String("fallback_reason", resp.FallbackReason))
	}
	logger.Info("recommendations", fields...)

	for i, result := range resp.Results {
		logger.Info(resultLabel(i, result),
			zap.Float64("overall_score", result.OverallScore),
			zap.Float64("confidence", result.Confidence),
			zap.String("url", result.Tool.URL),
		)
	}
}

func chooseResult(logger *zap.Logger, resp *recommender.Response) error {
	items := make([]string, 0, len(resp.Results)+2)
	for i, result := range resp.Results {
		items = append(items, resultLabel(i, result))
	}

	resultPrompt := promptui.Select{
		Label: "Choose a tool and press ENTER",
		Items: append(items, PromptDumpToFile, PromptExit),
	}

	idx, selected, err := resultPrompt.Run()
	if err != nil {
		return err
	}

	switch selected {
	case PromptExit:
		return errExit
	case PromptDumpToFile:
		return dumpResponse(logger, resp)
	default:
		if idx < 0 || idx >= len(resp.Results) {
			return fmt.Errorf("invalid selection: %s", selected)
		}
		printDetails(logger, resp.Results[idx])
		return nil
	}
}

func printDetails(logger *zap.Logger, result *matching.ToolMatch) {
	useCases := make([]string, 0, len(result.MatchedUseCases))
	for _, uc := range result.MatchedUseCases {
		useCases = append(useCases, fmt.Sprintf("%s (%s, %.0f)", uc.UseCase, uc.Type, uc.Strength))
	}

	logger.Info(result.Name(),
		zap.String("description", result.Tool.Description),
		zap.String("category", result.Tool.Category),
		zap.String("pricing", result.Tool.Pricing),
		zap.String("url", result.Tool.URL),
		zap.Float64("match_score", math.Round(result.Score)),
		zap.Float64("overall_score", result.OverallScore),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("matched_use_cases", useCases),
		zap.Strings("reasons", result.Reasons),
		zap.Strings("limitations", result.Limitations),
	)
}

func dumpResponse(logger *zap.Logger, resp *recommender.Response) error {
	filename, err := catalog.DumpToTmpFile(app+"-*.json", resp)
	if err != nil {
		return fmt.Errorf("dump results to file: %w", err)
	}
	logger.Info("dumping result to file", zap.String("filename", filename))
	return nil
}

func resultLabel(i int, result *matching.ToolMatch) string {
	return fmt.Sprintf("%d. %s / score %.0f", i+1, result.Name(), result.Score)
}

// redacted returns a copy of the config safe to print.
func redacted(config *Config) *Config {
	c := *config
	if c.Interpreter == nil {
		return &c
	}

	interpreter := *c.Interpreter
	if interpreter.Gemini != nil {
		gemini := *interpreter.Gemini
		if gemini.APIKey != "" {
			gemini.APIKey = "***"
		}
		interpreter.Gemini = &gemini
	}
	if interpreter.OpenAI != nil {
		openai := *interpreter.OpenAI
		if openai.APIKey != "" {
			openai.APIKey = "***"
		}
		interpreter.OpenAI = &openai
	}
	c.Interpreter = &interpreter

	return &c
}
