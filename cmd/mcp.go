package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/logger"
	"github.com/spigell/toolmatch/internal/mcpserver"
	"github.com/spigell/toolmatch/internal/metrics"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the recommendation tool over MCP stdio",
	Run: func(_ *cobra.Command, _ []string) {
		serveMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func serveMCP() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol.
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logger.Stderr)
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

	rec, err := newRecommender(ctx, config, metrics.NewNoopMetrics(), logger)
	if err != nil {
		logger.Fatal("creating a recommender", zap.Error(err))
	}

	logger.Info("serving mcp over stdio", zap.String("tool", mcpserver.ToolName), zap.String("version", version))

	if err := mcpserver.Run(ctx, mcpserver.New(app, version, rec, logger)); err != nil {
		logger.Fatal("mcp server failed", zap.Error(err))
	}
}
