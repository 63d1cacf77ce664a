package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/toolmatch/internal/server"
)

const (
	app = "toolmatch"
)

type Config struct {
	Data        *DataConfig        `mapstructure:"data"`
	Lexicon     *LexiconConfig     `mapstructure:"lexicon"`
	Limit       int                `mapstructure:"limit"`
	Interpreter *InterpreterConfig `mapstructure:"interpreter"`
	Server      server.Config      `mapstructure:"server"`
}

type DataConfig struct {
	Catalog    string        `mapstructure:"catalog"`
	Enrichment string        `mapstructure:"enrichment"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LexiconConfig struct {
	// Path to a YAML keyword table. Empty means the built-in table.
	Path      string `mapstructure:"path"`
	MinLength int    `mapstructure:"min-length"`
}

type InterpreterConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "toolmatch recommends AI tools for a task described in plain language",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"data.catalog":               "TOOLMATCH_CATALOG",
		"data.enrichment":            "TOOLMATCH_ENRICHMENT",
		"interpreter.gemini.api-key": "GEMINI_API_KEY",
		"interpreter.openai.api-key": "OPENAI_API_KEY",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("data.timeout", "10s")
	viper.SetDefault("interpreter.enabled", true)
	viper.SetDefault("interpreter.provider", "gemini")
	viper.SetDefault("interpreter.timeout", "20s")
	viper.SetDefault("interpreter.max-log-length", 200)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.mode", "release")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is toolmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Environment variables are enough to run without a config file.
	// An explicitly requested file must exist and parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
