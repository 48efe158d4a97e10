package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"topicgrid/internal/gateway/app"
	"topicgrid/internal/gateway/config"
	"topicgrid/internal/llm"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/settings"
	"topicgrid/internal/util/jsonutil"
)

var (
	settingsPath string
	providerFlag string
	offline      bool
	jsonOutput   bool
	verbose      bool
	timeout      time.Duration
)

// env is what every generation command runs against.
type env struct {
	gen      *pipeline.Generator
	registry *llmclient.Registry
	store    settings.Store
	settings settings.Settings
	logger   *zap.Logger
	out      io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "topicctl",
	Short: "Generate short-video topics from keyword grids",
	Long: `topicctl runs the topic pipeline from the terminal: keyword columns for
the Domain/Who/Why and nine-grid flows, topic synthesis from a selection,
narrative classification and content plans.

Provider keys are read from the environment (or a .env file) exactly as the
gateway reads them. --offline answers every call locally with canned output.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", defaultSettingsPath(), "settings file holding the provider choice")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "provider for this run (openai, deepseek, gemini); overrides the saved choice")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "answer with canned output instead of calling a provider")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider calls to stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall deadline for the command")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func defaultSettingsPath() string {
	if p := os.Getenv("SETTINGS_FILE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".topicgrid", "settings.json")
	}
	return filepath.Join(dir, "topicgrid", "settings.json")
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	_ = godotenv.Load()
	logger := newLogger()

	var (
		registry *llmclient.Registry
		err      error
	)
	if offline {
		registry = llmclient.NewRegistry(
			llmclient.NewFakeProvider(llmclient.OpenAI, nil),
			llmclient.NewFakeProvider(llmclient.DeepSeek, nil),
			llmclient.NewFakeProvider(llmclient.Gemini, nil),
		)
	} else {
		cfg := config.FromEnv(os.Getenv)
		registry, err = app.BuildRegistry(ctx, cfg.LLM, nil, logger)
		if err != nil {
			return nil, err
		}
	}

	store := settings.NewFileStore(settingsPath)
	s, err := settings.Load(ctx, store, "")
	if err != nil {
		logger.Warn("settings load failed, using default", zap.Error(err))
	}
	if providerFlag != "" {
		name, ok := llmclient.ParseName(providerFlag)
		if !ok {
			_ = registry.Close()
			return nil, fmt.Errorf("%w: %q", settings.ErrUnknownProvider, providerFlag)
		}
		s.Provider = name
	}

	return &env{
		gen:      pipeline.New(llm.NewCompleter(registry, logger), logger),
		registry: registry,
		store:    store,
		settings: s,
		logger:   logger,
		out:      cmd.OutOrStdout(),
	}, nil
}

func (e *env) Close() {
	_ = e.registry.Close()
	_ = e.logger.Sync()
}

// withEnv adapts a command body that needs a pipeline environment.
func withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		e, err := newEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return run(ctx, e, args)
	}
}

func (e *env) printJSON(v any) error {
	b, err := jsonutil.MarshalNoEscapeIndent(v, "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, string(b))
	return err
}
