// Package cmdenv holds the root command's persistent flags and builds the
// configuration, logger and model every sub-command runs with.
package cmdenv

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/config"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/provider"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/render"
)

// ErrReported marks an error that has already been shown to the user.
var ErrReported = errors.New("error already reported")

// Flags are the persistent flags shared by every sub-command.
type Flags struct {
	ConfigFile string
	Debug      bool
	Provider   string
	Model      string
	BaseURL    string
	Record     string
}

// Register adds the flags to cmd as persistent flags.
func (f *Flags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigFile, "config", "c", "", "Path to a TOML config file (default ./adp.toml if present)")
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.Provider, "provider", "", "Model provider: ollama, openai or anthropic")
	pf.StringVarP(&f.Model, "model", "m", "", "Model name (overrides OLLAMA_MODEL)")
	pf.StringVar(&f.BaseURL, "base-url", "", "Model server URL (overrides OLLAMA_BASE_URL)")
	pf.StringVar(&f.Record, "record", "", "Record every model call into this SQLite database")
}

// Config loads the configuration and applies flag overrides.
func (f *Flags) Config() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: f.ConfigFile})
	if err != nil {
		return nil, err
	}

	if f.Provider != "" {
		cfg.Model.Provider = f.Provider
		if f.Provider != config.ProviderOllama && cfg.Model.BaseURL == config.DefaultOllamaBaseURL {
			cfg.Model.BaseURL = ""
		}
	}
	if f.Model != "" {
		cfg.Model.Name = f.Model
	}
	if f.BaseURL != "" {
		cfg.Model.BaseURL = f.BaseURL
	}
	if f.Record != "" {
		cfg.Record.DB = f.Record
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the console logger and installs it as zap's global logger.
func (f *Flags) Logger() *zap.Logger {
	log := logger.NewLogger(f.Debug)
	zap.ReplaceGlobals(log)
	return log
}

// Env is what a pattern command runs with.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Model  *llm.Model
	Storer merkle.Storer
	Out    *render.Printer

	runtime *provider.Runtime
}

// Setup resolves configuration and connects the configured model. Output
// goes to cmd's stdout.
func (f *Flags) Setup(cmd *cobra.Command) (*Env, error) {
	log := f.Logger()

	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}

	rt, err := provider.NewRuntime(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("could not set up model: %w", err)
	}

	log.Debug("model ready",
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", cfg.Model.Name),
		zap.String("base_url", cfg.Model.BaseURL),
	)

	return &Env{
		Config:  cfg,
		Logger:  log,
		Model:   rt.Model,
		Storer:  rt.Storer,
		Out:     render.New(cmd.OutOrStdout()),
		runtime: rt,
	}, nil
}

// Close releases the trace store and flushes the logger.
func (e *Env) Close() {
	if err := e.runtime.Close(); err != nil {
		e.Logger.Warn("failed to close trace store", zap.Error(err))
	}
	_ = e.Logger.Sync()
}

// Report prints a failed stage the way every pattern command does and returns
// err marked as reported.
func (e *Env) Report(stage string, err error) error {
	e.Out.Error(stage, err)
	e.Logger.Error("pattern failed", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// Input returns the first positional argument, or fallback when there is none.
func Input(args []string, fallback string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return fallback
}
