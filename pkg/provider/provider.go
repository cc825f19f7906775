// Package provider builds the llm.Client selected by configuration.
package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/config"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/anthropic"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/ollama"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/llm/openai"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/merkle"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tape"
)

// NewClient returns the client for cfg.Provider.
func NewClient(cfg config.ModelConfig, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return ollama.New(cfg.BaseURL, ollama.WithLogger(logger)), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.BaseURL), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider needs ANTHROPIC_API_KEY")
		}
		return anthropic.New(cfg.AnthropicAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Runtime is the model a command or server works with, plus the trace store
// when recording is enabled.
type Runtime struct {
	Model  *llm.Model
	Storer merkle.Storer
}

// Close releases the trace store.
func (r *Runtime) Close() error {
	if r.Storer == nil {
		return nil
	}
	return r.Storer.Close()
}

// NewRuntime wires the configured client, wrapped in a tape.Recorder when
// cfg.Record.DB is set.
func NewRuntime(cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	client, err := NewClient(cfg.Model, logger)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	if cfg.Record.DB != "" {
		storer, err := merkle.NewSQLiteStorer(cfg.Record.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("recording model calls", zap.String("path", cfg.Record.DB))
		rt.Storer = storer
		client = tape.NewRecorder(client, storer, logger)
	}

	rt.Model = llm.NewModel(client, cfg.Model.Name)
	rt.Model.Options.Temperature = llm.Float(cfg.Model.Temperature)
	return rt, nil
}
