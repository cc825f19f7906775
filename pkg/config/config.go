// Package config resolves adp settings from, in increasing precedence:
// built-in defaults, a TOML file, a .env file, and the process environment.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultFile    = "adp.toml"
	DefaultEnvFile = ".env"

	DefaultModel          = "llama3.2"
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultListen         = ":8080"
	DefaultSummarizeAfter = 2
)

// Providers that the model section accepts.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Model  ModelConfig  `toml:"model"`
	Memory MemoryConfig `toml:"memory"`
	Server ServerConfig `toml:"server"`
	Record RecordConfig `toml:"record"`
}

type ModelConfig struct {
	Provider    string  `toml:"provider"`
	Name        string  `toml:"name"`
	BaseURL     string  `toml:"base_url"`
	Temperature float64 `toml:"temperature"`

	// API keys are only read from the environment.
	OpenAIAPIKey    string `toml:"-"`
	AnthropicAPIKey string `toml:"-"`
}

type MemoryConfig struct {
	SummarizeAfter int    `toml:"summarize_after"`
	KeepLast       int    `toml:"keep_last"`
	SessionFile    string `toml:"session_file"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type RecordConfig struct {
	// DB is the SQLite path for recorded traces. Empty disables recording.
	DB string `toml:"db"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider: ProviderOllama,
			Name:     DefaultModel,
			BaseURL:  DefaultOllamaBaseURL,
		},
		Memory: MemoryConfig{SummarizeAfter: DefaultSummarizeAfter},
		Server: ServerConfig{Listen: DefaultListen},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File is the TOML path. When empty DefaultFile is tried and may be
	// absent; an explicit path must exist.
	File string

	// EnvFile is the dotenv path, DefaultEnvFile when empty. A missing file
	// is ignored.
	EnvFile string

	// LookupEnv reads the environment; os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	file, explicit := opts.File, opts.File != ""
	if !explicit {
		file = DefaultFile
	}
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}

	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ADP_PROVIDER", &c.Model.Provider)
	str("OLLAMA_MODEL", &c.Model.Name)
	str("OLLAMA_BASE_URL", &c.Model.BaseURL)
	str("OPENAI_API_KEY", &c.Model.OpenAIAPIKey)
	str("ANTHROPIC_API_KEY", &c.Model.AnthropicAPIKey)
	str("ADP_LISTEN", &c.Server.Listen)
	str("ADP_RECORD_DB", &c.Record.DB)

	// OPENAI_BASE_URL only applies to the openai provider; OLLAMA_BASE_URL
	// keeps its meaning for the default one.
	if c.Model.Provider == ProviderOpenAI {
		if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
			c.Model.BaseURL = v
		}
	}
	// The Ollama default is meaningless to the hosted providers; empty means
	// the SDK's own endpoint.
	if c.Model.Provider != ProviderOllama && c.Model.BaseURL == DefaultOllamaBaseURL {
		c.Model.BaseURL = ""
	}

	if v, ok := lookup("ADP_TEMPERATURE"); ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ADP_TEMPERATURE %q: %w", v, err)
		}
		c.Model.Temperature = t
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q", c.Model.Provider)
	}
	if c.Model.Name == "" {
		return errors.New("model name is empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Model.Temperature)
	}
	if c.Memory.SummarizeAfter < 0 {
		return fmt.Errorf("memory.summarize_after must not be negative")
	}
	if c.Memory.KeepLast < 0 {
		return fmt.Errorf("memory.keep_last must not be negative")
	}
	return nil
}

// DefaultRecordPath is where history commands look when no database is
// configured.
func DefaultRecordPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".adp", "adp.db"), nil
}
