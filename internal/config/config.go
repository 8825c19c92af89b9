// Package config loads the application configuration from a .env file, an
// optional YAML file and the environment, in that order of precedence
// (later layers win).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/whodunit/internal/logging"
	"github.com/aretw0/whodunit/pkg/adapters/openai"
	"github.com/aretw0/whodunit/pkg/game"
	"github.com/aretw0/whodunit/pkg/persistence"
	"github.com/aretw0/whodunit/pkg/runner"
)

// FileEnv names the variable holding the optional YAML config path.
const FileEnv = "WHODUNIT_CONFIG"

// Config is the complete application configuration.
type Config struct {
	LLM   LLM   `yaml:"llm"`
	Game  Game  `yaml:"game"`
	App   App   `yaml:"app"`
	Redis Redis `yaml:"redis"`
	OTel  OTel  `yaml:"otel"`

	Snapshots Snapshots `yaml:"snapshots"`
}

// LLM selects the OpenAI-compatible endpoint.
type LLM struct {
	APIKey      string  `yaml:"api_key" env:"LLM_API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"LLM_BASE_URL"`
	Model       string  `yaml:"model" env:"LLM_MODEL"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float32 `yaml:"temperature" env:"LLM_TEMPERATURE"`
}

// Game holds the rules applied to new sessions.
type Game struct {
	NPCCount                int           `yaml:"npc_count" env:"GAME_NPC_COUNT"`
	MaxTurns                int           `yaml:"max_turns" env:"GAME_MAX_TURNS"`
	LocationsCount          int           `yaml:"locations_count" env:"GAME_LOCATIONS_COUNT"`
	OracleTimeout           time.Duration `yaml:"oracle_timeout" env:"GAME_ORACLE_TIMEOUT"`
	MaxParallelGroups       int           `yaml:"max_parallel_groups" env:"GAME_MAX_PARALLEL_GROUPS"`
	MediumTalkThreshold     int           `yaml:"medium_talk_threshold" env:"GAME_MEDIUM_TALK_THRESHOLD"`
	MediumInvestigateChance float64       `yaml:"medium_investigate_chance" env:"GAME_MEDIUM_INVESTIGATE_CHANCE"`
	HardClueCorroboration   int           `yaml:"hard_clue_corroboration" env:"GAME_HARD_CLUE_CORROBORATION"`
	StrictIntegrity         bool          `yaml:"strict_integrity" env:"GAME_STRICT_INTEGRITY"`
	CharactersDir           string        `yaml:"characters_dir" env:"GAME_CHARACTERS_DIR"`
	Seed                    uint64        `yaml:"seed" env:"GAME_SEED"`
}

// App configures the process itself.
type App struct {
	Host     string `yaml:"host" env:"APP_HOST"`
	Port     int    `yaml:"port" env:"APP_PORT"`
	LogLevel string `yaml:"log_level" env:"APP_LOG_LEVEL"`
	// MaxInputSize caps player free text, in bytes.
	MaxInputSize int `yaml:"max_input_size" env:"WHODUNIT_MAX_INPUT_SIZE"`
}

// Redis enables the distributed session lock and snapshot store when Addr is set.
type Redis struct {
	Addr   string `yaml:"addr" env:"REDIS_ADDR"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX"`
}

// OTel enables tracing when Endpoint is set.
type OTel struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// Snapshots enables encryption of stored session snapshots when Key is set.
// Keys are base64 AES-256 keys.
type Snapshots struct {
	Key          string   `yaml:"key" env:"SNAPSHOT_KEY"`
	FallbackKeys []string `yaml:"fallback_keys" env:"SNAPSHOT_FALLBACK_KEYS"`
}

// Default returns the built-in configuration.
func Default() Config {
	rules := game.DefaultSettings()
	return Config{
		LLM: LLM{
			BaseURL:     openai.DefaultBaseURL,
			Model:       openai.DefaultModel,
			MaxTokens:   openai.DefaultMaxTokens,
			Temperature: openai.DefaultTemperature,
		},
		Game: Game{
			NPCCount:                7,
			MaxTurns:                rules.MaxTurns,
			LocationsCount:          rules.LocationsCount,
			OracleTimeout:           rules.OracleTimeout,
			MaxParallelGroups:       rules.MaxParallelGroups,
			MediumTalkThreshold:     rules.MediumTalkThreshold,
			MediumInvestigateChance: rules.MediumInvestigateChance,
			HardClueCorroboration:   rules.HardClueCorroboration,
		},
		App: App{
			Host:         "127.0.0.1",
			Port:         8765,
			LogLevel:     "info",
			MaxInputSize: runner.DefaultMaxInputSize,
		},
		Redis: Redis{Prefix: "whodunit:"},
		OTel:  OTel{ServiceName: "whodunit"},
	}
}

// Load reads ./.env, the file named by WHODUNIT_CONFIG and the process environment.
func Load() (Config, error) {
	return LoadFrom(".env", env.ToMap(os.Environ()))
}

// LoadFrom is Load with an explicit .env path and environment.
// Variables in environ win over the ones in the .env file.
func LoadFrom(dotenv string, environ map[string]string) (Config, error) {
	cfg := Default()

	vars := map[string]string{}
	if dotenv != "" {
		fileVars, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", dotenv, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for k, v := range environ {
		vars[k] = v
	}

	if path := vars[FileEnv]; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// GameSettings converts the game section into session rules.
func (c Config) GameSettings() game.Settings {
	return game.Settings{
		MaxTurns:                c.Game.MaxTurns,
		LocationsCount:          c.Game.LocationsCount,
		OracleTimeout:           c.Game.OracleTimeout,
		MaxParallelGroups:       c.Game.MaxParallelGroups,
		MediumTalkThreshold:     c.Game.MediumTalkThreshold,
		MediumInvestigateChance: c.Game.MediumInvestigateChance,
		StrictIntegrity:         c.Game.StrictIntegrity,
		HardClueCorroboration:   c.Game.HardClueCorroboration,
		Seed:                    c.Game.Seed,
	}
}

// OpenAI returns the oracle client configuration.
func (c Config) OpenAI() openai.Config {
	return openai.Config{
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
	}
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.App.Host, strconv.Itoa(c.App.Port))
}

// Sanitizer returns the player input limits.
func (c Config) Sanitizer() runner.Sanitizer {
	return runner.NewSanitizer(c.App.MaxInputSize)
}

// Level parses App.LogLevel.
func (c Config) Level() (slog.Level, error) {
	return logging.ParseLevel(c.App.LogLevel)
}

// Encryption returns the snapshot encryption keys, or nil when disabled.
func (c Config) Encryption() (*persistence.EncryptionConfig, error) {
	if c.Snapshots.Key == "" {
		return nil, nil
	}
	active, err := persistence.ParseKey(c.Snapshots.Key)
	if err != nil {
		return nil, fmt.Errorf("snapshot key: %w", err)
	}
	enc := &persistence.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Snapshots.FallbackKeys {
		key, err := persistence.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("snapshot fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}
