package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"routerprobe/pkg/types"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Duration is a time.Duration that reads "300ms"-style strings from any config format.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Pacing holds the courtesy delays between steps of a run. A nil field is
// unset and gets its default; an explicit "0s" disables that delay.
type Pacing struct {
	TrialDelay    *Duration `json:"trial_delay" yaml:"trial_delay" toml:"trial_delay"`
	ProviderDelay *Duration `json:"provider_delay" yaml:"provider_delay" toml:"provider_delay"`
	ModelDelay    *Duration `json:"model_delay" yaml:"model_delay" toml:"model_delay"`
}

// Trial is the delay between trials of one provider; 0 when unset.
func (p Pacing) Trial() time.Duration { return p.TrialDelay.orZero() }

// Provider is the delay between providers of one model; 0 when unset.
func (p Pacing) Provider() time.Duration { return p.ProviderDelay.orZero() }

// Model is the delay between models; 0 when unset.
func (p Pacing) Model() time.Duration { return p.ModelDelay.orZero() }

func (d *Duration) orZero() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

// Dur returns a pointer to v, for setting Pacing fields in code.
func Dur(v time.Duration) *Duration {
	d := Duration(v)
	return &d
}

// Concurrency bounds parallel work against the router.
type Concurrency struct {
	// Providers of one model probed in parallel (1 = sequential).
	Workers int `json:"workers" yaml:"workers" toml:"workers"`
	// Max in-flight trials against one provider.
	PerProvider int `json:"per_provider" yaml:"per_provider" toml:"per_provider"`
	// Global token bucket; 0 disables it.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst" toml:"burst"`
}

// Classifier holds the phrase lists used to interpret responses.
type Classifier struct {
	RefusalPhrases []string `json:"refusal_phrases" yaml:"refusal_phrases" toml:"refusal_phrases"`
	ErrorKeywords  []string `json:"error_keywords" yaml:"error_keywords" toml:"error_keywords"`
}

// Server configures `routerprobe serve`.
type Server struct {
	Addr        string   `json:"addr" yaml:"addr" toml:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	// Per-IP cap on /api requests per minute; 0 disables it.
	RateLimit int `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	// Cache-Control max-age of result endpoints; unset keeps 30s, negative disables it.
	CacheMaxAge *Duration `json:"cache_max_age" yaml:"cache_max_age" toml:"cache_max_age"`
}

// Config holds runtime parameters for a probe run and the tools around it.
// Zero values mean "unspecified" and are replaced by FillDefaults.
type Config struct {
	APIKey     string `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL    string `json:"base_url" yaml:"base_url" toml:"base_url"`
	Referer    string `json:"referer" yaml:"referer" toml:"referer"`
	AppTitle   string `json:"app_title" yaml:"app_title" toml:"app_title"`
	Capability string `json:"capability" yaml:"capability" toml:"capability"`
	Trials     int    `json:"trials" yaml:"trials" toml:"trials"`
	MaxTokens  int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	MaxReasons int    `json:"max_reasons" yaml:"max_reasons" toml:"max_reasons"`

	ModelsFile string   `json:"models_file" yaml:"models_file" toml:"models_file"`
	Models     []string `json:"models" yaml:"models" toml:"models"`
	Include    []string `json:"include" yaml:"include" toml:"include"`
	Exclude    []string `json:"exclude" yaml:"exclude" toml:"exclude"`

	DataDir        string   `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`

	Pacing      Pacing      `json:"pacing" yaml:"pacing" toml:"pacing"`
	Concurrency Concurrency `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	Classifier  Classifier  `json:"classifier" yaml:"classifier" toml:"classifier"`
	Server      Server      `json:"server" yaml:"server" toml:"server"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto unset fields. getenv is
// os.Getenv in production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("OPENROUTER_API_KEY"); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := getenv("OPENROUTER_BASE_URL"); v != "" && c.BaseURL == "" {
		c.BaseURL = v
	}
	if v := getenv("ROUTERPROBE_DATA_DIR"); v != "" && c.DataDir == "" {
		c.DataDir = v
	}
	if v := getenv("ROUTERPROBE_LOG_LEVEL"); v != "" && c.LogLevel == "" {
		c.LogLevel = v
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("api key missing (set OPENROUTER_API_KEY)"))
	}
	if _, err := types.ParseCapability(c.Capability); err != nil {
		errs = append(errs, err)
	}
	if c.Trials <= 0 {
		errs = append(errs, fmt.Errorf("trials must be positive, got %d", c.Trials))
	}
	if c.Concurrency.Workers <= 0 {
		errs = append(errs, fmt.Errorf("concurrency.workers must be positive, got %d", c.Concurrency.Workers))
	}
	if c.Concurrency.PerProvider <= 0 {
		errs = append(errs, fmt.Errorf("concurrency.per_provider must be positive, got %d", c.Concurrency.PerProvider))
	}
	if c.Concurrency.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("concurrency.requests_per_second must not be negative"))
	}
	if c.Pacing.Trial() < 0 || c.Pacing.Provider() < 0 || c.Pacing.Model() < 0 {
		errs = append(errs, errors.New("pacing delays must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	return errors.Join(errs...)
}
