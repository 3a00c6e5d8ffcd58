package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "capability: [unterminated\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "trials": 3, "data_dir": }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "trials=3\ndata_dir\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{"request_timeout":"soon"}`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected duration error")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.BaseURL != DefaultBaseURL || c.Trials != 3 || c.MaxTokens != 1000 || c.MaxReasons != 5 || c.DataDir != "data" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Pacing.Trial() != 300*time.Millisecond || c.Pacing.Provider() != 500*time.Millisecond || c.Pacing.Model() != 500*time.Millisecond {
		t.Fatalf("unexpected pacing defaults: %+v", c.Pacing)
	}
	if c.Concurrency.Workers != 1 || c.Concurrency.PerProvider != 1 || c.RequestTimeout.D() != 120*time.Second {
		t.Fatalf("unexpected concurrency defaults: %+v", c.Concurrency)
	}
	if len(c.Classifier.RefusalPhrases) != len(DefaultRefusalPhrases) {
		t.Fatalf("refusal phrases not defaulted")
	}
	// defaults must be copies
	c.Classifier.RefusalPhrases[0] = "mutated"
	if DefaultRefusalPhrases[0] == "mutated" {
		t.Fatalf("Default shares the package slice")
	}
}

func TestFillDefaultsKeepsExplicitValues(t *testing.T) {
	c := Config{Trials: 7, Pacing: Pacing{TrialDelay: Dur(time.Millisecond), ProviderDelay: Dur(0)}}
	c.FillDefaults()
	if c.Trials != 7 {
		t.Fatalf("trials overwritten: %d", c.Trials)
	}
	if c.Pacing.Trial() != time.Millisecond || c.Pacing.Provider() != 0 || c.Pacing.Model() != 500*time.Millisecond {
		t.Fatalf("explicit pacing overwritten: trial=%v provider=%v model=%v", c.Pacing.Trial(), c.Pacing.Provider(), c.Pacing.Model())
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OPENROUTER_API_KEY":    "sk-env",
		"OPENROUTER_BASE_URL":   "http://env",
		"ROUTERPROBE_DATA_DIR":  "/env/data",
		"ROUTERPROBE_LOG_LEVEL": "debug",
	}
	c := Config{APIKey: "sk-file"}
	c.ApplyEnv(func(k string) string { return env[k] })
	if c.APIKey != "sk-file" {
		t.Fatalf("file value must win over env: %q", c.APIKey)
	}
	if c.BaseURL != "http://env" || c.DataDir != "/env/data" || c.LogLevel != "debug" {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.APIKey = "sk"
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	c.APIKey = ""
	c.Capability = "vision"
	c.Trials = 0
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"api key", "vision", "trials"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_RateLimit(t *testing.T) {
	c := Default()
	c.APIKey = "k"
	c.Server.RateLimit = -1
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "rate_limit") {
		t.Fatalf("expected rate_limit error, got %v", err)
	}
	c.Server.RateLimit = 60
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFillDefaults_PacingFieldsDefaultIndependently(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "pacing.yaml", "pacing:\n  model_delay: 2s\n  provider_delay: 0s\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.FillDefaults()
	if c.Pacing.Model() != 2*time.Second {
		t.Fatalf("model delay lost: %v", c.Pacing.Model())
	}
	if c.Pacing.Trial() != 300*time.Millisecond {
		t.Fatalf("unset trial delay should default, got %v", c.Pacing.Trial())
	}
	if c.Pacing.ProviderDelay == nil || c.Pacing.Provider() != 0 {
		t.Fatalf("explicit zero provider delay should be kept, got %v", c.Pacing.Provider())
	}
}

func TestValidate_NegativePacing(t *testing.T) {
	c := Default()
	c.APIKey = "k"
	c.Pacing.TrialDelay = Dur(-time.Second)
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "pacing") {
		t.Fatalf("expected pacing error, got %v", err)
	}
}

func TestLoad_ServerCacheMaxAge(t *testing.T) {
	d := t.TempDir()
	c, err := Load(writeTempFile(t, d, "srv.yaml", "server:\n  cache_max_age: 90s\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.FillDefaults()
	if c.Server.CacheMaxAge == nil || c.Server.CacheMaxAge.D() != 90*time.Second {
		t.Fatalf("cache_max_age not read: %v", c.Server.CacheMaxAge)
	}
	if c, _ = Load(writeTempFile(t, d, "none.yaml", "trials: 2\n")); c.Server.CacheMaxAge != nil {
		t.Fatalf("unset cache_max_age should stay nil")
	}
}
