package config

import (
	"time"

	"routerprobe/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultTrials         = 3
	defaultMaxTokens      = 1000
	defaultMaxReasons     = 5
	defaultDataDir        = "data"
	defaultRequestTimeout = 120 * time.Second
	defaultTrialDelay     = 300 * time.Millisecond
	defaultProviderDelay  = 500 * time.Millisecond
	defaultModelDelay     = defaultProviderDelay
	defaultServerAddr     = ":8080"
)

// DefaultRefusalPhrases mark a model that says it cannot use the capability.
var DefaultRefusalPhrases = []string{
	"i can't",
	"i cannot",
	"don't have access",
	"unable to",
	"no access to tools",
	"function calling",
	"tool use",
	"weather function",
}

// DefaultErrorKeywords mark an upstream error that names the capability.
var DefaultErrorKeywords = []string{
	"tool",
	"function",
	"not supported",
	"invalid",
	"response_format",
	"json_schema",
}

// Default returns a Config with every default filled in.
func Default() Config {
	var c Config
	c.FillDefaults()
	return c
}

// FillDefaults replaces zero values with package defaults.
func (c *Config) FillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Capability == "" {
		c.Capability = string(types.CapabilityToolCalling)
	}
	if c.Trials <= 0 {
		c.Trials = defaultTrials
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MaxReasons <= 0 {
		c.MaxReasons = defaultMaxReasons
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(defaultRequestTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Pacing.TrialDelay == nil {
		c.Pacing.TrialDelay = Dur(defaultTrialDelay)
	}
	if c.Pacing.ProviderDelay == nil {
		c.Pacing.ProviderDelay = Dur(defaultProviderDelay)
	}
	if c.Pacing.ModelDelay == nil {
		c.Pacing.ModelDelay = Dur(defaultModelDelay)
	}
	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = 1
	}
	if c.Concurrency.PerProvider <= 0 {
		c.Concurrency.PerProvider = 1
	}
	if c.Concurrency.Burst <= 0 {
		c.Concurrency.Burst = 1
	}
	if len(c.Classifier.RefusalPhrases) == 0 {
		c.Classifier.RefusalPhrases = append([]string(nil), DefaultRefusalPhrases...)
	}
	if len(c.Classifier.ErrorKeywords) == 0 {
		c.Classifier.ErrorKeywords = append([]string(nil), DefaultErrorKeywords...)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
}

// CapabilityValue returns the parsed capability; call after Validate.
func (c Config) CapabilityValue() types.Capability {
	capb, err := types.ParseCapability(c.Capability)
	if err != nil {
		return types.CapabilityToolCalling
	}
	return capb
}
