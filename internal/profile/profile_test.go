package profile

import (
	"os"
	"testing"
	"time"
)

func clearEnvVars() {
	envVars := []string{
		"AFTERLINK_AI_PROVIDER",
		"AFTERLINK_AI_API_KEY",
		"AFTERLINK_AI_BASE_URL",
		"AFTERLINK_AI_MODEL",
		"AFTERLINK_AI_REQUESTS_PER_MINUTE",
		"AFTERLINK_SEARCH_TARGET_RESULTS",
		"AFTERLINK_POLL_INTERVAL",
		"AFTERLINK_POLL_ATTEMPTS",
		"AFTERLINK_CHANNEL_TTL",
	}
	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.AIProvider != "openai" {
		t.Errorf("AIProvider: expected %q, got %q", "openai", profile.AIProvider)
	}
	if profile.AIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("AIBaseURL: expected default OpenAI URL, got %q", profile.AIBaseURL)
	}
	if profile.AIModel != "gpt-4o-mini" {
		t.Errorf("AIModel: expected %q, got %q", "gpt-4o-mini", profile.AIModel)
	}
	if profile.AIRequestsPerMinute != 30 {
		t.Errorf("AIRequestsPerMinute: expected 30, got %d", profile.AIRequestsPerMinute)
	}
	if profile.SearchTargetResults != 3 {
		t.Errorf("SearchTargetResults: expected 3, got %d", profile.SearchTargetResults)
	}
	if profile.PollInterval != time.Second {
		t.Errorf("PollInterval: expected 1s, got %v", profile.PollInterval)
	}
	if profile.PollAttempts != 60 {
		t.Errorf("PollAttempts: expected 60, got %d", profile.PollAttempts)
	}
	if profile.ChannelTTL != time.Hour {
		t.Errorf("ChannelTTL: expected 1h, got %v", profile.ChannelTTL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("AFTERLINK_AI_PROVIDER", "custom")
	os.Setenv("AFTERLINK_AI_API_KEY", "test-key")
	os.Setenv("AFTERLINK_AI_BASE_URL", "http://localhost:11434/v1")
	os.Setenv("AFTERLINK_AI_MODEL", "llama3")
	os.Setenv("AFTERLINK_SEARCH_TARGET_RESULTS", "5")
	os.Setenv("AFTERLINK_POLL_INTERVAL", "250ms")
	os.Setenv("AFTERLINK_POLL_ATTEMPTS", "10")
	os.Setenv("AFTERLINK_CHANNEL_TTL", "30m")

	profile := &Profile{}
	profile.FromEnv()

	if profile.AIProvider != "custom" {
		t.Errorf("AIProvider: expected %q, got %q", "custom", profile.AIProvider)
	}
	if profile.AIAPIKey != "test-key" {
		t.Errorf("AIAPIKey: expected %q, got %q", "test-key", profile.AIAPIKey)
	}
	if profile.AIBaseURL != "http://localhost:11434/v1" {
		t.Errorf("AIBaseURL: got %q", profile.AIBaseURL)
	}
	if profile.AIModel != "llama3" {
		t.Errorf("AIModel: got %q", profile.AIModel)
	}
	if profile.SearchTargetResults != 5 {
		t.Errorf("SearchTargetResults: expected 5, got %d", profile.SearchTargetResults)
	}
	if profile.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval: expected 250ms, got %v", profile.PollInterval)
	}
	if profile.PollAttempts != 10 {
		t.Errorf("PollAttempts: expected 10, got %d", profile.PollAttempts)
	}
	if profile.ChannelTTL != 30*time.Minute {
		t.Errorf("ChannelTTL: expected 30m, got %v", profile.ChannelTTL)
	}
}

func TestFromEnvInvalidNumbersFallBack(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("AFTERLINK_POLL_ATTEMPTS", "not-a-number")
	os.Setenv("AFTERLINK_POLL_INTERVAL", "soon")

	profile := &Profile{}
	profile.FromEnv()

	if profile.PollAttempts != 60 {
		t.Errorf("PollAttempts: expected fallback 60, got %d", profile.PollAttempts)
	}
	if profile.PollInterval != time.Second {
		t.Errorf("PollInterval: expected fallback 1s, got %v", profile.PollInterval)
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Profile)
		expected bool
	}{
		{
			name:     "no key and default provider is disabled",
			setup:    func(p *Profile) { p.AIProvider = "openai" },
			expected: false,
		},
		{
			name: "api key enables",
			setup: func(p *Profile) {
				p.AIProvider = "openai"
				p.AIAPIKey = "k"
			},
			expected: true,
		},
		{
			name:     "custom provider needs no key",
			setup:    func(p *Profile) { p.AIProvider = "custom" },
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{}
			tt.setup(profile)
			if got := profile.IsAIEnabled(); got != tt.expected {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.expected, got)
			}
		})
	}
}
