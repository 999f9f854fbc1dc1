package profile

import (
	"os"
	"testing"
	"time"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"AIEnabled should be false by default", "false", boolToString(profile.AIEnabled)},
		{"AIProvider default", "openai", profile.AIProvider},
		{"AIBaseURL default", "https://api.openai.com/v1", profile.AIBaseURL},
		{"AIModel default", "gpt-4o-mini", profile.AIModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.TurnTimeout != 2*time.Minute {
		t.Errorf("TurnTimeout default: expected 2m, got %v", profile.TurnTimeout)
	}
	if profile.SessionRetention != 0 {
		t.Errorf("SessionRetention default: expected 0, got %v", profile.SessionRetention)
	}
	if profile.ChatConcurrency != 16 {
		t.Errorf("ChatConcurrency default: expected 16, got %d", profile.ChatConcurrency)
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearEnvVars()

	os.Setenv("TOWNHALL_AI_ENABLED", "true")
	os.Setenv("TOWNHALL_AI_API_KEY", "sk-test")
	os.Setenv("TOWNHALL_AI_MODEL", "gpt-4o")
	os.Setenv("TOWNHALL_TURN_TIMEOUT", "30s")
	os.Setenv("TOWNHALL_SESSION_RETENTION", "24h")
	defer clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if !profile.AIEnabled {
		t.Error("expected AIEnabled to be true")
	}
	if profile.AIAPIKey != "sk-test" {
		t.Errorf("expected API key sk-test, got %q", profile.AIAPIKey)
	}
	if profile.AIModel != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", profile.AIModel)
	}
	if profile.TurnTimeout != 30*time.Second {
		t.Errorf("expected turn timeout 30s, got %v", profile.TurnTimeout)
	}
	if profile.SessionRetention != 24*time.Hour {
		t.Errorf("expected session retention 24h, got %v", profile.SessionRetention)
	}
}

func TestProfileFromEnvInvalidDuration(t *testing.T) {
	clearEnvVars()

	os.Setenv("TOWNHALL_TURN_TIMEOUT", "not-a-duration")
	defer clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.TurnTimeout != 2*time.Minute {
		t.Errorf("invalid duration should fall back to default, got %v", profile.TurnTimeout)
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected bool
	}{
		{"disabled", Profile{AIEnabled: false, AIAPIKey: "sk-test"}, false},
		{"enabled with key", Profile{AIEnabled: true, AIAPIKey: "sk-test"}, true},
		{"enabled with base url only", Profile{AIEnabled: true, AIBaseURL: "http://localhost:11434/v1"}, true},
		{"enabled without key or url", Profile{AIEnabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.IsAIEnabled(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidateDefaultsDriver(t *testing.T) {
	dir := t.TempDir()
	profile := &Profile{Mode: "dev", Data: dir}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if profile.Driver != "sqlite" {
		t.Errorf("expected sqlite driver default, got %q", profile.Driver)
	}
	if profile.DSN == "" {
		t.Error("expected DSN to be derived from data dir")
	}
}

func clearEnvVars() {
	for _, key := range []string{
		"TOWNHALL_AI_ENABLED",
		"TOWNHALL_AI_PROVIDER",
		"TOWNHALL_AI_API_KEY",
		"TOWNHALL_AI_BASE_URL",
		"TOWNHALL_AI_MODEL",
		"TOWNHALL_AI_MAX_TOKENS",
		"TOWNHALL_TURN_TIMEOUT",
		"TOWNHALL_SESSION_RETENTION",
		"TOWNHALL_CHAT_CONCURRENCY",
		"TOWNHALL_DSN",
		"TOWNHALL_DRIVER",
	} {
		os.Unsetenv(key)
	}
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
