package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where townhall stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your townhall instance.
	InstanceURL string

	// AI Configuration
	AIEnabled   bool   // TOWNHALL_AI_ENABLED
	AIProvider  string // TOWNHALL_AI_PROVIDER (default: openai)
	AIAPIKey    string // TOWNHALL_AI_API_KEY
	AIBaseURL   string // TOWNHALL_AI_BASE_URL (default: https://api.openai.com/v1)
	AIModel     string // TOWNHALL_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens int    // TOWNHALL_AI_MAX_TOKENS (default: 2048)

	// TurnTimeout bounds a single chat turn end to end.
	TurnTimeout time.Duration // TOWNHALL_TURN_TIMEOUT (default: 2m)
	// SessionRetention evicts idle sessions after this duration. Zero disables eviction.
	SessionRetention time.Duration // TOWNHALL_SESSION_RETENTION (default: 0, disabled)
	// ChatConcurrency limits concurrently streaming chat turns.
	ChatConcurrency int64 // TOWNHALL_CHAT_CONCURRENCY (default: 16)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key or base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIAPIKey != "" || p.AIBaseURL != "")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from TOWNHALL_* environment variables.
// Values already set on the profile are only overridden when the
// corresponding variable is present.
func (p *Profile) FromEnv() {
	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		val := os.Getenv(key)
		if val == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return defaultValue
		}
		return d
	}

	getIntEnv := func(key string, defaultValue int) int {
		val := os.Getenv(key)
		if val == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return defaultValue
		}
		return n
	}

	p.AIEnabled = os.Getenv("TOWNHALL_AI_ENABLED") == "true"
	p.AIProvider = getEnvOrDefault("TOWNHALL_AI_PROVIDER", "openai")
	p.AIAPIKey = os.Getenv("TOWNHALL_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("TOWNHALL_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIModel = getEnvOrDefault("TOWNHALL_AI_MODEL", "gpt-4o-mini")
	p.AIMaxTokens = getIntEnv("TOWNHALL_AI_MAX_TOKENS", 2048)

	p.TurnTimeout = getDurationEnv("TOWNHALL_TURN_TIMEOUT", 2*time.Minute)
	p.SessionRetention = getDurationEnv("TOWNHALL_SESSION_RETENTION", 0)
	p.ChatConcurrency = int64(getIntEnv("TOWNHALL_CHAT_CONCURRENCY", 16))

	if dsn := os.Getenv("TOWNHALL_DSN"); dsn != "" {
		p.DSN = dsn
	}
	if driver := os.Getenv("TOWNHALL_DRIVER"); driver != "" {
		p.Driver = driver
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "townhall")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					return errors.Wrapf(err, "failed to create data directory %s", p.Data)
				}
			}
		} else {
			p.Data = "/var/opt/townhall"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("townhall_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.TurnTimeout <= 0 {
		p.TurnTimeout = 2 * time.Minute
	}
	if p.ChatConcurrency <= 0 {
		p.ChatConcurrency = 16
	}

	return nil
}
