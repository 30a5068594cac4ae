package profile

import (
	"fmt"
	"log/slog"
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
	// DSN points to where afterlink stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your afterlink instance.
	InstanceURL string

	// AI configuration
	AIProvider string // AFTERLINK_AI_PROVIDER (default: openai)
	AIAPIKey   string // AFTERLINK_AI_API_KEY
	AIBaseURL  string // AFTERLINK_AI_BASE_URL (default: https://api.openai.com/v1)
	AIModel    string // AFTERLINK_AI_MODEL (default: gpt-4o-mini)
	// AIRequestsPerMinute throttles calls to the generation capability.
	AIRequestsPerMinute int // AFTERLINK_AI_REQUESTS_PER_MINUTE (default: 30)

	// Search configuration
	SearchTargetResults int // AFTERLINK_SEARCH_TARGET_RESULTS (default: 3)

	// Channel polling configuration
	PollInterval time.Duration // AFTERLINK_POLL_INTERVAL (default: 1s)
	PollAttempts int           // AFTERLINK_POLL_ATTEMPTS (default: 60)
	// ChannelTTL is how long an idle channel is kept before the sweeper drops it.
	ChannelTTL time.Duration // AFTERLINK_CHANNEL_TTL (default: 1h)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a generation provider is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AIProvider == "custom"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// FromEnv loads configuration from AFTERLINK_* environment variables.
func (p *Profile) FromEnv() {
	p.AIProvider = getEnvOrDefault("AFTERLINK_AI_PROVIDER", "openai")
	p.AIAPIKey = os.Getenv("AFTERLINK_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("AFTERLINK_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIModel = getEnvOrDefault("AFTERLINK_AI_MODEL", "gpt-4o-mini")
	p.AIRequestsPerMinute = getIntEnvOrDefault("AFTERLINK_AI_REQUESTS_PER_MINUTE", 30)

	p.SearchTargetResults = getIntEnvOrDefault("AFTERLINK_SEARCH_TARGET_RESULTS", 3)

	p.PollInterval = getDurationEnvOrDefault("AFTERLINK_POLL_INTERVAL", time.Second)
	p.PollAttempts = getIntEnvOrDefault("AFTERLINK_POLL_ATTEMPTS", 60)
	p.ChannelTTL = getDurationEnvOrDefault("AFTERLINK_CHANNEL_TTL", time.Hour)
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
			p.Data = filepath.Join(os.Getenv("ProgramData"), "afterlink")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/afterlink"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("afterlink_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.PollInterval <= 0 {
		p.PollInterval = time.Second
	}
	if p.PollAttempts <= 0 {
		p.PollAttempts = 60
	}
	if p.SearchTargetResults <= 0 {
		p.SearchTargetResults = 3
	}

	return nil
}
