package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token              string
	GuildID            string
	SyncDelay          time.Duration
	DeleteUnused       bool
	AutoDefer          bool
	AutoDeferEphemeral bool
	MetricsAddr        string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	token := readSecret("discord_token")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set (via secret or env var)")
	}

	cfg := &Config{
		Token:              token,
		GuildID:            envString("DISCORD_GUILD_ID", ""),
		SyncDelay:          envDuration("SYNC_DELAY", 1*time.Second),
		DeleteUnused:       envBool("DELETE_UNUSED_COMMANDS", false),
		AutoDefer:          envBool("AUTO_DEFER", false),
		AutoDeferEphemeral: envBool("AUTO_DEFER_EPHEMERAL", false),
		MetricsAddr:        envString("METRICS_ADDR", ":9090"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var secretsDir = "/run/secrets/"

func readSecret(name string) string {
	data, err := os.ReadFile(secretsDir + name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
