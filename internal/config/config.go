package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/danielpatrickdp/track-reward/internal/reward"
)

// #region config
// Config holds the reward server settings read from the environment.
type Config struct {
	DBPath             string
	GRPCAddr           string
	HTTPAddr           string // empty disables the HTTP API
	Strategy           reward.Strategy
	LogLevel           string
	LogFormat          string
	MaxAbsReward       float64
	RecordObservations bool
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		DBPath:             "track_reward.db",
		GRPCAddr:           "localhost:50061",
		HTTPAddr:           "",
		Strategy:           reward.StrategyProgressAdditive,
		LogLevel:           "info",
		LogFormat:          "text",
		MaxAbsReward:       2500,
		RecordObservations: false,
	}
}

// #endregion config

// #region load
// Load reads REWARD_* variables over Default. A set but unparsable value is an error.
func Load() (Config, error) {
	cfg := Default()
	cfg.DBPath = envOr("REWARD_DB", cfg.DBPath)
	cfg.GRPCAddr = envOr("REWARD_GRPC_ADDR", cfg.GRPCAddr)
	cfg.HTTPAddr = envOr("REWARD_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOr("REWARD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("REWARD_LOG_FORMAT", cfg.LogFormat)

	if v := os.Getenv("REWARD_STRATEGY"); v != "" {
		s, err := reward.ParseStrategy(v)
		if err != nil {
			return Config{}, fmt.Errorf("REWARD_STRATEGY: %w", err)
		}
		cfg.Strategy = s
	}

	var err error
	if cfg.MaxAbsReward, err = envFloat("REWARD_MAX_ABS", cfg.MaxAbsReward); err != nil {
		return Config{}, err
	}
	if cfg.MaxAbsReward <= 0 {
		return Config{}, fmt.Errorf("REWARD_MAX_ABS: must be positive, got %v", cfg.MaxAbsReward)
	}
	if cfg.RecordObservations, err = envBool("REWARD_RECORD_OBSERVATIONS", cfg.RecordObservations); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// #endregion helpers
