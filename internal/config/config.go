package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds engine configuration loaded from flags, env, or config file.
type Config struct {
	ListenAddr     string
	MetricsAddr    string
	PGDSN          string
	SwapLog        string
	Owner          string
	ModuleAccount  string
	FeeAsset       string
	RewardAsset    string
	RewardRate     uint64
	RewardPolicy   string
	MinLockPeriod  time.Duration
	ApprovedHashes []string
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	v.SetDefault("listen-addr", ":8080")
	v.SetDefault("metrics-addr", ":9090")
	v.SetDefault("swap-log", "./data/swaps.jsonl")
	v.SetDefault("module-account", "amm-engine")
	v.SetDefault("reward-rate", uint64(1))
	v.SetDefault("reward-policy", "auto-claim")
	v.SetDefault("min-lock-period", time.Hour)
	v.SetDefault("log-level", "info")

	cfg := Config{
		ListenAddr:     v.GetString("listen-addr"),
		MetricsAddr:    v.GetString("metrics-addr"),
		PGDSN:          v.GetString("pg-dsn"),
		SwapLog:        v.GetString("swap-log"),
		Owner:          v.GetString("owner"),
		ModuleAccount:  v.GetString("module-account"),
		FeeAsset:       v.GetString("fee-asset"),
		RewardAsset:    v.GetString("reward-asset"),
		RewardRate:     v.GetUint64("reward-rate"),
		RewardPolicy:   v.GetString("reward-policy"),
		MinLockPeriod:  v.GetDuration("min-lock-period"),
		ApprovedHashes: getStringSlice(v, "approved-hash"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// StatsConfig holds configuration for the stats aggregation command.
type StatsConfig struct {
	Input         string
	Window        time.Duration
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom string
	LogLevel      string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return StatsConfig{}, err
	}

	v.SetDefault("batch-size", 1000)
	v.SetDefault("window", 5*time.Minute)
	v.SetDefault("in", "./data/swaps.jsonl")
	v.SetDefault("log-level", "info")

	cfg := StatsConfig{
		Input:         v.GetString("in"),
		Window:        v.GetDuration("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
