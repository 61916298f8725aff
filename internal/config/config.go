package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/penwyp/go-biz-monitor/internal/core/constants"
	"github.com/penwyp/go-biz-monitor/internal/core/timeline"
)

const (
	DefaultConfigDir = "~/.go-biz-monitor"
	EnvPrefix        = "BIZMON"
)

// Config is the merged result of defaults, config.yaml and BIZMON_*
// environment variables. Paths may still start with "~/"; callers expand them.
type Config struct {
	DataDir          string       `mapstructure:"data_dir"`
	CacheDir         string       `mapstructure:"cache_dir"`
	LogFile          string       `mapstructure:"log_file"`
	LogFormat        string       `mapstructure:"log_format"`
	Timezone         string       `mapstructure:"timezone"`
	TimeFormat       string       `mapstructure:"time_format"`
	UrgentDays       int          `mapstructure:"urgent_days"`
	Output           string       `mapstructure:"output"`
	Limit            int          `mapstructure:"limit"`
	RefreshRate      int          `mapstructure:"refresh_rate"`
	RefreshPerSecond float64      `mapstructure:"refresh_per_second"`
	Server           ServerConfig `mapstructure:"server"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultConfigDir+"/data")
	v.SetDefault("cache_dir", DefaultConfigDir+"/cache")
	v.SetDefault("log_file", DefaultConfigDir+"/logs/app.log")
	v.SetDefault("log_format", "text")
	v.SetDefault("timezone", "Local")
	v.SetDefault("time_format", "24h")
	v.SetDefault("urgent_days", constants.DefaultUrgentDays)
	v.SetDefault("output", "table")
	v.SetDefault("limit", 0)
	v.SetDefault("refresh_rate", int(constants.DefaultDataRefreshInterval.Seconds()))
	v.SetDefault("refresh_per_second", constants.DefaultUIRefreshRate)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
}

// Load reads config.yaml from configDir. A missing file is not an error;
// defaults and environment variables still apply.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config in %s: %w", configDir, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command can run with
func (c *Config) Validate() error {
	if err := timeline.ValidateUrgentDays(c.UrgentDays); err != nil {
		return fmt.Errorf("urgent_days: %w", err)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.RefreshRate <= 0 {
		return fmt.Errorf("refresh_rate must be positive, got %d", c.RefreshRate)
	}
	if c.RefreshPerSecond < 0.1 || c.RefreshPerSecond > 20 {
		return fmt.Errorf("refresh_per_second must be between 0.1 and 20, got %g", c.RefreshPerSecond)
	}
	if c.TimeFormat != "12h" && c.TimeFormat != "24h" {
		return fmt.Errorf("time_format must be 12h or 24h, got %q", c.TimeFormat)
	}
	return nil
}
