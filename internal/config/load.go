package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defineFlagsOnce sync.Once

// Load reads settings with the following precedence:
// 1. Command line flags
// 2. Environment variables (GQLK_ prefix, e.g. GQLK_PAGINATION_MAX_PAGE_SIZE)
// 3. Config file
// 4. Default values
func Load() (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}

	cfgPath, _ := pflag.CommandLine.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("gql-listkit")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/gql-listkit/")
		v.AddConfigPath("$HOME/.gql-listkit")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GQLK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindChangedFlags(v)

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("pagination.default_page_size", DefaultPageSize)
	v.SetDefault("pagination.max_page_size", DefaultMaxPageSize)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
}

func defineFlags() {
	defineFlagsOnce.Do(func() {
		pflag.String("config", "", "Path to config file")
		pflag.String("server.addr", ":8080", "HTTP listen address")
		pflag.String("logging.level", "info", "Log level (debug, info, warn, error)")
		pflag.String("database.dsn", "", "Database DSN (user:pass@tcp(host:port)/db)")
		pflag.Int("pagination.default_page_size", DefaultPageSize, "Default page size for list fields")
		pflag.Int("pagination.max_page_size", DefaultMaxPageSize, "Maximum page size a client may request")
		pflag.Bool("cache.enabled", false, "Enable the collection count cache")
	})
}

// bindChangedFlags binds only flags the user actually set, so unset flags do
// not shadow env vars or file values with their flag defaults.
func bindChangedFlags(v *viper.Viper) {
	pflag.CommandLine.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})
}
