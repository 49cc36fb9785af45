// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration from environment using viper with typed
// defaults and validation. It fails before any I/O when a required variable
// is absent.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, v := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, v)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("http.request_timeout", 30*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.query_timeout", 30*time.Second)
	v.SetDefault("postgres.max_conns", 5)
	v.SetDefault("postgres.min_conns", 1)

	v.SetDefault("gitea.endpoint", "https://gitea.eco.tsi-dev.otc-service.com/api/v1")
	v.SetDefault("github.endpoint", "https://api.github.com")

	v.SetDefault("zones.gitea_org", "docs")
	v.SetDefault("zones.github_org", "opentelekomcloud-docs")
	v.SetDefault("zones.aggregation_repo", "doc-exports")
	v.SetDefault("zones.eco_org", "opentelekomcloud")

	v.SetDefault("zulip.site", "https://zulip.tsi-vc.otc-service.com")
	v.SetDefault("zulip.email", "apimon-bot@zulip.tsi-dev.otc-service.com")

	v.SetDefault("notify.budget", 180)
	v.SetDefault("notify.window", time.Minute)

	v.SetDefault("diff.max_in_flight", 8)
	v.SetDefault("diff.request_delay", 100*time.Millisecond)
	v.SetDefault("diff.retry_attempts", 3)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"http.request_timeout",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.snapshots_db",
		"postgres.orphans_db",
		"postgres.zuul_db",
		"postgres.ssl_mode",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"gitea.endpoint",
		"gitea.token",
		"github.endpoint",
		"github.token",
		"github.fallback_token",
		"zones.gitea_org",
		"zones.github_org",
		"zones.aggregation_repo",
		"zones.eco_org",
		"zulip.site",
		"zulip.email",
		"zulip.api_key",
		"notify.budget",
		"notify.window",
		"diff.max_in_flight",
		"diff.request_delay",
		"diff.retry_attempts",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
