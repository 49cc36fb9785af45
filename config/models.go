package config

import (
	"fmt"
	"time"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Config holds application configuration. It is constructed once at process
// start and passed by reference into each component constructor.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Gitea    GiteaConfig    `mapstructure:"gitea"`
	Github   GithubConfig   `mapstructure:"github"`
	Zones    ZonesConfig    `mapstructure:"zones"`
	Zulip    ZulipConfig    `mapstructure:"zulip"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Diff     DiffConfig     `mapstructure:"diff"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	required := map[string]string{
		"postgres.host":         c.Postgres.Host,
		"postgres.user":         c.Postgres.User,
		"postgres.password":     c.Postgres.Password,
		"postgres.snapshots_db": c.Postgres.SnapshotsDB,
		"postgres.orphans_db":   c.Postgres.OrphansDB,
		"postgres.zuul_db":      c.Postgres.ZuulDB,
		"gitea.token":           c.Gitea.Token,
		"github.token":          c.Github.Token,
		"github.fallback_token": c.Github.FallbackToken,
		"zulip.api_key":         c.Zulip.APIKey,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%w: %s", entities.ErrMissingEnv, key)
		}
	}
	return nil
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig contains outbound transport settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PostgresConfig describes connection parameters shared by the three logical
// databases.
type PostgresConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SnapshotsDB  string        `mapstructure:"snapshots_db"`
	OrphansDB    string        `mapstructure:"orphans_db"`
	ZuulDB       string        `mapstructure:"zuul_db"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxConns     int32         `mapstructure:"max_conns"`
	MinConns     int32         `mapstructure:"min_conns"`
}

// DSN returns a connection string for one of the logical databases.
func (p PostgresConfig) DSN(dbName string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, dbName, p.SSLMode,
	)
}

// GiteaConfig describes Gitea API access.
type GiteaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
}

// GithubConfig describes GitHub API access with a fallback credential
// consulted once on batch-level auth failure.
type GithubConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	Token         string `mapstructure:"token"`
	FallbackToken string `mapstructure:"fallback_token"`
}

// ZonesConfig names the base organizations; the hybrid zone derives its
// names with a "-swiss" suffix. EcoOrg is the infra GitHub organization the
// ecosystem issues stage reads, outside the zone scheme.
type ZonesConfig struct {
	GiteaOrg        string `mapstructure:"gitea_org"`
	GithubOrg       string `mapstructure:"github_org"`
	AggregationRepo string `mapstructure:"aggregation_repo"`
	EcoOrg          string `mapstructure:"eco_org"`
}

// ZoneSpec binds a zone to its organization names.
type ZoneSpec struct {
	Zone      entities.Zone
	GiteaOrg  string
	GithubOrg string
}

// ZoneSpecs returns the two zones every stage iterates over.
func (c Config) ZoneSpecs() []ZoneSpec {
	return []ZoneSpec{
		{
			Zone:      entities.ZonePublic,
			GiteaOrg:  c.Zones.GiteaOrg,
			GithubOrg: c.Zones.GithubOrg,
		},
		{
			Zone:      entities.ZoneHybrid,
			GiteaOrg:  c.Zones.GiteaOrg + "-swiss",
			GithubOrg: c.Zones.GithubOrg + "-swiss",
		},
	}
}

// ZulipConfig describes the chat bot credentials.
type ZulipConfig struct {
	Site   string `mapstructure:"site"`
	Email  string `mapstructure:"email"`
	APIKey string `mapstructure:"api_key"`
}

// NotifyConfig bounds outbound notification throughput.
type NotifyConfig struct {
	Budget int           `mapstructure:"budget"`
	Window time.Duration `mapstructure:"window"`
}

// DiffConfig bounds the concurrent file-content fan-out.
type DiffConfig struct {
	MaxInFlight   int           `mapstructure:"max_in_flight"`
	RequestDelay  time.Duration `mapstructure:"request_delay"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
}
