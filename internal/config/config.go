package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Atlassian AtlassianConfig `yaml:"atlassian"`
	JWT       JWTConfig       `yaml:"jwt"`
	App       AppConfig       `yaml:"app"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// AtlassianConfig holds the OAuth 2.0 (3LO) client settings and the endpoints
// they are exchanged against. AuthURL/TokenURL/APIBaseURL are overridable so
// tests can point them at a local server.
type AtlassianConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
	Scopes       string `yaml:"scopes"`
	// SiteDomain selects which accessible resource becomes the session's
	// cloud id. With StrictSiteMatch false, the first accessible resource
	// is used when no resource URL contains SiteDomain.
	SiteDomain      string `yaml:"site_domain"`
	StrictSiteMatch bool   `yaml:"strict_site_match"`
	// VerifyState enables anti-forgery state verification on the OAuth
	// callback.
	VerifyState bool `yaml:"verify_state"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"` // session handle lifetime
}

type AppConfig struct {
	Name        string   `yaml:"name"`
	FrontendURL string   `yaml:"frontend_url"`
	BackendURL  string   `yaml:"backend_url"`
	CORSOrigins []string `yaml:"cors_origins"`
	// AuditRetentionDays controls how long activity log entries are kept by
	// the retention scheduler. 0 disables pruning.
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8002",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "tickettractor.db",
		},
		Atlassian: AtlassianConfig{
			AuthURL:     "https://auth.atlassian.com/authorize",
			TokenURL:    "https://auth.atlassian.com/oauth/token",
			APIBaseURL:  "https://api.atlassian.com",
			Scopes:      "read:jira-work write:jira-work read:jira-user offline_access",
			SiteDomain:  "amd.atlassian.net",
			VerifyState: true,
		},
		JWT: JWTConfig{
			Secret:     "tickettractor-secret-key-change-in-production",
			ExpireHour: 24 * 30, // refresh token handles Atlassian re-auth
		},
		App: AppConfig{
			Name:        "TicketTractor",
			FrontendURL: "http://localhost:5174",
			BackendURL:  "http://localhost:8002",
			CORSOrigins: []string{"http://localhost:5174"},
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if id := os.Getenv("ATLASSIAN_CLIENT_ID"); id != "" {
		c.Atlassian.ClientID = id
	}
	if secret := os.Getenv("ATLASSIAN_CLIENT_SECRET"); secret != "" {
		c.Atlassian.ClientSecret = secret
	}
	if domain := os.Getenv("ATLASSIAN_SITE_DOMAIN"); domain != "" {
		c.Atlassian.SiteDomain = domain
	}
	if scopes := os.Getenv("ATLASSIAN_SCOPES"); scopes != "" {
		c.Atlassian.Scopes = scopes
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if hours := os.Getenv("JWT_EXPIRE_HOUR"); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil && h > 0 {
			c.JWT.ExpireHour = h
		}
	}
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		c.App.FrontendURL = url
	}
	if url := os.Getenv("BACKEND_URL"); url != "" {
		c.App.BackendURL = url
	}
	// Comma-separated, e.g. "http://localhost:5174,https://tractor.example.com"
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		var parsed []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				parsed = append(parsed, o)
			}
		}
		c.App.CORSOrigins = parsed
	}
}

// CallbackURL returns the OAuth redirect URI registered with Atlassian.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.App.BackendURL, "/") + "/api/auth/callback"
}

// HandleLifetimeSeconds is the maximum signed lifetime of a session handle.
// Sessions older than this can no longer be referenced by any valid handle.
func (c *Config) HandleLifetimeSeconds() int64 {
	return int64(c.JWT.ExpireHour) * 3600
}
