package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8002" {
		t.Errorf("default port = %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q", cfg.Database.Driver)
	}
	if !cfg.Atlassian.VerifyState {
		t.Error("state verification should default to on")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: "9000"
atlassian:
  site_domain: example.atlassian.net
  strict_site_match: true
jwt:
  expire_hour: 48
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Atlassian.SiteDomain != "example.atlassian.net" || !cfg.Atlassian.StrictSiteMatch {
		t.Errorf("atlassian config = %+v", cfg.Atlassian)
	}
	if cfg.JWT.ExpireHour != 48 {
		t.Errorf("expire_hour = %d", cfg.JWT.ExpireHour)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("ATLASSIAN_CLIENT_ID", "env-client")
	t.Setenv("JWT_EXPIRE_HOUR", "12")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Atlassian.ClientID != "env-client" {
		t.Errorf("client id = %q", cfg.Atlassian.ClientID)
	}
	if cfg.JWT.ExpireHour != 12 {
		t.Errorf("expire_hour = %d", cfg.JWT.ExpireHour)
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[1] != "http://b.local" {
		t.Errorf("cors origins = %v", cfg.App.CORSOrigins)
	}
}

func TestCallbackURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.BackendURL = "https://tractor.example.com/"
	if got := cfg.CallbackURL(); got != "https://tractor.example.com/api/auth/callback" {
		t.Errorf("CallbackURL() = %q", got)
	}
}

func TestHandleLifetimeSeconds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.ExpireHour = 24
	if got := cfg.HandleLifetimeSeconds(); got != 24*3600 {
		t.Errorf("HandleLifetimeSeconds() = %d", got)
	}
}
