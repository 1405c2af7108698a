package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConnections != 20 {
		t.Errorf("MaxConnections = %d, want 20", cfg.Database.MaxConnections)
	}
	if cfg.Notify.PresenceTTL != 60*time.Second {
		t.Errorf("PresenceTTL = %v, want 60s", cfg.Notify.PresenceTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_CONNECTIONS", "50")
	t.Setenv("READ_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.MaxConnections != 50 {
		t.Errorf("MaxConnections = %d, want 50", cfg.Database.MaxConnections)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("Redis URL = %q", cfg.Redis.URL)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNECTIONS", "lots")
	t.Setenv("WRITE_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Database.MaxConnections != 20 {
		t.Errorf("MaxConnections = %d, want default 20", cfg.Database.MaxConnections)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want default 10s", cfg.Server.WriteTimeout)
	}
}
