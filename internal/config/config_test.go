package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("http port = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.LockTTL != 5*time.Second {
		t.Fatalf("lock ttl = %s, want 5s", cfg.LockTTL)
	}
	if cfg.GatewaySuccessRate != 0.9 {
		t.Fatalf("gateway success rate = %v, want 0.9", cfg.GatewaySuccessRate)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis addr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoadDurationAcceptsSeconds(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GATEWAY_TIMEOUT", "3")
	t.Setenv("WORKER_INTERVAL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Fatalf("gateway timeout = %s, want 3s", cfg.GatewayTimeout)
	}
	if cfg.WorkerInterval != 90*time.Second {
		t.Fatalf("worker interval = %s, want 90s", cfg.WorkerInterval)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LOCK_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadRequiresSecretAndDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected POSTGRES_DSN error, got %v", err)
	}

	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoadRedisURLOverridesAddr(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("REDIS_URL", "redis://alice:pw@cache:6380")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisAddr != "cache:6380" || cfg.RedisUsername != "alice" || cfg.RedisPassword != "pw" {
		t.Fatalf("unexpected redis settings: %q %q %q", cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
