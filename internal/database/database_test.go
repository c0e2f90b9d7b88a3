package database

import (
	"testing"
	"time"
)

func TestPoolConfigSizing(t *testing.T) {
	cfg, err := poolConfig("postgres://askpair:pw@localhost:5432/askpair?sslmode=disable")
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}

	if cfg.MaxConns != 16 {
		t.Errorf("MaxConns = %d, want 16", cfg.MaxConns)
	}
	if cfg.MinConns != 2 {
		t.Errorf("MinConns = %d, want 2", cfg.MinConns)
	}
	if cfg.MaxConnIdleTime != 5*time.Minute {
		t.Errorf("MaxConnIdleTime = %v, want 5m", cfg.MaxConnIdleTime)
	}
	if cfg.HealthCheckPeriod != time.Minute {
		t.Errorf("HealthCheckPeriod = %v, want 1m", cfg.HealthCheckPeriod)
	}
	if cfg.ConnConfig.Database != "askpair" {
		t.Errorf("Database = %q, want askpair", cfg.ConnConfig.Database)
	}
}

func TestPoolConfigRejectsMalformedURL(t *testing.T) {
	if _, err := poolConfig("postgres://bad url with spaces"); err == nil {
		t.Error("expected error for malformed database URL")
	}
}

func TestRedisOptionsSizing(t *testing.T) {
	opts, err := redisOptions("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("redisOptions: %v", err)
	}

	if opts.PoolSize != 8 {
		t.Errorf("PoolSize = %d, want 8", opts.PoolSize)
	}
	if opts.DialTimeout != 3*time.Second {
		t.Errorf("DialTimeout = %v, want 3s", opts.DialTimeout)
	}
	if opts.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, want localhost:6379", opts.Addr)
	}
	if opts.DB != 2 {
		t.Errorf("DB = %d, want 2", opts.DB)
	}
}

func TestRedisOptionsRejectsMalformedURL(t *testing.T) {
	if _, err := redisOptions("not-a-redis-url"); err == nil {
		t.Error("expected error for malformed redis URL")
	}
}
