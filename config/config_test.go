package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
auth:
  jwt_secret: "test-secret-key-for-regulations"
mongo:
  database: "regs_test"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should succeed: %v", err)
	}
	if cfg.Mongo.Database != "regs_test" {
		t.Errorf("expected database regs_test, got %s", cfg.Mongo.Database)
	}
	if cfg.Mongo.MaxCommitTime != time.Second {
		t.Errorf("expected default max commit time 1s, got %s", cfg.Mongo.MaxCommitTime)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Server: ServerConfig{Port: 8080},
		Mongo:  MongoConfig{URI: "mongodb://x", Database: "d", MaxCommitTime: time.Second},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	cases := map[string]func(c *Config){
		"short secret":     func(c *Config) { c.Auth.JWTSecret = "short" },
		"bad port":         func(c *Config) { c.Server.Port = 70000 },
		"missing database": func(c *Config) { c.Mongo.Database = "" },
		"zero commit time": func(c *Config) { c.Mongo.MaxCommitTime = 0 },
		"scheduler":        func(c *Config) { c.Scheduler.Enabled = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
