package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("FLOOR_MAX_DURATION_SEC")
	os.Unsetenv("FLOOR_COOLDOWN_MS")
	os.Unsetenv("FLOOR_QUEUE_LIMIT")

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Server.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", c.Server.LogLevel)
	}
	if c.Floor.MaxDurationSec != 30 {
		t.Fatalf("expected default max duration 30s, got %d", c.Floor.MaxDurationSec)
	}
	if c.Floor.CooldownMs != 2000 {
		t.Fatalf("expected default cooldown 2000ms, got %d", c.Floor.CooldownMs)
	}
	if c.Floor.QueueLimit != 32 {
		t.Fatalf("expected default queue limit 32, got %d", c.Floor.QueueLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	os.Setenv("FLOOR_MAX_DURATION_SEC", "45")
	os.Setenv("FLOOR_COOLDOWN_MS", "500")
	defer os.Unsetenv("FLOOR_MAX_DURATION_SEC")
	defer os.Unsetenv("FLOOR_COOLDOWN_MS")

	c := Load()
	if c.Floor.MaxDurationSec != 45 {
		t.Fatalf("expected 45, got %d", c.Floor.MaxDurationSec)
	}
	if c.Floor.CooldownMs != 500 {
		t.Fatalf("expected 500, got %d", c.Floor.CooldownMs)
	}
}
