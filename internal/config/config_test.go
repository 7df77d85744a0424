package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendLocal || cfg.LevelSize != 100 || cfg.TickInterval != time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DataPath != filepath.Join(home, ".nexus", "nexus.db") {
		t.Fatalf("unexpected data path %q", cfg.DataPath)
	}
	if cfg.Rewards.Task != 10 || cfg.Rewards.DailyLogin != 5 {
		t.Fatalf("unexpected rewards: %+v", cfg.Rewards)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	body := `
backend: postgres
data_path: ~/data/nexus.db
postgres:
  dsn: postgres://file@localhost/nexus
rewards:
  task: 25
tick_interval: 30m
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NEXUS_POSTGRES_DSN", "postgres://env@localhost/nexus")
	t.Setenv("NEXUS_REWARDS_HABIT", "7")
	t.Setenv("NEXUS_AUTH_USER_ID", "user-42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendPostgres {
		t.Fatalf("expected postgres backend, got %s", cfg.Backend)
	}
	if cfg.Postgres.DSN != "postgres://env@localhost/nexus" {
		t.Fatalf("expected env to override file dsn, got %q", cfg.Postgres.DSN)
	}
	if cfg.Rewards.Task != 25 || cfg.Rewards.Habit != 7 || cfg.Rewards.Journal != 8 {
		t.Fatalf("unexpected rewards: %+v", cfg.Rewards)
	}
	if cfg.TickInterval != 30*time.Minute {
		t.Fatalf("expected 30m tick interval, got %s", cfg.TickInterval)
	}
	if cfg.DataPath != filepath.Join(home, "data", "nexus.db") {
		t.Fatalf("expected home-expanded data path, got %q", cfg.DataPath)
	}
	if cfg.Auth.UserID != "user-42" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected auth/log: %+v %+v", cfg.Auth, cfg.Log)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cases := map[string]string{
		"unknown backend": "backend: sqlite-cloud\n",
		"missing dsn":     "backend: postgres\n",
		"missing mongo":   "backend: mongo\n",
		"bad level size":  "level_size: 0\n",
		"negative reward": "rewards:\n  task: -1\n",
		"bad timezone":    "timezone: Mars/Olympus\n",
		"bad log level":   "log:\n  level: loud\n",
		"bad tick":        "tick_interval: 0s\n",
	}
	for name, body := range cases {
		path := filepath.Join(home, strings.ReplaceAll(name, " ", "-")+".yaml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".nexus", "config.yaml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", cfg, DefaultConfig())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "id", "t1")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"id":"t1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if _, err := (LogConfig{Format: "xml"}).NewLogger(&buf); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
