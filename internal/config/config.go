package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"

	EnvPrefix = "NEXUS"
)

type Config struct {
	Backend         string         `mapstructure:"backend"`
	DataPath        string         `mapstructure:"data_path"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
	Mongo           MongoConfig    `mapstructure:"mongo"`
	Auth            AuthConfig     `mapstructure:"auth"`
	Rewards         RewardsConfig  `mapstructure:"rewards"`
	LevelSize       int            `mapstructure:"level_size"`
	LevelUpDisplay  time.Duration  `mapstructure:"level_up_display"`
	TickInterval    time.Duration  `mapstructure:"tick_interval"`
	SchedulerBuffer int            `mapstructure:"scheduler_buffer"`
	Timezone        string         `mapstructure:"timezone"`
	Log             LogConfig      `mapstructure:"log"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	UserID              string `mapstructure:"user_id"`
	FirebaseCredentials string `mapstructure:"firebase_credentials"`
	IDToken             string `mapstructure:"id_token"`
}

type RewardsConfig struct {
	Task         int `mapstructure:"task"`
	Habit        int `mapstructure:"habit"`
	GoalProgress int `mapstructure:"goal_progress"`
	Journal      int `mapstructure:"journal"`
	DailyLogin   int `mapstructure:"daily_login"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:  BackendLocal,
		DataPath: filepath.Join(NexusDir(), "nexus.db"),
		Mongo:    MongoConfig{Database: "nexus"},
		Rewards: RewardsConfig{
			Task:         10,
			Habit:        5,
			GoalProgress: 15,
			Journal:      8,
			DailyLogin:   5,
		},
		LevelSize:       100,
		LevelUpDisplay:  5 * time.Second,
		TickInterval:    time.Hour,
		SchedulerBuffer: 64,
		Timezone:        "Local",
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// NexusDir is the per-user directory holding config and local data.
func NexusDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nexus"
	}
	return filepath.Join(home, ".nexus")
}

func DefaultPath() string {
	return filepath.Join(NexusDir(), "config.yaml")
}

// Load layers defaults, the YAML file at path (if it exists) and NEXUS_*
// environment variables, in that order. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range flatten(DefaultConfig()) {
		v.SetDefault(key, value)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataPath = expandHome(cfg.DataPath)
	cfg.Auth.FirebaseCredentials = expandHome(cfg.Auth.FirebaseCredentials)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal, BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("config: postgres.dsn is required for the postgres backend")
		}
	case BackendMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return errors.New("config: mongo.uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.LevelSize <= 0 {
		return errors.New("config: level_size must be positive")
	}
	if c.TickInterval <= 0 {
		return errors.New("config: tick_interval must be positive")
	}
	for name, xp := range map[string]int{
		"task": c.Rewards.Task, "habit": c.Rewards.Habit, "goal_progress": c.Rewards.GoalProgress,
		"journal": c.Rewards.Journal, "daily_login": c.Rewards.DailyLogin,
	} {
		if xp < 0 {
			return fmt.Errorf("config: rewards.%s must not be negative", name)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used for calendar days.
func (c *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// flatten lists every key with its default so env overrides reach
// nested fields on Unmarshal.
func flatten(c *Config) map[string]any {
	return map[string]any{
		"backend":                   c.Backend,
		"data_path":                 c.DataPath,
		"postgres.dsn":              c.Postgres.DSN,
		"mongo.uri":                 c.Mongo.URI,
		"mongo.database":            c.Mongo.Database,
		"auth.user_id":              c.Auth.UserID,
		"auth.firebase_credentials": c.Auth.FirebaseCredentials,
		"auth.id_token":             c.Auth.IDToken,
		"rewards.task":              c.Rewards.Task,
		"rewards.habit":             c.Rewards.Habit,
		"rewards.goal_progress":     c.Rewards.GoalProgress,
		"rewards.journal":           c.Rewards.Journal,
		"rewards.daily_login":       c.Rewards.DailyLogin,
		"level_size":                c.LevelSize,
		"level_up_display":          c.LevelUpDisplay.String(),
		"tick_interval":             c.TickInterval.String(),
		"scheduler_buffer":          c.SchedulerBuffer,
		"timezone":                  c.Timezone,
		"log.level":                 c.Log.Level,
		"log.format":                c.Log.Format,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
