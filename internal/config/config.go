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

type Config struct {
	Patterns     []string          `mapstructure:"patterns"`
	IgnoreList   []string          `mapstructure:"ignore_list"`
	Root         string            `mapstructure:"root"`
	Command      []string          `mapstructure:"command"`
	Env          map[string]string `mapstructure:"-"`
	Debounce     time.Duration     `mapstructure:"debounce"`
	GracePeriod  time.Duration     `mapstructure:"grace_period"`
	Poll         bool              `mapstructure:"poll"`
	PollInterval time.Duration     `mapstructure:"poll_interval"`
	BufferSize   int               `mapstructure:"buffer_size"`
	InitialRun   bool              `mapstructure:"initial_run"`
	DaemonPort   int               `mapstructure:"daemon_port"`
	DBPath       string            `mapstructure:"db_path"`
}

var Default = Config{
	Root:         ".",
	Debounce:     100 * time.Millisecond,
	GracePeriod:  3 * time.Second,
	PollInterval: 500 * time.Millisecond,
	BufferSize:   256,
	IgnoreList:   []string{".git", "target", "node_modules", "__pycache__", "*.swp", "*~", ".DS_Store", ".rewatch"},
	DaemonPort:   9321,
	DBPath:       filepath.Join(".rewatch", "history.db"),
}

func Load() (*Config, error) {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".rewatch"))
	}

	return load(viper.GetViper(), paths...)
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("rewatch")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetDefault("patterns", []string{})
	v.SetDefault("ignore_list", Default.IgnoreList)
	v.SetDefault("root", Default.Root)
	v.SetDefault("command", []string{})
	v.SetDefault("env", map[string]string{})
	v.SetDefault("debounce", Default.Debounce)
	v.SetDefault("grace_period", Default.GracePeriod)
	v.SetDefault("poll", Default.Poll)
	v.SetDefault("poll_interval", Default.PollInterval)
	v.SetDefault("buffer_size", Default.BufferSize)
	v.SetDefault("initial_run", Default.InitialRun)
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", Default.DBPath)

	v.SetEnvPrefix("REWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REWATCH_ENV may carry the overlay as a JSON object. Keys read from
	// the file come back lowercased, so names are normalized to upper case.
	cfg.Env = make(map[string]string)
	for key, value := range v.GetStringMapString("env") {
		cfg.Env[strings.ToUpper(key)] = value
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Debounce < 0:
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	case c.GracePeriod < 0:
		return fmt.Errorf("grace_period must not be negative, got %s", c.GracePeriod)
	case c.Poll && c.PollInterval < time.Millisecond:
		return fmt.Errorf("poll_interval must be at least 1ms, got %s", c.PollInterval)
	case c.BufferSize <= 0:
		return fmt.Errorf("buffer_size must be positive, got %d", c.BufferSize)
	case c.DaemonPort < 0 || c.DaemonPort > 65535:
		return fmt.Errorf("daemon_port out of range: %d", c.DaemonPort)
	}
	return nil
}
