package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Patterns)
	assert.Equal(t, Default.Debounce, cfg.Debounce)
	assert.Equal(t, Default.GracePeriod, cfg.GracePeriod)
	assert.Equal(t, Default.IgnoreList, cfg.IgnoreList)
	assert.Equal(t, Default.DaemonPort, cfg.DaemonPort)
	assert.Empty(t, cfg.Env)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `
patterns: ["*.rs", "python/**/*.py"]
command: [cargo, test, --release]
debounce: 250ms
grace_period: 1s
env:
  RUST_BACKTRACE: "1"
poll: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rewatch.yaml"), []byte(content), 0644))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"*.rs", "python/**/*.py"}, cfg.Patterns)
	assert.Equal(t, []string{"cargo", "test", "--release"}, cfg.Command)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, time.Second, cfg.GracePeriod)
	assert.True(t, cfg.Poll)
	assert.Equal(t, map[string]string{"RUST_BACKTRACE": "1"}, cfg.Env)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("REWATCH_PATTERNS", "*.go,*.mod")
	t.Setenv("REWATCH_DEBOUNCE", "0s")
	t.Setenv("REWATCH_ENV", `{"GOFLAGS":"-count=1"}`)

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"*.go", "*.mod"}, cfg.Patterns)
	assert.Zero(t, cfg.Debounce)
	assert.Equal(t, "-count=1", cfg.Env["GOFLAGS"])
}

func TestLoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rewatch.yaml"), []byte("patterns: [unclosed"), 0644))

	_, err := load(viper.New(), dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }},
		{"negative grace", func(c *Config) { c.GracePeriod = -time.Second }},
		{"tiny poll interval", func(c *Config) { c.Poll = true; c.PollInterval = time.Microsecond }},
		{"empty buffer", func(c *Config) { c.BufferSize = 0 }},
		{"bad port", func(c *Config) { c.DaemonPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
