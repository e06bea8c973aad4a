package daemon

import (
	"fmt"
	"strings"
)

// ConfigError is a bad loop configuration; reported before the loop starts.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// WatchSetupError means the filesystem watch could not be established.
type WatchSetupError struct {
	Root string
	Err  error
}

func (e *WatchSetupError) Error() string {
	return fmt.Sprintf("failed to watch %s: %v", e.Root, e.Err)
}

func (e *WatchSetupError) Unwrap() error {
	return e.Err
}

// SpawnError means the command could not be launched. The loop keeps going.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
