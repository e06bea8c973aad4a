package runner

import (
	"io"
	"os"
	"sort"
	"strings"
)

// Command is what runs on every trigger. Env is laid over the inherited
// environment; on a key collision the overlay wins.
type Command struct {
	Argv   []string
	Env    map[string]string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

func (c Command) Environ() []string {
	return MergeEnv(os.Environ(), c.Env)
}

func MergeEnv(base []string, overlay map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overlay))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overlay[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		merged = append(merged, key+"="+overlay[key])
	}

	return merged
}

func (c Command) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c Command) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
