package pipeline

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	ErrEmptySpec  = errors.New("at least one watch pattern is required")
	ErrBadPattern = errors.New("invalid pattern")
)

// Spec decides which filesystem events are relevant. Patterns without a
// slash match the base name of a path, patterns with a slash match the
// path relative to the root. Ignore patterns always win.
type Spec struct {
	root     string
	patterns []string
	ignore   []string
}

func NewSpec(root string, patterns, ignore []string) (*Spec, error) {
	if len(patterns) == 0 {
		return nil, ErrEmptySpec
	}

	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	s := &Spec{root: absRoot}

	for _, pattern := range patterns {
		pattern = normalizePattern(pattern)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
		s.patterns = append(s.patterns, pattern)
	}

	if len(s.patterns) == 0 {
		return nil, ErrEmptySpec
	}

	for _, pattern := range ignore {
		pattern = normalizePattern(pattern)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: ignore %q", ErrBadPattern, pattern)
		}
		s.ignore = append(s.ignore, pattern)
	}

	return s, nil
}

func (s *Spec) Root() string {
	return s.root
}

func (s *Spec) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Match reports whether a change to p should trigger a run. p may be
// absolute or relative to the root.
func (s *Spec) Match(p string) bool {
	rel, ok := s.rel(p)
	if !ok || s.Ignored(rel) {
		return false
	}

	for _, pattern := range s.patterns {
		target := rel
		if !strings.Contains(pattern, "/") {
			target = path.Base(rel)
		}
		if matched, err := doublestar.Match(pattern, target); err == nil && matched {
			return true
		}
	}

	return false
}

// Ignored reports whether rel, a slash or OS separated path relative to the
// root, falls under an ignore pattern. Any single segment matching is
// enough, so "target" ignores everything below target/.
func (s *Spec) Ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return false
	}

	parts := strings.Split(rel, "/")

	for _, pattern := range s.ignore {
		if strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
				return true
			}
			continue
		}
		for _, part := range parts {
			if matched, err := doublestar.Match(pattern, part); err == nil && matched {
				return true
			}
		}
	}

	return false
}

func (s *Spec) rel(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), true
	}

	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

func normalizePattern(pattern string) string {
	pattern = strings.TrimSpace(filepath.ToSlash(pattern))
	pattern = strings.TrimPrefix(pattern, "./")
	return strings.TrimSuffix(pattern, "/")
}
