package copyrules

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqve/spaces/internal/errors"
)

// PatternFiles are read from the repository root, in this order.
var PatternFiles = []string{".worktreeinclude", ".spacesinclude"}

// ReadPatternFile returns the patterns in path, one per line, skipping blank
// lines and # comments. A missing file has no patterns.
func ReadPatternFile(path string) ([]string, error) {
	f, err := os.Open(path) // nolint:gosec // pattern files live at the repository root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}
	return patterns, nil
}

// Compile builds the full rule set: configuration rules followed by the
// include rules of the pattern files found in root.
func Compile(cfg Config, root string) (RuleSet, error) {
	rules, err := CompileConfig(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.IgnorePatternFiles {
		return rules, nil
	}

	for _, name := range PatternFiles {
		patterns, err := ReadPatternFile(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		for _, raw := range patterns {
			rule, err := NewRule(raw, true, false, name)
			if err != nil {
				return nil, errors.WithContext(err, "source", name)
			}
			rules = append(rules, rule)
		}
	}

	return rules, nil
}
