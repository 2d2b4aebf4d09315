package scanner

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ignoreFile lists glob patterns, one per line, for entries the walker
// must skip within that directory and below.
const ignoreFile = ".plexignore"

// walk traverses root following symlinks, skipping dot-prefixed entries
// and anything matched by an ignore file, and sends supported media
// paths to out. Directory cycles through symlinks are broken by tracking
// resolved paths.
func (s *Scanner) walk(ctx context.Context, root string, out chan<- string) error {
	visited := make(map[string]struct{})
	return s.walkDir(ctx, root, nil, visited, out)
}

func (s *Scanner) walkDir(ctx context.Context, dir string, ignore []string, visited map[string]struct{}, out chan<- string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}
	if _, seen := visited[resolved]; seen {
		return nil
	}
	visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}

	ignore = append(ignore, readIgnorePatterns(filepath.Join(dir, ignoreFile))...)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if matchesIgnore(ignore, name) {
			continue
		}
		full := filepath.Join(dir, name)

		// Stat instead of the entry type so symlinked trees are walked.
		info, err := os.Stat(full)
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "path", full, "error", err)
			continue
		}
		if info.IsDir() {
			if err := s.walkDir(ctx, full, ignore, visited, out); err != nil {
				return err
			}
			continue
		}
		if !supportedFile(full) {
			continue
		}
		select {
		case out <- full:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func readIgnorePatterns(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func matchesIgnore(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
