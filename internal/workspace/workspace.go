package workspace

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnorePatterns are directories and files skipped by listings even
// without a .gitignore.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	".cache",
	".idea",
	".vscode",
	".DS_Store",
}

// DefaultRoot resolves the workspace root directory. AIDA_WORKDIR takes
// precedence; otherwise the current working directory is used.
func DefaultRoot() string {
	if dir := os.Getenv("AIDA_WORKDIR"); dir != "" {
		return filepath.Clean(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// Resolve joins path onto root and verifies the result stays inside the
// workspace. Tool calls carry model-chosen paths, so every filesystem
// operation goes through this check.
func Resolve(root, path string) (string, error) {
	cleanRoot := filepath.Clean(root)
	full := filepath.Clean(filepath.Join(cleanRoot, path))

	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the workspace root", path)
	}

	return full, nil
}

// Ignorer answers whether a workspace-relative path should be skipped. It
// combines the default patterns, caller extras, and every .gitignore found
// under the root.
type Ignorer struct {
	matcher gitignore.IgnoreParser
}

// NewIgnorer compiles an Ignorer for the given root.
func NewIgnorer(root string, extra ...string) *Ignorer {
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+len(extra)+10)
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, extra...)
	patterns = append(patterns, loadGitignorePatterns(root)...)

	return &Ignorer{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

// Match reports whether the workspace-relative path is ignored. A nil
// Ignorer matches nothing.
func (ig *Ignorer) Match(relPath string) bool {
	if ig == nil || ig.matcher == nil {
		return false
	}
	return ig.matcher.MatchesPath(relPath)
}

// loadGitignorePatterns loads patterns from all .gitignore files under root.
// Nested files are flattened rather than scoped to their directory, which is
// close enough for listing purposes.
func loadGitignorePatterns(root string) []string {
	var patterns []string

	rootGitignore := filepath.Join(root, ".gitignore")
	if lines, err := readGitignoreLines(rootGitignore); err == nil {
		patterns = append(patterns, lines...)
	}

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ".gitignore" || path == rootGitignore {
			return nil
		}
		if lines, err := readGitignoreLines(path); err == nil {
			patterns = append(patterns, lines...)
		}
		return nil
	})

	return patterns
}

func readGitignoreLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// List returns workspace-relative paths under root/sub, directories with a
// trailing separator. The boolean reports whether the listing hit the limit.
func List(root, sub string, recursive bool, maxDepth, limit int, ig *Ignorer) ([]string, bool, error) {
	dirPath, err := Resolve(root, sub)
	if err != nil {
		return nil, false, err
	}
	if limit <= 0 {
		limit = 1000
	}

	cleanRoot := filepath.Clean(root)
	files := make([]string, 0)
	truncated := false

	entryName := func(relPath string, isDir bool) string {
		if isDir {
			return relPath + string(filepath.Separator)
		}
		return relPath
	}

	if recursive {
		err := filepath.WalkDir(dirPath, func(walkPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			relPath, err := filepath.Rel(cleanRoot, walkPath)
			if err != nil {
				return nil
			}

			if ig.Match(relPath) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if maxDepth >= 0 {
				relFromStart, err := filepath.Rel(dirPath, walkPath)
				if err == nil {
					depth := strings.Count(relFromStart, string(filepath.Separator))
					if depth > maxDepth {
						if d.IsDir() {
							return filepath.SkipDir
						}
						return nil
					}
				}
			}

			if walkPath == dirPath {
				return nil
			}

			files = append(files, entryName(relPath, d.IsDir()))
			if len(files) >= limit {
				truncated = true
				return filepath.SkipAll
			}

			return nil
		})
		if err != nil {
			return nil, false, err
		}
	} else {
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, false, err
		}

		for _, entry := range entries {
			relPath := entry.Name()
			if sub != "" {
				relPath = filepath.Join(sub, entry.Name())
			}

			if ig.Match(relPath) {
				continue
			}

			files = append(files, entryName(relPath, entry.IsDir()))
			if len(files) >= limit {
				truncated = true
				break
			}
		}
	}

	return files, truncated, nil
}
