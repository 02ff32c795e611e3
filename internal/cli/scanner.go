package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/weave/internal/errors"
)

// DirectoryScanner finds the Go packages under a set of root directories
type DirectoryScanner struct {
	skip map[string]bool
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{
		skip: map[string]bool{
			"vendor":       true,
			"node_modules": true,
			"testdata":     true,
			"build":        true,
		},
	}
}

// ScanDirectories recursively scans the provided directories and returns
// every directory holding non-test Go files, as absolute paths.
// Supports Go-style patterns like "./..." for recursive scanning.
func (s *DirectoryScanner) ScanDirectories(rootDirs []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	for _, rootDir := range rootDirs {
		baseDir := strings.TrimSuffix(rootDir, "/...")
		if baseDir == "" {
			baseDir = "."
		}

		root, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", baseDir, err)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && s.shouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			if seen[path] {
				return nil
			}
			hasGo, err := s.hasGoFiles(path)
			if err != nil {
				return err
			}
			if hasGo {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", root, err)
		}
	}

	return dirs, nil
}

// hasGoFiles reports whether dir holds at least one non-test Go file
func (s *DirectoryScanner) hasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		return true, nil
	}
	return false, nil
}

// shouldSkipDirectory skips dependency, fixture and hidden directories
func (s *DirectoryScanner) shouldSkipDirectory(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	return s.skip[name]
}
