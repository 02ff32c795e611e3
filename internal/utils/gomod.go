package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// GoModParser resolves module paths from go.mod files. Parsed files are
// cached and revalidated against their modification time.
type GoModParser struct {
	cache *Cache[string, string]
}

// NewGoModParser creates a new go.mod parser with caching
func NewGoModParser() *GoModParser {
	return &GoModParser{cache: NewCache[string, string]()}
}

// ParseModuleName extracts the module name from a go.mod file
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	if name, ok := p.cache.GetWithFileValidation(cleanPath, cleanPath); ok {
		return name, nil
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.Parse(cleanPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in go.mod")
	}

	name := modFile.Module.Mod.Path
	_ = p.cache.SetWithFileInfo(cleanPath, name, cleanPath)
	return name, nil
}

// FindGoModFile searches for go.mod starting from the given directory and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if stat, err := os.Stat(goModPath); err == nil && !stat.IsDir() {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found")
}

// PackagePath returns the import path of the package in dir. Without a
// go.mod the slash-separated directory name is used.
func (p *GoModParser) PackagePath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}

	goMod, err := p.FindGoModFile(abs)
	if err != nil {
		return filepath.Base(abs)
	}
	module, err := p.ParseModuleName(goMod)
	if err != nil {
		return filepath.Base(abs)
	}

	rel, err := filepath.Rel(filepath.Dir(goMod), abs)
	if err != nil || rel == "." {
		return module
	}
	return module + "/" + strings.TrimPrefix(filepath.ToSlash(rel), "./")
}
