package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/weave/internal/annotations"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/utils"
)

// Parser scans Go packages for //weave:: annotations
type Parser struct {
	fileSet     *token.FileSet
	annotations *annotations.Parser
	modules     *utils.GoModParser
	files       *utils.Cache[string, *ast.File]
	logger      *slog.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used to report scanned packages
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAnnotationRegistry validates annotations against a custom schema registry
func WithAnnotationRegistry(registry annotations.AnnotationRegistry) Option {
	return func(p *Parser) {
		p.annotations = annotations.NewParser(registry)
	}
}

// NewParser creates a new source parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		fileSet:     token.NewFileSet(),
		annotations: annotations.NewParser(nil),
		modules:     utils.NewGoModParser(),
		files:       utils.NewCache[string, *ast.File](),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// packageSource is one package to scan
type packageSource struct {
	path  string // import path, used as the ClassID prefix
	files []*ast.File
}

// ParseSource parses a single file. The package name is used as the
// package path. Used mostly by tests.
func (p *Parser) ParseSource(filename, source string) (*Result, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, errors.WrapSyntaxError(filename, err).WithLocation(errors.SourceLocation{File: filename})
	}
	return p.build([]packageSource{{path: file.Name.Name, files: []*ast.File{file}}}, errors.NewMultipleErrors())
}

// ParseDirectories scans the Go package in each directory. The returned
// result holds everything that could be scanned even when an error is
// returned; the error aggregates every problem found.
func (p *Parser) ParseDirectories(dirs ...string) (*Result, error) {
	errs := errors.NewMultipleErrors()
	var pkgs []packageSource

	for _, dir := range dirs {
		files, err := p.parseDirectory(dir, errs)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}
		pkgs = append(pkgs, packageSource{path: p.modules.PackagePath(dir), files: files})
		p.logger.Debug("scanned package", "dir", dir, "files", len(files))
	}
	return p.build(pkgs, errs)
}

// parseDirectory parses the non-test Go files of dir in name order.
// Files that fail to parse are reported to errs and skipped.
func (p *Parser) parseDirectory(dir string, errs *errors.MultipleErrors) ([]*ast.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read directory", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, goFileSuffix) || strings.HasSuffix(name, testFileSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var files []*ast.File
	pkgName := ""
	for _, name := range names {
		path := filepath.Join(dir, name)
		file, err := p.parseFile(path)
		if err != nil {
			errs.Add(errors.WrapSyntaxError(path, err).WithLocation(errors.SourceLocation{File: path}))
			continue
		}
		if pkgName == "" {
			pkgName = file.Name.Name
		}
		if file.Name.Name != pkgName {
			errs.Add(errors.NewValidationError(path, "package "+pkgName, "package "+file.Name.Name).
				WithLocation(errors.SourceLocation{File: path}).
				WithSuggestion(fmt.Sprintf("Keep one package per directory in %s", dir)))
			continue
		}
		files = append(files, file)
	}
	return files, nil
}

// parseFile parses path, reusing the cached syntax tree while the file is unchanged
func (p *Parser) parseFile(path string) (*ast.File, error) {
	if file, ok := p.files.GetWithFileValidation(path, path); ok {
		return file, nil
	}
	file, err := parser.ParseFile(p.fileSet, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	_ = p.files.SetWithFileInfo(path, file, path)
	return file, nil
}

func (p *Parser) location(pos token.Pos) errors.SourceLocation {
	position := p.fileSet.Position(pos)
	return errors.SourceLocation{File: position.Filename, Line: position.Line, Column: position.Column}
}

// CacheStats reports how many files were served from the syntax tree cache
func (p *Parser) CacheStats() utils.CacheStats {
	return p.files.GetStats()
}
