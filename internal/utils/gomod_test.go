package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644))
	return dir
}

func TestGoModParser_ParseModuleName(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		expected  string
		expectErr bool
	}{
		{name: "simple module", content: "module example.com/shop\n\ngo 1.24\n", expected: "example.com/shop"},
		{name: "no module line", content: "go 1.24\n", expectErr: true},
		{name: "invalid syntax", content: "module\n", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModule(t, tt.content)
			name, err := NewGoModParser().ParseModuleName(filepath.Join(dir, "go.mod"))
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}

	t.Run("not a go.mod file", func(t *testing.T) {
		_, err := NewGoModParser().ParseModuleName("/tmp/main.go")
		assert.Error(t, err)
	})
}

func TestGoModParser_PackagePath(t *testing.T) {
	dir := writeModule(t, "module example.com/shop\n")
	orders := filepath.Join(dir, "internal", "orders")
	require.NoError(t, os.MkdirAll(orders, 0o755))

	p := NewGoModParser()
	assert.Equal(t, "example.com/shop", p.PackagePath(dir))
	assert.Equal(t, "example.com/shop/internal/orders", p.PackagePath(orders))

	found, err := p.FindGoModFile(orders)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "go.mod"), found)
}
