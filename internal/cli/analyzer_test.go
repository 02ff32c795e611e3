package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/telemetry"
)

const interceptorsSource = `package tx

//weave::bindingtype
type Transactional struct{}

//weave::interceptor -Priority=10
//weave::binding Transactional
type TxInterceptor struct{}

//weave::around-invoke
func (t *TxInterceptor) Invoke() {}

//weave::interceptor
type AuditInterceptor struct{}

//weave::around-invoke
func (a *AuditInterceptor) Audit() {}
`

const ordersSource = `package orders

//weave::component
//weave::binding Transactional
type Orders struct{}

//weave::interceptors AuditInterceptor
func (o *Orders) Place() {}

//weave::component
//weave::final
//weave::binding Transactional
type Ledger struct{}

func (l *Ledger) Post() {}
`

func writeShop(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":                "module example.com/shop\n\ngo 1.25\n",
		"tx/tx.go":              interceptorsSource,
		"orders/orders.go":      ordersSource,
		"vendor/ignored/x.go":   "package ignored\n\nfunc {\n",
		"orders/orders_test.go": "package orders\n\n//weave::component\ntype Fixture struct{}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestAnalyzer_Analyze(t *testing.T) {
	root := writeShop(t)
	metrics := telemetry.NewMetrics()
	analyzer := NewAnalyzer(config.Default(), metrics, nil)

	analysis, err := analyzer.Analyze(context.Background(), []string{root + "/..."})
	require.NoError(t, err)

	assert.Len(t, analysis.Directories, 2)
	require.Len(t, analysis.Result.Components, 2)
	assert.Equal(t, "1 registered, 0 skipped, 1 failed", analysis.Report.String())

	require.True(t, analysis.Failed())
	assert.True(t, errors.HasCode(analysis.Err, errors.DeploymentErrorCode))
	assert.Contains(t, analysis.Err.Error(), "example.com/shop/orders.Ledger")

	class := models.ClassID("example.com/shop/orders.Orders")
	model, ok := analysis.Container.Models().Get(class)
	require.True(t, ok)
	interceptors, err := model.Interceptors(models.AroundInvoke, &models.MethodRef{Class: class, Name: "Place"})
	require.NoError(t, err)
	names := make([]string, len(interceptors))
	for i, in := range interceptors {
		names[i] = in.Name()
	}
	assert.Equal(t, []string{"AuditInterceptor", "TxInterceptor"}, names)
}

func TestAnalyzer_ConfigErrorsAreCollected(t *testing.T) {
	root := writeShop(t)
	cfg := config.Default()
	cfg.Interceptors.Enabled = []string{"MissingInterceptor"}

	analysis, err := NewAnalyzer(cfg, nil, nil).Analyze(context.Background(), []string{root})
	require.NoError(t, err)
	require.True(t, analysis.Failed())
	assert.True(t, errors.HasCode(analysis.Err, errors.ConfigurationErrorCode))
	assert.True(t, errors.HasCode(analysis.Err, errors.DeploymentErrorCode))
}

func TestAnalyzer_RepeatedRunsUseCache(t *testing.T) {
	root := writeShop(t)
	analyzer := NewAnalyzer(nil, nil, nil)

	_, err := analyzer.Analyze(context.Background(), []string{root})
	require.NoError(t, err)
	_, err = analyzer.Analyze(context.Background(), []string{root})
	require.NoError(t, err)

	hits, misses := analyzer.CacheStats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 2, misses)
}

func TestAnalyzer_Canceled(t *testing.T) {
	root := writeShop(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnalyzer(nil, nil, nil).Analyze(ctx, []string{root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_MissingDirectory(t *testing.T) {
	_, err := NewAnalyzer(nil, nil, nil).Analyze(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.FileSystemErrorCode))
}
