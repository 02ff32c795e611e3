package adapters

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/registry"
	"github.com/toyz/weave/internal/telemetry"
	"github.com/toyz/weave/pkg/inspect"
)

type txInterceptor struct{}

func (txInterceptor) ClassID() models.ClassID                 { return "example.com/shop/tx.TxInterceptor" }
func (txInterceptor) Name() string                            { return "TxInterceptor" }
func (txInterceptor) IsEligible(models.InterceptionKind) bool { return true }
func (txInterceptor) Hierarchy() []models.ClassID             { return []models.ClassID{"example.com/shop/tx.TxInterceptor"} }

const ordersClass = models.ClassID("example.com/shop/orders.Orders")

func newService(t *testing.T) *inspect.Service {
	t.Helper()
	b := interception.NewBuilder(ordersClass)
	d, err := b.Intercept(models.PostConstruct)
	require.NoError(t, err)
	require.NoError(t, d.With(txInterceptor{}))
	model, err := b.Build()
	require.NoError(t, err)

	reg := registry.NewModelRegistry()
	reg.Put(ordersClass, model)

	metrics := telemetry.NewMetrics()
	metrics.SetModels(reg.Size())
	return inspect.NewService(reg, metrics.Handler())
}

func serve(t *testing.T, server inspect.WebServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAdapters(t *testing.T) {
	frameworks := []struct {
		name   string
		server func() inspect.WebServer
	}{
		{"Echo", func() inspect.WebServer { return NewDefaultEchoAdapter() }},
		{"Gin", func() inspect.WebServer { return NewDefaultGinAdapter() }},
		{"Fiber", func() inspect.WebServer { return NewDefaultFiberAdapter() }},
	}

	for _, fw := range frameworks {
		t.Run(fw.name, func(t *testing.T) {
			server := fw.server()
			assert.Equal(t, fw.name, server.Name())
			newService(t).Register(server)

			t.Run("health", func(t *testing.T) {
				rec := serve(t, server, inspect.HealthPath)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			})

			t.Run("list models", func(t *testing.T) {
				rec := serve(t, server, inspect.ModelsPath)
				require.Equal(t, http.StatusOK, rec.Code)
				assert.JSONEq(t, `{"models":["example.com/shop/orders.Orders"],"count":1}`, rec.Body.String())
			})

			t.Run("get model", func(t *testing.T) {
				rec := serve(t, server, inspect.ModelsPath+"/"+string(ordersClass))
				require.Equal(t, http.StatusOK, rec.Code)

				var view interception.View
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
				assert.Equal(t, string(ordersClass), view.Class)
				assert.Equal(t, []string{"example.com/shop/tx.TxInterceptor"}, view.Global["POST_CONSTRUCT"])
			})

			t.Run("unknown model", func(t *testing.T) {
				rec := serve(t, server, inspect.ModelsPath+"/example.com/shop.Missing")
				assert.Equal(t, http.StatusNotFound, rec.Code)

				var body inspect.HTTPError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, http.StatusNotFound, body.Code)
				assert.Contains(t, body.Message, "example.com/shop.Missing")
			})

			t.Run("metrics", func(t *testing.T) {
				rec := serve(t, server, inspect.MetricsPath)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), "weave_models_registered 1")
			})
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		framework string
		name      string
	}{
		{config.FrameworkEcho, "Echo"},
		{"", "Echo"},
		{config.FrameworkGin, "Gin"},
		{config.FrameworkFiber, "Fiber"},
	}
	for _, tt := range tests {
		server, err := New(tt.framework)
		require.NoError(t, err)
		assert.Equal(t, tt.name, server.Name())
	}

	_, err := New("chi")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
}
