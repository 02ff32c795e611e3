package inspect

import (
	"net/http"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/registry"
)

// Paths served by the inspection server
const (
	ModelsPath  = "/models"
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

// ModelList is the body of GET /models
type ModelList struct {
	Models []string `json:"models"`
	Count  int      `json:"count"`
}

type source struct {
	registry.ModelReader
}

// Service answers inspection requests from a swappable model source
type Service struct {
	source  atomic.Pointer[source]
	metrics http.Handler
}

// NewService creates a service reading models from reader. metrics may be
// nil, in which case /metrics is not mounted.
func NewService(reader registry.ModelReader, metrics http.Handler) *Service {
	s := &Service{metrics: metrics}
	s.SetSource(reader)
	return s
}

// SetSource replaces the model source. In-flight requests finish against
// the previous source.
func (s *Service) SetSource(reader registry.ModelReader) {
	s.source.Store(&source{ModelReader: reader})
}

func (s *Service) reader() registry.ModelReader {
	if current := s.source.Load(); current != nil && current.ModelReader != nil {
		return current.ModelReader
	}
	return nil
}

// Register mounts every inspection route on server
func (s *Service) Register(server WebServer) {
	server.RegisterRoute(Route{Method: http.MethodGet, Prefix: HealthPath}, s.health)
	server.RegisterRoute(Route{Method: http.MethodGet, Prefix: ModelsPath}, s.listModels)
	server.RegisterRoute(Route{Method: http.MethodGet, Prefix: ModelsPath, Rest: "class"}, s.getModel)
	if s.metrics != nil {
		server.Mount(MetricsPath, s.metrics)
	}
}

func (s *Service) health(c RequestContext) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) listModels(c RequestContext) error {
	list := ModelList{Models: []string{}}
	if reader := s.reader(); reader != nil {
		for _, class := range reader.Classes() {
			list.Models = append(list.Models, string(class))
		}
	}
	sort.Strings(list.Models)
	list.Count = len(list.Models)
	return c.JSON(http.StatusOK, list)
}

func (s *Service) getModel(c RequestContext) error {
	class := strings.Trim(c.Param("class"), "/")
	if class == "" {
		return s.listModels(c)
	}

	reader := s.reader()
	if reader == nil {
		return NewHTTPError(http.StatusServiceUnavailable, "no models loaded")
	}
	model, ok := reader.Get(models.ClassID(class))
	if !ok {
		return NewHTTPError(http.StatusNotFound, "no interception model for class %s", class)
	}
	return c.JSON(http.StatusOK, model.View())
}
