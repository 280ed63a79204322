// Package api serves predictions from one model instance over HTTP.
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/fbotkashower/fastText/internal/logger"
	"github.com/fbotkashower/fastText/internal/model"
	"github.com/fbotkashower/fastText/internal/version"
)

// Server exposes one model over HTTP. A model instance is
// single-threaded, so handlers serialize access through a mutex.
type Server struct {
	mu      sync.Mutex
	model   *model.Model
	log     logger.Logger
	limiter *rate.Limiter
	metrics *metrics
	clock   func() time.Time
}

// NewServer wraps m. qps bounds the accepted prediction rate; zero or
// negative disables limiting.
func NewServer(m *model.Model, log logger.Logger, qps float64) *Server {
	s := &Server{model: m, log: log, clock: time.Now}
	if qps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(qps), int(qps)+1)
	}
	s.metrics = newMetrics(
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.model.Examples())
		},
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.model.AvgLoss())
		},
	)
	return s
}

// Register installs the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/predict", s.handlePredict)
	e.GET("/v1/model", s.handleModelInfo)
	e.GET("/healthz", s.handleHealth)

	h := s.metrics.handler()
	e.GET("/metrics", func(c *echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

func (s *Server) handlePredict(c *echo.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.requests.WithLabelValues("predict", "429").Inc()
		return writeError(c, http.StatusTooManyRequests, "rate_limited", "prediction rate limit exceeded")
	}
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		s.metrics.requests.WithLabelValues("predict", "400").Inc()
		return writeBadRequest(c, err.Error())
	}
	if len(req.Features) == 0 {
		s.metrics.requests.WithLabelValues("predict", "400").Inc()
		return writeBadRequest(c, "features must not be empty")
	}
	for _, f := range req.Features {
		if f < 0 || f >= s.model.InputSize() {
			s.metrics.requests.WithLabelValues("predict", "400").Inc()
			return writeBadRequest(c, fmt.Sprintf("feature %d out of range [0, %d)", f, s.model.InputSize()))
		}
	}
	if req.K <= 0 {
		req.K = 1
	}
	if req.K > s.model.OutputSize() {
		req.K = s.model.OutputSize()
	}

	start := s.clock()
	s.mu.Lock()
	preds := s.model.Predict(req.Features, req.K)
	s.mu.Unlock()
	took := s.clock().Sub(start)

	s.metrics.latency.Observe(took.Seconds())
	s.metrics.requests.WithLabelValues("predict", "200").Inc()

	out := PredictResponse{
		ID:          "pred-" + uuid.NewString(),
		Loss:        s.model.Loss().String(),
		Predictions: make([]ScoredClass, len(preds)),
		TookMicros:  took.Microseconds(),
	}
	for i, p := range preds {
		out.Predictions[i] = ScoredClass{Class: p.Class, Score: p.Score}
	}
	s.log.Debug("prediction served", "id", out.ID, "k", req.K, "took_us", out.TookMicros)
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleModelInfo(c *echo.Context) error {
	s.mu.Lock()
	info := ModelInfo{
		Dim:            s.model.Dim(),
		InputSize:      s.model.InputSize(),
		OutputSize:     s.model.OutputSize(),
		Loss:           s.model.Loss().String(),
		Examples:       s.model.Examples(),
		AvgLoss:        s.model.AvgLoss(),
		TreeDepth:      s.model.TreeDepth(),
		MeanCodeLength: s.model.MeanCodeLength(),
	}
	s.mu.Unlock()
	s.metrics.requests.WithLabelValues("model", "200").Inc()
	return writeJSON(c, http.StatusOK, info)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
	})
}
