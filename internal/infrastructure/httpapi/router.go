// Package httpapi exposes the analyzer over HTTP for the browser extension.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Veritas/internal/domain"
	"Veritas/internal/logging"
	"Veritas/internal/ports"
	"Veritas/internal/usecase"
)

const (
	serviceName     = "veritas"
	maxRequestBytes = 1 << 20

	msgInputRequired  = "Input is required."
	msgAnalysisFailed = "Analysis failed."
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Analyzer           ports.Analyzer
	Logger             *slog.Logger
	CORSOrigins        []string
	RequestTimeout     time.Duration
	TrustedProxies     []string
	ClientAPIKey       string
	Model              string
	ProviderConfigured bool
}

type handler struct {
	analyzer           ports.Analyzer
	logger             *slog.Logger
	model              string
	providerConfigured bool
}

// NewRouter builds the gin engine. The caller picks the gin mode.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.FieldComponent, "httpapi")

	h := &handler{
		analyzer:           deps.Analyzer,
		logger:             logger,
		model:              deps.Model,
		providerConfigured: deps.ProviderConfigured,
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, ignoring forwarded headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), requestID(), accessLog(logger), corsMiddleware(deps.CORSOrigins))

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.Use(requireAccessKey(deps.ClientAPIKey), requestTimeout(deps.RequestTimeout))
	{
		api.POST("/analyze", h.analyze)
	}

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"service":            serviceName,
		"model":              h.model,
		"providerConfigured": h.providerConfigured,
	})
}

func (h *handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInputRequired})
		return
	}

	if h.analyzer == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgAnalysisFailed})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req)
	switch {
	case errors.Is(err, usecase.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInputRequired})
		return
	case err != nil:
		logging.WithContext(c.Request.Context(), h.logger).Error("analyze failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgAnalysisFailed})
		return
	}

	c.JSON(http.StatusOK, result)
}
