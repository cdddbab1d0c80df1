package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"Veritas/internal/config"
	"Veritas/internal/infrastructure/httpapi"
	"Veritas/internal/infrastructure/llm"
	"Veritas/internal/infrastructure/parser"
	"Veritas/internal/interpreter"
	"Veritas/internal/logging"
	"Veritas/internal/ports"
	"Veritas/internal/resolver"
	"Veritas/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	analyzer *usecase.Analyzer
	server   *http.Server
}

// New builds the analyzer and the HTTP server from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	// One transport for page fetches and provider calls.
	httpClient := &http.Client{Timeout: cfg.Analysis.HTTPTimeout}

	registry := resolver.NewRegistry()
	registry.Register(parser.NewPageFetcher(httpClient,
		parser.WithMaxChars(cfg.Analysis.MaxContentChars),
		parser.WithMaxBytes(cfg.Analysis.MaxFetchBytes),
		parser.WithUserAgent(cfg.Analysis.UserAgent),
	))

	client := llm.NewClient(cfg.Provider,
		llm.WithHTTPClient(httpClient),
		llm.WithErrorBodyChars(cfg.Analysis.ErrorBodyChars),
		llm.WithMaxResponseBytes(cfg.Analysis.MaxResponseBytes),
	)

	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Resolver:    resolver.New(registry, baseLogger.With(logging.FieldComponent, "resolver")),
		Client:      client,
		Interpreter: interpreter.New(),
		Logger:      baseLogger,
	})

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Analyzer:           analyzer,
		Logger:             baseLogger,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		TrustedProxies:     cfg.Server.TrustedProxies,
		ClientAPIKey:       cfg.Access.ClientAPIKey,
		Model:              cfg.Provider.Model,
		ProviderConfigured: client.Configured(),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger.With(logging.FieldComponent, "app"),
		analyzer: analyzer,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Analyzer exposes the analysis use case for one-shot callers such as the CLI.
func (a *Application) Analyzer() ports.Analyzer {
	return a.analyzer
}

// Handler returns the HTTP handler serving the API.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("server listening",
		"addr", ln.Addr().String(),
		"model", a.cfg.Provider.Model,
		"provider_configured", a.cfg.Provider.Configured(),
		"access_key_required", a.cfg.Access.ClientAPIKey != "",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
