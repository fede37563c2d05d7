package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entragate/entragate/config"
	"github.com/entragate/entragate/internal/apiclient"
	httpx "github.com/entragate/entragate/internal/http"
	"github.com/entragate/entragate/internal/service"
)

const shutdownTimeout = 10 * time.Second

// ServerDeps contains everything needed to assemble the HTTP server.
type ServerDeps struct {
	Config *config.AppConfig
	Auth   *service.AuthService
	Graph  *apiclient.Client
	Logger *slog.Logger
}

// BuildServer assembles the router, middleware chain, and http.Server.
func BuildServer(deps ServerDeps) (*http.Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	services := httpx.RouterServices{
		Auth:         deps.Auth,
		GraphEnabled: deps.Config.Graph.Enabled,
		GraphMeURL:   deps.Config.Graph.MeURL,
		Scheme:       deps.Config.Auth.Scheme,
		CookieDomain: deps.Config.HTTP.CookieDomain,
		LandingPath:  deps.Config.HTTP.LandingPath,
		IsDev:        deps.Config.IsDev,
		Logger:       logger,
	}
	// Assign through a nil check so a disabled client stays a nil interface.
	if deps.Graph != nil {
		services.Graph = deps.Graph
	}

	router, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)

	addr := deps.Config.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	// The callback handler blocks on the token exchange, so the write
	// timeout has to outlive the provider timeout.
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: deps.Config.Auth.ProviderTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// Run serves HTTP until the context is canceled or a signal arrives, then
// shuts down gracefully. Blocks until the server has stopped.
func Run(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
