// Command entragate runs the login portal: OIDC sign-in against the
// Microsoft identity platform, Redis-backed sessions, and role-gated pages.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/entragate/entragate/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting entragate",
		"addr", cfg.HTTP.Addr,
		"tenant", cfg.Auth.Tenant,
		"graph_enabled", cfg.Graph.Enabled,
		"dev", cfg.IsDev,
	)

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	authSvc, err := bootstrap.BuildAuthService(bootstrap.AuthDeps{
		Auth:        cfg.Auth,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	graph, err := bootstrap.BuildGraphClient(cfg.Graph, authSvc)
	if err != nil {
		return err
	}

	server, err := bootstrap.BuildServer(bootstrap.ServerDeps{
		Config: &cfg,
		Auth:   authSvc,
		Graph:  graph,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Run(ctx, server, logger)
}
