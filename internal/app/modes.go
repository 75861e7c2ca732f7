package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/liqscope/internal/mcp"
	"github.com/alanyoungcy/liqscope/internal/server"
	"github.com/alanyoungcy/liqscope/internal/server/handler"
	"github.com/alanyoungcy/liqscope/internal/server/ws"
	"github.com/alanyoungcy/liqscope/internal/service"
)

const shutdownTimeout = 5 * time.Second

// StdioMode serves the tool protocol over stdin and stdout until the input
// closes or ctx is cancelled.
func (a *App) StdioMode(ctx context.Context, deps *Dependencies) error {
	srv, err := a.newMCPServer(deps)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "serving tools over stdio")

	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// ServeMode runs the HTTP API, the tool endpoint and the WebSocket hub. When
// watch addresses are configured the watcher runs alongside.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(),
		Accounts: handler.NewAccountHandler(deps.Engine, a.logger),
		Batch:    handler.NewBatchHandler(deps.Engine, a.logger),
		Reserves: handler.NewReserveHandler(deps.Engine, a.logger),
		Prices:   handler.NewPriceHandler(deps.Engine, a.logger),
		Status:   handler.NewStatusHandler(deps.Engine, a.cfg.Mode, a.logger),
		Metrics:  deps.Metrics.Handler(),
	}
	if a.cfg.Server.EnableMCP {
		mcpSrv, err := a.newMCPServer(deps)
		if err != nil {
			return err
		}
		handlers.MCP = handler.NewMCPHandler(mcpSrv, a.logger)
	}

	var hub *ws.Hub
	if a.cfg.Server.EnableWS && deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:     a.cfg.Mode,
			Channels: []string{a.cfg.Watch.Channel},
		})
		g.Go(func() error {
			return ignoreCanceled(hub.Run(ctx))
		})
	} else if a.cfg.Server.EnableWS {
		a.logger.WarnContext(ctx, "websocket feed disabled: redis is not enabled")
	}

	srv := server.NewServer(server.Config{
		Addr:         a.cfg.Server.Addr,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		APIKey:       a.cfg.Server.APIKey,
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
	}, handlers, hub, deps.APILimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(a.cfg.Watch.Addresses) > 0 {
		watcher := a.newWatcher(deps)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}

// WatchMode periodically scans the configured addresses without serving HTTP.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")
	return a.newWatcher(deps).Run(ctx)
}

func (a *App) newMCPServer(deps *Dependencies) (*mcp.Server, error) {
	srv, err := mcp.NewServer(deps.Engine, mcp.Options{
		Name:        a.cfg.MCP.Name,
		Version:     Version,
		ToolTimeout: a.cfg.MCP.ToolTimeout.Duration,
		Observer:    deps.Metrics,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: mcp server: %w", err)
	}
	return srv, nil
}

func (a *App) newWatcher(deps *Dependencies) *service.WatchService {
	// Interface fields stay nil rather than holding typed nils.
	var pub service.Publisher
	if deps.SignalBus != nil {
		pub = deps.SignalBus
	}
	var alerter service.OpportunityAlerter
	if deps.Notifier.Enabled() {
		alerter = deps.Notifier
	}

	return service.NewWatchService(deps.Engine, deps.LockManager, pub, alerter, service.WatchConfig{
		Interval:  a.cfg.Watch.Interval.Duration,
		Addresses: a.cfg.Watch.Addresses,
		ChunkSize: a.cfg.Watch.ChunkSize,
		Channel:   a.cfg.Watch.Channel,
		LockTTL:   a.cfg.Watch.LockTTL.Duration,
	}, a.logger)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
