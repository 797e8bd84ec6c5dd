package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/server"
	"github.com/lockboxlabs/bondvault/internal/server/handler"
	"github.com/lockboxlabs/bondvault/internal/server/ws"
)

// ServerMode runs the HTTP/WebSocket API plus the notification forwarder.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	a.startEventForwarder(ctx, g, deps)
	return g.Wait()
}

// ArchiveMode runs only the periodic audit-log archiver.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return fmt.Errorf("app: archive mode requires S3 configuration")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startArchiver(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the API server, the notification forwarder, and the
// archiver together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	a.startEventForwarder(ctx, g, deps)
	if deps.Archiver != nil {
		a.startArchiver(ctx, g, deps)
	}
	return g.Wait()
}

// startHTTPServer adds the API server and WebSocket hub to the errgroup.
// The server shuts down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.PG, deps.Redis, a.logger),
		Bonds:  handler.NewBondHandler(deps.Issuance, deps.Redemption, deps.Unlock, deps.Query, a.logger),
		Assets: handler.NewAssetHandler(deps.Query, deps.Ledger, a.logger),
	}

	keys := make(map[string]domain.Caller, len(a.cfg.Server.APIKeys))
	for _, k := range a.cfg.Server.APIKeys {
		keys[k.Key] = domain.Caller{Account: k.Account, Privileged: k.Privileged}
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKeys:         keys,
		RateLimitPerMin: a.cfg.Server.RateLimitPerMin,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startEventForwarder bridges bond events from the signal bus into operator
// notifications. Forwarding failures are logged, never fatal.
func (a *App) startEventForwarder(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	channels := []string{
		domain.EventBondCreated,
		domain.EventBondRedeemed,
		domain.EventBondUnlocked,
	}
	for _, ch := range channels {
		channel := ch
		g.Go(func() error {
			msgCh, err := deps.SignalBus.Subscribe(ctx, channel)
			if err != nil {
				return fmt.Errorf("app: subscribe %s: %w", channel, err)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case data, ok := <-msgCh:
					if !ok {
						return nil
					}
					title, body := formatEvent(channel, data)
					if err := deps.Notifier.Notify(ctx, channel, title, body); err != nil {
						a.logger.WarnContext(ctx, "notification failed",
							slog.String("event", channel),
							slog.String("error", err.Error()),
						)
					}
				}
			}
		})
	}
}

// formatEvent renders a bus payload into a short human-readable alert.
func formatEvent(channel string, data []byte) (string, string) {
	switch channel {
	case domain.EventBondCreated:
		var ev domain.BondCreatedEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			return "Bond issued",
				fmt.Sprintf("bond %d: %d %s locked until %s for %s",
					ev.BondID, ev.Amount, ev.Asset,
					time.UnixMilli(ev.Maturity).UTC().Format(time.RFC3339),
					ev.Account)
		}
	case domain.EventBondRedeemed:
		var ev domain.BondRedeemedEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			return "Bond redeemed",
				fmt.Sprintf("bond %d: %s redeemed %d %s (fee %d, net %d, remaining %d)",
					ev.BondID, ev.Account, ev.Redeemed, ev.Asset,
					ev.Fee, ev.NetPayout, ev.Remaining)
		}
	case domain.EventBondUnlocked:
		var ev domain.BondUnlockedEvent
		if err := json.Unmarshal(data, &ev); err == nil {
			return "Bond unlocked",
				fmt.Sprintf("bond %d matured at %s",
					ev.BondID, time.UnixMilli(ev.Maturity).UTC().Format(time.RFC3339))
		}
	}
	return channel, string(data)
}

// startArchiver adds the periodic audit-log archiver to the errgroup. Each
// tick archives entries older than the configured retention to object
// storage.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	interval := a.cfg.Archive.Interval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-retention)
				path, count, err := deps.Archiver.ArchiveAudit(ctx, cutoff)
				if err != nil {
					a.logger.ErrorContext(ctx, "audit archive failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if count == 0 {
					continue
				}
				a.logger.InfoContext(ctx, "audit entries archived",
					slog.String("path", path),
					slog.Int("count", count),
					slog.Time("cutoff", cutoff),
				)
			}
		}
	})
}
