package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoplaces/core/internal/config"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/subscriptions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kernel: reindex on boot, then sweep expired tokens and stale-place reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		application, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		n, err := application.reindexAll(ctx)
		if err != nil {
			return fmt.Errorf("boot reindex: %w", err)
		}
		application.log.Info("boot reindex complete", zap.Int("documents", n))

		application.runSweepLoop(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runSweepLoop runs the expired-token sweep and, when enabled, the
// stale-place reminder sweep on cfg.Tokens.SweepInterval until ctx is
// canceled. Both are best-effort background maintenance: a failed
// sweep logs and waits for the next tick rather than tearing down the
// process (spec.md §4.7, §4.8).
func (a *app) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Tokens.SweepInterval)
	defer ticker.Stop()

	var reminder *subscriptions.Reminder
	if a.cfg.Reminders.Enabled {
		reminder = subscriptions.NewReminder(a.store, a.store, a.store, a.accts.Notify)
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
			return
		case <-ticker.C:
			a.sweepOnce(ctx, reminder)
		}
	}
}

func (a *app) sweepOnce(ctx context.Context, reminder *subscriptions.Reminder) {
	now := entities.Now()

	if n, err := a.store.DeleteExpiredUserTokens(ctx, now); err != nil {
		a.log.Error("sweep expired user tokens failed", zap.Error(err))
	} else if n > 0 {
		a.log.Info("swept expired user tokens", zap.Int("count", n))
	}

	if n, err := a.store.DeleteExpiredReviewTokens(ctx, now); err != nil {
		a.log.Error("sweep expired review tokens failed", zap.Error(err))
	} else if n > 0 {
		a.log.Info("swept expired review tokens", zap.Int("count", n))
	}

	if reminder == nil {
		return
	}
	unchangedSince := entities.Timestamp(int64(now) - a.cfg.Reminders.UnchangedAfter.Milliseconds())
	for _, target := range []subscriptions.TargetContact{subscriptions.Owner, subscriptions.Scout} {
		sent, failed, err := reminder.SendUpdateReminders(ctx, target, unchangedSince, now, a.cfg.Reminders.ResendPeriod)
		if err != nil {
			a.log.Error("reminder sweep failed", zap.Error(err))
			continue
		}
		if sent > 0 || failed > 0 {
			a.log.Info("reminder sweep", zap.Int("sent", sent), zap.Int("failed", failed))
		}
	}
}
