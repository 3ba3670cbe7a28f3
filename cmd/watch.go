package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reportship/internal/daemon"
	"reportship/internal/pipeline"
	"reportship/internal/repository"
	"reportship/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the report tree and ship new files",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	roots, err := watch.DiscoverRoots(cfg.WatchRoot)
	if err != nil {
		return err
	}

	w, err := watch.NewWatcher(cfg.BufferSize, log)
	if err != nil {
		return err
	}
	defer w.Stop()

	for _, root := range roots {
		if err := w.Add(root); err != nil {
			log.Warn("failed to watch root",
				zap.String("root", root),
				zap.Error(err))
		}
	}

	if len(w.Roots()) == 0 {
		log.Warn("no subdirectories to watch",
			zap.String("watch_root", cfg.WatchRoot))
	}

	coord, zone, release := newCoordinator()
	defer release()

	histRepo := repository.NewHistoryRepository(store)
	state := daemon.NewState(cfg.WatchRoot, w.Roots(), histRepo, log)

	filter := pipeline.NewNameFilter(cfg.Extensions)
	dispatcher := watch.NewDispatcher(
		filter,
		zone,
		coord,
		state,
		watch.Options{SettleDelay: cfg.SettleDelay},
		log)

	srv := daemon.NewServer(state, histRepo, cfg.DaemonPort, log)
	srv.Start()

	log.Info("reportship daemon started",
		zap.Int("roots", len(w.Roots())),
		zap.Strings("extensions", filter.Suffixes()),
		zap.String("remote", cfg.RemoteAddr()),
		zap.Int("port", cfg.DaemonPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		dispatcher.Run(gctx, w.Events())
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Info("shutting down")
		case <-srv.StopCh():
			log.Info("stop requested via API")
		}

		cancel()
		w.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
