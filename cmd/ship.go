package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"reportship/internal/model"
	"reportship/internal/repository"
	"reportship/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shipName string

var shipCmd = &cobra.Command{
	Use:   "ship [file]",
	Short: "Ship a single file once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		localPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}

		coord, zone, release := newCoordinator()
		defer release()

		event := model.FileEvent{
			Type:      model.EventCreate,
			Path:      localPath,
			Dir:       filepath.Dir(localPath),
			Name:      filepath.Base(localPath),
			Timestamp: time.Now(),
		}

		req := model.TransferRequest{
			LocalPath:  localPath,
			ReportName: watch.ReportName(zone, event),
		}
		if shipName != "" {
			req.ReportName = shipName
		}

		log.Info("starting one-shot transfer",
			zap.String("local", req.LocalPath),
			zap.String("report", req.ReportName))

		result := coord.Transfer(cmd.Context(), req)

		if err := repository.NewHistoryRepository(store).Save(result); err != nil {
			log.Warn("failed to save history",
				zap.Error(err))
		}

		if !result.Outcome.Succeeded() {
			return fmt.Errorf("transfer %s: %w", result.Outcome, result.Err)
		}

		fmt.Printf("%s: %s -> %s\n", result.Outcome, req.LocalPath, result.Destination.RemotePath)
		return nil
	},
}

func init() {
	shipCmd.Flags().StringVar(&shipName, "name", "", "remote report name (default derived from the parent directory)")
	rootCmd.AddCommand(shipCmd)
}
