package cmd

import (
	"errors"
	"fmt"
	"os"

	"reportship/internal/model"
	"reportship/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-run failed transfers whose local file is still present",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		repo := repository.NewHistoryRepository(store)
		failed, err := repo.GetFailed()
		if err != nil {
			return fmt.Errorf("failed to load failed transfers: %w", err)
		}

		if len(failed) == 0 {
			fmt.Println("nothing to retry")
			return nil
		}

		coord, _, release := newCoordinator()
		defer release()

		var shipped, skipped, stillFailing int
		for _, h := range failed {
			if _, err := os.Stat(h.LocalPath); errors.Is(err, os.ErrNotExist) {
				log.Info("local file gone, dropping failed entry",
					zap.String("attempt", h.AttemptID),
					zap.String("local", h.LocalPath))
				skipped++
			} else {
				result := coord.Transfer(cmd.Context(), model.TransferRequest{
					LocalPath:  h.LocalPath,
					ReportName: h.ReportName,
				})

				if err := repo.Save(result); err != nil {
					log.Warn("failed to save history",
						zap.Error(err))
				}

				if result.Outcome.Succeeded() {
					shipped++
				} else {
					stillFailing++
				}
			}

			if err := repo.MarkRetried(h.ID); err != nil {
				log.Warn("failed to mark entry retried",
					zap.String("attempt", h.AttemptID),
					zap.Error(err))
			}
		}

		fmt.Printf("done: %d shipped, %d failed, %d skipped\n", shipped, stillFailing, skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
