package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reportship/internal/daemon"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap daemon.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Printf("watch root: %s\n", snap.WatchRoot)
		fmt.Printf("uptime:     %s\n", time.Since(snap.StartedAt).Round(time.Second))
		fmt.Printf("roots:      %d\n", len(snap.Roots))
		for _, root := range snap.Roots {
			fmt.Printf("  %s\n", root)
		}

		fmt.Printf("%-8s %-10s %-8s %-9s %s\n", "SHIPPED", "UNCHANGED", "FAILED", "REJECTED", "DELETES")
		fmt.Printf("%-8d %-10d %-8d %-9d %d\n",
			snap.Shipped, snap.Unchanged, snap.Failed, snap.Rejected, snap.Deletes)

		if h := snap.History; h != nil {
			fmt.Printf("history: %d total, %d shipped, %d unchanged, %d failed\n",
				h.Total, h.Shipped, h.Unchanged, h.Failed)
		}

		if last := snap.LastResult; last != nil {
			fmt.Printf("last: [%s] %s %s -> %s\n",
				last.FinishedAt.Format("2006-01-02 15:04:05"),
				last.Outcome,
				last.LocalPath,
				last.RemotePath)
			if last.Err != "" {
				fmt.Printf("      %s\n", last.Err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
