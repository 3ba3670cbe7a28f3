package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	stopWait     time.Duration
	pollInterval = 200 * time.Millisecond
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := stopDaemon(daemonBase(), stopWait); err != nil {
			return err
		}

		fmt.Println("stopped")
		return nil
	},
}

// stopDaemon asks the daemon at base to shut down and, when wait is
// positive, polls /status until it stops answering.
func stopDaemon(base string, wait time.Duration) error {
	resp, err := http.Post(base+"/stop", "application/json", nil)
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode stop response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := body["error"]; msg != "" {
			return fmt.Errorf("daemon refused to stop (%d): %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("daemon refused to stop: %s", resp.Status)
	}

	if body["status"] != "stopping" {
		return fmt.Errorf("unexpected stop response: %q", body["status"])
	}

	if wait <= 0 {
		return nil
	}

	return waitDown(base+"/status", wait)
}

func waitDown(statusURL string, wait time.Duration) error {
	client := &http.Client{Timeout: pollInterval}
	deadline := time.Now().Add(wait)

	for time.Now().Before(deadline) {
		resp, err := client.Get(statusURL)
		if err != nil {
			return nil
		}
		_ = resp.Body.Close()

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("daemon still running after %s", wait)
}

func init() {
	stopCmd.Flags().DurationVar(&stopWait, "wait", 10*time.Second, "how long to wait for the daemon to exit (0 to not wait)")
	rootCmd.AddCommand(stopCmd)
}
