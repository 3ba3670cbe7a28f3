package cmd

import (
	"fmt"
	"os"

	"reportship/internal/autostart"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the watch daemon to start on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		svcArgs, err := autostart.DaemonArgs(cfgFile)
		if err != nil {
			return err
		}

		as := autostart.New()
		if err := as.Install(execPath, svcArgs); err != nil {
			return err
		}

		fmt.Printf("reportship daemon registered for autostart: %s %v\n", execPath, svcArgs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
