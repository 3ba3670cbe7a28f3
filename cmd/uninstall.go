package cmd

import (
	"fmt"

	"reportship/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the watch daemon from autostart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return uninstall(autostart.New())
	},
}

func uninstall(as autostart.AutoStarter) error {
	installed, err := as.IsInstalled()
	if err != nil {
		return fmt.Errorf("failed to check autostart: %w", err)
	}

	if !installed {
		fmt.Println("reportship daemon is not registered for autostart")
		return nil
	}

	if err := as.Uninstall(); err != nil {
		return err
	}

	fmt.Println("reportship daemon autostart removed")
	return nil
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
