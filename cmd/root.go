package cmd

import (
	"fmt"
	"os"

	"reportship/internal/config"
	"reportship/internal/db"
	"reportship/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg     *config.Config
	log     *zap.Logger
	store   *gorm.DB
	cfgFile string
	debug   bool
)

// Commands that only talk to a running daemon or the service manager.
var clientCmds = map[string]bool{
	"status": true, "history": true, "stop": true,
	"install": true, "uninstall": true,
}

var rootCmd = &cobra.Command{
	Use:           "reportship",
	Short:         "Ship generated reports to a remote archive over SFTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		log, err = logger.New(debug, cfg.LogFile)
		if err != nil {
			return err
		}

		if !clientCmds[cmd.Name()] {
			if store, err = db.Open(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	err := rootCmd.Execute()
	cleanup()
	return err
}

// cleanup runs after every command, including ones that failed.
func cleanup() {
	if store != nil {
		if err := db.Close(store); err != nil && log != nil {
			log.Warn("failed to close history db",
				zap.Error(err))
		}
		store = nil
	}

	logger.Sync(log)
}

func daemonBase() string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.DaemonPort)
}

func daemonURL(path string) string {
	return daemonBase() + path
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.reportship/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
