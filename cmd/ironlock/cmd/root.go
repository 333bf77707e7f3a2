package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ironlock/internal/config"
)

// Version is set at build time.
var Version = "dev"

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ironlock",
	Short: "IronLock locks an idle credential-manager client",
	Long: `IronLock watches a credential-manager client for inactivity and logs the
session out once the configured lock timeout has elapsed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.NewViper(configFile))
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to ironlock.yaml")
}
