package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmcleod/ironlock/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the lock status of the running session",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st api.StatusResponse
		if err := newAPIClient(cfg.API.Addr).do(http.MethodGet, "/status", nil, &st); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Record user activity now",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp api.ActivityResponse
		if err := newAPIClient(cfg.API.Addr).do(http.MethodPost, "/activity", nil, &resp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "last active %s\n", resp.LastActive.Format("2006-01-02 15:04:05Z07:00"))
		return nil
	},
}

var timeoutCmd = &cobra.Command{
	Use:   "timeout <minutes>",
	Short: "Set the lock timeout preference",
	Long: `Sets the lock timeout in minutes. 0 locks at the next check, a negative value
disables automatic locking. Changing the timeout rotates the session key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid minutes %q: %w", args[0], err)
		}
		req := api.TimeoutRequest{Minutes: &minutes}
		if err := newAPIClient(cfg.API.Addr).do(http.MethodPut, "/timeout", req, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "lock timeout set to %d minutes\n", minutes)
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Log the running session out now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newAPIClient(cfg.API.Addr).do(http.MethodPost, "/lock", nil, nil)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored PIN-protected key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newAPIClient(cfg.API.Addr).do(http.MethodDelete, "/pin", nil, nil)
	},
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open or close blocking views",
}

var viewOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Mark a view as open, suppressing automatic locking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newAPIClient(cfg.API.Addr).do(http.MethodPost, "/views/"+args[0], nil, nil)
	},
}

var viewCloseCmd = &cobra.Command{
	Use:   "close <name>",
	Short: "Mark a view as closed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newAPIClient(cfg.API.Addr).do(http.MethodDelete, "/views/"+args[0], nil, nil)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, touchCmd, timeoutCmd, lockCmd, clearCmd, viewCmd)
	viewCmd.AddCommand(viewOpenCmd, viewCloseCmd)
}
