package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/client"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this client with the control plane",
	Long: `Announce the client's identity and built-in strategies to the
control plane, the same one-shot call the SDK makes before polling.

Examples:
  flagctl register
  flagctl register --app-name checkout --instance-id node-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := client.New(cfg)
		if err != nil {
			return err
		}
		defer c.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Register(ctx); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if !quiet {
			fmt.Printf("Registered %s (connection %s)\n", cfg.AppName, c.ConnectionID())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
