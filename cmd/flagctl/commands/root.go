// Package commands implements the flagctl developer CLI: fetch the
// remote catalogue, evaluate a feature locally, pick a variant, or
// register the client, all against the same engine the SDK embeds.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/internal/config"
)

var (
	// Global flags; api-url, app-name, instance-id, and authorization
	// each override their UNLEASH_* environment variable.
	apiURL        string
	appName       string
	instanceID    string
	authorization string
	format        string
	quiet         bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flagctl",
	Short: "CLI tool for inspecting and evaluating feature flags",
	Long: `Flagctl talks to the same control plane the SDK polls, using the
same compiler and evaluator, so what it prints is what the embedded
client would decide.

Examples:
  flagctl fetch --format table
  flagctl evaluate checkout-redesign --user-id alice
  flagctl variant checkout-redesign --session-id s1 --format json
  flagctl register`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the control plane API")
	rootCmd.PersistentFlags().StringVar(&appName, "app-name", "", "Application name to announce")
	rootCmd.PersistentFlags().StringVar(&instanceID, "instance-id", "", "Instance identifier")
	rootCmd.PersistentFlags().StringVar(&authorization, "authorization", "", "API token")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}

// loadConfig merges the environment configuration with any flag
// overrides. Overrides are pushed into the environment so the loader's
// validation sees the effective values.
func loadConfig() (*config.Config, error) {
	overrides := map[string]string{
		"UNLEASH_API_URL":       apiURL,
		"UNLEASH_APP_NAME":      appName,
		"UNLEASH_INSTANCE_ID":   instanceID,
		"UNLEASH_AUTHORIZATION": authorization,
	}
	for env, value := range overrides {
		if value != "" {
			if err := os.Setenv(env, value); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}
