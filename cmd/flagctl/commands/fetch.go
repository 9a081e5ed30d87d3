package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/internal/catalogue"
	"github.com/nyxflag/flagsdk/internal/cli"
	"github.com/nyxflag/flagsdk/internal/transport"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and print the remote feature catalogue",
	Long: `Fetch the feature catalogue from the control plane and print it.

Examples:
  flagctl fetch
  flagctl fetch --format json
  flagctl fetch --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		api := transport.NewHTTP(transport.Options{
			APIURL:        cfg.APIURL,
			AppName:       cfg.AppName,
			InstanceID:    cfg.InstanceID,
			ConnectionID:  uuid.NewString(),
			Authorization: cfg.Authorization,
			Interval:      cfg.Interval,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var raw json.RawMessage
		if err := api.GetJSON(ctx, transport.FeaturesPath, &raw); err != nil {
			return fmt.Errorf("failed to fetch catalogue: %w", err)
		}
		cat, err := catalogue.Parse(raw, cfg.StrictParsing)
		if err != nil {
			return err
		}

		if quiet {
			return nil
		}
		if len(cat.Features) == 0 {
			fmt.Println("No features found")
			return nil
		}
		return cli.PrintFeatures(cat.Features, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
