package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/internal/cli"
)

var evaluateFallback bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <feature>",
	Short: "Evaluate a feature against a context",
	Long: `Fetch the catalogue once and evaluate a feature locally, the same
way the embedded SDK would.

Examples:
  flagctl evaluate checkout-redesign --user-id alice
  flagctl evaluate checkout-redesign --remote-addr 10.0.0.7 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := hydratedClient()
		if err != nil {
			return err
		}
		defer c.Stop()

		ctx, err := buildContext(c.AppName())
		if err != nil {
			return err
		}
		enabled := c.IsEnabled(args[0], ctx, evaluateFallback)
		if quiet {
			return nil
		}
		if cli.OutputFormat(format) == cli.FormatTable {
			fmt.Println(enabled)
			return nil
		}
		return cli.PrintValue(map[string]any{
			"feature": args[0],
			"enabled": enabled,
		}, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	registerContextFlags(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateFallback, "default", false, "Fallback value for unknown features")
}
