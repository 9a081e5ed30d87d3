package commands

import (
	"github.com/spf13/cobra"

	"github.com/nyxflag/flagsdk/internal/cli"
)

var variantCmd = &cobra.Command{
	Use:   "variant <feature>",
	Short: "Pick a feature's variant for a context",
	Long: `Fetch the catalogue once and resolve which variant of a feature the
given context receives.

Examples:
  flagctl variant checkout-redesign --user-id alice
  flagctl variant checkout-redesign --session-id s1 --format yaml`,
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
		variant := c.GetVariant(args[0], ctx)
		if quiet {
			return nil
		}
		return cli.PrintValue(variant, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(variantCmd)
	registerContextFlags(variantCmd)
}
