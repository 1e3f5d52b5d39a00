package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// buyCmd purchases a menu item.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var buyCmd = &cobra.Command{
	Use:   "buy <item>",
	Short: "Buy a coffee",
	Long: `Connect to the wallet and pay the cafe the price of a menu item.

The item is matched by menu id or by name, ignoring case. The wallet asks
you to confirm the transaction.

Example:
  brewbar buy latte
  brewbar buy "cold brew"
  brewbar buy 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuy,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(buyCmd)
}

func runBuy(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	ctl, err := cmdCtx.Controller()
	if err != nil {
		return err
	}
	if n := ctl.Connect(ctx); !n.Success {
		return renderNotice(formatter, n)
	}
	return renderNotice(formatter, ctl.Buy(ctx, strings.Join(args, " ")))
}
