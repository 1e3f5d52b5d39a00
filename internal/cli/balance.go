package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/storefront"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// balanceCmd shows the ETH balance of the wallet account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet balance",
	Long: `Connect to the wallet and show the ETH balance of its account.

With --account the balance of that address is read without connecting.

Example:
  brewbar balance
  brewbar balance --account 0x742d35Cc6634C0532925a3b844Bc454e4438f44e`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var balanceAccount string

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "address to query instead of the connected account")
}

// balanceResponse is the JSON shape of an address balance.
type balanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Wei     string `json:"wei"`
}

func runBalance(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if balanceAccount != "" {
		return renderNotice(formatter, accountBalance(ctx, balanceAccount))
	}

	ctl, err := cmdCtx.Controller()
	if err != nil {
		return err
	}
	if n := ctl.Connect(ctx); !n.Success {
		return renderNotice(formatter, n)
	}
	return renderNotice(formatter, ctl.ShowBalance(ctx))
}

func accountBalance(ctx context.Context, address string) output.Notice {
	if err := chain.ValidateAddress(address); err != nil {
		return output.FailureFrom(storefront.TitleError, err)
	}

	hexBalance, err := cmdCtx.Gateway().GetBalanceWei(ctx, address)
	if err != nil {
		return output.FailureFrom(storefront.TitleError, err)
	}
	wei, err := chain.ParseHexQuantity(hexBalance,
		brewerr.WithMessage(brewerr.ErrProviderError, "wallet returned a malformed balance: "+hexBalance))
	if err != nil {
		return output.FailureFrom(storefront.TitleError, err)
	}

	balance := chain.FormatBalance(wei)
	return output.Successf(storefront.TitleBalance, "%s ETH", balance).WithData(balanceResponse{
		Address: chain.ChecksumAddress(address),
		Balance: balance,
		Wei:     wei.String(),
	})
}
