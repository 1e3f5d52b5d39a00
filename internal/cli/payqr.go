package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/storefront"
)

// payQRCmd shows a payment request for a menu item.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var payQRCmd = &cobra.Command{
	Use:   "pay-qr <item>",
	Short: "Show a payment QR code for a coffee",
	Long: `Print an EIP-681 payment URI for a menu item and render it as a QR code,
so the order can be paid from a phone wallet.

The QR code is drawn only on a terminal unless --force is given. Set
output.qr to false in the config to print the URI alone.

Example:
  brewbar pay-qr mocha
  brewbar pay-qr 1 --force > espresso.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPayQR,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var payQRForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(payQRCmd)
	payQRCmd.Flags().BoolVar(&payQRForce, "force", false, "render the QR code even when output is not a terminal")
}

// paymentResponse is the JSON shape of a payment request.
type paymentResponse struct {
	Item     string `json:"item"`
	PriceETH string `json:"price_eth"`
	To       string `json:"to"`
	URI      string `json:"uri"`
}

func runPayQR(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	ctl, err := cmdCtx.Controller()
	if err != nil {
		return err
	}
	return writePaymentRequest(ctx, cmd.OutOrStdout(), ctl, strings.Join(args, " "), payQRForce)
}

func writePaymentRequest(ctx context.Context, w io.Writer, ctl *storefront.Controller, query string, force bool) error {
	item, uri, err := ctl.PaymentRequest(ctx, query)
	if err != nil {
		return renderNotice(formatter, output.FailureFrom(storefront.TitleItemNotFound, err))
	}

	if formatter.IsJSON() {
		return formatter.Print(paymentResponse{
			Item:     item.Name,
			PriceETH: item.Price,
			To:       cfg.GetCafeAddress(),
			URI:      uri,
		})
	}

	out(w, "%s %s for %s ETH to %s\n", item.Emoji, item.Name, item.Price, chain.FormatAddress(cfg.GetCafeAddress()))
	out(w, "%s\n", uri)
	if cfg.Output.QR {
		qrCfg := output.DefaultQRConfig()
		qrCfg.Force = force
		if output.RenderQR(w, uri, qrCfg) {
			outln(w)
		}
	}
	return nil
}
