package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/catalog"
	"github.com/mrz1836/brewbar/internal/output"
)

// menuCmd lists the coffee menu.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show the coffee menu",
	Long: `List every item on the menu with its price in ETH.

Example:
  brewbar menu
  brewbar menu -o json`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, _ []string) error {
	return writeMenu(cmd.OutOrStdout(), formatter, cmdCtx.Menu.Items())
}

// menuResponse is the JSON shape of the menu.
type menuResponse struct {
	Items []catalog.Coffee `json:"items"`
}

func writeMenu(w io.Writer, f *output.Formatter, items []catalog.Coffee) error {
	if f.IsJSON() {
		return f.Print(menuResponse{Items: items})
	}

	table := output.NewTable("ID", "ITEM", "PRICE (ETH)", "DESCRIPTION").AlignRight(2)
	for _, item := range items {
		table.AddRow(item.ID, item.Emoji+" "+item.Name, item.Price, item.Description)
	}
	return table.Render(w)
}
