package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/registry"
	"github.com/mrz1836/brewbar/internal/storefront"
)

// storageCmd is the parent command for registry operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Work with the storage contract registry",
	Long: `Read and write the simple storage contracts created by the StorageFactory.

Indexes that are empty or not numbers are treated as 0.`,
}

// storageCountCmd reports the number of storage contracts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageCountCmd = &cobra.Command{
	Use:     "count",
	Aliases: []string{"info"},
	Short:   "Show how many storage contracts exist",
	Args:    cobra.NoArgs,
	RunE:    runStorageCount,
}

// storageGetCmd reads a stored value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageGetCmd = &cobra.Command{
	Use:   "get <index>",
	Short: "Read the value stored at an index",
	Long: `Read the value held by the storage contract at an index.

Example:
  brewbar storage get 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStorageGet,
}

// storageSetCmd writes a stored value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageSetCmd = &cobra.Command{
	Use:   "set <index> <value>",
	Short: "Store a value at an index",
	Long: `Store a non-negative integer in the storage contract at an index.
The wallet asks you to confirm the transaction, then the value is read back.

Example:
  brewbar storage set 0 42`,
	Args: cobra.ExactArgs(2),
	RunE: runStorageSet,
}

// storageCreateCmd deploys a storage contract.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new storage contract",
	Args:  cobra.NoArgs,
	RunE:  runStorageCreate,
}

// storageDebugCmd dumps every stored value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var storageDebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show the address and value of every storage contract",
	Args:  cobra.NoArgs,
	RunE:  runStorageDebug,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageCountCmd)
	storageCmd.AddCommand(storageGetCmd)
	storageCmd.AddCommand(storageSetCmd)
	storageCmd.AddCommand(storageCreateCmd)
	storageCmd.AddCommand(storageDebugCmd)
}

// withController runs action with the command deadline and the shared controller.
func withController(cmd *cobra.Command, action func(context.Context, *storefront.Controller) error) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	ctl, err := cmdCtx.Controller()
	if err != nil {
		return err
	}
	return action(ctx, ctl)
}

// withConnection connects first, as writes are sent from the wallet account.
func withConnection(cmd *cobra.Command, action func(context.Context, *storefront.Controller) output.Notice) error {
	return withController(cmd, func(ctx context.Context, ctl *storefront.Controller) error {
		if !ctl.Session().IsConnected() {
			if n := ctl.Connect(ctx); !n.Success {
				return renderNotice(formatter, n)
			}
		}
		return renderNotice(formatter, action(ctx, ctl))
	})
}

func runStorageCount(cmd *cobra.Command, _ []string) error {
	return withController(cmd, func(ctx context.Context, ctl *storefront.Controller) error {
		return renderNotice(formatter, ctl.ContractInfo(ctx))
	})
}

func runStorageGet(cmd *cobra.Command, args []string) error {
	index := ""
	if len(args) > 0 {
		index = args[0]
	}
	return withController(cmd, func(ctx context.Context, ctl *storefront.Controller) error {
		return renderNotice(formatter, ctl.GetValue(ctx, index))
	})
}

func runStorageSet(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, ctl *storefront.Controller) output.Notice {
		return ctl.SetValue(ctx, args[0], args[1])
	})
}

func runStorageCreate(cmd *cobra.Command, _ []string) error {
	return withConnection(cmd, func(ctx context.Context, ctl *storefront.Controller) output.Notice {
		return ctl.CreateStorage(ctx)
	})
}

func runStorageDebug(cmd *cobra.Command, _ []string) error {
	return withController(cmd, func(ctx context.Context, ctl *storefront.Controller) error {
		return writeDebug(cmd.OutOrStdout(), ctl.Debug(ctx))
	})
}

// writeDebug renders the debug notice and, for text output, a table of records.
func writeDebug(w io.Writer, n output.Notice) error {
	if err := renderNotice(formatter, n); err != nil || formatter.IsJSON() {
		return err
	}

	state, ok := n.Data.(*registry.DebugState)
	if !ok || len(state.Existing) == 0 {
		return nil
	}

	table := output.NewTable("INDEX", "ADDRESS", "VALUE").AlignRight(0, 2)
	for _, rec := range state.Existing {
		address := rec.Address
		if address != "" {
			address = chain.FormatAddress(address)
		}
		table.AddRow(strconv.Itoa(rec.Index), address, rec.Value)
	}
	outln(w)
	return table.Render(w)
}
