package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/storefront"
)

// shellCmd starts the interactive storefront.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive storefront session",
	Long: `Start an interactive session that keeps the wallet connected between
actions. Type "help" for the list of commands and "exit" to leave.

Example:
  brewbar shell
  printf 'connect\nbuy latte\n' | brewbar shell`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(shellCmd)
}

// errShellExit ends the read loop.
var errShellExit = errors.New("exit")

// shellCommand is one command understood by the shell.
type shellCommand struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// shell reads commands from in and runs them against one controller.
type shell struct {
	ctl      *storefront.Controller
	w        io.Writer
	commands map[string]shellCommand
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctl, err := cmdCtx.Controller()
	if err != nil {
		return err
	}
	sh := newShell(ctl, cmd.OutOrStdout())
	return sh.loop(cmd, cmd.InOrStdin())
}

func newShell(ctl *storefront.Controller, w io.Writer) *shell {
	sh := &shell{ctl: ctl, w: w}
	notice := func(action func(ctx context.Context, args []string) output.Notice) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			return renderNotice(formatter, action(ctx, args))
		}
	}

	sh.commands = map[string]shellCommand{
		"help": {usage: "help", help: "list commands", run: sh.help},
		"menu": {usage: "menu", help: "show the coffee menu", run: func(context.Context, []string) error {
			return writeMenu(w, formatter, ctl.Menu())
		}},
		"connect": {usage: "connect", help: "connect the wallet", run: notice(func(ctx context.Context, _ []string) output.Notice {
			return ctl.Connect(ctx)
		})},
		"disconnect": {usage: "disconnect", help: "forget the connected account", run: notice(func(context.Context, []string) output.Notice {
			return ctl.Disconnect()
		})},
		"status": {usage: "status", help: "show the wallet connection", run: sh.status},
		"balance": {usage: "balance", help: "show the wallet balance", run: notice(func(ctx context.Context, _ []string) output.Notice {
			return ctl.ShowBalance(ctx)
		})},
		"buy": {usage: "buy <item>", help: "buy a coffee", run: notice(func(ctx context.Context, args []string) output.Notice {
			return ctl.Buy(ctx, strings.Join(args, " "))
		})},
		"pay": {usage: "pay <item>", help: "show a payment QR code", run: func(ctx context.Context, args []string) error {
			return writePaymentRequest(ctx, w, ctl, strings.Join(args, " "), false)
		}},
		"info": {usage: "info", help: "show the storage contract count", run: notice(func(ctx context.Context, _ []string) output.Notice {
			return ctl.ContractInfo(ctx)
		})},
		"get": {usage: "get <index>", help: "read a stored value", run: notice(func(ctx context.Context, args []string) output.Notice {
			return ctl.GetValue(ctx, argAt(args, 0))
		})},
		"set": {usage: "set <index> <value>", help: "store a value", run: notice(func(ctx context.Context, args []string) output.Notice {
			return ctl.SetValue(ctx, argAt(args, 0), argAt(args, 1))
		})},
		"create": {usage: "create", help: "create a storage contract", run: notice(func(ctx context.Context, _ []string) output.Notice {
			return ctl.CreateStorage(ctx)
		})},
		"debug": {usage: "debug", help: "show every storage contract", run: func(ctx context.Context, _ []string) error {
			return writeDebug(w, ctl.Debug(ctx))
		}},
		"stats": {usage: "stats", help: "show provider and storefront counters", run: sh.stats},
		"exit": {usage: "exit", help: "leave the shell", run: func(context.Context, []string) error {
			return errShellExit
		}},
	}
	sh.commands["quit"] = sh.commands["exit"]
	return sh
}

// loop reads lines until exit, EOF or an interrupt at the prompt.
// An interrupt while an action runs cancels only that action.
func (sh *shell) loop(cmd *cobra.Command, in io.Reader) error {
	interactive := !formatter.IsJSON()
	if interactive {
		output.Info(sh.w, `Welcome to brewbar. Type "help" for commands.`)
	}

	// The root context ends on the first interrupt; the shell handles its own.
	base := context.WithoutCancel(baseContext(cmd))
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	for {
		if interactive {
			out(sh.w, "brewbar> ")
		}

		select {
		case <-interrupts:
			if interactive {
				outln(sh.w)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				if interactive {
					outln(sh.w)
				}
				return <-readErr
			}
			if err := sh.exec(base, interrupts, line); errors.Is(err, errShellExit) {
				return nil
			}
		}
	}
}

// readLines delivers lines from in until EOF or until done is closed.
// The error channel receives the scanner error once lines is closed.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// exec runs one line. Failures are printed and never end the session.
func (sh *shell) exec(base context.Context, interrupts <-chan os.Signal, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	c, ok := sh.commands[name]
	if !ok {
		if suggestion := sh.suggest(name); suggestion != "" {
			output.Warnf(sh.w, "Unknown command %q. Did you mean %q?", name, suggestion)
		} else {
			output.Warnf(sh.w, "Unknown command %q. Type \"help\" for commands.", name)
		}
		return nil
	}

	ctx, cancel := actionContext(base)
	defer cancel()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-interrupts:
			cancel()
		case <-finished:
		}
	}()

	err := c.run(ctx, fields[1:])
	var reported *reportedError
	switch {
	case err == nil, errors.As(err, &reported):
		return nil
	case errors.Is(err, errShellExit):
		return err
	default:
		_ = output.FormatError(sh.w, err, formatter.Format())
		return nil
	}
}

func (sh *shell) suggest(name string) string {
	best, bestDist := "", 3
	for candidate := range sh.commands {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist || (d == bestDist && candidate < best) {
			best, bestDist = candidate, d
		}
	}
	return best
}

func (sh *shell) help(context.Context, []string) error {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		if name != "quit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	table := output.NewTable("COMMAND", "DESCRIPTION")
	for _, name := range names {
		table.AddRow(sh.commands[name].usage, sh.commands[name].help)
	}
	return table.Render(sh.w)
}

// statusResponse is the JSON shape of the connection status.
type statusResponse struct {
	Connected bool    `json:"connected"`
	Address   *string `json:"address"`
	Balance   *string `json:"balance"`
	Since     string  `json:"connected_for,omitempty"`
}

func (sh *shell) status(context.Context, []string) error {
	sess := sh.ctl.Session()
	state := sess.State()
	resp := statusResponse{Connected: state.Connected, Address: state.Address, Balance: state.Balance}
	if state.Connected {
		resp.Since = sess.ConnectedFor().Round(time.Second).String()
	}

	if formatter.IsJSON() {
		return formatter.Print(resp)
	}
	if !state.Connected || state.Address == nil {
		outln(sh.w, "Wallet: not connected")
		return nil
	}
	out(sh.w, "Wallet:  %s (connected for %s)\n", chain.FormatAddress(*state.Address), resp.Since)
	if state.Balance != nil {
		out(sh.w, "Balance: %s ETH\n", *state.Balance)
	}
	return nil
}

func (sh *shell) stats(context.Context, []string) error {
	snap := cmdCtx.Metrics.Snapshot()
	if formatter.IsJSON() {
		return formatter.Print(snap)
	}

	table := output.NewTable("METRIC", "VALUE").AlignRight(1)
	table.AddRow("rpc calls", strconv.FormatInt(snap.RPCCallsTotal, 10))
	table.AddRow("rpc errors", strconv.FormatInt(snap.RPCErrorsTotal, 10))
	table.AddRow("rpc latency avg (ms)", strconv.FormatFloat(snap.RPCLatencyAvgMs, 'f', 1, 64))
	table.AddRow("rejected in wallet", strconv.FormatInt(snap.RejectedTotal, 10))
	table.AddRow("purchases", strconv.FormatInt(snap.PurchasesTotal, 10))
	table.AddRow("failed purchases", strconv.FormatInt(snap.PurchaseErrors, 10))
	table.AddRow("registry probes", strconv.FormatInt(snap.ProbesTotal, 10))
	table.AddRow("probe reads", strconv.FormatInt(snap.ProbeReadsTotal, 10))
	for _, m := range snap.Methods {
		table.AddRow("  "+m.Method, strconv.FormatInt(m.Calls, 10))
	}
	return table.Render(sh.w)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
