package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/provider/providertest"
	"github.com/mrz1836/brewbar/internal/provider/rpc"
	"github.com/mrz1836/brewbar/internal/registry"
)

// saveGlobals saves all package-level globals and returns a restore function.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origCmdCtx := cmdCtx
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origVerbose := verbose
	origProviderURL := providerURL
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		cmdCtx = origCmdCtx
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		verbose = origVerbose
		providerURL = origProviderURL
	}
}

// resetFlags restores flag variables that cobra leaves set between runs.
func resetFlags() {
	homeDir = ""
	outputFormat = "auto"
	verbose = false
	providerURL = ""
	balanceAccount = ""
	payQRForce = false
	configForce = false
}

// runCLI executes the root command with args against a temporary home.
// Output that is not a terminal defaults to JSON.
func runCLI(t *testing.T, home, stdin string, args ...string) (string, error) {
	t.Helper()
	restore := saveGlobals(t)
	t.Cleanup(restore)
	t.Setenv(config.EnvLogLevel, "off")

	resetFlags()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// decodeNotice parses a JSON notice written by a command.
func decodeNotice(t *testing.T, s string) output.Notice {
	t.Helper()
	var n output.Notice
	require.NoError(t, json.NewDecoder(strings.NewReader(s)).Decode(&n), s)
	return n
}

// factoryState is the contract state behind a storage wallet.
type factoryState struct {
	mu     sync.Mutex
	values []uint64
	gets   int
}

func (f *factoryState) snapshot() (values []uint64, gets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.values...), f.gets
}

// newStorageWallet starts a wallet whose eth_call and eth_sendTransaction
// behave like a StorageFactory holding values.
func newStorageWallet(t *testing.T, values ...uint64) (*providertest.Wallet, *factoryState) {
	t.Helper()
	parsed, err := registry.FactoryABI()
	require.NoError(t, err)

	w := providertest.New(t)
	state := &factoryState{values: values}
	reverted := &rpc.Error{Code: 3, Message: "execution reverted"}
	txCount := 0

	w.Handle(rpc.MethodCall, func(params []json.RawMessage) (any, *rpc.Error) {
		name, args, ok := decodeFactoryCall(parsed, params)
		if !ok {
			return nil, &rpc.Error{Code: -32602, Message: "invalid call"}
		}
		if len(args) == 0 {
			return nil, reverted
		}
		state.mu.Lock()
		defer state.mu.Unlock()

		i := int(args[0].(*big.Int).Int64())
		switch name {
		case registry.MethodEntryAt:
			if i >= len(state.values) {
				return nil, reverted
			}
			return providertest.AddressWord(fmt.Sprintf("0x%040x", i+1)), nil
		case registry.MethodGet:
			state.gets++
			if i >= len(state.values) {
				return nil, reverted
			}
			return providertest.Word(state.values[i]), nil
		}
		return nil, reverted
	})

	w.Handle(rpc.MethodSendTransaction, func(params []json.RawMessage) (any, *rpc.Error) {
		name, args, ok := decodeFactoryCall(parsed, params)
		if !ok {
			return nil, &rpc.Error{Code: -32602, Message: "invalid transaction"}
		}
		state.mu.Lock()
		defer state.mu.Unlock()

		switch name {
		case registry.MethodCreate:
			state.values = append(state.values, 0)
		case registry.MethodStore:
			i := int(args[0].(*big.Int).Int64())
			if i >= len(state.values) {
				return nil, reverted
			}
			state.values[i] = args[1].(*big.Int).Uint64()
		}
		txCount++
		return fmt.Sprintf("0x%064x", txCount), nil
	})
	return w, state
}

func decodeFactoryCall(parsed abi.ABI, params []json.RawMessage) (string, []any, bool) {
	if len(params) == 0 {
		return "", nil, false
	}
	var tx struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return "", nil, false
	}
	data := common.FromHex(tx.Data)
	if len(data) < 4 {
		return "", nil, false
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", nil, false
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, false
	}
	return method.Name, args, true
}
