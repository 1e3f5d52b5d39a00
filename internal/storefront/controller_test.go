package storefront

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrz1836/brewbar/internal/catalog"
	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/metrics"
	"github.com/mrz1836/brewbar/internal/provider"
	"github.com/mrz1836/brewbar/internal/provider/rpc"
	"github.com/mrz1836/brewbar/internal/registry"
	"github.com/mrz1836/brewbar/internal/scan"
	"github.com/mrz1836/brewbar/internal/session"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestController(gw *fakeGateway, reg *fakeRegistry, opts ...Option) *Controller {
	return New(gw, reg, session.New(), catalog.Default(), testCafe, opts...)
}

func connected(t *testing.T, c *Controller) {
	t.Helper()
	n := c.Connect(context.Background())
	require.True(t, n.Success, n.Message)
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		n := c.Connect(context.Background())
		require.True(t, n.Success)
		assert.Equal(t, TitleConnected, n.Title)
		assert.Contains(t, n.Message, "Your wallet and smart contract have been successfully connected.")
		assert.Contains(t, n.Message, "0x742d...f44e")
		assert.True(t, c.Session().IsConnected())
	})

	t.Run("provider not found", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		gw.accountErr = brewerr.ErrProviderUnavailable
		c := newTestController(gw, newFakeRegistry())
		n := c.Connect(context.Background())
		assert.False(t, n.Success)
		assert.Equal(t, TitleProviderNotFound, n.Title)
		require.ErrorIs(t, n.Err, brewerr.ErrProviderUnavailable)
		assert.False(t, c.Session().IsConnected())
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		gw.accountErr = brewerr.WithMessage(brewerr.ErrUserRejected, "User rejected the request.")
		c := newTestController(gw, newFakeRegistry())
		n := c.Connect(context.Background())
		assert.Equal(t, TitleConnectFailed, n.Title)
		assert.Equal(t, "User rejected the request.", n.Message)
		assert.Equal(t, brewerr.ExitRejected, brewerr.ExitCode(n.Err))
	})
}

func TestDisconnect(t *testing.T) {
	t.Parallel()
	c := newTestController(newFakeGateway(), newFakeRegistry())
	connected(t, c)

	n := c.Disconnect()
	assert.True(t, n.Success)
	assert.Equal(t, TitleDisconnected, n.Title)
	assert.Equal(t, session.WalletState{}, c.Session().State())

	// Disconnecting twice is fine.
	assert.True(t, c.Disconnect().Success)
}

func TestShowBalance(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		n := c.ShowBalance(context.Background())
		assert.Equal(t, TitleError, n.Title)
		assert.Equal(t, "Wallet not connected", n.Message)
		require.ErrorIs(t, n.Err, brewerr.ErrNotConnected)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		connected(t, c)
		n := c.ShowBalance(context.Background())
		require.True(t, n.Success)
		assert.Equal(t, TitleBalance, n.Title)
		assert.Equal(t, "1.0000 ETH", n.Message)
	})

	t.Run("failure keeps prior balance", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		c := newTestController(gw, newFakeRegistry())
		connected(t, c)
		require.True(t, c.ShowBalance(context.Background()).Success)

		gw.balanceErr = brewerr.ErrProviderError
		n := c.ShowBalance(context.Background())
		assert.False(t, n.Success)
		state := c.Session().State()
		require.NotNil(t, state.Balance)
		assert.Equal(t, "1.0000", *state.Balance)
	})
}

func TestBuy(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		c := newTestController(gw, newFakeRegistry())
		n := c.Buy(context.Background(), "espresso")
		assert.Equal(t, TitleNotConnected, n.Title)
		assert.Equal(t, "Please connect your wallet before making a purchase.", n.Message)
		assert.Empty(t, gw.sent)
	})

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		connected(t, c)
		n := c.Buy(context.Background(), "espreso")
		assert.Equal(t, TitleItemNotFound, n.Title)
		require.ErrorIs(t, n.Err, brewerr.ErrItemNotFound)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		m := &metrics.Metrics{}
		c := newTestController(gw, newFakeRegistry(), WithMetrics(m))
		connected(t, c)

		n := c.Buy(context.Background(), "Espresso")
		require.True(t, n.Success, n.Message)
		assert.Equal(t, TitlePurchased, n.Title)
		assert.Equal(t, "Your Espresso has been purchased! Enjoy your coffee ☕\n\nTransaction: 0xabcdef01...", n.Message)

		require.Len(t, gw.sent, 1)
		assert.Equal(t, testAccount, gw.sent[0].from)
		assert.Equal(t, testCafe, gw.sent[0].to)
		assert.Equal(t, chain.WeiToHex(big.NewInt(2_000_000_000_000_000)), gw.sent[0].weiHex)

		receipt, ok := n.Data.(catalog.Receipt)
		require.True(t, ok)
		assert.NotEmpty(t, receipt.OrderID)
		assert.Equal(t, "2000000000000000", receipt.PriceWei)
		assert.Equal(t, testTxHash, receipt.TxHash)
		assert.Equal(t, int64(1), m.Snapshot().PurchasesTotal)
	})

	t.Run("rejected in wallet", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		gw.sendErr = brewerr.WithMessage(brewerr.ErrUserRejected, "User denied transaction signature.")
		c := newTestController(gw, newFakeRegistry())
		connected(t, c)
		n := c.Buy(context.Background(), "1")
		assert.Equal(t, TitleTxFailed, n.Title)
		assert.Equal(t, "User denied transaction signature.", n.Message)
		assert.Equal(t, brewerr.ExitRejected, brewerr.ExitCode(n.Err))
	})
}

func TestPaymentRequest(t *testing.T) {
	t.Parallel()

	t.Run("chain from wallet", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		item, uri, err := c.PaymentRequest(context.Background(), "latte")
		require.NoError(t, err)
		assert.Equal(t, "Latte", item.Name)
		assert.Equal(t, "ethereum:"+testCafe+"@11155111?value=3500000000000000", uri)
	})

	t.Run("pinned chain", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry(), WithChainID(1))
		_, uri, err := c.PaymentRequest(context.Background(), "mocha")
		require.NoError(t, err)
		assert.Equal(t, "ethereum:"+testCafe+"@1?value=4000000000000000", uri)
	})

	t.Run("chain unavailable", func(t *testing.T) {
		t.Parallel()
		gw := newFakeGateway()
		gw.chainErr = brewerr.ErrProviderUnavailable
		c := newTestController(gw, newFakeRegistry())
		_, uri, err := c.PaymentRequest(context.Background(), "americano")
		require.NoError(t, err)
		assert.Equal(t, "ethereum:"+testCafe+"?value=2500000000000000", uri)
	})

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		_, _, err := c.PaymentRequest(context.Background(), "tea")
		require.ErrorIs(t, err, brewerr.ErrItemNotFound)
	})
}

func TestGetValue(t *testing.T) {
	t.Parallel()

	t.Run("no contracts", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry()
		c := newTestController(newFakeGateway(), reg)
		n := c.GetValue(context.Background(), "0")
		assert.Equal(t, TitleNoContracts, n.Title)
		assert.Equal(t, "No storage contracts found. Please create one first.", n.Message)
		gets, _ := reg.calls()
		assert.Zero(t, gets)
	})

	t.Run("out of range issues no read", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(7, 8)
		c := newTestController(newFakeGateway(), reg)
		n := c.GetValue(context.Background(), "5")
		assert.Equal(t, TitleInvalidIndex, n.Title)
		assert.Equal(t, "Index 5 doesn't exist. Only 2 storage contract(s) available. Valid indexes: 0-1", n.Message)
		require.ErrorIs(t, n.Err, brewerr.ErrIndexOutOfRange)
		gets, _ := reg.calls()
		assert.Zero(t, gets)
	})

	t.Run("non-numeric index reads zero", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry(42, 8))
		n := c.GetValue(context.Background(), "abc")
		require.True(t, n.Success)
		assert.Equal(t, TitleValueRetrieved, n.Title)
		assert.Equal(t, "Stored value at index 0: 42", n.Message)
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1)
		reg.getErr = brewerr.ErrProviderError
		c := newTestController(newFakeGateway(), reg)
		n := c.GetValue(context.Background(), "0")
		assert.Equal(t, TitleReadFailed, n.Title)
		require.Error(t, n.Err)
	})

	t.Run("count failure", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1)
		reg.countErr = brewerr.ErrProbeFailed
		c := newTestController(newFakeGateway(), reg)
		n := c.GetValue(context.Background(), "0")
		assert.Equal(t, TitleReadFailed, n.Title)
		require.ErrorIs(t, n.Err, brewerr.ErrProbeFailed)
	})
}

func TestSetValue(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1)
		c := newTestController(newFakeGateway(), reg)
		n := c.SetValue(context.Background(), "0", "5")
		assert.Equal(t, TitleNotConnected, n.Title)
		_, sets := reg.calls()
		assert.Zero(t, sets)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		for _, value := range []string{"", "abc", "-3"} {
			reg := newFakeRegistry(1)
			c := newTestController(newFakeGateway(), reg)
			connected(t, c)
			n := c.SetValue(context.Background(), "0", value)
			assert.Equal(t, TitleSetFailed, n.Title, value)
			assert.Equal(t, "Please enter a valid number", n.Message, value)
			require.ErrorIs(t, n.Err, brewerr.ErrInvalidInput)
			_, sets := reg.calls()
			assert.Zero(t, sets)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1, 2)
		c := newTestController(newFakeGateway(), reg)
		connected(t, c)
		n := c.SetValue(context.Background(), "2", "9")
		assert.Equal(t, TitleSetFailed, n.Title)
		assert.Equal(t, "Index 2 doesn't exist. Create storage contract first or use index 0-1", n.Message)
		_, sets := reg.calls()
		assert.Zero(t, sets)
	})

	t.Run("success refreshes the read", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1, 2)
		c := newTestController(newFakeGateway(), reg)
		connected(t, c)
		n := c.SetValue(context.Background(), "1", "99")
		require.True(t, n.Success, n.Message)
		assert.Equal(t, TitleValueSet, n.Title)
		assert.Equal(t,
			"Successfully set value 99 at index 1\nTransaction: 0xabcdef01...\nStored value at index 1: 99",
			n.Message)

		result, ok := n.Data.(ValueResult)
		require.True(t, ok)
		assert.Equal(t, "99", result.Value)
		assert.Equal(t, testTxHash, result.TxHash)
	})

	t.Run("send failure", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry(1)
		reg.setErr = brewerr.ErrUserRejected
		c := newTestController(newFakeGateway(), reg)
		connected(t, c)
		n := c.SetValue(context.Background(), "0", "3")
		assert.Equal(t, TitleSetFailed, n.Title)
		require.ErrorIs(t, n.Err, brewerr.ErrUserRejected)
	})
}

func TestCreateStorage(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry())
		assert.Equal(t, TitleNotConnected, c.CreateStorage(context.Background()).Title)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := newTestController(newFakeGateway(), newFakeRegistry(5))
		connected(t, c)
		n := c.CreateStorage(context.Background())
		require.True(t, n.Success)
		assert.Equal(t, TitleStorageCreated, n.Title)
		assert.Equal(t, "New storage contract created at index 1", n.Message)
		assert.Equal(t, CreateResult{Index: 1, TxHash: testTxHash, Available: "0-1"}, n.Data)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		reg := newFakeRegistry()
		reg.setErr = brewerr.ErrTxReverted
		c := newTestController(newFakeGateway(), reg)
		connected(t, c)
		n := c.CreateStorage(context.Background())
		assert.Equal(t, TitleCreateFailed, n.Title)
		require.ErrorIs(t, n.Err, brewerr.ErrTxReverted)
	})
}

func TestContractInfo(t *testing.T) {
	t.Parallel()

	c := newTestController(newFakeGateway(), newFakeRegistry(1, 2, 3))
	n := c.ContractInfo(context.Background())
	require.True(t, n.Success)
	assert.Equal(t, "Storage contracts: 3\nAvailable Indexes: 0-2", n.Message)

	empty := newTestController(newFakeGateway(), newFakeRegistry())
	assert.Contains(t, empty.ContractInfo(context.Background()).Message, "Available Indexes: none")

	reg := newFakeRegistry()
	reg.values = make([]*big.Int, 100)
	reg.stop = scan.StopBoundExhausted
	partial := newTestController(newFakeGateway(), reg)
	assert.Contains(t, partial.ContractInfo(context.Background()).Message, "Count may be incomplete")
}

func TestDebug(t *testing.T) {
	t.Parallel()

	c := newTestController(newFakeGateway(), newFakeRegistry(4, 5))
	n := c.Debug(context.Background())
	require.True(t, n.Success)
	assert.Equal(t, TitleContractState, n.Title)
	state, ok := n.Data.(*registry.DebugState)
	require.True(t, ok)
	assert.Equal(t, 2, state.TotalContracts)
	assert.Len(t, state.Existing, 2)

	reg := newFakeRegistry()
	reg.debugErr = brewerr.ErrProviderUnavailable
	failed := newTestController(newFakeGateway(), reg).Debug(context.Background())
	assert.Equal(t, TitleDebugFailed, failed.Title)
	require.ErrorIs(t, failed.Err, brewerr.ErrProviderUnavailable)
}

func TestBusyRefusesSecondAction(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.entered = make(chan struct{})
	gw.release = make(chan struct{})
	c := newTestController(gw, newFakeRegistry())

	done := make(chan bool)
	go func() {
		done <- c.Connect(context.Background()).Success
	}()
	<-gw.entered

	n := c.Disconnect()
	assert.False(t, n.Success)
	assert.Equal(t, TitleBusy, n.Title)
	require.ErrorIs(t, n.Err, brewerr.ErrBusy)

	close(gw.release)
	assert.True(t, <-done)
	assert.True(t, c.Disconnect().Success)
}

func TestParseIndex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"3", 3},
		{" 12 ", 12},
		{"7xyz", 7},
		{"-2", -2},
		{"99999999999999999999999", 0},
		{"2147483647", 2147483647},
		{"2147483648", 0},
		{"-2147483649", 0},
		{"4294967295", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseIndex(tt.in), tt.in)
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	v, ok := parseValue("123456789012345678901234567890")
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", v.String())

	v, ok = parseValue("42abc")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int64())

	for _, bad := range []string{"", "x1", "-1", "+"} {
		_, ok := parseValue(bad)
		assert.False(t, ok, bad)
	}
}

func TestUnreachableProviderIsNotAnEmptyRegistry(t *testing.T) {
	t.Parallel()

	gw := provider.New(rpc.NewClient("http://127.0.0.1:1"))
	t.Cleanup(gw.Close)
	reg, err := registry.New(gw, testFactory, registry.Options{}, nil, nil)
	require.NoError(t, err)
	c := New(gw, reg, session.New(), catalog.Default(), testCafe)

	got := c.GetValue(context.Background(), "0")
	assert.False(t, got.Success)
	assert.Equal(t, TitleReadFailed, got.Title)
	require.ErrorIs(t, got.Err, brewerr.ErrProviderUnavailable)
	require.NotErrorIs(t, got.Err, brewerr.ErrIndexOutOfRange)

	debug := c.Debug(context.Background())
	assert.False(t, debug.Success)
	assert.Equal(t, TitleDebugFailed, debug.Title)
	require.ErrorIs(t, debug.Err, brewerr.ErrProviderUnavailable)

	info := c.ContractInfo(context.Background())
	assert.False(t, info.Success)
	require.ErrorIs(t, info.Err, brewerr.ErrProviderUnavailable)
}

func TestPartialCountIsFlagged(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1, 2)
	reg.stop = scan.StopProbeFailed
	c := newTestController(newFakeGateway(), reg)

	got := c.GetValue(context.Background(), "5")
	assert.Equal(t, TitleInvalidIndex, got.Title)
	assert.Contains(t, got.Message, "Count may be incomplete (probe_failed).")

	debug := c.Debug(context.Background())
	require.True(t, debug.Success)
	assert.Equal(t, "Found 2 existing storage contracts\nCount may be incomplete (probe_failed).", debug.Message)

	connected(t, c)
	set := c.SetValue(context.Background(), "7", "1")
	assert.Equal(t, TitleSetFailed, set.Title)
	assert.Contains(t, set.Message, "Count may be incomplete")
}
