package storefront

import (
	"context"
	"math/big"
	"sync"

	"github.com/mrz1836/brewbar/internal/registry"
	"github.com/mrz1836/brewbar/internal/scan"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

const (
	testAccount = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	testCafe    = "0x1111111111111111111111111111111111111111"
	testFactory = "0x3B750d93970f42b6D08d6e8Ea7544Fb536C9927b"
	testTxHash  = "0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
)

type fakeGateway struct {
	mu         sync.Mutex
	account    string
	accountErr error
	balance    string
	balanceErr error
	sendErr    error
	chainID    *big.Int
	chainErr   error
	sent       []sentValue

	// entered is closed when RequestAccounts starts; release unblocks it.
	entered chan struct{}
	release chan struct{}
}

type sentValue struct {
	from, to, weiHex string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		account: testAccount,
		balance: "0xde0b6b3a7640000",
		chainID: big.NewInt(11155111),
	}
}

func (g *fakeGateway) RequestAccounts(ctx context.Context) (string, error) {
	if g.entered != nil {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.account, g.accountErr
}

func (g *fakeGateway) GetBalanceWei(context.Context, string) (string, error) {
	return g.balance, g.balanceErr
}

func (g *fakeGateway) SendValue(_ context.Context, from, to, weiHex string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.sent = append(g.sent, sentValue{from: from, to: to, weiHex: weiHex})
	return testTxHash, nil
}

func (g *fakeGateway) ChainID(context.Context) (*big.Int, error) {
	return g.chainID, g.chainErr
}

type fakeRegistry struct {
	mu       sync.Mutex
	values   []*big.Int
	stop     scan.Stop
	countErr error
	getErr   error
	setErr   error
	debugErr error
	gets     int
	sets     int
}

func newFakeRegistry(values ...int64) *fakeRegistry {
	r := &fakeRegistry{stop: scan.StopFoundEnd}
	for _, v := range values {
		r.values = append(r.values, big.NewInt(v))
	}
	return r
}

func (r *fakeRegistry) Count(context.Context) (scan.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return scan.Result{}, r.countErr
	}
	return scan.Result{Count: len(r.values), Stop: r.stop, Attempts: len(r.values) + 1}, nil
}

func (r *fakeRegistry) Debug(ctx context.Context) (*registry.DebugState, error) {
	if r.debugErr != nil {
		return nil, r.debugErr
	}
	res, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	state := &registry.DebugState{TotalContracts: res.Count, Scan: res}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.values {
		state.Existing = append(state.Existing, registry.ContractIndexRecord{Index: i, Value: v.String()})
	}
	return state, nil
}

func (r *fakeRegistry) Get(_ context.Context, index int) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.getErr != nil {
		return nil, r.getErr
	}
	if index < 0 || index >= len(r.values) {
		return nil, brewerr.ErrIndexOutOfRange
	}
	return new(big.Int).Set(r.values[index]), nil
}

func (r *fakeRegistry) Set(_ context.Context, _ string, index int, value *big.Int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets++
	if r.setErr != nil {
		return "", r.setErr
	}
	r.values[index] = new(big.Int).Set(value)
	return testTxHash, nil
}

func (r *fakeRegistry) Create(context.Context, string) (*registry.CreateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return nil, r.setErr
	}
	r.values = append(r.values, big.NewInt(0))
	return &registry.CreateResult{Index: len(r.values) - 1, TxHash: testTxHash}, nil
}

func (r *fakeRegistry) calls() (gets, sets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets, r.sets
}
