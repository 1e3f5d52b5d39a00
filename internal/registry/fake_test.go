package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/brewbar/internal/provider"
	"github.com/mrz1836/brewbar/internal/provider/rpc"
)

const (
	testFactory = "0x3B750d93970f42b6D08d6e8Ea7544Fb536C9927b"
	testFrom    = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
)

var errNetwork = errors.New("network down")

// fakeFactory is an in-memory StorageFactory behind the Provider interface.
type fakeFactory struct {
	mu    sync.Mutex
	codec codec

	values       []*big.Int
	zeroPastEnd  bool // answer the zero address past the end instead of reverting
	endless      bool // every index holds a contract
	failEntryAt  int  // entry index whose read fails with entryErr, -1 for none
	entryErr     error
	failGet      map[int]bool
	revertGet    bool  // sfGet reverts for every index
	sendErr      error // returned by SendTransaction
	minedStatus  uint64
	pendingPolls int  // receipt polls answered with nil before mining
	neverMine    bool // receipts stay pending

	calls  map[string]int
	nextTx int
	txs    map[string]func()
}

func newFakeFactory(n int) *fakeFactory {
	c, err := newCodec()
	if err != nil {
		panic(err)
	}
	f := &fakeFactory{
		codec:       c,
		failEntryAt: -1,
		failGet:     make(map[int]bool),
		minedStatus: types.ReceiptStatusSuccessful,
		calls:       make(map[string]int),
		txs:         make(map[string]func()),
	}
	for i := 0; i < n; i++ {
		f.values = append(f.values, big.NewInt(0))
	}
	return f
}

func (f *fakeFactory) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func contractAddress(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x1000 + i)))
}

func revert() error {
	return provider.Translate(&rpc.Error{Code: 3, Message: "execution reverted"})
}

func (f *fakeFactory) decode(data []byte) (string, []any, error) {
	method, err := f.codec.abi.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, err
	}
	return method.Name, args, nil
}

func (f *fakeFactory) Call(_ context.Context, to string, data []byte) ([]byte, error) {
	if to != common.HexToAddress(testFactory).Hex() {
		return nil, fmt.Errorf("unexpected target %s", to)
	}
	name, args, err := f.decode(data)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	i := int(args[0].(*big.Int).Int64())

	switch name {
	case MethodEntryAt:
		if i == f.failEntryAt {
			return nil, f.entryErr
		}
		if i >= len(f.values) && !f.endless {
			if f.zeroPastEnd {
				return f.codec.abi.Methods[MethodEntryAt].Outputs.Pack(common.Address{})
			}
			return nil, revert()
		}
		return f.codec.abi.Methods[MethodEntryAt].Outputs.Pack(contractAddress(i))
	case MethodGet:
		if f.revertGet || i >= len(f.values) {
			return nil, revert()
		}
		if f.failGet[i] {
			return nil, errNetwork
		}
		return f.codec.abi.Methods[MethodGet].Outputs.Pack(f.values[i])
	default:
		return nil, fmt.Errorf("%s is not a view", name)
	}
}

func (f *fakeFactory) SendTransaction(_ context.Context, _, _ string, data []byte) (string, error) {
	name, args, err := f.decode(data)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.sendErr != nil {
		return "", f.sendErr
	}

	f.nextTx++
	hash := fmt.Sprintf("0x%064x", f.nextTx)
	switch name {
	case MethodStore:
		i := int(args[0].(*big.Int).Int64())
		v := args[1].(*big.Int)
		f.txs[hash] = func() { f.values[i] = v }
	case MethodCreate:
		f.txs[hash] = func() { f.values = append(f.values, big.NewInt(0)) }
	}
	return hash, nil
}

func (f *fakeFactory) TransactionReceipt(_ context.Context, hash string) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["receipt"]++

	if f.neverMine {
		return nil, nil
	}
	if f.pendingPolls > 0 {
		f.pendingPolls--
		return nil, nil
	}
	if apply, ok := f.txs[hash]; ok {
		if f.minedStatus == types.ReceiptStatusSuccessful {
			apply()
		}
		delete(f.txs, hash)
	}
	return &types.Receipt{Status: f.minedStatus, TxHash: common.HexToHash(hash), BlockNumber: big.NewInt(1)}, nil
}
