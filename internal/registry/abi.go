package registry

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// StorageFactory method names.
const (
	MethodEntryAt = "listOfSimpleStorageContracts"
	MethodCreate  = "createSimpleStorageContract"
	MethodGet     = "sfGet"
	MethodStore   = "sfStore"
)

//go:embed storage_factory.abi.json
var factoryABIJSON string

var factoryABI = sync.OnceValues(func() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(factoryABIJSON))
})

// FactoryABI returns the parsed StorageFactory ABI.
func FactoryABI() (abi.ABI, error) {
	return factoryABI()
}

// codec packs and unpacks StorageFactory calls.
type codec struct {
	abi abi.ABI
}

func newCodec() (codec, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return codec{}, fmt.Errorf("parsing StorageFactory ABI: %w", err)
	}
	return codec{abi: parsed}, nil
}

func (c codec) packEntryAt(i int) ([]byte, error) {
	return c.abi.Pack(MethodEntryAt, big.NewInt(int64(i)))
}

func (c codec) packGet(i int) ([]byte, error) {
	return c.abi.Pack(MethodGet, big.NewInt(int64(i)))
}

func (c codec) packStore(i int, value *big.Int) ([]byte, error) {
	return c.abi.Pack(MethodStore, big.NewInt(int64(i)), value)
}

func (c codec) packCreate() ([]byte, error) {
	return c.abi.Pack(MethodCreate)
}

func (c codec) unpackAddress(method string, data []byte) (common.Address, error) {
	out, err := c.abi.Unpack(method, data)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return addr, nil
}

func (c codec) unpackUint(method string, data []byte) (*big.Int, error) {
	out, err := c.abi.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return n, nil
}
