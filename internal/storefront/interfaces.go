package storefront

import (
	"context"
	"math/big"

	"github.com/mrz1836/brewbar/internal/registry"
	"github.com/mrz1836/brewbar/internal/scan"
)

// Gateway is the wallet provider as the storefront uses it.
type Gateway interface {
	RequestAccounts(ctx context.Context) (string, error)
	GetBalanceWei(ctx context.Context, address string) (string, error)
	SendValue(ctx context.Context, from, to, weiHex string) (string, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Registry is the StorageFactory client as the storefront uses it.
type Registry interface {
	Count(ctx context.Context) (scan.Result, error)
	Debug(ctx context.Context) (*registry.DebugState, error)
	Get(ctx context.Context, index int) (*big.Int, error)
	Set(ctx context.Context, from string, index int, value *big.Int) (string, error)
	Create(ctx context.Context, from string) (*registry.CreateResult, error)
}

// Logger is the subset of config.Logger the storefront writes to.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Compile-time interface checks.
var _ Registry = (*registry.Registry)(nil)
