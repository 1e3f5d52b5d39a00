// Package provider wraps the wallet provider behind a small gateway.
// Every failure leaving this package is one of the provider error kinds.
package provider

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/metrics"
	"github.com/mrz1836/brewbar/internal/provider/rpc"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// Logger is the subset of config.Logger the gateway writes to.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Gateway issues wallet requests. It is safe for concurrent use.
type Gateway struct {
	client    *rpc.Client
	readRetry chain.RetryConfig
	metrics   *metrics.Metrics
	logger    Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithReadRetry sets the retry policy for read-only calls.
func WithReadRetry(cfg chain.RetryConfig) Option {
	return func(g *Gateway) {
		g.readRetry = cfg
	}
}

// WithMetrics records rejections into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a gateway over client. Reads are not retried unless configured.
func New(client *rpc.Client, opts ...Option) *Gateway {
	g := &Gateway{
		client:    client,
		readRetry: chain.NoRetry(),
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromConfig builds the RPC client and gateway described by cfg.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics, logger Logger) *Gateway {
	clientOpts := []rpc.Option{
		rpc.WithRateLimiter(chain.NewRateLimiter(cfg.Provider.RatePerSecond, cfg.Provider.Burst)),
	}
	if m != nil {
		clientOpts = append(clientOpts, rpc.WithRecorder(m))
	}

	opts := []Option{WithMetrics(m), WithLogger(logger)}
	if cfg.Provider.RetryReads {
		opts = append(opts, WithReadRetry(chain.DefaultRetryConfig()))
	}

	return New(rpc.NewClient(cfg.GetProviderURL(), clientOpts...), opts...)
}

// Endpoint returns the provider URL.
func (g *Gateway) Endpoint() string {
	return g.client.URL()
}

// Close releases transport resources.
func (g *Gateway) Close() {
	g.client.Close()
}

// RequestAccounts asks the wallet for access and returns the first account.
func (g *Gateway) RequestAccounts(ctx context.Context) (string, error) {
	accounts, err := g.client.RequestAccounts(ctx)
	if err != nil {
		return "", g.translate(rpc.MethodRequestAccounts, err)
	}
	if len(accounts) == 0 {
		return "", brewerr.WithMessage(brewerr.ErrProviderError, "wallet returned no accounts")
	}
	g.logger.Debug("provider: %d account(s) exposed", len(accounts))
	return accounts[0], nil
}

// GetBalanceWei returns the latest balance of address as the provider's hex quantity.
func (g *Gateway) GetBalanceWei(ctx context.Context, address string) (string, error) {
	return read(ctx, g, rpc.MethodGetBalance, func() (string, error) {
		return g.client.GetBalance(ctx, address)
	})
}

// SendValue submits a plain value transfer and returns the transaction hash.
func (g *Gateway) SendValue(ctx context.Context, from, to, weiHex string) (string, error) {
	value, err := chain.ParseHexQuantity(weiHex, brewerr.WithDetails(brewerr.ErrInvalidAmount, map[string]string{"value": weiHex}))
	if err != nil {
		return "", err
	}

	hash, err := g.client.SendTransaction(ctx, rpc.TxArgs{From: from, To: to, Value: value})
	if err != nil {
		return "", g.translate(rpc.MethodSendTransaction, err)
	}
	g.logger.Debug("provider: value transfer %s submitted", hash)
	return hash, nil
}

// Call executes a read-only contract call.
func (g *Gateway) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	return read(ctx, g, rpc.MethodCall, func() ([]byte, error) {
		return g.client.EthCall(ctx, rpc.TxArgs{To: to, Data: data})
	})
}

// SendTransaction submits a contract call for signing and returns the transaction hash.
func (g *Gateway) SendTransaction(ctx context.Context, from, to string, data []byte) (string, error) {
	hash, err := g.client.SendTransaction(ctx, rpc.TxArgs{From: from, To: to, Data: data})
	if err != nil {
		return "", g.translate(rpc.MethodSendTransaction, err)
	}
	g.logger.Debug("provider: contract call %s submitted", hash)
	return hash, nil
}

// TransactionReceipt returns the receipt for hash, or nil while it is pending.
func (g *Gateway) TransactionReceipt(ctx context.Context, hash string) (*types.Receipt, error) {
	return read(ctx, g, rpc.MethodGetTransactionReceipt, func() (*types.Receipt, error) {
		return g.client.TransactionReceipt(ctx, hash)
	})
}

// ChainID returns the chain the wallet is connected to.
func (g *Gateway) ChainID(ctx context.Context) (*big.Int, error) {
	return read(ctx, g, rpc.MethodChainID, func() (*big.Int, error) {
		return g.client.ChainID(ctx)
	})
}

// read runs a read-only call under the read retry policy.
func read[T any](ctx context.Context, g *Gateway, method string, op func() (T, error)) (T, error) {
	start := time.Now()
	v, err := chain.RetryWithConfig(ctx, g.readRetry, op)
	if err != nil {
		var zero T
		g.logger.Debug("provider: %s failed after %s", method, time.Since(start).Round(time.Millisecond))
		return zero, g.translate(method, err)
	}
	return v, nil
}

func (g *Gateway) translate(method string, err error) error {
	out := Translate(err)
	switch KindOf(out) {
	case KindUserRejected:
		if g.metrics != nil {
			g.metrics.RecordRejection()
		}
		g.logger.Debug("provider: %s rejected by user", method)
	case KindUnavailable:
		g.logger.Error("provider: %s unavailable: %v", method, err)
	default:
		g.logger.Error("provider: %s: %v", method, err)
	}
	return out
}
