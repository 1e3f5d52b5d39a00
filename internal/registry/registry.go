// Package registry drives the StorageFactory contract: it discovers how many
// storage contracts exist and reads or writes the value held at an index.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/metrics"
	"github.com/mrz1836/brewbar/internal/provider"
	"github.com/mrz1836/brewbar/internal/scan"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// ErrorReading is the value reported for an index whose read failed.
const ErrorReading = "Error reading"

// Provider is the part of the wallet gateway the registry needs.
type Provider interface {
	Call(ctx context.Context, to string, data []byte) ([]byte, error)
	SendTransaction(ctx context.Context, from, to string, data []byte) (string, error)
	TransactionReceipt(ctx context.Context, hash string) (*types.Receipt, error)
}

// Logger is the subset of config.Logger the registry writes to.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options tune probing and confirmation.
type Options struct {
	MaxProbe        int           // probe bound, defaults to config.DefaultMaxProbe
	StrictProbe     bool          // return probe read failures instead of stopping quietly
	PollInterval    time.Duration // receipt polling interval
	ReadConcurrency int           // parallel sfGet reads in Debug
	ConfirmTimeout  time.Duration // 0 waits until the receipt arrives
}

// OptionsFromConfig converts the registry config section.
func OptionsFromConfig(cfg config.RegistryConfig) Options {
	return Options{
		MaxProbe:        cfg.MaxProbe,
		StrictProbe:     cfg.StrictProbe,
		PollInterval:    time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		ReadConcurrency: cfg.ReadConcurrency,
		ConfirmTimeout:  time.Duration(cfg.ConfirmTimeoutMs) * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxProbe < 1 || o.MaxProbe > config.DefaultMaxProbe {
		o.MaxProbe = config.DefaultMaxProbe
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.ReadConcurrency < 1 {
		o.ReadConcurrency = 1
	}
	return o
}

// ContractIndexRecord is the value read from one storage contract.
type ContractIndexRecord struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	Value   string `json:"value"`
}

// DebugState is the registry snapshot returned by Debug.
type DebugState struct {
	TotalContracts int                   `json:"total_contracts"`
	Existing       []ContractIndexRecord `json:"existing_values"`
	Scan           scan.Result           `json:"scan"`
}

// CreateResult describes a newly created storage contract.
type CreateResult struct {
	Index  int    `json:"index"`
	TxHash string `json:"tx_hash"`
}

// Message returns the confirmation shown to the user.
func (r CreateResult) Message() string {
	return fmt.Sprintf("New storage contract created at index %d", r.Index)
}

// Registry talks to one StorageFactory deployment.
type Registry struct {
	provider Provider
	address  common.Address
	codec    codec
	opts     Options
	logger   Logger
	metrics  *metrics.Metrics
}

// New creates a registry client for the factory at address.
func New(p Provider, address string, opts Options, logger Logger, m *metrics.Metrics) (*Registry, error) {
	if err := chain.ValidateAddress(address); err != nil {
		return nil, err
	}
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Registry{
		provider: p,
		address:  common.HexToAddress(address),
		codec:    c,
		opts:     opts.withDefaults(),
		logger:   logger,
		metrics:  m,
	}, nil
}

// Address returns the factory address.
func (r *Registry) Address() common.Address {
	return r.address
}

// Count reports how many storage contracts exist.
func (r *Registry) Count(ctx context.Context) (scan.Result, error) {
	res, _, err := r.entries(ctx)
	return res, err
}

// entries probes listOfSimpleStorageContracts from index 0.
// A revert marks the end of the list, like the zero address does.
func (r *Registry) entries(ctx context.Context) (scan.Result, []common.Address, error) {
	probe := func(ctx context.Context, i int) (common.Address, error) {
		data, err := r.codec.packEntryAt(i)
		if err != nil {
			return common.Address{}, err
		}
		out, err := r.provider.Call(ctx, r.address.Hex(), data)
		if err != nil {
			if isRevert(err) {
				r.logger.Debug("registry: entry %d reverted, treating as end of list", i)
				return common.Address{}, nil
			}
			return common.Address{}, err
		}
		return r.codec.unpackAddress(MethodEntryAt, out)
	}

	res, addrs := scan.Run(ctx, r.opts.MaxProbe, probe, chain.IsZeroAddress)
	if r.metrics != nil {
		r.metrics.RecordProbe(res.Attempts)
	}
	r.logger.Debug("registry: found %d storage contracts (%s after %d reads)", res.Count, res.Stop, res.Attempts)

	if res.Stop == scan.StopProbeFailed {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, addrs, brewerr.WithCause(brewerr.ErrTimeout, ctxErr)
		}
		r.logger.Error("registry: probe read %d failed: %v", res.Attempts-1, res.Err)
		// A partial count is only usable when something was read and the provider is reachable.
		if provider.KindOf(res.Err) == provider.KindUnavailable {
			return res, addrs, res.Err
		}
		if r.opts.StrictProbe || res.Count == 0 {
			return res, addrs, brewerr.WithCause(
				brewerr.WithDetails(brewerr.ErrProbeFailed, map[string]string{
					"index": strconv.Itoa(res.Attempts - 1),
				}), res.Err)
		}
	}
	return res, addrs, nil
}

// Debug reads the value of every existing storage contract.
// Failed reads are reported as ErrorReading.
func (r *Registry) Debug(ctx context.Context) (*DebugState, error) {
	res, addrs, err := r.entries(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ContractIndexRecord, res.Count)
	g := new(errgroup.Group)
	g.SetLimit(r.opts.ReadConcurrency)
	for i := range records {
		g.Go(func() error {
			records[i] = ContractIndexRecord{Index: i, Address: addrs[i].Hex(), Value: ErrorReading}
			v, readErr := r.read(ctx, i)
			if readErr != nil {
				r.logger.Debug("registry: reading index %d: %v", i, readErr)
				return nil
			}
			records[i].Value = v.String()
			return nil
		})
	}
	_ = g.Wait()

	return &DebugState{TotalContracts: res.Count, Existing: records, Scan: res}, nil
}

// Get returns the value stored at index. Indexes at or past the count are
// rejected without calling the contract.
func (r *Registry) Get(ctx context.Context, index int) (*big.Int, error) {
	if err := checkIndex(index); err != nil {
		return nil, err
	}

	res, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if index >= res.Count {
		return nil, outOfRange(index, res.Count,
			fmt.Sprintf("Index %d doesn't exist. Only %d storage contracts created.", index, res.Count))
	}

	v, err := r.read(ctx, index)
	if err != nil {
		if isRevert(err) {
			return nil, outOfRange(index, res.Count,
				fmt.Sprintf("Storage contract at index %d doesn't exist yet. Create it first.", index))
		}
		return nil, err
	}
	return v, nil
}

// Set stores value at index, waits for the transaction to be mined and
// returns its hash.
func (r *Registry) Set(ctx context.Context, from string, index int, value *big.Int) (string, error) {
	if err := checkIndex(index); err != nil {
		return "", err
	}
	if value == nil || value.Sign() < 0 {
		return "", brewerr.WithMessage(brewerr.ErrInvalidInput, "Please enter a valid number")
	}

	res, err := r.Count(ctx)
	if err != nil {
		return "", err
	}
	if index >= res.Count {
		return "", outOfRange(index, res.Count,
			fmt.Sprintf("Cannot set value: Storage contract at index %d doesn't exist. Create it first.", index))
	}

	data, err := r.codec.packStore(index, value)
	if err != nil {
		return "", brewerr.WithCause(brewerr.WithMessage(brewerr.ErrInvalidInput, "Please enter a valid number"), err)
	}

	hash, err := r.provider.SendTransaction(ctx, from, r.address.Hex(), data)
	if err != nil {
		if isRevert(err) {
			return "", outOfRange(index, res.Count,
				fmt.Sprintf("Storage contract at index %d doesn't exist. Create it first.", index))
		}
		return "", err
	}
	r.logger.Debug("registry: sfStore(%d, %s) submitted as %s", index, value, hash)

	if _, err := r.WaitMined(ctx, hash); err != nil {
		return hash, err
	}
	return hash, nil
}

// Create deploys a new storage contract through the factory and returns its index.
func (r *Registry) Create(ctx context.Context, from string) (*CreateResult, error) {
	data, err := r.codec.packCreate()
	if err != nil {
		return nil, err
	}

	hash, err := r.provider.SendTransaction(ctx, from, r.address.Hex(), data)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("registry: createSimpleStorageContract submitted as %s", hash)

	if _, err := r.WaitMined(ctx, hash); err != nil {
		return nil, err
	}

	res, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return nil, brewerr.WithCause(brewerr.WithDetails(brewerr.ErrProbeFailed, map[string]string{"tx": hash}), res.Err)
	}
	return &CreateResult{Index: res.Count - 1, TxHash: hash}, nil
}

// WaitMined polls for the receipt of hash until it is mined or ctx ends.
// A receipt with failed status yields ErrTxReverted.
func (r *Registry) WaitMined(ctx context.Context, hash string) (*types.Receipt, error) {
	if r.opts.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ConfirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := r.provider.TransactionReceipt(ctx, hash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, brewerr.WithDetails(brewerr.ErrTxReverted, map[string]string{"tx": hash})
			}
			r.logger.Debug("registry: %s mined in block %s", hash, receipt.BlockNumber)
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, brewerr.WithCause(
				brewerr.WithDetails(brewerr.ErrTimeout, map[string]string{"tx": hash}), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Registry) read(ctx context.Context, index int) (*big.Int, error) {
	data, err := r.codec.packGet(index)
	if err != nil {
		return nil, err
	}
	out, err := r.provider.Call(ctx, r.address.Hex(), data)
	if err != nil {
		return nil, err
	}
	return r.codec.unpackUint(MethodGet, out)
}

func checkIndex(index int) error {
	if index < 0 {
		return brewerr.WithDetails(
			brewerr.WithMessage(brewerr.ErrInvalidInput, "Invalid Index"),
			map[string]string{"index": strconv.Itoa(index)})
	}
	return nil
}

func outOfRange(index, count int, message string) error {
	return brewerr.WithDetails(
		brewerr.WithMessage(brewerr.ErrIndexOutOfRange, message),
		map[string]string{"index": strconv.Itoa(index), "count": strconv.Itoa(count)})
}

// revertMarkers are substrings wallets use for a failed contract execution.
var revertMarkers = []string{"revert", "array_range_error", "out-of-bounds", "out of bounds"}

// isRevert reports whether a provider error is a contract-level failure
// rather than a transport or wallet failure.
func isRevert(err error) bool {
	if err == nil || errors.Is(err, brewerr.ErrTimeout) || errors.Is(err, brewerr.ErrProviderUnavailable) ||
		errors.Is(err, brewerr.ErrUserRejected) {
		return false
	}
	var se *brewerr.BrewError
	if errors.As(err, &se) && se.Details["code"] == "3" {
		return true
	}
	msg := strings.ToLower(brewerr.Message(err))
	for _, marker := range revertMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
