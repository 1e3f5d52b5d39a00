package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// Method names used by the wallet provider.
const (
	MethodRequestAccounts       = "eth_requestAccounts"
	MethodGetBalance            = "eth_getBalance"
	MethodSendTransaction       = "eth_sendTransaction"
	MethodCall                  = "eth_call"
	MethodGetTransactionReceipt = "eth_getTransactionReceipt"
	MethodChainID               = "eth_chainId"
)

// TxArgs are the parameters for eth_sendTransaction and eth_call.
// The wallet fills in gas, nonce and fees.
type TxArgs struct {
	From  string
	To    string
	Value *big.Int
	Data  []byte
}

// MarshalJSON encodes quantities and data as hex, omitting empty fields.
func (a TxArgs) MarshalJSON() ([]byte, error) {
	type txArgsJSON struct {
		From  string `json:"from,omitempty"`
		To    string `json:"to"`
		Value string `json:"value,omitempty"`
		Data  string `json:"data,omitempty"`
	}

	msg := txArgsJSON{
		From: a.From,
		To:   a.To,
	}
	if a.Value != nil {
		msg.Value = hexutil.EncodeBig(a.Value)
	}
	if len(a.Data) > 0 {
		msg.Data = hexutil.Encode(a.Data)
	}

	return json.Marshal(msg)
}

// RequestAccounts asks the wallet to expose its accounts.
func (c *Client) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.CallResult(ctx, &accounts, MethodRequestAccounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetBalance returns the balance of address at the latest block as a hex quantity.
func (c *Client) GetBalance(ctx context.Context, address string) (string, error) {
	var hexVal string
	if err := c.CallResult(ctx, &hexVal, MethodGetBalance, address, "latest"); err != nil {
		return "", err
	}
	return hexVal, nil
}

// SendTransaction submits a transaction for the wallet to sign and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, args TxArgs) (string, error) {
	var txHash string
	if err := c.CallResult(ctx, &txHash, MethodSendTransaction, args); err != nil {
		return "", err
	}
	return txHash, nil
}

// EthCall executes a read-only call at the latest block.
func (c *Client) EthCall(ctx context.Context, args TxArgs) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.CallResult(ctx, &out, MethodCall, args, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionReceipt returns the receipt for hash, or nil while the transaction is pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*types.Receipt, error) {
	raw, err := c.Call(ctx, MethodGetTransactionReceipt, hash)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil //nolint:nilnil // pending transactions have no receipt
	}

	var receipt types.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, brewerr.WithCause(
			brewerr.WithDetails(ErrRPCResponse, map[string]string{"method": MethodGetTransactionReceipt}), err)
	}
	return &receipt, nil
}

// ChainID returns the chain the wallet is connected to.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.CallResult(ctx, &id, MethodChainID); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}
