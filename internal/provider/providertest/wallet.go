// Package providertest provides an in-process JSON-RPC wallet for tests.
package providertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mrz1836/brewbar/internal/provider/rpc"
)

// Default identities of the fake wallet.
const (
	Account = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	ChainID = "0xaa36a7"
	Balance = "0xde0b6b3a7640000" // 1 ETH
)

// HandlerFunc answers one JSON-RPC method.
type HandlerFunc func(params []json.RawMessage) (any, *rpc.Error)

// Wallet is a fake EIP-1193 provider served over HTTP.
type Wallet struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    map[string]int
	sent     []json.RawMessage
	nextTx   int
}

// New starts a wallet that exposes Account on ChainID with Balance.
// Transactions are accepted and mined immediately with status 1.
func New(t testing.TB) *Wallet {
	t.Helper()

	w := &Wallet{
		handlers: make(map[string]HandlerFunc),
		calls:    make(map[string]int),
	}
	w.Handle(rpc.MethodChainID, Result(ChainID))
	w.Handle(rpc.MethodRequestAccounts, Result([]string{Account}))
	w.Handle(rpc.MethodGetBalance, Result(Balance))
	w.Handle(rpc.MethodSendTransaction, func([]json.RawMessage) (any, *rpc.Error) {
		return w.txHash(), nil
	})
	w.Handle(rpc.MethodGetTransactionReceipt, func(params []json.RawMessage) (any, *rpc.Error) {
		var hash string
		if len(params) > 0 {
			_ = json.Unmarshal(params[0], &hash)
		}
		return Receipt(hash, 1), nil
	})

	w.server = httptest.NewServer(http.HandlerFunc(w.serve))
	t.Cleanup(w.server.Close)
	return w
}

// URL returns the wallet endpoint.
func (w *Wallet) URL() string {
	return w.server.URL
}

// Close stops the server. Later requests fail as unreachable.
func (w *Wallet) Close() {
	w.server.Close()
}

// Handle replaces the handler for method.
func (w *Wallet) Handle(method string, fn HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[method] = fn
}

// Reject makes method fail with the EIP-1193 user rejection error.
func (w *Wallet) Reject(method, message string) {
	w.Handle(method, Fail(4001, message))
}

// Calls returns how many times method was requested.
func (w *Wallet) Calls(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[method]
}

// Sent returns the transaction objects passed to eth_sendTransaction.
func (w *Wallet) Sent() []json.RawMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]json.RawMessage(nil), w.sent...)
}

func (w *Wallet) txHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextTx++
	return fmt.Sprintf("0x%064x", w.nextTx)
}

func (w *Wallet) serve(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     uint64            `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	w.calls[req.Method]++
	if req.Method == rpc.MethodSendTransaction && len(req.Params) > 0 {
		w.sent = append(w.sent, req.Params[0])
	}
	handler, ok := w.handlers[req.Method]
	w.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &rpc.Error{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
	} else if result, rpcErr := handler(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

// Result returns a handler that always answers v.
func Result(v any) HandlerFunc {
	return func([]json.RawMessage) (any, *rpc.Error) {
		return v, nil
	}
}

// Fail returns a handler that always answers with a JSON-RPC error.
func Fail(code int, message string) HandlerFunc {
	return func([]json.RawMessage) (any, *rpc.Error) {
		return nil, &rpc.Error{Code: code, Message: message}
	}
}

// Receipt builds a minimal mined receipt accepted by go-ethereum's decoder.
func Receipt(hash string, status uint64) map[string]any {
	if hash == "" {
		hash = "0x" + strings.Repeat("00", 32)
	}
	return map[string]any{
		"status":            fmt.Sprintf("0x%x", status),
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"logsBloom":         "0x" + strings.Repeat("00", 256),
		"logs":              []any{},
		"transactionHash":   hash,
		"blockNumber":       "0x1",
	}
}

// Word encodes n as a 32-byte ABI word.
func Word(n uint64) string {
	return fmt.Sprintf("0x%064x", n)
}

// AddressWord encodes a 20-byte address as a 32-byte ABI word.
func AddressWord(addr string) string {
	return "0x" + strings.Repeat("0", 24) + strings.ToLower(strings.TrimPrefix(addr, "0x"))
}
