// Package session holds the wallet connection state for one user of the storefront.
// A Session is created by the UI layer and passed explicitly to the actions
// that need it. Nothing is persisted; the state ends with the process.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/mrz1836/brewbar/internal/chain"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// Gateway is the part of the wallet provider a session uses.
type Gateway interface {
	RequestAccounts(ctx context.Context) (string, error)
	GetBalanceWei(ctx context.Context, address string) (string, error)
}

// WalletState is a snapshot of the connection record.
// Connected implies Address is set.
type WalletState struct {
	Connected bool    `json:"connected"`
	Address   *string `json:"address"`
	Balance   *string `json:"balance"` // ETH with four decimals, nil until fetched
}

// Session is the mutable connection record.
type Session struct {
	mu          sync.Mutex
	state       WalletState
	connectedAt time.Time
}

// New returns a disconnected session.
func New() *Session {
	return &Session{}
}

// Connect requests account access and records the first account.
// On failure the session is left as it was.
func (s *Session) Connect(ctx context.Context, gw Gateway) (string, error) {
	address, err := gw.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Address == nil || *s.state.Address != address {
		s.state.Balance = nil
	}
	s.state.Connected = true
	s.state.Address = &address
	s.connectedAt = time.Now()
	return address, nil
}

// Disconnect resets every field, whatever the prior state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = WalletState{}
	s.connectedAt = time.Time{}
}

// RefreshBalance fetches the balance of the connected account and stores it
// formatted to four decimals. A failed fetch leaves the stored balance unchanged.
// A result that arrives after the account changed is discarded.
func (s *Session) RefreshBalance(ctx context.Context, gw Gateway) (string, error) {
	address, ok := s.Address()
	if !ok {
		return "", brewerr.ErrNotConnected
	}

	hexBalance, err := gw.GetBalanceWei(ctx, address)
	if err != nil {
		return "", err
	}

	wei, err := chain.ParseHexQuantity(hexBalance,
		brewerr.WithMessage(brewerr.ErrProviderError, "wallet returned a malformed balance: "+hexBalance))
	if err != nil {
		return "", err
	}
	formatted := chain.FormatBalance(wei)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Connected || s.state.Address == nil || *s.state.Address != address {
		return "", brewerr.WithMessage(brewerr.ErrNotConnected, "wallet changed while the balance was loading")
	}
	s.state.Balance = &formatted
	return formatted, nil
}

// State returns a copy of the connection record.
func (s *Session) State() WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := WalletState{Connected: s.state.Connected}
	if s.state.Address != nil {
		addr := *s.state.Address
		out.Address = &addr
	}
	if s.state.Balance != nil {
		bal := *s.state.Balance
		out.Balance = &bal
	}
	return out
}

// Address returns the connected account.
func (s *Session) Address() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Connected || s.state.Address == nil {
		return "", false
	}
	return *s.state.Address, true
}

// IsConnected reports whether a wallet account is connected.
func (s *Session) IsConnected() bool {
	_, ok := s.Address()
	return ok
}

// ConnectedFor returns how long the current connection has lasted.
func (s *Session) ConnectedFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectedAt.IsZero() {
		return 0
	}
	return time.Since(s.connectedAt)
}
