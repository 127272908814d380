// Package provider defines the wallet boundary the session talks to and a
// local keychain-backed implementation of it.
package provider

import (
	"context"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
)

// Provider is an EIP-1193 style wallet: it owns accounts and the selected
// chain, and relays reads and signed transactions to that chain.
type Provider interface {
	// RequestAccounts asks the user to authorize at least one account.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Accounts returns already authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)
	// ChainID returns the selected chain as a 0x-prefixed hex string.
	ChainID(ctx context.Context) (string, error)
	SwitchChain(ctx context.Context, chainID string) error
	AddChain(ctx context.Context, params ChainParams) error
	Subscribe(fn func(Event)) Subscription

	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, msg chain.CallMsg) (hash string, err error)
	WaitForReceipt(ctx context.Context, hash string) (*chain.Receipt, error)
}

// ChainParams is the wallet_addEthereumChain parameter set.
type ChainParams struct {
	ChainID           string
	ChainName         string
	NativeCurrency    Currency
	RPCURLs           []string
	BlockExplorerURLs []string
}

// Currency describes a chain's native currency.
type Currency struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// EventKind identifies a provider notification.
type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
	Disconnect
)

func (k EventKind) String() string {
	switch k {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	case Disconnect:
		return "disconnect"
	}
	return "unknown"
}

// Event is delivered to subscribers. Accounts is set for AccountsChanged,
// ChainID for ChainChanged and Err for Disconnect.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  string
	Err      error
}

// Subscription is released with Unsubscribe. Calling it twice is safe.
type Subscription interface {
	Unsubscribe()
}
