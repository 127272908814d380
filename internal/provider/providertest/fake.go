// Package providertest provides a scriptable in-memory wallet provider.
package providertest

import (
	"context"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
)

// Fake is a Provider whose answers are set by the test. Zero-valued hooks
// fall back to simple in-memory behaviour.
type Fake struct {
	events provider.Emitter

	mu          sync.Mutex
	accounts    []string
	authorized  bool
	chainID     string
	knownChains map[string]bool

	// RequestErr, SwitchErr and AddErr fail the matching call when set.
	RequestErr error
	SwitchErr  error
	AddErr     error

	CallFunc     func(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	EstimateFunc func(ctx context.Context, msg chain.CallMsg) (uint64, error)
	SendFunc     func(ctx context.Context, msg chain.CallMsg) (string, error)
	WaitFunc     func(ctx context.Context, hash string) (*chain.Receipt, error)
	AccountsErr  error
	ChainIDErr   error

	// Counters and captured arguments.
	SwitchRequests int
	AddRequests    int
	AccessRequests int
	LastAdd        provider.ChainParams
	Sent           []chain.CallMsg
}

var _ provider.Provider = (*Fake)(nil)

// New returns a fake with one account on chainID. The account is not yet
// authorized unless authorized is true.
func New(account, chainID string, authorized bool) *Fake {
	return &Fake{
		accounts:    []string{account},
		authorized:  authorized,
		chainID:     strings.ToLower(chainID),
		knownChains: map[string]bool{strings.ToLower(chainID): true, "0x1": true},
	}
}

// KnowChain makes SwitchChain accept id without a 4902.
func (f *Fake) KnowChain(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.knownChains[strings.ToLower(id)] = true
}

func (f *Fake) RequestAccounts(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AccessRequests++
	if f.RequestErr != nil {
		return nil, f.RequestErr
	}
	f.authorized = true
	return append([]string(nil), f.accounts...), nil
}

func (f *Fake) Accounts(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AccountsErr != nil {
		return nil, f.AccountsErr
	}
	if !f.authorized {
		return []string{}, nil
	}
	return append([]string(nil), f.accounts...), nil
}

func (f *Fake) ChainID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ChainIDErr != nil {
		return "", f.ChainIDErr
	}
	return f.chainID, nil
}

func (f *Fake) SwitchChain(_ context.Context, id string) error {
	f.mu.Lock()
	f.SwitchRequests++
	if f.SwitchErr != nil {
		err := f.SwitchErr
		f.mu.Unlock()
		return err
	}
	id = strings.ToLower(id)
	if !f.knownChains[id] {
		f.mu.Unlock()
		return provider.NewError(provider.CodeUnrecognizedChain, "Unrecognized chain ID %q.", id)
	}
	f.chainID = id
	f.mu.Unlock()

	f.events.Emit(provider.Event{Kind: provider.ChainChanged, ChainID: id})
	return nil
}

func (f *Fake) AddChain(_ context.Context, p provider.ChainParams) error {
	f.mu.Lock()
	f.AddRequests++
	f.LastAdd = p
	if f.AddErr != nil {
		err := f.AddErr
		f.mu.Unlock()
		return err
	}
	id := strings.ToLower(p.ChainID)
	f.knownChains[id] = true
	f.chainID = id
	f.mu.Unlock()

	f.events.Emit(provider.Event{Kind: provider.ChainChanged, ChainID: id})
	return nil
}

func (f *Fake) Subscribe(fn func(provider.Event)) provider.Subscription {
	return f.events.Subscribe(fn)
}

// Subscribers returns the number of live subscriptions.
func (f *Fake) Subscribers() int { return f.events.Len() }

func (f *Fake) Call(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	if f.CallFunc == nil {
		return nil, provider.NewError(provider.CodeUnsupportedMethod, "eth_call not scripted")
	}
	return f.CallFunc(ctx, msg)
}

func (f *Fake) EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error) {
	if f.EstimateFunc == nil {
		return 21000, nil
	}
	return f.EstimateFunc(ctx, msg)
}

func (f *Fake) SendTransaction(ctx context.Context, msg chain.CallMsg) (string, error) {
	f.mu.Lock()
	f.Sent = append(f.Sent, msg)
	f.mu.Unlock()
	if f.SendFunc == nil {
		return "0x01", nil
	}
	return f.SendFunc(ctx, msg)
}

func (f *Fake) WaitForReceipt(ctx context.Context, hash string) (*chain.Receipt, error) {
	if f.WaitFunc == nil {
		return &chain.Receipt{TxHash: hash, Status: 1}, nil
	}
	return f.WaitFunc(ctx, hash)
}

// --- event injection ---

// EmitAccounts simulates the user switching or disconnecting accounts.
func (f *Fake) EmitAccounts(accounts ...string) {
	f.mu.Lock()
	f.accounts = accounts
	f.authorized = len(accounts) > 0
	f.mu.Unlock()
	f.events.Emit(provider.Event{Kind: provider.AccountsChanged, Accounts: append([]string{}, accounts...)})
}

// EmitChain simulates the user changing network in the wallet.
func (f *Fake) EmitChain(id string) {
	f.mu.Lock()
	f.chainID = strings.ToLower(id)
	f.mu.Unlock()
	f.events.Emit(provider.Event{Kind: provider.ChainChanged, ChainID: strings.ToLower(id)})
}

// EmitDisconnect simulates the wallet going away.
func (f *Fake) EmitDisconnect() {
	f.events.Emit(provider.Event{Kind: provider.Disconnect, Err: provider.NewError(provider.CodeDisconnected, "gone")})
}
