// Package session owns the wallet connection: account, chain and the
// factory handle bound to the provider.
package session

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/contract"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/metrics"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// ChangeKind classifies a session state change.
type ChangeKind int

const (
	Connected ChangeKind = iota
	Disconnected
	AccountChanged
	// Reinitialized follows a chain change: the handle was rebuilt, or
	// dropped when the new chain is not the target.
	Reinitialized
	// Updated covers loading and error transitions.
	Updated
)

func (k ChangeKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case AccountChanged:
		return "account-changed"
	case Reinitialized:
		return "reinitialized"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// State is a snapshot of the session.
type State struct {
	Account   string
	Connected bool
	ChainID   string // lowercase hex, empty when unknown
	Loading   bool
	LastError string
}

// Change is delivered to subscribers after the state has been updated.
type Change struct {
	Kind  ChangeKind
	State State
}

// Options configures a Manager.
type Options struct {
	Target         config.Network
	FactoryAddress string
}

// Manager mediates between the wallet provider and the rest of the app.
// The zero value is not usable; create one with New.
type Manager struct {
	p    provider.Provider
	opts Options
	log  logrus.FieldLogger

	mu     sync.Mutex
	state  State
	handle *contract.Factory
	sub    provider.Subscription

	lmu       sync.Mutex
	nextID    int
	listeners map[int]func(Change)
}

// New creates a disconnected Manager. Call Start to attach to the provider.
func New(p provider.Provider, opts Options, log logrus.FieldLogger) *Manager {
	return &Manager{
		p:         p,
		opts:      opts,
		log:       log.WithField("module", "session"),
		listeners: make(map[int]func(Change)),
	}
}

// Start subscribes to provider events and reconnects when the provider
// already has an authorized account.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.sub == nil {
		m.sub = m.p.Subscribe(m.onEvent)
	}
	m.mu.Unlock()

	accounts, err := m.p.Accounts(ctx)
	if err != nil {
		m.log.WithError(err).Warn("checking existing connection failed")
		return nil
	}
	if len(accounts) == 0 {
		return nil
	}
	return m.Connect(ctx)
}

// Close releases the provider subscription. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// State returns a snapshot of the session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the factory handle, or nil while none is ready.
func (m *Manager) Handle() *contract.Factory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Provider returns the wallet provider the session is bound to.
func (m *Manager) Provider() provider.Provider { return m.p }

// TargetChainID returns the configured target chain in lowercase hex.
func (m *Manager) TargetChainID() string { return strings.ToLower(m.opts.Target.ChainID) }

// Connect requests account access, puts the provider on the target chain
// and builds the factory handle. While connected it re-resolves the account.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.state.LastError = ""
	m.state.Loading = true
	m.mu.Unlock()
	m.notify(Updated)

	accounts, err := m.p.RequestAccounts(ctx)
	if err != nil {
		return m.connectFailed(err)
	}
	if len(accounts) == 0 {
		return m.connectFailed(errors.New("provider returned no accounts"))
	}
	if err := m.EnsureTargetChain(ctx); err != nil {
		return m.connectFailed(err)
	}
	chainID, err := m.p.ChainID(ctx)
	if err != nil {
		return m.connectFailed(err)
	}
	if !sameChain(chainID, m.opts.Target.ChainID) {
		return m.connectFailed(errors.Mark(
			errors.Newf("wallet is on chain %s, want %s", chainID, m.opts.Target.ChainID),
			errs.ErrNetworkSwitchFailed))
	}
	handle, err := contract.NewFactory(m.opts.FactoryAddress, m.p)
	if err != nil {
		return m.connectFailed(err)
	}

	m.mu.Lock()
	prev := m.state
	m.state = State{
		Account:   accounts[0],
		Connected: true,
		ChainID:   strings.ToLower(chainID),
	}
	m.handle = handle
	m.mu.Unlock()

	kind := Connected
	if prev.Connected {
		kind = Updated
		if !strings.EqualFold(prev.Account, accounts[0]) {
			kind = AccountChanged
		}
	}
	metrics.SessionConnects.WithLabelValues("ok").Inc()
	metrics.SessionConnected.Set(1)
	m.log.WithFields(logrus.Fields{"account": accounts[0], "chain_id": chainID}).Info("wallet connected")
	m.notify(kind)
	return nil
}

func (m *Manager) connectFailed(err error) error {
	if code, ok := provider.ErrorCode(err); ok && code == provider.CodeUserRejected {
		err = errs.Mark(err, errs.ErrUserRejected)
	}
	if !errs.Is(err, errs.ErrUserRejected) {
		err = errs.Mark(err, errs.ErrConnectionFailed)
	}

	m.mu.Lock()
	m.state.Loading = false
	m.state.LastError = errs.ConnectMessage(err)
	m.mu.Unlock()

	metrics.SessionConnects.WithLabelValues("error").Inc()
	m.log.WithError(err).Warn("connecting wallet failed")
	m.notify(Updated)
	return err
}

// Disconnect resets the session without talking to the provider. It does
// nothing when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if !m.state.Connected && m.handle == nil {
		m.mu.Unlock()
		return
	}
	m.state = State{}
	m.handle = nil
	m.mu.Unlock()

	metrics.SessionConnected.Set(0)
	m.log.Info("wallet disconnected")
	m.notify(Disconnected)
}

// ClearError resets LastError.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.state.LastError = ""
	m.mu.Unlock()
	m.notify(Updated)
}

// --- provider events ---

func (m *Manager) onEvent(ev provider.Event) {
	switch ev.Kind {
	case provider.AccountsChanged:
		m.onAccountsChanged(ev.Accounts)
	case provider.ChainChanged:
		m.reinitialize(ev.ChainID)
	case provider.Disconnect:
		m.log.WithError(ev.Err).Debug("provider disconnected")
		m.Disconnect()
	}
}

func (m *Manager) onAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		m.Disconnect()
		return
	}
	m.mu.Lock()
	if !m.state.Connected || strings.EqualFold(m.state.Account, accounts[0]) {
		m.mu.Unlock()
		return
	}
	m.state.Account = accounts[0]
	m.mu.Unlock()

	m.log.WithField("account", accounts[0]).Info("account changed")
	m.notify(AccountChanged)
}

// reinitialize rebuilds the handle after a chain change, or drops it when
// the wallet left the target chain.
func (m *Manager) reinitialize(chainID string) {
	m.mu.Lock()
	if !m.state.Connected {
		m.mu.Unlock()
		return
	}
	m.state.ChainID = strings.ToLower(chainID)
	m.handle = nil
	onTarget := sameChain(chainID, m.opts.Target.ChainID)
	if onTarget {
		h, err := contract.NewFactory(m.opts.FactoryAddress, m.p)
		if err != nil {
			m.state.LastError = errs.Message(errs.Mark(err, errs.ErrContractNotReady))
		} else {
			m.handle = h
		}
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"chain_id": chainID, "on_target": onTarget}).Info("chain changed, session reinitialized")
	m.notify(Reinitialized)
}

// --- listeners ---

// Subscription releases a listener.
type Subscription struct {
	once    sync.Once
	release func()
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() { s.once.Do(s.release) }

// Subscribe registers fn for every state change. fn runs on the goroutine
// that caused the change and must not block.
func (m *Manager) Subscribe(fn func(Change)) *Subscription {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return &Subscription{release: func() {
		m.lmu.Lock()
		delete(m.listeners, id)
		m.lmu.Unlock()
	}}
}

func (m *Manager) notify(kind ChangeKind) {
	ch := Change{Kind: kind, State: m.State()}

	m.lmu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	m.lmu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		m.lmu.Lock()
		fn, ok := m.listeners[id]
		m.lmu.Unlock()
		if ok {
			fn(ch)
		}
	}
}

func sameChain(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	x, errA := config.ParseChainID(a)
	y, errB := config.ParseChainID(b)
	return errA == nil && errB == nil && x.Cmp(y) == 0
}
