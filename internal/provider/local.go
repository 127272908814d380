package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/rpc"
	"github.com/Mohsinsiddi/memefactory/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// mainnetChainID is where a fresh local wallet points, like a new browser
// wallet install.
const mainnetChainID = "0x1"

// RequestKind says what the user is being asked to approve.
type RequestKind int

const (
	RequestConnect RequestKind = iota
	RequestSwitchChain
	RequestAddChain
	RequestTransaction
)

// Request is shown to the user before a privileged action.
type Request struct {
	Kind    RequestKind
	Account string
	ChainID string
	Chain   string // display name of the chain involved
	Tx      *chain.CallMsg
}

// ApproveFunc asks the user to confirm r. Returning false rejects with 4001.
type ApproveFunc func(ctx context.Context, r Request) (bool, error)

// AutoApprove accepts every request.
func AutoApprove(context.Context, Request) (bool, error) { return true, nil }

// LocalOptions configures a Local provider.
type LocalOptions struct {
	Wallets     *wallet.Manager
	Permissions *wallet.Permissions
	// Approve gates connect, switch, add and send. Nil rejects everything.
	Approve  ApproveFunc
	Networks *chain.Registry
	// Algorithm picks among a chain's RPC URLs.
	Algorithm      rpc.Algorithm
	ConfirmTimeout time.Duration
	PollEvery      time.Duration
	Log            logrus.FieldLogger
}

// Local is a Provider backed by the wallet manager and the keychain.
type Local struct {
	opts   LocalOptions
	log    logrus.FieldLogger
	picker *rpc.Picker
	events Emitter

	mu      sync.Mutex
	active  string // wallet name; empty means the manager's default
	clients map[string]*chain.EVMClient
	closed  bool
}

var _ Provider = (*Local)(nil)

// NewLocal creates a local provider.
func NewLocal(opts LocalOptions) *Local {
	if opts.Permissions == nil {
		opts.Permissions = wallet.NewPermissions("")
	}
	if opts.Networks == nil {
		opts.Networks = chain.NewRegistry()
	}
	if opts.ConfirmTimeout == 0 {
		opts.ConfirmTimeout = config.TxConfirmTimeout
	}
	if opts.PollEvery == 0 {
		opts.PollEvery = config.ReceiptPollEvery
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Local{
		opts:    opts,
		log:     opts.Log.WithField("module", "provider"),
		picker:  rpc.NewPicker(opts.Algorithm),
		clients: make(map[string]*chain.EVMClient),
	}
}

// --- accounts ---

// Accounts returns the active wallet's address if it has been authorized.
func (l *Local) Accounts(ctx context.Context) ([]string, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	w, err := l.activeWallet()
	if err != nil || w == nil {
		return []string{}, err
	}
	ok, err := l.opts.Permissions.IsAuthorized(w.Address)
	if err != nil {
		return nil, NewError(CodeInternal, "%v", err)
	}
	if !ok {
		return []string{}, nil
	}
	return []string{w.Address}, nil
}

// RequestAccounts authorizes the active wallet, prompting when needed.
func (l *Local) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	w, err := l.activeWallet()
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, NewError(CodeUnauthorized, "no wallet configured")
	}

	ok, err := l.opts.Permissions.IsAuthorized(w.Address)
	if err != nil {
		return nil, NewError(CodeInternal, "%v", err)
	}
	if !ok {
		if err := l.approve(ctx, Request{Kind: RequestConnect, Account: w.Address}); err != nil {
			return nil, err
		}
		if err := l.opts.Permissions.Grant(w.Address); err != nil {
			return nil, NewError(CodeInternal, "%v", err)
		}
		l.log.WithField("account", w.Address).Info("account authorized")
	}
	return []string{w.Address}, nil
}

// UseWallet makes name the active wallet and announces the new accounts.
func (l *Local) UseWallet(ctx context.Context, name string) error {
	if _, err := l.opts.Wallets.Get(name); err != nil {
		return err
	}
	l.mu.Lock()
	l.active = name
	l.mu.Unlock()

	accounts, err := l.Accounts(ctx)
	if err != nil {
		return err
	}
	l.events.Emit(Event{Kind: AccountsChanged, Accounts: accounts})
	return nil
}

// Revoke withdraws every authorization and announces an empty account list.
func (l *Local) Revoke(context.Context) error {
	if err := l.opts.Permissions.RevokeAll(); err != nil {
		return err
	}
	l.events.Emit(Event{Kind: AccountsChanged, Accounts: []string{}})
	return nil
}

// --- chains ---

// ChainID returns the selected chain in lowercase hex.
func (l *Local) ChainID(context.Context) (string, error) {
	if err := l.checkOpen(); err != nil {
		return "", err
	}
	id, err := l.opts.Permissions.ChainID(mainnetChainID)
	if err != nil {
		return "", NewError(CodeInternal, "%v", err)
	}
	return strings.ToLower(id), nil
}

// SwitchChain selects a known chain. Unknown chains fail with 4902.
func (l *Local) SwitchChain(ctx context.Context, chainID string) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	id, err := config.ParseChainID(chainID)
	if err != nil {
		return NewError(CodeInvalidParams, "invalid chain id %q", chainID)
	}
	net, err := l.opts.Networks.Get(id.Int64())
	if errors.Is(err, chain.ErrChainNotFound) {
		return NewError(CodeUnrecognizedChain, "Unrecognized chain ID %q.", chainID)
	}

	current, err := l.ChainID(ctx)
	if err != nil {
		return err
	}
	hexID := config.FormatChainID(id)
	if current == hexID {
		return nil
	}
	if err := l.approve(ctx, Request{Kind: RequestSwitchChain, ChainID: hexID, Chain: net.Name}); err != nil {
		return err
	}
	return l.selectChain(hexID)
}

// AddChain registers a chain from params and switches to it.
func (l *Local) AddChain(ctx context.Context, params ChainParams) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	id, err := config.ParseChainID(params.ChainID)
	if err != nil {
		return NewError(CodeInvalidParams, "invalid chain id %q", params.ChainID)
	}
	if len(params.RPCURLs) == 0 {
		return NewError(CodeInvalidParams, "rpcUrls must not be empty")
	}
	hexID := config.FormatChainID(id)
	if err := l.approve(ctx, Request{Kind: RequestAddChain, ChainID: hexID, Chain: params.ChainName}); err != nil {
		return err
	}

	net := chain.Network{
		ChainID:          id.Int64(),
		Name:             params.ChainName,
		CurrencyName:     params.NativeCurrency.Name,
		CurrencySymbol:   params.NativeCurrency.Symbol,
		CurrencyDecimals: params.NativeCurrency.Decimals,
		RPCURLs:          params.RPCURLs,
	}
	if len(params.BlockExplorerURLs) > 0 {
		net.ExplorerURL = params.BlockExplorerURLs[0]
	}
	l.opts.Networks.Add(net)

	l.mu.Lock()
	delete(l.clients, hexID)
	l.mu.Unlock()
	l.log.WithFields(logrus.Fields{"chain_id": hexID, "name": net.Name}).Info("chain added")

	current, err := l.ChainID(ctx)
	if err != nil {
		return err
	}
	if current == hexID {
		return nil
	}
	return l.selectChain(hexID)
}

func (l *Local) selectChain(hexID string) error {
	if err := l.opts.Permissions.SetChainID(hexID); err != nil {
		return NewError(CodeInternal, "%v", err)
	}
	l.log.WithField("chain_id", hexID).Info("chain switched")
	l.events.Emit(Event{Kind: ChainChanged, ChainID: hexID})
	return nil
}

// Subscribe registers fn for provider events.
func (l *Local) Subscribe(fn func(Event)) Subscription {
	return l.events.Subscribe(fn)
}

// Close announces a disconnect and drops all subscribers.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.events.Emit(Event{Kind: Disconnect, Err: NewError(CodeDisconnected, "provider closed")})
	l.events.Reset()
	return nil
}

// --- chain access ---

// Call runs a read-only call on the selected chain.
func (l *Local) Call(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.CallContract(ctx, msg)
}

// EstimateGas estimates msg on the selected chain.
func (l *Local) EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error) {
	c, err := l.client(ctx)
	if err != nil {
		return 0, err
	}
	return c.EstimateGas(ctx, msg)
}

// SendTransaction asks for approval, signs msg with the active wallet as an
// EIP-1559 transaction and broadcasts it.
func (l *Local) SendTransaction(ctx context.Context, msg chain.CallMsg) (string, error) {
	w, err := l.activeWallet()
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", NewError(CodeUnauthorized, "no wallet configured")
	}
	if msg.From != "" && !strings.EqualFold(msg.From, w.Address) {
		return "", NewError(CodeUnauthorized, "account %s is not the active wallet", msg.From)
	}
	if ok, err := l.opts.Permissions.IsAuthorized(w.Address); err != nil || !ok {
		return "", NewError(CodeUnauthorized, "account %s has not been authorized", w.Address)
	}
	if !common.IsHexAddress(msg.To) {
		return "", NewError(CodeInvalidParams, "invalid recipient %q", msg.To)
	}

	hexID, err := l.ChainID(ctx)
	if err != nil {
		return "", err
	}
	chainID, err := config.ParseChainID(hexID)
	if err != nil {
		return "", NewError(CodeInternal, "%v", err)
	}
	c, err := l.client(ctx)
	if err != nil {
		return "", err
	}

	msg.From = w.Address
	if msg.Gas == 0 {
		if msg.Gas, err = c.EstimateGas(ctx, msg); err != nil {
			return "", err
		}
	}
	if err := l.approve(ctx, Request{Kind: RequestTransaction, Account: w.Address, ChainID: hexID, Tx: &msg}); err != nil {
		return "", err
	}

	nonce, err := c.PendingNonce(ctx, w.Address)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}
	fees, err := c.SuggestFees(ctx)
	if err != nil {
		return "", fmt.Errorf("getting fees: %w", err)
	}

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	to := common.HexToAddress(msg.To)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.TipCap,
		GasFeeCap: fees.FeeCap,
		Gas:       msg.Gas,
		To:        &to,
		Value:     value,
		Data:      msg.Data,
	})

	raw, err := wallet.NewSigner(w, l.opts.Wallets.Keystore()).SignTx(tx, chainID)
	if err != nil {
		return "", err
	}
	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", err
	}
	l.log.WithFields(logrus.Fields{"hash": hash, "to": msg.To, "gas": msg.Gas}).Info("transaction sent")
	return hash, nil
}

// WaitForReceipt polls until hash is mined or the confirmation timeout
// elapses.
func (l *Local) WaitForReceipt(ctx context.Context, hash string) (*chain.Receipt, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, l.opts.ConfirmTimeout)
	defer cancel()
	return c.WaitForReceipt(ctx, hash, l.opts.PollEvery)
}

// --- internal ---

func (l *Local) checkOpen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return NewError(CodeDisconnected, "provider closed")
	}
	return nil
}

func (l *Local) activeWallet() (*wallet.Wallet, error) {
	l.mu.Lock()
	name := l.active
	l.mu.Unlock()
	if name != "" {
		return l.opts.Wallets.Get(name)
	}
	return l.opts.Wallets.Default()
}

func (l *Local) approve(ctx context.Context, r Request) error {
	if l.opts.Approve == nil {
		return userRejected()
	}
	ok, err := l.opts.Approve(ctx, r)
	if err != nil {
		return NewError(CodeInternal, "approval failed: %v", err)
	}
	if !ok {
		return userRejected()
	}
	return nil
}

// client returns an RPC client for the selected chain, probing its
// endpoints on first use.
func (l *Local) client(ctx context.Context) (*chain.EVMClient, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	hexID, err := l.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	c, ok := l.clients[hexID]
	l.mu.Unlock()
	if ok {
		return c, nil
	}

	id, err := config.ParseChainID(hexID)
	if err != nil {
		return nil, NewError(CodeInternal, "%v", err)
	}
	net, err := l.opts.Networks.Get(id.Int64())
	if err != nil {
		return nil, NewError(CodeChainDisconnected, "no RPC endpoints for chain %s", hexID)
	}
	url, err := rpc.Select(ctx, net.RPCURLs, l.picker, id.Int64(), l.log)
	if err != nil {
		return nil, NewError(CodeChainDisconnected, "chain %s unreachable: %v", hexID, err)
	}

	c = chain.NewEVMClient(url)
	l.mu.Lock()
	l.clients[hexID] = c
	l.mu.Unlock()
	return c, nil
}
