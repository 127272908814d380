package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/Mohsinsiddi/memefactory/internal/rpc"
	"github.com/Mohsinsiddi/memefactory/internal/session"
	"github.com/Mohsinsiddi/memefactory/internal/storage"
	"github.com/Mohsinsiddi/memefactory/internal/tokens"
	"github.com/Mohsinsiddi/memefactory/internal/ui"
	"github.com/Mohsinsiddi/memefactory/internal/wallet"
)

// userError carries a message meant for the terminal. The cause is logged
// at debug level.
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.cause }

func failWith(msg string, cause error) error {
	if cause != nil {
		log.WithError(cause).Debug(msg)
	}
	return &userError{msg: msg, cause: cause}
}

func errorLine(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ui.Err(ue.msg)
	}
	return ui.Err(err.Error())
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.OpenKeystore(cfg.Dir())),
	)
}

func newPermissions() *wallet.Permissions {
	return wallet.NewPermissions(cfg.PermissionsPath())
}

// newNetworks seeds the local wallet's chain list. Custom RPCs are put in
// front of the target chain's own endpoints when the wallet already knows it.
func newNetworks() *chain.Registry {
	reg := chain.NewRegistry()
	if len(cfg.CustomRPCs) == 0 {
		return reg
	}
	id, err := config.ParseChainID(cfg.TargetNetwork().ChainID)
	if err != nil {
		return reg
	}
	if n, err := reg.Get(id.Int64()); err == nil {
		n.RPCURLs = cfg.RPCs()
		reg.Add(n)
	}
	return reg
}

func approver() provider.ApproveFunc {
	if assumeYes {
		return provider.AutoApprove
	}
	return ui.NewPrompter(os.Stdin, os.Stdout).Approver()
}

// app is the wired object graph behind every command that talks to the
// wallet.
type app struct {
	wallets  *wallet.Manager
	perms    *wallet.Permissions
	provider *provider.Local
	session  *session.Manager
	tokens   *tokens.Registry
	store    *storage.Store
}

func newApp() *app { return newAppWith(approver()) }

func newAppWith(approve provider.ApproveFunc) *app {
	wallets := newWalletManager()
	perms := newPermissions()
	algo, ok := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if !ok {
		log.WithField("algorithm", cfg.RPCAlgorithm).Warn("unknown rpc algorithm, using fastest")
		algo = rpc.AlgorithmFastest
	}

	p := provider.NewLocal(provider.LocalOptions{
		Wallets:     wallets,
		Permissions: perms,
		Approve:     approve,
		Networks:    newNetworks(),
		Algorithm:   algo,
		Log:         log,
	})
	sess := session.New(p, session.Options{
		Target:         cfg.TargetNetwork(),
		FactoryAddress: cfg.Factory(),
	}, log)

	return &app{
		wallets:  wallets,
		perms:    perms,
		provider: p,
		session:  sess,
		tokens:   tokens.New(sess, tokens.OptionsFrom(cfg), log),
	}
}

// openStore opens the local preferences store on first use.
func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := openLocalStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func openLocalStore(ctx context.Context) (*storage.Store, error) {
	s, err := storage.Open(ctx, cfg.StorePath(), log, storage.WithRecentMax(cfg.RecentTokensMax))
	if err != nil {
		return nil, failWith("Could not open the local store", err)
	}
	return s, nil
}

// connect restores an earlier authorization or asks for a new one, and
// leaves the session on the target network with a factory handle.
func (a *app) connect(ctx context.Context) error {
	if err := a.session.Start(ctx); err != nil {
		return failWith(errs.ConnectMessage(err), err)
	}
	if a.session.State().Connected && a.session.Handle() != nil {
		return nil
	}
	if err := a.session.Connect(ctx); err != nil {
		if w, _ := a.wallets.Default(); w == nil {
			return failWith("No wallet configured. Add one with: memefactory wallet add <name> --generate", err)
		}
		return failWith(errs.ConnectMessage(err), err)
	}
	return nil
}

func (a *app) account() string { return a.session.State().Account }

func (a *app) explorer() string { return cfg.TargetNetwork().ExplorerURL }

func (a *app) close() {
	a.tokens.Wait()
	a.session.Close()
	if err := a.provider.Close(); err != nil {
		log.WithError(err).Debug("closing provider")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.WithError(err).Warn("closing store")
		}
	}
}

// withSpinner runs fn behind a stderr spinner unless prompts may appear,
// in which case the spinner would draw over them.
func withSpinner(msg string, fn func() error) error {
	if !assumeYes {
		fmt.Fprintln(os.Stderr, ui.Meta(msg))
		return fn()
	}
	sp := ui.NewSpinner(msg)
	sp.Start()
	err := fn()
	sp.Stop()
	return err
}
