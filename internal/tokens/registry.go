// Package tokens keeps the list of tokens created by the connected account.
package tokens

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/contract"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/format"
	"github.com/Mohsinsiddi/memefactory/internal/metrics"
	"github.com/Mohsinsiddi/memefactory/internal/session"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started or the account changed while it ran.
var ErrSuperseded = errors.New("token load superseded")

const loadFailedMessage = "Failed to load your tokens"

// Record is one token created through the factory.
type Record struct {
	Address     string
	Name        string
	Symbol      string
	TotalSupply string // decimal
	Creator     string
	CreatedAt   time.Time
}

// Created is the outcome of a successful CreateToken.
type Created struct {
	TokenAddress string
	TxHash       string
	Record       Record
}

// Session is the part of session.Manager the registry reads.
type Session interface {
	State() session.State
	Handle() *contract.Factory
	Subscribe(fn func(session.Change)) *session.Subscription
}

// Options tunes the registry. Zero values fall back to the config defaults.
type Options struct {
	GasBufferPercent uint64
	MetadataFailures string // config.MetadataFailuresSkip or config.MetadataFailuresFail
	Concurrency      int
	Now              func() time.Time
}

// OptionsFrom builds Options from the loaded config.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		GasBufferPercent: cfg.GasBufferPercent,
		MetadataFailures: cfg.MetadataFailures,
		Concurrency:      cfg.LoadConcurrency,
	}
}

// Registry holds the session account's tokens, newest first.
type Registry struct {
	sess Session
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	gen     uint64
	tokens  []Record
	loading bool
	lastErr string

	bg sync.WaitGroup
}

// New creates an empty registry reading from sess.
func New(sess Session, opts Options, log logrus.FieldLogger) *Registry {
	if opts.MetadataFailures == "" {
		opts.MetadataFailures = config.MetadataFailuresSkip
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = config.DefaultLoadConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{sess: sess, opts: opts, log: log.WithField("module", "tokens")}
}

// --- reads ---

// Tokens returns a copy of the list.
func (r *Registry) Tokens() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tokens)
}

// Loading reports whether the latest load is still running.
func (r *Registry) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// LastError returns the message of the last failed load or creation.
func (r *Registry) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// ClearError resets LastError.
func (r *Registry) ClearError() {
	r.mu.Lock()
	r.lastErr = ""
	r.mu.Unlock()
}

// GetTokenByAddress finds a record by address, ignoring case.
func (r *Registry) GetTokenByAddress(address string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.tokens, func(rec Record) bool { return strings.EqualFold(rec.Address, address) })
	if i < 0 {
		return Record{}, false
	}
	return r.tokens[i], true
}

// --- local edits ---

// AddToken prepends rec. It reports false and leaves the list empty while
// no session is connected.
func (r *Registry) AddToken(rec Record) bool {
	if !r.sess.State().Connected {
		return false
	}
	r.mu.Lock()
	r.tokens = append([]Record{rec}, r.tokens...)
	metrics.RegistrySize.Set(float64(len(r.tokens)))
	r.mu.Unlock()
	return true
}

// RemoveToken drops every record with address, ignoring case.
func (r *Registry) RemoveToken(address string) {
	r.mu.Lock()
	r.tokens = slices.DeleteFunc(r.tokens, func(rec Record) bool { return strings.EqualFold(rec.Address, address) })
	metrics.RegistrySize.Set(float64(len(r.tokens)))
	r.mu.Unlock()
}

// clear empties the list and supersedes any running load.
func (r *Registry) clear() {
	r.mu.Lock()
	r.gen++
	r.tokens = nil
	r.loading = false
	metrics.RegistrySize.Set(0)
	r.mu.Unlock()
}

// --- loading ---

// LoadUserTokens replaces the list with the tokens the session account
// created. Only the most recently started load may commit; an older one
// returns ErrSuperseded without touching the list.
func (r *Registry) LoadUserTokens(ctx context.Context) ([]Record, error) {
	st, h := r.sess.State(), r.sess.Handle()
	if !st.Connected || st.Account == "" || h == nil {
		return nil, errs.ErrContractNotReady
	}

	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.loading = true
	r.lastErr = ""
	r.mu.Unlock()

	start := time.Now()
	records, err := r.fetch(ctx, h, st.Account)
	metrics.TokenLoadDuration.Observe(time.Since(start).Seconds())

	account := r.sess.State().Account

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || !strings.EqualFold(account, st.Account) {
		if gen == r.gen {
			r.loading = false
		}
		metrics.TokenLoads.WithLabelValues("superseded").Inc()
		r.log.WithField("account", st.Account).Debug("discarding stale token load")
		return nil, ErrSuperseded
	}
	r.loading = false
	if err != nil {
		r.lastErr = loadFailedMessage
		metrics.TokenLoads.WithLabelValues("error").Inc()
		r.log.WithError(err).WithField("account", st.Account).Error("loading tokens failed")
		return nil, err
	}
	r.tokens = records
	metrics.TokenLoads.WithLabelValues("ok").Inc()
	metrics.RegistrySize.Set(float64(len(records)))
	r.log.WithFields(logrus.Fields{"account": st.Account, "tokens": len(records)}).Debug("tokens loaded")
	return slices.Clone(records), nil
}

func (r *Registry) fetch(ctx context.Context, h *contract.Factory, account string) ([]Record, error) {
	addrs, err := h.TokensByCreator(ctx, account)
	if err != nil {
		return nil, err
	}

	slots := make([]*Record, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, addr := range addrs {
		g.Go(func() error {
			info, err := h.TokenInfo(gctx, addr)
			if err != nil {
				metrics.MetadataFailures.Inc()
				if r.opts.MetadataFailures == config.MetadataFailuresFail {
					return fmt.Errorf("token %s: %w", addr.Hex(), err)
				}
				r.log.WithError(err).WithField("token", addr.Hex()).Warn("skipping token with unreadable info")
				return nil
			}
			rec := recordFrom(addr, info)
			slots[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func recordFrom(addr common.Address, info contract.TokenInfo) Record {
	rec := Record{
		Address:   addr.Hex(),
		Name:      info.Name,
		Symbol:    info.Symbol,
		Creator:   info.Creator.Hex(),
		CreatedAt: info.CreatedAt(),
	}
	if info.TotalSupply != nil {
		rec.TotalSupply = info.TotalSupply.String()
	}
	return rec
}

// RefreshTokens reloads the list when a session is connected.
func (r *Registry) RefreshTokens(ctx context.Context) error {
	if !r.sess.State().Connected {
		return nil
	}
	_, err := r.LoadUserTokens(ctx)
	return err
}

// --- creation ---

// CreateToken mints a token through the factory and prepends its record
// once the creation is confirmed. supply is a whole number of tokens.
func (r *Registry) CreateToken(ctx context.Context, name, symbol, supply string) (*Created, error) {
	r.ClearError()
	amount, err := format.ValidateToken(name, symbol, supply)
	if err != nil {
		r.setError(err)
		return nil, err
	}
	st, h := r.sess.State(), r.sess.Handle()
	if !st.Connected || h == nil {
		r.setError(errs.ErrContractNotReady)
		return nil, errs.ErrContractNotReady
	}
	log := r.log.WithFields(logrus.Fields{"name": name, "symbol": symbol, "account": st.Account})

	est, err := h.EstimateCreateToken(ctx, st.Account, name, symbol, amount)
	if err != nil {
		return nil, r.createFailed(log, err)
	}
	limit := est * (100 + r.opts.GasBufferPercent) / 100

	hash, err := h.CreateToken(ctx, st.Account, name, symbol, amount, limit)
	if err != nil {
		return nil, r.createFailed(log, err)
	}
	log = log.WithField("tx", hash)
	log.WithField("gas_limit", limit).Info("createToken submitted")

	ev, _, err := h.WaitForCreation(ctx, hash)
	if err != nil {
		if errors.Is(err, contract.ErrEventNotFound) {
			err = errs.Mark(err, errs.ErrCreationEventMissing)
		}
		return nil, r.createFailed(log, err)
	}

	rec := Record{
		Address:     ev.TokenAddress.Hex(),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: amount.String(),
		Creator:     common.HexToAddress(st.Account).Hex(),
		CreatedAt:   r.opts.Now(),
	}
	if strings.EqualFold(r.sess.State().Account, st.Account) {
		r.AddToken(rec)
	} else {
		log.Info("account changed before confirmation, not adding token to list")
	}

	metrics.TokensCreated.WithLabelValues("ok").Inc()
	log.WithField("token", rec.Address).Info("token created")
	return &Created{TokenAddress: rec.Address, TxHash: hash, Record: rec}, nil
}

func (r *Registry) createFailed(log logrus.FieldLogger, err error) error {
	err = errs.Classify(err)
	metrics.TokensCreated.WithLabelValues("error").Inc()
	log.WithError(err).Warn("createToken failed")
	r.setError(err)
	return err
}

func (r *Registry) setError(err error) {
	r.mu.Lock()
	r.lastErr = errs.Message(err)
	r.mu.Unlock()
}

// --- session wiring ---

// Attach keeps the registry in step with the session: a disconnect clears
// it synchronously, a connect, account change or chain change clears it
// and reloads in the background. Background loads use ctx.
func (r *Registry) Attach(ctx context.Context) *session.Subscription {
	return r.sess.Subscribe(func(c session.Change) {
		switch c.Kind {
		case session.Disconnected:
			r.clear()
		case session.Connected, session.AccountChanged, session.Reinitialized:
			r.clear()
			if c.State.Connected && r.sess.Handle() != nil {
				r.reload(ctx)
			}
		}
	})
}

func (r *Registry) reload(ctx context.Context) {
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()
		_, err := r.LoadUserTokens(ctx)
		switch {
		case err == nil, errors.Is(err, ErrSuperseded), errors.Is(err, errs.ErrContractNotReady), ctx.Err() != nil:
		default:
			r.log.WithError(err).Warn("background token load failed")
		}
	}()
}

// Wait blocks until background loads have returned.
func (r *Registry) Wait() { r.bg.Wait() }
