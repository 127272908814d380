package tokens

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/contract/contracttest"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/Mohsinsiddi/memefactory/internal/provider/providertest"
	"github.com/Mohsinsiddi/memefactory/internal/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	bob     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	factory = "0x2846e2885e35e243d9d5eea203e90b547ed86155"
	target  = "0x14a34"

	doge  = "0x00000000000000000000000000000000000000d0"
	catx  = "0x00000000000000000000000000000000000000c0"
	third = "0x00000000000000000000000000000000000000e0"
	beef  = "0x000000000000000000000000000000000000bEEF"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	fake *providertest.Fake
	stub *contracttest.FactoryStub
	sess *session.Manager
	reg  *Registry
	hook *test.Hook
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	return newFixtureFor(t, alice, mutate...)
}

func newFixtureFor(t *testing.T, account string, mutate ...func(*Options)) *fixture {
	t.Helper()
	stub := contracttest.NewFactoryStub()
	fake := providertest.New(account, target, false)
	fake.CallFunc = stub.Call

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	sess := session.New(fake, session.Options{Target: config.DefaultNetwork(), FactoryAddress: factory}, log)
	require.NoError(t, sess.Start(context.Background()))
	t.Cleanup(sess.Close)

	opts := Options{
		GasBufferPercent: 20,
		MetadataFailures: config.MetadataFailuresSkip,
		Concurrency:      4,
		Now:              func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &fixture{fake: fake, stub: stub, sess: sess, reg: New(sess, opts, log), hook: hook}
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sess.Connect(context.Background()))
}

func symbols(recs []Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Symbol)
	}
	return out
}

// gate blocks the first getTokensByCreator call until release is closed.
type gate struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context, _ common.Address) {
	if g.calls.Add(1) != 1 {
		return
	}
	close(g.entered)
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}

// ---------------------------------------------------------------------------
// LoadUserTokens
// ---------------------------------------------------------------------------

func TestLoadUserTokens_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1000000, 1_700_000_000)
	f.stub.AddToken(alice, catx, "CATX", "CATX", 500000, 1_700_000_100)
	f.connect(t)

	recs, err := f.reg.LoadUserTokens(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"CATX", "DOGE2"}, symbols(recs))
	assert.Equal(t, recs, f.reg.Tokens())
	assert.Equal(t, common.HexToAddress(catx).Hex(), recs[0].Address)
	assert.Equal(t, "500000", recs[0].TotalSupply)
	assert.Equal(t, alice, recs[0].Creator)
	assert.Equal(t, int64(1_700_000_100), recs[0].CreatedAt.Unix())
	assert.Equal(t, "1000000", recs[1].TotalSupply)
	assert.False(t, f.reg.Loading())
	assert.Empty(t, f.reg.LastError())
}

func TestLoadUserTokens_EqualTimestampsKeepFactoryOrder(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 1_700_000_000)
	f.stub.AddToken(alice, catx, "CATX", "CATX", 1, 1_700_000_000)
	f.stub.AddToken(alice, third, "NEW", "NEW", 1, 1_700_000_500)
	f.connect(t)

	recs, err := f.reg.LoadUserTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW", "DOGE2", "CATX"}, symbols(recs))
}

func TestLoadUserTokens_SkipsFailedMetadata(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	f.stub.AddToken(alice, catx, "CATX", "CATX", 1, 200)
	f.stub.AddToken(alice, third, "BAD", "BAD", 1, 300)
	f.stub.FailInfo(third, errors.New("node hiccup"))
	f.connect(t)

	recs, err := f.reg.LoadUserTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CATX", "DOGE2"}, symbols(recs))

	var warned bool
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["token"] == common.HexToAddress(third).Hex() {
			warned = true
		}
	}
	assert.True(t, warned, "skipped token is logged")
}

func TestLoadUserTokens_SkipsOutOfRangeTimestamp(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	f.stub.AddToken(alice, third, "FAR", "FAR", 1, 200)
	f.stub.SetTimestamp(third, new(big.Int).Lsh(big.NewInt(1), 64))
	f.connect(t)

	recs, err := f.reg.LoadUserTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DOGE2"}, symbols(recs))
}

func TestLoadUserTokens_FailPolicyAborts(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MetadataFailures = config.MetadataFailuresFail })
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	f.stub.AddToken(alice, third, "BAD", "BAD", 1, 300)
	f.stub.FailInfo(third, errors.New("node hiccup"))
	f.connect(t)
	f.reg.AddToken(Record{Address: catx, Symbol: "KEEP"})

	_, err := f.reg.LoadUserTokens(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"KEEP"}, symbols(f.reg.Tokens()), "failed load leaves the list alone")
	assert.Equal(t, "Failed to load your tokens", f.reg.LastError())
	assert.False(t, f.reg.Loading())

	f.reg.ClearError()
	assert.Empty(t, f.reg.LastError())
}

func TestLoadUserTokens_RequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.LoadUserTokens(context.Background())
	assert.True(t, errs.Is(err, errs.ErrContractNotReady))
}

func TestLoadUserTokens_LaterLoadWins(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	g := newGate()
	f.stub.Gate = g.wait
	f.connect(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.reg.LoadUserTokens(ctx)
	}()
	<-g.entered

	second, err := f.reg.LoadUserTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOGE2"}, symbols(second))
	assert.False(t, f.reg.Loading(), "loading belongs to the latest load")

	f.reg.AddToken(Record{Address: catx, Symbol: "LOCAL"})
	close(g.release)
	wg.Wait()

	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.Equal(t, []string{"LOCAL", "DOGE2"}, symbols(f.reg.Tokens()))
	assert.False(t, f.reg.Loading())
}

func TestLoadUserTokens_AccountSwitchDiscardsResult(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	g := newGate()
	f.stub.Gate = g.wait
	f.connect(t)

	done := make(chan error, 1)
	go func() {
		_, err := f.reg.LoadUserTokens(context.Background())
		done <- err
	}()
	<-g.entered

	f.fake.EmitAccounts(bob)
	close(g.release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Empty(t, f.reg.Tokens())
	assert.False(t, f.reg.Loading())
}

// ---------------------------------------------------------------------------
// CreateToken
// ---------------------------------------------------------------------------

func scriptCreation(f *fixture, logs ...chain.Log) {
	f.fake.EstimateFunc = func(context.Context, chain.CallMsg) (uint64, error) { return 100000, nil }
	f.fake.SendFunc = func(context.Context, chain.CallMsg) (string, error) { return "0xabc", nil }
	f.fake.WaitFunc = func(_ context.Context, hash string) (*chain.Receipt, error) {
		return &chain.Receipt{TxHash: hash, Status: 1, Logs: logs}, nil
	}
}

func TestCreateToken_PrependsRecord(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.reg.AddToken(Record{Address: doge, Symbol: "DOGE2"})
	scriptCreation(f, contracttest.CreatedLog(factory, beef, alice, "Rocket", "RKT", 1000000, 1_714_564_800))

	out, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1000000")
	require.NoError(t, err)

	want := Record{
		Address:     common.HexToAddress(beef).Hex(),
		Name:        "Rocket",
		Symbol:      "RKT",
		TotalSupply: "1000000",
		Creator:     alice,
		CreatedAt:   fixedNow,
	}
	assert.Equal(t, common.HexToAddress(beef).Hex(), out.TokenAddress)
	assert.Equal(t, "0xabc", out.TxHash)
	assert.Equal(t, want, out.Record)
	assert.Equal(t, want, f.reg.Tokens()[0])
	assert.Equal(t, []string{"RKT", "DOGE2"}, symbols(f.reg.Tokens()))

	rec, ok := f.reg.GetTokenByAddress("0x000000000000000000000000000000000000beef")
	require.True(t, ok)
	assert.Equal(t, "Rocket", rec.Name)
}

func TestCreateToken_GasBuffer(t *testing.T) {
	for _, tt := range []struct {
		buffer uint64
		want   uint64
	}{
		{20, 120000},
		{0, 100000},
		{50, 150000},
	} {
		f := newFixture(t, func(o *Options) { o.GasBufferPercent = tt.buffer })
		f.connect(t)
		scriptCreation(f, contracttest.CreatedLog(factory, beef, alice, "Rocket", "RKT", 1, 1))

		_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
		require.NoError(t, err)
		require.Len(t, f.fake.Sent, 1)
		assert.Equal(t, tt.want, f.fake.Sent[0].Gas, "buffer %d", tt.buffer)
		assert.Equal(t, alice, f.fake.Sent[0].From)
		assert.Equal(t, common.HexToAddress(factory).Hex(), f.fake.Sent[0].To)
	}
}

func TestCreateToken_EventMissing(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	scriptCreation(f)

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1000000")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCreationEventMissing))
	assert.Equal(t, "Token creation event not found", errs.Message(err))
	assert.Empty(t, f.reg.Tokens())
}

func TestCreateToken_EventFromOtherContractIgnored(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	scriptCreation(f, contracttest.CreatedLog(doge, beef, alice, "Rocket", "RKT", 1, 1))

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	assert.True(t, errs.Is(err, errs.ErrCreationEventMissing))
}

func TestCreateToken_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		estimate error
		send     error
		sentinel error
		message  string
	}{
		{
			name:     "user rejected",
			send:     provider.NewError(provider.CodeUserRejected, "User rejected the request."),
			sentinel: errs.ErrUserRejected,
			message:  "Transaction rejected by user.",
		},
		{
			name:     "insufficient funds",
			estimate: &chain.RPCError{Code: -32000, Message: "insufficient funds for gas * price + value"},
			sentinel: errs.ErrInsufficientFunds,
			message:  "Insufficient ETH for gas fees. Please add ETH to your wallet.",
		},
		{
			name:     "revert reason",
			estimate: &chain.RPCError{Code: 3, Message: "execution reverted", Data: contracttest.RevertData("Symbol already taken")},
			sentinel: errs.ErrContractRejected,
			message:  "Symbol already taken",
		},
		{
			name:     "unclassified",
			send:     errors.New("nonce too low"),
			sentinel: errs.ErrTransactionFailed,
			message:  "Failed to create token. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.connect(t)
			scriptCreation(f)
			if tt.estimate != nil {
				f.fake.EstimateFunc = func(context.Context, chain.CallMsg) (uint64, error) { return 0, tt.estimate }
			}
			if tt.send != nil {
				f.fake.SendFunc = func(context.Context, chain.CallMsg) (string, error) { return "", tt.send }
			}

			_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1000000")
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.sentinel), "%v", err)
			assert.Equal(t, tt.message, errs.Message(err))
			assert.Equal(t, tt.message, f.reg.LastError())
			assert.Empty(t, f.reg.Tokens())
		})
	}
}

func TestCreateToken_RevertedReceipt(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	scriptCreation(f)
	f.fake.WaitFunc = func(_ context.Context, hash string) (*chain.Receipt, error) {
		return &chain.Receipt{TxHash: hash, Status: 0}, chain.ErrReverted
	}

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	assert.True(t, errs.Is(err, errs.ErrTransactionFailed))
}

func TestCreateToken_InvalidInput(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "R K T", "1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))
	assert.Equal(t, err.Error(), f.reg.LastError())
	assert.Empty(t, f.fake.Sent)

	_, err = f.reg.CreateToken(context.Background(), "", "RKT", "1")
	require.Error(t, err)
	assert.Equal(t, "Token name must be 1-50 characters", f.reg.LastError())
}

func TestCreateToken_ErrorClearedOnNextAttempt(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	scriptCreation(f, contracttest.CreatedLog(factory, beef, alice, "Rocket", "RKT", 1, 1))
	send := f.fake.SendFunc
	f.fake.SendFunc = func(context.Context, chain.CallMsg) (string, error) {
		return "", provider.NewError(provider.CodeUserRejected, "User rejected the request.")
	}

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	require.Error(t, err)
	assert.Equal(t, "Transaction rejected by user.", f.reg.LastError())

	f.fake.SendFunc = send
	_, err = f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	require.NoError(t, err)
	assert.Empty(t, f.reg.LastError())
}

func TestCreateToken_CreatorIsChecksummed(t *testing.T) {
	f := newFixtureFor(t, strings.ToLower(alice))
	f.connect(t)
	scriptCreation(f, contracttest.CreatedLog(factory, beef, alice, "Rocket", "RKT", 1, 1))

	out, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	require.NoError(t, err)
	assert.Equal(t, alice, out.Record.Creator)
	assert.Equal(t, alice, f.reg.Tokens()[0].Creator)
}

func TestCreateToken_RequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	assert.True(t, errs.Is(err, errs.ErrContractNotReady))
	assert.Equal(t, "Contract not initialized", errs.Message(err))
	assert.Equal(t, "Contract not initialized", f.reg.LastError())
}

func TestCreateToken_AccountSwitchedBeforeConfirmation(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	scriptCreation(f)
	f.fake.WaitFunc = func(_ context.Context, hash string) (*chain.Receipt, error) {
		f.fake.EmitAccounts(bob)
		return &chain.Receipt{TxHash: hash, Status: 1, Logs: []chain.Log{
			contracttest.CreatedLog(factory, beef, alice, "Rocket", "RKT", 1, 1),
		}}, nil
	}

	out, err := f.reg.CreateToken(context.Background(), "Rocket", "RKT", "1")
	require.NoError(t, err)
	assert.Equal(t, alice, out.Record.Creator)
	assert.Empty(t, f.reg.Tokens())
}

// ---------------------------------------------------------------------------
// local edits and refresh
// ---------------------------------------------------------------------------

func TestAddToken_IgnoredWhileDisconnected(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.reg.AddToken(Record{Address: beef, Symbol: "RKT"}))
	assert.False(t, f.sess.State().Connected)
	assert.Empty(t, f.reg.Tokens())
}

func TestAddRemoveGet(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	assert.True(t, f.reg.AddToken(Record{Address: "0x00000000000000000000000000000000000000AA", Symbol: "A"}))
	f.reg.AddToken(Record{Address: "0x00000000000000000000000000000000000000bb", Symbol: "B"})

	assert.Equal(t, []string{"B", "A"}, symbols(f.reg.Tokens()))

	rec, ok := f.reg.GetTokenByAddress("0x00000000000000000000000000000000000000aa")
	require.True(t, ok)
	assert.Equal(t, "A", rec.Symbol)

	f.reg.RemoveToken("0x00000000000000000000000000000000000000AA")
	assert.Equal(t, []string{"B"}, symbols(f.reg.Tokens()))

	_, ok = f.reg.GetTokenByAddress("0x00000000000000000000000000000000000000aa")
	assert.False(t, ok)
}

func TestTokensReturnsCopy(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.reg.AddToken(Record{Address: doge, Symbol: "A"})

	got := f.reg.Tokens()
	got[0].Symbol = "mutated"
	assert.Equal(t, "A", f.reg.Tokens()[0].Symbol)
}

func TestRefreshTokens(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)

	require.NoError(t, f.reg.RefreshTokens(context.Background()), "no-op while disconnected")
	assert.Empty(t, f.reg.Tokens())

	f.connect(t)
	require.NoError(t, f.reg.RefreshTokens(context.Background()))
	assert.Equal(t, []string{"DOGE2"}, symbols(f.reg.Tokens()))
}

// ---------------------------------------------------------------------------
// Attach
// ---------------------------------------------------------------------------

func attach(t *testing.T, f *fixture) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	sub := f.reg.Attach(ctx)
	t.Cleanup(func() {
		sub.Unsubscribe()
		cancel()
		f.reg.Wait()
	})
}

func TestAttach_LoadsOnConnectAndClearsOnDisconnect(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	f.stub.AddToken(alice, catx, "CATX", "CATX", 1, 200)
	attach(t, f)

	f.connect(t)
	assert.Eventually(t, func() bool { return len(f.reg.Tokens()) == 2 }, time.Second, 5*time.Millisecond)

	f.fake.EmitAccounts()
	assert.Empty(t, f.reg.Tokens(), "disconnect clears synchronously")
	assert.False(t, f.sess.State().Connected)
}

func TestAttach_AccountChangeReloads(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	f.stub.AddToken(bob, catx, "CATX", "CATX", 1, 200)
	attach(t, f)

	f.connect(t)
	assert.Eventually(t, func() bool {
		toks := f.reg.Tokens()
		return len(toks) == 1 && toks[0].Symbol == "DOGE2"
	}, time.Second, 5*time.Millisecond)

	f.fake.EmitAccounts(bob)
	assert.Eventually(t, func() bool {
		toks := f.reg.Tokens()
		return len(toks) == 1 && toks[0].Symbol == "CATX"
	}, time.Second, 5*time.Millisecond)
}

func TestAttach_ChainChange(t *testing.T) {
	f := newFixture(t)
	f.stub.AddToken(alice, doge, "DOGE2", "DOGE2", 1, 100)
	attach(t, f)
	f.connect(t)
	require.Eventually(t, func() bool { return len(f.reg.Tokens()) == 1 }, time.Second, 5*time.Millisecond)

	f.fake.EmitChain("0x1")
	assert.Empty(t, f.reg.Tokens())
	f.reg.Wait()
	assert.Empty(t, f.reg.Tokens(), "no reload off the target chain")

	f.fake.EmitChain(target)
	assert.Eventually(t, func() bool { return len(f.reg.Tokens()) == 1 }, time.Second, 5*time.Millisecond)
}
