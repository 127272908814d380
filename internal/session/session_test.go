package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/Mohsinsiddi/memefactory/internal/provider/providertest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice   = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	bob     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	factory = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	target  = "0x14a34"
)

func newManager(t *testing.T, p provider.Provider) (*Manager, *[]Change) {
	t.Helper()
	log, _ := test.NewNullLogger()
	m := New(p, Options{Target: config.DefaultNetwork(), FactoryAddress: factory}, log)
	var changes []Change
	sub := m.Subscribe(func(c Change) { changes = append(changes, c) })
	t.Cleanup(func() {
		sub.Unsubscribe()
		m.Close()
	})
	return m, &changes
}

func kinds(changes []Change) []ChangeKind {
	out := make([]ChangeKind, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Kind)
	}
	return out
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

func TestConnect_AlreadyOnTarget(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, changes := newManager(t, fake)

	require.NoError(t, m.Connect(context.Background()))

	st := m.State()
	assert.True(t, st.Connected)
	assert.Equal(t, alice, st.Account)
	assert.Equal(t, target, st.ChainID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
	assert.NotNil(t, m.Handle())
	assert.Equal(t, 0, fake.SwitchRequests)
	assert.Equal(t, 1, fake.AccessRequests)
	assert.Equal(t, []ChangeKind{Updated, Connected}, kinds(*changes))
}

func TestConnect_SwitchesKnownChain(t *testing.T) {
	fake := providertest.New(alice, "0x1", false)
	fake.KnowChain(target)
	m, _ := newManager(t, fake)

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, 1, fake.SwitchRequests)
	assert.Equal(t, 0, fake.AddRequests)
	assert.Equal(t, target, m.State().ChainID)
}

func TestConnect_AddsUnknownChainOnce(t *testing.T) {
	fake := providertest.New(alice, "0x1", false)
	m, _ := newManager(t, fake)

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, 1, fake.SwitchRequests, "no second switch after the add")
	assert.Equal(t, 1, fake.AddRequests)
	assert.Equal(t, "0x14A34", fake.LastAdd.ChainID)
	assert.Equal(t, "Base Sepolia", fake.LastAdd.ChainName)
	assert.Equal(t, provider.Currency{Name: "ETH", Symbol: "ETH", Decimals: 18}, fake.LastAdd.NativeCurrency)
	assert.Equal(t, []string{"https://sepolia.base.org"}, fake.LastAdd.RPCURLs)
	assert.Equal(t, []string{"https://sepolia-explorer.base.org"}, fake.LastAdd.BlockExplorerURLs)
	assert.True(t, m.State().Connected)
}

func TestConnect_AddFailsIsSwitchFailure(t *testing.T) {
	fake := providertest.New(alice, "0x1", false)
	fake.AddErr = errors.New("wallet refused params")
	m, _ := newManager(t, fake)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrNetworkSwitchFailed))
	assert.Equal(t, 1, fake.SwitchRequests)
	assert.Equal(t, 1, fake.AddRequests)

	st := m.State()
	assert.False(t, st.Connected)
	assert.False(t, st.Loading)
	assert.Equal(t, "Failed to switch to the required network", st.LastError)
	assert.Nil(t, m.Handle())
}

func TestConnect_SwitchRejected(t *testing.T) {
	fake := providertest.New(alice, "0x1", false)
	fake.SwitchErr = provider.NewError(provider.CodeUserRejected, "User rejected the request.")
	m, _ := newManager(t, fake)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrNetworkSwitchFailed))
	assert.True(t, errs.Is(err, errs.ErrUserRejected))
	assert.Equal(t, 0, fake.AddRequests)
}

func TestConnect_UserRejected(t *testing.T) {
	fake := providertest.New(alice, target, false)
	fake.RequestErr = provider.NewError(provider.CodeUserRejected, "User rejected the request.")
	m, _ := newManager(t, fake)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrUserRejected))
	assert.Equal(t, "Connection rejected by user", m.State().LastError)
	assert.False(t, m.State().Loading)
	assert.False(t, m.State().Connected)
}

func TestConnect_OtherFailure(t *testing.T) {
	fake := providertest.New(alice, target, false)
	fake.RequestErr = errors.New("socket closed")
	m, _ := newManager(t, fake)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrConnectionFailed))
	assert.Equal(t, "Failed to connect wallet", m.State().LastError)
}

func TestConnect_ClearsPreviousError(t *testing.T) {
	fake := providertest.New(alice, target, false)
	fake.RequestErr = errors.New("socket closed")
	m, _ := newManager(t, fake)

	require.Error(t, m.Connect(context.Background()))
	require.NotEmpty(t, m.State().LastError)

	fake.RequestErr = nil
	require.NoError(t, m.Connect(context.Background()))
	assert.Empty(t, m.State().LastError)
}

func TestConnect_IdempotentWhenConnected(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, changes := newManager(t, fake)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	first := m.Handle()
	*changes = nil

	require.NoError(t, m.Connect(ctx))
	assert.Equal(t, alice, m.State().Account)
	assert.NotNil(t, m.Handle())
	assert.Equal(t, first.Address(), m.Handle().Address())
	assert.Equal(t, []ChangeKind{Updated, Updated}, kinds(*changes))
}

func TestConnect_InvalidFactoryAddress(t *testing.T) {
	fake := providertest.New(alice, target, false)
	log, _ := test.NewNullLogger()
	m := New(fake, Options{Target: config.DefaultNetwork(), FactoryAddress: "0x0000000000000000000000000000000000000000"}, log)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, m.State().Connected)
	assert.Nil(t, m.Handle())
}

// ---------------------------------------------------------------------------
// Start / Close
// ---------------------------------------------------------------------------

func TestStart_ReconnectsAuthorizedAccount(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, _ := newManager(t, fake)

	require.NoError(t, m.Start(context.Background()))

	assert.True(t, m.State().Connected)
	assert.Equal(t, 1, fake.Subscribers())
}

func TestStart_StaysDisconnectedWithoutAuthorization(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, changes := newManager(t, fake)

	require.NoError(t, m.Start(context.Background()))

	assert.False(t, m.State().Connected)
	assert.Equal(t, 0, fake.AccessRequests)
	assert.Empty(t, *changes)
}

func TestStart_AccountsProbeFailureIsNotFatal(t *testing.T) {
	fake := providertest.New(alice, target, true)
	fake.AccountsErr = errors.New("provider busy")
	m, _ := newManager(t, fake)

	require.NoError(t, m.Start(context.Background()))
	assert.False(t, m.State().Connected)
}

func TestStart_TwiceSubscribesOnce(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, _ := newManager(t, fake)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, 1, fake.Subscribers())
}

func TestClose_Unsubscribes(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, _ := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))

	m.Close()
	m.Close()
	assert.Equal(t, 0, fake.Subscribers())

	fake.EmitAccounts()
	assert.True(t, m.State().Connected, "events after Close are ignored")
}

// ---------------------------------------------------------------------------
// Disconnect
// ---------------------------------------------------------------------------

func TestDisconnect_ResetsEverything(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, changes := newManager(t, fake)
	require.NoError(t, m.Connect(context.Background()))

	m.Disconnect()

	assert.Equal(t, State{}, m.State())
	assert.Nil(t, m.Handle())
	assert.Equal(t, Disconnected, (*changes)[len(*changes)-1].Kind)
}

func TestDisconnect_NoopWhenDisconnected(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, changes := newManager(t, fake)

	m.Disconnect()
	m.Disconnect()
	assert.Empty(t, *changes)
}

// ---------------------------------------------------------------------------
// Provider events
// ---------------------------------------------------------------------------

func TestEvents_AccountSwitch(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, changes := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))
	*changes = nil

	fake.EmitAccounts(bob)

	assert.Equal(t, bob, m.State().Account)
	assert.True(t, m.State().Connected)
	assert.Equal(t, []ChangeKind{AccountChanged}, kinds(*changes))

	fake.EmitAccounts(bob)
	assert.Len(t, *changes, 1, "same account is not a change")
}

func TestEvents_EmptyAccountsDisconnects(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, _ := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))

	fake.EmitAccounts()

	assert.False(t, m.State().Connected)
	assert.Empty(t, m.State().Account)
	assert.Nil(t, m.Handle())
}

func TestEvents_AccountsIgnoredWhileDisconnected(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, changes := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))

	fake.EmitAccounts(bob)
	assert.False(t, m.State().Connected)
	assert.Empty(t, *changes)
}

func TestEvents_ChainChangeOffTargetDropsHandle(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, changes := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))
	*changes = nil

	fake.EmitChain("0x1")

	st := m.State()
	assert.True(t, st.Connected)
	assert.Equal(t, "0x1", st.ChainID)
	assert.Nil(t, m.Handle())
	assert.Equal(t, []ChangeKind{Reinitialized}, kinds(*changes))

	fake.EmitChain("0x14A34")
	assert.Equal(t, target, m.State().ChainID)
	assert.NotNil(t, m.Handle())
}

func TestEvents_Disconnect(t *testing.T) {
	fake := providertest.New(alice, target, true)
	m, _ := newManager(t, fake)
	require.NoError(t, m.Start(context.Background()))

	fake.EmitDisconnect()
	assert.False(t, m.State().Connected)
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

func TestSubscribe_Unsubscribe(t *testing.T) {
	fake := providertest.New(alice, target, false)
	m, _ := newManager(t, fake)

	var n int
	sub := m.Subscribe(func(Change) { n++ })
	m.ClearError()
	sub.Unsubscribe()
	sub.Unsubscribe()
	m.ClearError()

	assert.Equal(t, 1, n)
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "reinitialized", Reinitialized.String())
	assert.Equal(t, "unknown", ChangeKind(42).String())
}

func TestSameChain(t *testing.T) {
	assert.True(t, sameChain("0x14A34", "0x14a34"))
	assert.True(t, sameChain("0x014a34", "0x14a34"))
	assert.False(t, sameChain("0x1", "0x14a34"))
	assert.False(t, sameChain("", "0x14a34"))
}
