package cmd

import (
	"errors"
	"testing"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T) {
	t.Helper()
	t.Setenv("MEMEFACTORY_CONFIG_DIR", "")
	t.Setenv("MEMEFACTORY_CHAIN_ID", "")
	t.Setenv("MEMEFACTORY_RPC_URL", "")
	c, err := config.Load(t.TempDir())
	require.NoError(t, err)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

// ---------------------------------------------------------------------------
// command tree
// ---------------------------------------------------------------------------

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"wallet", "connect", "network", "token", "recent", "prefs", "dashboard", "serve"} {
		assert.True(t, names[want], want)
	}
}

func TestTokenSubcommands(t *testing.T) {
	var names []string
	for _, c := range tokenCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"create", "list", "show", "transfer"}, names)
}

// ---------------------------------------------------------------------------
// errors
// ---------------------------------------------------------------------------

func TestErrorLineUsesUserMessage(t *testing.T) {
	err := failWith("Connection rejected by user", errors.New("code 4001"))
	line := errorLine(err)
	assert.Contains(t, line, "Connection rejected by user")
	assert.NotContains(t, line, "4001")

	assert.Contains(t, errorLine(errors.New("plain failure")), "plain failure")
}

func TestFailWithKeepsCause(t *testing.T) {
	err := failWith("Failed to connect wallet", errs.ErrConnectionFailed)
	assert.True(t, errors.Is(err, errs.ErrConnectionFailed))
}

func TestTransferMessage(t *testing.T) {
	assert.Equal(t, "Transfer reverted", transferMessage(chain.ErrReverted))
	assert.Equal(t, "Transaction rejected by user.",
		transferMessage(errs.Mark(errors.New("denied"), errs.ErrUserRejected)))
	assert.Equal(t, "Transfer failed. Please try again.", transferMessage(errors.New("boom")))
}

// ---------------------------------------------------------------------------
// networks
// ---------------------------------------------------------------------------

func TestNetworkLabel(t *testing.T) {
	loadTestConfig(t)
	target := "0x14a34"

	assert.Equal(t, "Base Sepolia", networkLabel("", target))
	assert.Equal(t, "Base Sepolia", networkLabel("0x14A34", target))
	assert.Equal(t, "Ethereum Mainnet (wrong network)", networkLabel("0x1", target))
	assert.Equal(t, "bogus", networkLabel("bogus", target))
}

func TestNewNetworksPutsCustomRPCsFirst(t *testing.T) {
	loadTestConfig(t)
	require.NoError(t, cfg.AddRPC("https://my-node.example"))

	n, err := newNetworks().Get(84532)
	require.NoError(t, err)
	require.NotEmpty(t, n.RPCURLs)
	assert.Equal(t, "https://my-node.example", n.RPCURLs[0])
	assert.Contains(t, n.RPCURLs, config.DefaultRPCURL)
}

func TestNewNetworksWithoutCustomRPCs(t *testing.T) {
	loadTestConfig(t)
	n, err := newNetworks().Get(84532)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://sepolia.base.org"}, n.RPCURLs)
}
