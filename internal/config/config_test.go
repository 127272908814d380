package config_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env())
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
	assert.Equal(t, uint64(20), cfg.GasBufferPercent)
	assert.Equal(t, config.MetadataFailuresSkip, cfg.MetadataFailures)
	assert.Equal(t, 10, cfg.RecentTokensMax)
	assert.Equal(t, config.DefaultFactoryAddress, cfg.Factory())

	n := cfg.TargetNetwork()
	assert.Equal(t, "0x14A34", n.ChainID)
	assert.Equal(t, "Base Sepolia", n.Name)
	assert.Equal(t, []string{"https://sepolia.base.org"}, n.RPCURLs)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultWallet = "deployer"
	cfg.GasBufferPercent = 35
	cfg.MetadataFailures = config.MetadataFailuresFail

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "deployer", reloaded.DefaultWallet)
	assert.Equal(t, uint64(35), reloaded.GasBufferPercent)
	assert.Equal(t, config.MetadataFailuresFail, reloaded.MetadataFailures)
}

func TestLoadFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"default_wallet":"w"}`), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "w", cfg.DefaultWallet)
	assert.Equal(t, config.DefaultChainID, cfg.Network.ChainID)
	assert.Equal(t, config.DefaultLoadConcurrency, cfg.LoadConcurrency)
}

func TestEnvOverridesTargetNetwork(t *testing.T) {
	t.Setenv("MEMEFACTORY_RPC_URL", "http://localhost:8545")
	t.Setenv("MEMEFACTORY_EXPLORER_URL", "http://localhost:4000")
	t.Setenv("MEMEFACTORY_FACTORY_ADDRESS", "0x000000000000000000000000000000000000bEEF")
	t.Setenv("MEMEFACTORY_ENV", "production")

	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	n := cfg.TargetNetwork()
	assert.Equal(t, []string{"http://localhost:8545"}, n.RPCURLs)
	assert.Equal(t, "http://localhost:4000", n.ExplorerURL)
	assert.Equal(t, "0x000000000000000000000000000000000000bEEF", cfg.Factory())
	assert.Equal(t, "production", cfg.Env())

	// Overrides never leak into the persisted file.
	require.NoError(t, cfg.Save())
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "localhost:8545")
}

func TestEnvConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("MEMEFACTORY_CONFIG_DIR", dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
}

func TestValidateRejectsBadFactory(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.FactoryAddress = "0x..."
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.MetadataFailures = "retry"
	assert.Error(t, cfg.Validate())
}

func TestAddAndRemoveCustomRPC(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddRPC("https://rpc1"))
	assert.Error(t, cfg.AddRPC("https://rpc1"))
	require.NoError(t, cfg.AddRPC("https://rpc2"))

	assert.Equal(t, []string{"https://rpc1", "https://rpc2", config.DefaultRPCURL}, cfg.RPCs())

	require.NoError(t, cfg.RemoveRPC("https://rpc1"))
	assert.Error(t, cfg.RemoveRPC("https://rpc1"))
	assert.Equal(t, []string{"https://rpc2"}, cfg.CustomRPCs)
}

func TestParseChainID(t *testing.T) {
	id, err := config.ParseChainID("0x14A34")
	require.NoError(t, err)
	assert.Equal(t, int64(84532), id.Int64())

	id, err = config.ParseChainID("84532")
	require.NoError(t, err)
	assert.Equal(t, int64(84532), id.Int64())

	_, err = config.ParseChainID("0xzz")
	assert.Error(t, err)
	_, err = config.ParseChainID("0")
	assert.Error(t, err)

	assert.Equal(t, "0x14a34", config.FormatChainID(big.NewInt(84532)))
}

func TestJSONHelpersRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "permissions.json")

	missing, err := config.LoadJSON[config.Permissions](path)
	require.NoError(t, err)
	assert.Empty(t, missing.Authorized)

	require.NoError(t, config.SaveJSON(path, &config.Permissions{Authorized: []string{"alice"}}))
	got, err := config.LoadJSON[config.Permissions](path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Authorized)
}
