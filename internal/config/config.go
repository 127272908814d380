package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultAlgorithm   = "fastest"
	defaultEnvironment = "development"
	defaultHTTPAddr    = "127.0.0.1:3000"

	configFile      = "config.json"
	walletsFile     = "wallets.json"
	permissionsFile = "permissions.json"
	storeDir        = "store"
)

// Load reads config from dir (or creates defaults). dir defaults to
// $MEMEFACTORY_CONFIG_DIR, then ~/.memefactory.
func Load(dir string) (*Config, error) {
	env, err := loadEnv()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = env.ConfigDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".memefactory")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)
	cfg.env = env

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	cfg.fillZeroes()
	return cfg, nil
}

// Save writes the config to disk. Environment overrides are not persisted.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Validate checks the effective target network and factory address.
func (c *Config) Validate() error {
	n := c.TargetNetwork()
	if _, err := ParseChainID(n.ChainID); err != nil {
		return err
	}
	if len(n.RPCURLs) == 0 {
		return fmt.Errorf("network %s has no RPC URLs", n.Name)
	}
	if !common.IsHexAddress(c.Factory()) {
		return fmt.Errorf("token factory address %q is not a valid address", c.Factory())
	}
	switch c.MetadataFailures {
	case MetadataFailuresSkip, MetadataFailuresFail:
	default:
		return fmt.Errorf("metadata_failures must be %q or %q, got %q",
			MetadataFailuresSkip, MetadataFailuresFail, c.MetadataFailures)
	}
	return nil
}

// TargetNetwork returns the persisted network with MEMEFACTORY_* overrides applied.
func (c *Config) TargetNetwork() Network {
	n := c.Network
	n.RPCURLs = slices.Clone(n.RPCURLs)
	if c.env.ChainID != "" {
		n.ChainID = c.env.ChainID
	}
	if c.env.ChainName != "" {
		n.Name = c.env.ChainName
	}
	if c.env.RPCURL != "" {
		n.RPCURLs = []string{c.env.RPCURL}
	}
	if c.env.ExplorerURL != "" {
		n.ExplorerURL = c.env.ExplorerURL
	}
	return n
}

// Factory returns the effective token factory address.
func (c *Config) Factory() string {
	if c.env.FactoryAddress != "" {
		return c.env.FactoryAddress
	}
	return c.FactoryAddress
}

// Env returns the effective runtime environment name.
func (c *Config) Env() string {
	if c.env.Environment != "" {
		return c.env.Environment
	}
	return c.Environment
}

// ListenAddr returns the effective HTTP listen address.
func (c *Config) ListenAddr() string {
	if c.env.HTTPAddr != "" {
		return c.env.HTTPAddr
	}
	return c.HTTPAddr
}

// RPCs returns custom RPCs followed by the target network's own.
func (c *Config) RPCs() []string {
	return append(slices.Clone(c.CustomRPCs), c.TargetNetwork().RPCURLs...)
}

// AddRPC adds a custom RPC URL.
func (c *Config) AddRPC(url string) error {
	if slices.Contains(c.CustomRPCs, url) {
		return fmt.Errorf("RPC %s already exists", url)
	}
	c.CustomRPCs = append(c.CustomRPCs, url)
	return nil
}

// RemoveRPC removes a custom RPC URL.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.CustomRPCs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found", url)
	}
	c.CustomRPCs = slices.Delete(c.CustomRPCs, idx, idx+1)
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet manager's JSON store.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// PermissionsPath is the provider's connected-wallet list.
func (c *Config) PermissionsPath() string {
	return filepath.Join(c.configDir, permissionsFile)
}

// StorePath is the local key-value store directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.configDir, storeDir)
}

// ParseChainID parses a hex ("0x14a34") or decimal ("84532") chain id.
func ParseChainID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	var (
		n  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		n, ok = new(big.Int).SetString(s, 10)
	}
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %q", s)
	}
	return n, nil
}

// FormatChainID renders a chain id the way wallets report it: 0x-prefixed lowercase hex.
func FormatChainID(id *big.Int) string {
	return "0x" + id.Text(16)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		Environment:      defaultEnvironment,
		RPCAlgorithm:     defaultAlgorithm,
		GasBufferPercent: DefaultGasBufferPercent,
		MetadataFailures: MetadataFailuresSkip,
		LoadConcurrency:  DefaultLoadConcurrency,
		RecentTokensMax:  DefaultRecentTokensMax,
		HTTPAddr:         defaultHTTPAddr,
		FactoryAddress:   DefaultFactoryAddress,
		Network:          DefaultNetwork(),
		configDir:        dir,
	}
}

// DefaultNetwork returns the built-in target network.
func DefaultNetwork() Network {
	return Network{
		ChainID:          DefaultChainID,
		Name:             DefaultChainName,
		CurrencyName:     DefaultCurrencyName,
		CurrencySymbol:   DefaultCurrencySymbol,
		CurrencyDecimals: DefaultCurrencyDecimals,
		RPCURLs:          []string{DefaultRPCURL},
		ExplorerURL:      DefaultExplorerURL,
	}
}

// fillZeroes restores defaults for fields an older config file left empty.
func (c *Config) fillZeroes() {
	d := defaults(c.configDir)
	if c.RPCAlgorithm == "" {
		c.RPCAlgorithm = d.RPCAlgorithm
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.MetadataFailures == "" {
		c.MetadataFailures = d.MetadataFailures
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = d.LoadConcurrency
	}
	if c.RecentTokensMax <= 0 {
		c.RecentTokensMax = d.RecentTokensMax
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = d.HTTPAddr
	}
	if c.FactoryAddress == "" {
		c.FactoryAddress = d.FactoryAddress
	}
	if c.Network.ChainID == "" {
		c.Network = d.Network
	}
}

// LoadJSON reads a JSON file into a fresh T. A missing file yields the zero value.
func LoadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveJSON writes v as indented JSON with 0600 permissions.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
