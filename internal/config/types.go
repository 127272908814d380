package config

// Config holds all memefactory configuration.
type Config struct {
	DefaultWallet    string   `json:"default_wallet"`
	Environment      string   `json:"environment"`        // "development" | "production"
	RPCAlgorithm     string   `json:"rpc_algorithm"`      // "fastest" | "failover"
	CustomRPCs       []string `json:"custom_rpcs"`        // tried before the network's own RPCs
	GasBufferPercent uint64   `json:"gas_buffer_percent"` // added on top of every createToken estimate
	MetadataFailures string   `json:"metadata_failures"`  // "skip" | "fail"
	LoadConcurrency  int      `json:"load_concurrency"`
	RecentTokensMax  int      `json:"recent_tokens_max"`
	HTTPAddr         string   `json:"http_addr"`
	FactoryAddress   string   `json:"factory_address"`
	Network          Network  `json:"network"`

	// internal: config dir path used for Save()
	configDir string
	// internal: MEMEFACTORY_* overrides, never persisted
	env envOverrides
}

// Network describes the single chain the factory lives on. The fields map
// one-to-one onto the wallet_addEthereumChain parameter set.
type Network struct {
	ChainID          string   `json:"chain_id"` // hex, e.g. "0x14A34"
	Name             string   `json:"name"`
	CurrencyName     string   `json:"currency_name"`
	CurrencySymbol   string   `json:"currency_symbol"`
	CurrencyDecimals uint8    `json:"currency_decimals"`
	RPCURLs          []string `json:"rpc_urls"`
	ExplorerURL      string   `json:"explorer_url"`
}

// Permissions is the structure of permissions.json: the addresses the user
// has authorized to connect and the chain the local wallet is pointed at.
type Permissions struct {
	Authorized []string `json:"authorized"`
	ChainID    string   `json:"chain_id,omitempty"` // hex; empty means mainnet
}
