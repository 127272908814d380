package config

import "time"

// Target network defaults (Base Sepolia).
const (
	DefaultChainID          = "0x14A34" // 84532
	DefaultChainName        = "Base Sepolia"
	DefaultCurrencyName     = "ETH"
	DefaultCurrencySymbol   = "ETH"
	DefaultCurrencyDecimals = 18
	DefaultRPCURL           = "https://sepolia.base.org"
	DefaultExplorerURL      = "https://sepolia-explorer.base.org"

	DefaultFactoryAddress = "0x2846e2885e35e243d9d5eea203e90b547ed86155"
)

// Registry tuning. The gas buffer and the metadata failure policy are kept
// configurable since neither has a derivable "right" value.
const (
	DefaultGasBufferPercent = uint64(20)
	DefaultLoadConcurrency  = 4
	DefaultRecentTokensMax  = 10

	MetadataFailuresSkip = "skip"
	MetadataFailuresFail = "fail"
)

// Local store keys.
const (
	PreferencesKey  = "meme-factory-preferences"
	RecentTokensKey = "meme-factory-recent-tokens"
)

// Gas limit used by the preferences default; never applied automatically.
const DefaultGasLimit = "200000"

// Timeout constants used across cmd and the provider.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint benchmark
	TxConfirmTimeout = 3 * time.Minute  // provider-side confirmation wait
	ReceiptPollEvery = 2 * time.Second
)
