package chain

import (
	"errors"
	"fmt"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Network holds the metadata a wallet needs to talk to one EVM chain.
type Network struct {
	ChainID          int64
	Name             string
	CurrencyName     string
	CurrencySymbol   string
	CurrencyDecimals uint8
	RPCURLs          []string
	ExplorerURL      string
}

// Registry is the set of chains a local wallet knows without being told.
type Registry struct {
	byID map[int64]Network
}

// NewRegistry returns a registry seeded with the built-in chains.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[int64]Network)}
	for _, n := range builtinNetworks() {
		r.byID[n.ChainID] = n
	}
	return r
}

// Get finds a chain by its numeric ID.
func (r *Registry) Get(id int64) (Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return Network{}, ErrChainNotFound
	}
	return n, nil
}

// Has reports whether the chain is known.
func (r *Registry) Has(id int64) bool {
	_, ok := r.byID[id]
	return ok
}

// Add registers or replaces a chain.
func (r *Registry) Add(n Network) {
	r.byID[n.ChainID] = n
}

// NetworkName returns a display name for a chain ID, including a few
// retired testnets that may still appear in stored state.
func NetworkName(id int64) string {
	switch id {
	case 1:
		return "Ethereum Mainnet"
	case 3:
		return "Ropsten Testnet"
	case 4:
		return "Rinkeby Testnet"
	case 5:
		return "Goerli Testnet"
	case 8453:
		return "Base Mainnet"
	case 84532:
		return "Base Sepolia"
	case 11155111:
		return "Sepolia"
	}
	return fmt.Sprintf("Unknown Network (%d)", id)
}

func builtinNetworks() []Network {
	eth := func(id int64, rpcs []string, explorer string) Network {
		return Network{
			ChainID:          id,
			Name:             NetworkName(id),
			CurrencyName:     "Ether",
			CurrencySymbol:   "ETH",
			CurrencyDecimals: 18,
			RPCURLs:          rpcs,
			ExplorerURL:      explorer,
		}
	}
	return []Network{
		eth(1, []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"}, "https://etherscan.io"),
		eth(11155111, []string{"https://rpc.sepolia.org", "https://ethereum-sepolia-rpc.publicnode.com"}, "https://sepolia.etherscan.io"),
		eth(8453, []string{"https://mainnet.base.org", "https://base.llamarpc.com"}, "https://basescan.org"),
		eth(84532, []string{"https://sepolia.base.org"}, "https://sepolia-explorer.base.org"),
	}
}
