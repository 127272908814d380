package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// factoryABIJSON is the token factory interface.
//
//	createToken(string,string,uint256)  → address
//	getTokensByCreator(address)         → address[]
//	getTokenInfo(address)               → TokenInfo tuple
//	getAllTokens()                      → address[]
//	getTotalTokensCount()               → uint256
const factoryABIJSON = `[
  {"type":"function","name":"createToken","stateMutability":"nonpayable",
   "inputs":[{"name":"_name","type":"string"},{"name":"_symbol","type":"string"},{"name":"_totalSupply","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getTokensByCreator","stateMutability":"view",
   "inputs":[{"name":"creator","type":"address"}],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getTokenInfo","stateMutability":"view",
   "inputs":[{"name":"tokenAddress","type":"address"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"tokenAddress","type":"address"},
     {"name":"name","type":"string"},
     {"name":"symbol","type":"string"},
     {"name":"totalSupply","type":"uint256"},
     {"name":"creator","type":"address"},
     {"name":"timestamp","type":"uint256"}]}]},
  {"type":"function","name":"getAllTokens","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getTotalTokensCount","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"TokenCreated","anonymous":false,
   "inputs":[
     {"name":"tokenAddress","type":"address","indexed":true},
     {"name":"creator","type":"address","indexed":true},
     {"name":"name","type":"string","indexed":false},
     {"name":"symbol","type":"string","indexed":false},
     {"name":"totalSupply","type":"uint256","indexed":false},
     {"name":"timestamp","type":"uint256","indexed":false}]}
]`

// erc20ABIJSON is the standard ERC-20 interface (EIP-20).
const erc20ABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable",
   "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"Transfer","anonymous":false,
   "inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
  {"type":"event","name":"Approval","anonymous":false,
   "inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	// FactoryABI is the parsed token factory ABI.
	FactoryABI = mustParse(factoryABIJSON)
	// ERC20ABI is the parsed ERC-20 ABI.
	ERC20ABI = mustParse(erc20ABIJSON)
)

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("contract: bad built-in ABI: " + err.Error())
	}
	return parsed
}
