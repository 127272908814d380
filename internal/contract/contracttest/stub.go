// Package contracttest answers factory and ERC-20 calls from memory.
package contracttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FactoryStub is an in-memory token factory. Its Call method can be used
// as a provider's eth_call hook.
type FactoryStub struct {
	mu       sync.Mutex
	created  map[common.Address][]common.Address
	infos    map[common.Address]contract.TokenInfo
	infoErrs map[common.Address]error
	delays   map[common.Address]time.Duration
	all      []common.Address

	// Gate, when set, is waited on by every getTokensByCreator call.
	Gate func(ctx context.Context, creator common.Address)
}

// NewFactoryStub returns an empty factory.
func NewFactoryStub() *FactoryStub {
	return &FactoryStub{
		created:  make(map[common.Address][]common.Address),
		infos:    make(map[common.Address]contract.TokenInfo),
		infoErrs: make(map[common.Address]error),
		delays:   make(map[common.Address]time.Duration),
	}
}

// AddToken records a token minted by creator at unix time ts.
func (s *FactoryStub) AddToken(creator, token, name, symbol string, supply int64, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, tk := common.HexToAddress(creator), common.HexToAddress(token)
	s.created[c] = append(s.created[c], tk)
	s.all = append(s.all, tk)
	s.infos[tk] = contract.TokenInfo{
		TokenAddress: tk,
		Name:         name,
		Symbol:       symbol,
		TotalSupply:  big.NewInt(supply),
		Creator:      c,
		Timestamp:    big.NewInt(ts),
	}
}

// SetTimestamp overrides the creation time getTokenInfo reports for token.
func (s *FactoryStub) SetTimestamp(token string, ts *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk := common.HexToAddress(token)
	info := s.infos[tk]
	info.Timestamp = ts
	s.infos[tk] = info
}

// FailInfo makes getTokenInfo(token) revert.
func (s *FactoryStub) FailInfo(token string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infoErrs[common.HexToAddress(token)] = err
}

// DelayInfo makes getTokenInfo(token) take d.
func (s *FactoryStub) DelayInfo(token string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[common.HexToAddress(token)] = d
}

// Call decodes msg as a factory call and answers it.
func (s *FactoryStub) Call(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("short calldata")
	}
	m, err := contract.FactoryABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch m.Name {
	case "getTokensByCreator":
		creator := args[0].(common.Address)
		if s.Gate != nil {
			s.Gate(ctx, creator)
		}
		s.mu.Lock()
		list := append([]common.Address{}, s.created[creator]...)
		s.mu.Unlock()
		return m.Outputs.Pack(list)
	case "getTokenInfo":
		token := args[0].(common.Address)
		s.mu.Lock()
		info, ok := s.infos[token]
		infoErr := s.infoErrs[token]
		delay := s.delays[token]
		s.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if infoErr != nil {
			return nil, infoErr
		}
		if !ok {
			return nil, &chain.RPCError{Code: 3, Message: "execution reverted: unknown token"}
		}
		return m.Outputs.Pack(info)
	case "getAllTokens":
		s.mu.Lock()
		defer s.mu.Unlock()
		return m.Outputs.Pack(append([]common.Address{}, s.all...))
	case "getTotalTokensCount":
		s.mu.Lock()
		defer s.mu.Unlock()
		return m.Outputs.Pack(big.NewInt(int64(len(s.all))))
	}
	return nil, fmt.Errorf("unsupported method %s", m.Name)
}

// CreatedLog builds the TokenCreated log a factory at factory would emit.
func CreatedLog(factory, token, creator, name, symbol string, supply, ts int64) chain.Log {
	ev := contract.FactoryABI.Events["TokenCreated"]
	data, err := ev.Inputs.NonIndexed().Pack(name, symbol, big.NewInt(supply), big.NewInt(ts))
	if err != nil {
		panic(err)
	}
	return chain.Log{
		Address: strings.ToLower(factory),
		Topics: []string{
			ev.ID.Hex(),
			common.BytesToHash(common.HexToAddress(token).Bytes()).Hex(),
			common.BytesToHash(common.HexToAddress(creator).Bytes()).Hex(),
		},
		Data:     hexutil.Encode(data),
		LogIndex: "0x0",
	}
}

// ERC20Log builds a Transfer or Approval log.
func ERC20Log(token, event, a, b string, value int64) chain.Log {
	ev := contract.ERC20ABI.Events[event]
	data, err := abi.Arguments{ev.Inputs[2]}.Pack(big.NewInt(value))
	if err != nil {
		panic(err)
	}
	return chain.Log{
		Address: token,
		Topics: []string{
			ev.ID.Hex(),
			common.BytesToHash(common.HexToAddress(a).Bytes()).Hex(),
			common.BytesToHash(common.HexToAddress(b).Bytes()).Hex(),
		},
		Data: hexutil.Encode(data),
	}
}

// RevertData encodes Error(string) revert data for reason.
func RevertData(reason string) string {
	str, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: str}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}
