package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo is the factory's record for one minted token.
type TokenInfo struct {
	TokenAddress common.Address
	Name         string
	Symbol       string
	TotalSupply  *big.Int
	Creator      common.Address
	Timestamp    *big.Int // unix seconds
}

// CreatedAt converts Timestamp to a time. Out-of-range timestamps give the
// zero time.
func (t TokenInfo) CreatedAt() time.Time {
	if t.Timestamp == nil || !t.Timestamp.IsInt64() {
		return time.Time{}
	}
	return time.Unix(t.Timestamp.Int64(), 0).UTC()
}

// TokenCreated is the factory's creation event.
type TokenCreated struct {
	TokenAddress common.Address
	Creator      common.Address
	Name         string
	Symbol       string
	TotalSupply  *big.Int
	Timestamp    *big.Int
	TxHash       string
}

// Factory is a handle on the token factory contract.
type Factory struct {
	bound
}

// NewFactory binds the factory at address to b.
func NewFactory(address string, b Backend) (*Factory, error) {
	bd, err := newBound(address, FactoryABI, b)
	if err != nil {
		return nil, err
	}
	return &Factory{bound: bd}, nil
}

// TokensByCreator lists the tokens created by creator, in factory order.
func (f *Factory) TokensByCreator(ctx context.Context, creator string) ([]common.Address, error) {
	out, err := f.call(ctx, "getTokensByCreator", common.HexToAddress(creator))
	if err != nil {
		return nil, err
	}
	return asAddresses(out[0])
}

// TokenInfo fetches the metadata for one token.
func (f *Factory) TokenInfo(ctx context.Context, token common.Address) (TokenInfo, error) {
	out, err := f.call(ctx, "getTokenInfo", token)
	if err != nil {
		return TokenInfo{}, err
	}
	info, ok := abi.ConvertType(out[0], new(TokenInfo)).(*TokenInfo)
	if !ok {
		return TokenInfo{}, fmt.Errorf("decoding getTokenInfo: unexpected %T", out[0])
	}
	if info.Timestamp != nil && !info.Timestamp.IsInt64() {
		return TokenInfo{}, fmt.Errorf("%w: token %s reports %s", ErrTimestampRange, token.Hex(), info.Timestamp)
	}
	return *info, nil
}

// AllTokens lists every token the factory has minted.
func (f *Factory) AllTokens(ctx context.Context) ([]common.Address, error) {
	out, err := f.call(ctx, "getAllTokens")
	if err != nil {
		return nil, err
	}
	return asAddresses(out[0])
}

// TotalTokensCount returns the number of tokens the factory has minted.
func (f *Factory) TotalTokensCount(ctx context.Context) (*big.Int, error) {
	out, err := f.call(ctx, "getTotalTokensCount")
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

// EstimateCreateToken estimates gas for createToken sent from from.
func (f *Factory) EstimateCreateToken(ctx context.Context, from, name, symbol string, supply *big.Int) (uint64, error) {
	return f.estimate(ctx, from, "createToken", name, symbol, supply)
}

// CreateToken submits createToken with an explicit gas limit and returns
// the transaction hash.
func (f *Factory) CreateToken(ctx context.Context, from, name, symbol string, supply *big.Int, gasLimit uint64) (string, error) {
	return f.transact(ctx, from, gasLimit, "createToken", name, symbol, supply)
}

// WaitForCreation waits for hash to be mined and extracts its creation event.
// The receipt is returned even when the event is missing.
func (f *Factory) WaitForCreation(ctx context.Context, hash string) (*TokenCreated, *chain.Receipt, error) {
	receipt, err := f.backend.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, receipt, err
	}
	ev, err := f.ParseTokenCreated(receipt)
	return ev, receipt, err
}

// ParseTokenCreated returns the first TokenCreated event in receipt.
func (f *Factory) ParseTokenCreated(receipt *chain.Receipt) (*TokenCreated, error) {
	logs, err := f.logsFor(receipt, "TokenCreated")
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("TokenCreated: %w", ErrEventNotFound)
	}
	lg := logs[0]
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("TokenCreated: expected 3 topics, got %d", len(lg.Topics))
	}

	values, err := f.abi.Unpack("TokenCreated", lg.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding TokenCreated: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("decoding TokenCreated: got %d values", len(values))
	}
	ev := &TokenCreated{
		TokenAddress: common.BytesToAddress(lg.Topics[1].Bytes()),
		Creator:      common.BytesToAddress(lg.Topics[2].Bytes()),
		TxHash:       receipt.TxHash,
	}
	ev.Name, _ = values[0].(string)
	ev.Symbol, _ = values[1].(string)
	ev.TotalSupply, _ = values[2].(*big.Int)
	ev.Timestamp, _ = values[3].(*big.Int)
	return ev, nil
}
