package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

// Token is a handle on an ERC-20 contract.
type Token struct {
	bound
}

// Metadata is the static description of an ERC-20 token.
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// TransferEvent is a decoded Transfer log.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// ApprovalEvent is a decoded Approval log.
type ApprovalEvent struct {
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

// NewToken binds the ERC-20 at address to b.
func NewToken(address string, b Backend) (*Token, error) {
	bd, err := newBound(address, ERC20ABI, b)
	if err != nil {
		return nil, err
	}
	return &Token{bound: bd}, nil
}

func (t *Token) Name(ctx context.Context) (string, error) {
	return t.callString(ctx, "name")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected %T", out[0])
	}
	return d, nil
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := t.call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

func (t *Token) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	out, err := t.call(ctx, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

func (t *Token) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	out, err := t.call(ctx, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}
	return asBig(out[0])
}

// Metadata reads name, symbol, decimals and total supply.
func (t *Token) Metadata(ctx context.Context) (Metadata, error) {
	var (
		m   Metadata
		err error
	)
	if m.Name, err = t.Name(ctx); err != nil {
		return m, err
	}
	if m.Symbol, err = t.Symbol(ctx); err != nil {
		return m, err
	}
	if m.Decimals, err = t.Decimals(ctx); err != nil {
		return m, err
	}
	if m.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return m, err
	}
	return m, nil
}

// Transfer sends amount raw units from from to to.
func (t *Token) Transfer(ctx context.Context, from, to string, amount *big.Int) (string, error) {
	return t.transact(ctx, from, 0, "transfer", common.HexToAddress(to), amount)
}

// Approve lets spender move up to amount raw units on from's behalf.
func (t *Token) Approve(ctx context.Context, from, spender string, amount *big.Int) (string, error) {
	return t.transact(ctx, from, 0, "approve", common.HexToAddress(spender), amount)
}

// TransferFrom moves amount from owner to to, sent by spender.
func (t *Token) TransferFrom(ctx context.Context, spender, owner, to string, amount *big.Int) (string, error) {
	return t.transact(ctx, spender, 0, "transferFrom", common.HexToAddress(owner), common.HexToAddress(to), amount)
}

// ParseTransfers decodes every Transfer log this token emitted in receipt.
func (t *Token) ParseTransfers(receipt *chain.Receipt) ([]TransferEvent, error) {
	logs, err := t.logsFor(receipt, "Transfer")
	if err != nil {
		return nil, err
	}
	out := make([]TransferEvent, 0, len(logs))
	for _, lg := range logs {
		from, to, value, err := t.decodePair(lg.Topics, lg.Data, "Transfer")
		if err != nil {
			return nil, err
		}
		out = append(out, TransferEvent{From: from, To: to, Value: value})
	}
	return out, nil
}

// ParseApprovals decodes every Approval log this token emitted in receipt.
func (t *Token) ParseApprovals(receipt *chain.Receipt) ([]ApprovalEvent, error) {
	logs, err := t.logsFor(receipt, "Approval")
	if err != nil {
		return nil, err
	}
	out := make([]ApprovalEvent, 0, len(logs))
	for _, lg := range logs {
		owner, spender, value, err := t.decodePair(lg.Topics, lg.Data, "Approval")
		if err != nil {
			return nil, err
		}
		out = append(out, ApprovalEvent{Owner: owner, Spender: spender, Value: value})
	}
	return out, nil
}

// decodePair handles the (address indexed, address indexed, uint256) shape
// shared by Transfer and Approval.
func (t *Token) decodePair(topics []common.Hash, data []byte, event string) (common.Address, common.Address, *big.Int, error) {
	if len(topics) < 3 {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("%s: expected 3 topics, got %d", event, len(topics))
	}
	values, err := t.abi.Unpack(event, data)
	if err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("decoding %s: %w", event, err)
	}
	value, err := asBig(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return common.BytesToAddress(topics[1].Bytes()), common.BytesToAddress(topics[2].Bytes()), value, nil
}

func (t *Token) callString(ctx context.Context, method string) (string, error) {
	out, err := t.call(ctx, method)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected %T", method, out[0])
	}
	return s, nil
}
