package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Errors.
var (
	ErrInvalidAddress = errors.New("invalid contract address")
	ErrEventNotFound  = errors.New("event not found in receipt")
	ErrTimestampRange = errors.New("timestamp out of range")
)

// Backend is what a contract handle needs from a wallet provider.
type Backend interface {
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, msg chain.CallMsg) (string, error)
	WaitForReceipt(ctx context.Context, hash string) (*chain.Receipt, error)
}

// bound ties an ABI to an address and a backend.
type bound struct {
	address common.Address
	abi     abi.ABI
	backend Backend
}

func newBound(address string, parsed abi.ABI, b Backend) (bound, error) {
	if !common.IsHexAddress(address) || common.HexToAddress(address) == (common.Address{}) {
		return bound{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return bound{address: common.HexToAddress(address), abi: parsed, backend: b}, nil
}

// Address returns the checksummed contract address.
func (b *bound) Address() string { return b.address.Hex() }

func (b *bound) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := b.backend.Call(ctx, chain.CallMsg{To: b.address.Hex(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	res, err := b.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("decoding %s: empty result", method)
	}
	return res, nil
}

func (b *bound) txMsg(from string, gas uint64, method string, args ...interface{}) (chain.CallMsg, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return chain.CallMsg{}, fmt.Errorf("encoding %s: %w", method, err)
	}
	return chain.CallMsg{From: from, To: b.address.Hex(), Data: data, Gas: gas}, nil
}

// estimate returns the gas the node expects method to use. Errors are
// returned unwrapped so revert data stays reachable.
func (b *bound) estimate(ctx context.Context, from, method string, args ...interface{}) (uint64, error) {
	msg, err := b.txMsg(from, 0, method, args...)
	if err != nil {
		return 0, err
	}
	return b.backend.EstimateGas(ctx, msg)
}

// transact submits method. A zero gas lets the provider estimate.
func (b *bound) transact(ctx context.Context, from string, gas uint64, method string, args ...interface{}) (string, error) {
	msg, err := b.txMsg(from, gas, method, args...)
	if err != nil {
		return "", err
	}
	return b.backend.SendTransaction(ctx, msg)
}

// logsFor decodes receipt logs emitted by this contract for event.
func (b *bound) logsFor(receipt *chain.Receipt, event string) ([]types.Log, error) {
	ev, ok := b.abi.Events[event]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", event)
	}
	var out []types.Log
	for _, raw := range receipt.Logs {
		if !strings.EqualFold(raw.Address, b.address.Hex()) || len(raw.Topics) == 0 {
			continue
		}
		lg, err := raw.ToTypes()
		if err != nil {
			return nil, err
		}
		if lg.Topics[0] != ev.ID {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func asAddresses(v interface{}) ([]common.Address, error) {
	addrs, ok := v.([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", v)
	}
	return addrs, nil
}

func asBig(v interface{}) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", v)
	}
	return n, nil
}
