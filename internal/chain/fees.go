package chain

import (
	"context"
	"math/big"
)

// DefaultTipCap is the priority fee used when the node does not answer
// eth_maxPriorityFeePerGas.
var DefaultTipCap = big.NewInt(1_500_000_000) // 1.5 gwei

// Fees holds EIP-1559 fee caps for a new transaction.
type Fees struct {
	BaseFee *big.Int // nil on legacy chains
	TipCap  *big.Int
	FeeCap  *big.Int
}

// LatestBaseFee reads baseFeePerGas from the latest block header.
// Returns nil, nil on chains without EIP-1559.
func (c *EVMClient) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	var rb *struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if err := c.call(ctx, &rb, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}
	if rb == nil || rb.BaseFeePerGas == "" {
		return nil, nil
	}
	bf, ok := parseBigHex(rb.BaseFeePerGas)
	if !ok {
		return nil, nil
	}
	return bf, nil
}

// SuggestFees returns fee caps of 2*baseFee + tip. Legacy chains fall back
// to eth_gasPrice for both caps.
func (c *EVMClient) SuggestFees(ctx context.Context) (*Fees, error) {
	baseFee, err := c.LatestBaseFee(ctx)
	if err != nil {
		return nil, err
	}
	if baseFee == nil {
		gp, err := c.GasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return &Fees{TipCap: gp, FeeCap: gp}, nil
	}

	tip, err := c.callBig(ctx, "eth_maxPriorityFeePerGas")
	if err != nil {
		tip = new(big.Int).Set(DefaultTipCap)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return &Fees{BaseFee: baseFee, TipCap: tip, FeeCap: feeCap}, nil
}

// WeiToGwei converts a Wei value to Gwei as float64.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetFloat64(1e9),
	).Float64()
	return f
}
