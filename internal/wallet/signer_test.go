package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dynamicTx() *types.Transaction {
	to := common.HexToAddress("0x2846e2885e35e243d9d5eea203e90b547ed86155")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(84532),
		Nonce:     3,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(2e9),
		Gas:       200000,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      []byte{0xde, 0xad},
	})
}

func TestSignTxRecoversSender(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("dev", testPrivKeyHex)
	require.NoError(t, err)
	w := &Wallet{Name: "dev", Address: testSignerAddr, Type: TypeSigning, KeyRef: ref}

	raw, err := NewSigner(w, ks).SignTx(dynamicTx(), big.NewInt(84532))
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(84532)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, testSignerAddr, from.Hex())
	assert.Equal(t, uint64(3), decoded.Nonce())
}

func TestSignTxWatchOnly(t *testing.T) {
	w := &Wallet{Name: "watcher", Address: testSignerAddr, Type: TypeWatchOnly}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(), big.NewInt(84532))
	assert.ErrorIs(t, err, ErrWatchOnly)
}

func TestSignTxMissingKey(t *testing.T) {
	w := &Wallet{Name: "ghost", Address: testSignerAddr, Type: TypeSigning, KeyRef: "memefactory.ghost"}
	_, err := NewSigner(w, NewInMemoryKeystore()).SignTx(dynamicTx(), big.NewInt(84532))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieving key")
}
