package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FeeBackend is what TransactOpts needs from a chain client.
type FeeBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type Signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewSigner(k *Key) (*Signer, error) {
	if k == nil {
		return nil, fmt.Errorf("nil key")
	}
	priv, err := k.privateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{key: priv, addr: k.Address()}, nil
}

func (s *Signer) Address() common.Address { return s.addr }

// TransactOpts builds keyed transact options with the pending nonce and
// EIP-1559 fee caps (baseFee*2 + tip), falling back to a legacy gas price.
// value may be nil.
func (s *Signer) TransactOpts(ctx context.Context, eth FeeBackend, chainID, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, err
	}

	nonce, err := eth.PendingNonceAt(ctx, s.addr)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)

	// Fees: 1559 preferred, else legacy
	tip, tipErr := eth.SuggestGasTipCap(ctx)
	hdr, hdrErr := eth.HeaderByNumber(ctx, nil)

	if tipErr == nil && hdrErr == nil && hdr != nil && hdr.BaseFee != nil {
		feeCap := new(big.Int).Mul(hdr.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		opts.GasTipCap = tip
		opts.GasFeeCap = feeCap
	} else {
		gp, err := eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		opts.GasPrice = gp
	}

	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}
	opts.Context = ctx
	return opts, nil
}
