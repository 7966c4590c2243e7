package wallet

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tickertool/ticker-tool/internal/chains"
)

// ErrNoWallet is returned when an operation needs a signer and none is unlocked.
var ErrNoWallet = errors.New("no wallet available")

// ActiveChain yields the active network and its client.
type ActiveChain interface {
	Active() (chains.ResolvedChain, chains.Client, error)
}

// Provider pairs the signer with whichever chain is active.
type Provider struct {
	signer *Signer
	chains ActiveChain
}

func NewProvider(signer *Signer, active ActiveChain) *Provider {
	return &Provider{signer: signer, chains: active}
}

func (p *Provider) Address() common.Address { return p.signer.Address() }

func (p *Provider) Client(ctx context.Context) (chains.Client, chains.ResolvedChain, error) {
	_ = ctx
	resolved, c, err := p.chains.Active()
	if err != nil {
		return nil, chains.ResolvedChain{}, err
	}
	return c, resolved, nil
}

// ChainID asks the node, not the config, so a misconfigured RPC shows up as
// a wrong network.
func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	c, _, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}
	id, err := c.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "eth_chainId")
	}
	return id, nil
}

func (p *Provider) Balance(ctx context.Context) (*big.Int, error) {
	c, _, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := c.BalanceAt(ctx, p.Address(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "eth_getBalance")
	}
	return bal, nil
}

// TransactOpts returns signing options for the active chain carrying value wei.
func (p *Provider) TransactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, chains.Client, error) {
	c, _, err := p.Client(ctx)
	if err != nil {
		return nil, nil, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "eth_chainId")
	}
	opts, err := p.signer.TransactOpts(ctx, c, chainID, value)
	if err != nil {
		return nil, nil, err
	}
	return opts, c, nil
}
