package token

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tickertool/ticker-tool/internal/ipfs"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/utils"
)

// Snapshot is everything the token screens display. Amounts are in whole
// units (18 decimals applied).
type Snapshot struct {
	Address           string          `json:"address"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol"`
	Creator           string          `json:"creator"`
	CreatorFeePercent decimal.Decimal `json:"creatorFeePercent"`
	Description       string          `json:"description"`
	LogoURI           string          `json:"logoUri"`
	LogoURL           string          `json:"logoUrl"`

	TotalSupply   decimal.Decimal `json:"totalSupply"`
	Holder        string          `json:"holder,omitempty"`
	HolderBalance decimal.Decimal `json:"holderBalance"`

	Prices       quote.Prices    `json:"prices"`
	EthReserve   decimal.Decimal `json:"ethReserve"`
	TokenReserve decimal.Decimal `json:"tokenReserve"`

	TotalEthFees   decimal.Decimal `json:"totalEthFees"`
	TotalTokenFees decimal.Decimal `json:"totalTokenFees"`
	Burned         decimal.Decimal `json:"burned"`

	NeedsLiquidity bool `json:"needsLiquidity"`
}

// Snapshot reads the full token state. holder may be the zero address, in
// which case no balance is read.
func (s *Service) Snapshot(ctx context.Context, token, holder common.Address) (snap *Snapshot, err error) {
	ctx, span := s.startSpan(ctx, "Snapshot", token)
	defer func() { endSpan(span, err) }()

	c, err := s.caller(ctx, token)
	if err != nil {
		return nil, err
	}
	opts := &bind.CallOpts{Context: ctx}

	out := &Snapshot{Address: token.Hex()}
	var r reads

	out.Name = r.str(c.Name(opts))
	out.Symbol = r.str(c.Symbol(opts))
	out.Description = r.str(c.TokenDescription(opts))
	out.LogoURI = r.str(c.TokenImageUrl(opts))
	out.LogoURL = ipfs.GatewayURL(s.cfg.IPFSGateway, out.LogoURI)

	creator, cerr := c.Creator(opts)
	r.note(cerr)
	out.Creator = creator.Hex()

	out.CreatorFeePercent = decimal.NewFromBigInt(r.num(c.CreatorFeePercentage(opts)), 0)
	out.TotalSupply = units(r.num(c.TotalSupply(opts)))

	tokenPrice := r.num(c.GetTokenPrice(opts))
	ethPrice := r.num(c.GetEthPrice(opts))
	out.Prices = quote.PricesFromWei(tokenPrice, ethPrice)

	ethReserve := r.num(c.EthReserve(opts))
	tokenReserve := r.num(c.TokenReserve(opts))
	out.EthReserve = units(ethReserve)
	out.TokenReserve = units(tokenReserve)
	out.NeedsLiquidity = ethReserve.Sign() == 0 && tokenReserve.Sign() == 0

	out.TotalEthFees = units(r.num(c.TotalEthFeesCollected(opts)))
	out.TotalTokenFees = units(r.num(c.TotalTokenFeesCollected(opts)))
	out.Burned = units(r.num(c.TokenBurn(opts)))

	if holder != (common.Address{}) {
		out.Holder = holder.Hex()
		out.HolderBalance = units(r.num(c.BalanceOf(opts, holder)))
	}

	if r.err != nil {
		return nil, errors.Wrapf(r.err, "read token %s", token.Hex())
	}
	return out, nil
}

// NeedsLiquidity reports whether both pool reserves are zero.
func (s *Service) NeedsLiquidity(ctx context.Context, token common.Address) (bool, error) {
	c, err := s.caller(ctx, token)
	if err != nil {
		return false, err
	}
	opts := &bind.CallOpts{Context: ctx}
	var r reads
	eth := r.num(c.EthReserve(opts))
	tok := r.num(c.TokenReserve(opts))
	if r.err != nil {
		return false, errors.Wrapf(r.err, "read reserves %s", token.Hex())
	}
	return eth.Sign() == 0 && tok.Sign() == 0, nil
}

// Reserves returns the raw pool reserves (ETH, tokens) in wei.
func (s *Service) Reserves(ctx context.Context, token common.Address) (*big.Int, *big.Int, error) {
	c, err := s.caller(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	opts := &bind.CallOpts{Context: ctx}
	var r reads
	eth := r.num(c.EthReserve(opts))
	tok := r.num(c.TokenReserve(opts))
	if r.err != nil {
		return nil, nil, errors.Wrapf(r.err, "read reserves %s", token.Hex())
	}
	return eth, tok, nil
}

// reads keeps the first error from a run of calls.
type reads struct {
	err error
}

func (r *reads) note(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reads) str(v string, err error) string {
	r.note(err)
	return v
}

func (r *reads) num(v *big.Int, err error) *big.Int {
	r.note(err)
	if v == nil {
		return new(big.Int)
	}
	return v
}

func units(v *big.Int) decimal.Decimal {
	return utils.ToDecimal(v, 18)
}
