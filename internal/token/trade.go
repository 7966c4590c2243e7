package token

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/utils"
)

const defaultNativeSymbol = "ETH"

// networkInfo is implemented by readers that know the active network.
type networkInfo interface {
	ActiveNetwork() (chains.ResolvedChain, error)
}

// TradeQuote is a swap estimate together with the form context it was
// computed in.
type TradeQuote struct {
	Token         string           `json:"token"`
	Symbol        string           `json:"symbol"`
	NativeSymbol  string           `json:"nativeSymbol"`
	Estimation    quote.Estimation `json:"estimation"`
	OutputSymbol  string           `json:"outputSymbol"`
	Balance       decimal.Decimal  `json:"balance"`
	BalanceSymbol string           `json:"balanceSymbol"`
	CreatorFee    decimal.Decimal  `json:"creatorFeePercent"`
	Prices        quote.Prices     `json:"prices"`

	// PoolOut is the x*y=k output against the current reserves and
	// PriceImpact how far it falls below the spot price, in percent.
	PoolOut     decimal.Decimal `json:"poolOut"`
	PriceImpact decimal.Decimal `json:"priceImpact"`

	// Buys only.
	Cap         *quote.Cap `json:"cap,omitempty"`
	CapExceeded string     `json:"capExceeded,omitempty"`

	capErr error
}

// Quote estimates a swap of amount on token. With useMax the amount is the
// holder's balance of the side being sold.
func (s *Service) Quote(ctx context.Context, token common.Address, dir quote.Direction, amount string, useMax bool) (*TradeQuote, error) {
	holder := s.Holder()
	snap, err := s.Snapshot(ctx, token, holder)
	if err != nil {
		return nil, err
	}

	native := s.nativeSymbol()
	form := quote.NewForm(s.cfg.SlippagePercent)
	form.SetSymbols(native, snap.Symbol)
	form.SetPrices(snap.Prices)
	form.SetCreatorFee(snap.CreatorFeePercent)
	form.SetDirection(dir)

	ethBalance := decimal.Zero
	if holder != (common.Address{}) {
		client, err := s.reader.ActiveClient(ctx)
		if err != nil {
			return nil, err
		}
		wei, err := client.BalanceAt(ctx, holder, nil)
		if err != nil {
			return nil, err
		}
		ethBalance = utils.ToDecimal(wei, 18)
	}
	form.SetBalances(ethBalance, snap.HolderBalance)

	if useMax {
		form.UseMax()
	} else {
		form.SetAmount(amount)
	}
	est, err := form.Estimate()
	if err != nil {
		return nil, err
	}

	bal, balSym := form.Balance()
	q := &TradeQuote{
		Token:         snap.Address,
		Symbol:        snap.Symbol,
		NativeSymbol:  native,
		Estimation:    est,
		OutputSymbol:  form.OutputSymbol(),
		Balance:       bal,
		BalanceSymbol: balSym,
		CreatorFee:    snap.CreatorFeePercent,
		Prices:        snap.Prices,
	}

	ethRes, tokRes, err := s.Reserves(ctx, token)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := ethRes, tokRes
	if dir == quote.Sell {
		reserveIn, reserveOut = tokRes, ethRes
	}
	q.PoolOut = utils.ToDecimal(quote.ConstantProductOut(reserveIn, reserveOut, est.AmountInWei()), 18)
	q.PriceImpact = quote.PriceImpact(reserveIn, reserveOut, est.AmountInWei())

	if dir == quote.Buy {
		c, err := quote.BuyCap(snap.TotalSupply, snap.Prices.EthPriceInTokens, s.cfg.BuyCapSupplyPercent, s.cfg.BuyCapSafetyPercent)
		if err != nil && !errors.Is(err, quote.ErrNoPrice) {
			return nil, err
		}
		if err == nil {
			q.Cap = &c
			if cerr := quote.CheckBuyCap(est.AmountIn, c, native); cerr != nil {
				q.capErr = cerr
				q.CapExceeded = cerr.Error()
			}
		}
	}
	return q, nil
}

// Swap quotes and then executes the trade. A buy above the cap is rejected
// before anything is sent.
func (s *Service) Swap(ctx context.Context, token common.Address, dir quote.Direction, amount string, useMax bool) (*TradeQuote, *types.Receipt, error) {
	q, err := s.Quote(ctx, token, dir, amount, useMax)
	if err != nil {
		return nil, nil, err
	}
	if q.capErr != nil {
		return q, nil, q.capErr
	}

	var receipt *types.Receipt
	switch dir {
	case quote.Buy:
		receipt, err = s.Buy(ctx, token, q.Estimation.AmountInWei(), q.Estimation.MinAmountOutWei())
	default:
		receipt, err = s.Sell(ctx, token, q.Estimation.AmountInWei(), q.Estimation.MinAmountOutWei())
	}
	return q, receipt, err
}

func (s *Service) nativeSymbol() string {
	if n, ok := s.reader.(networkInfo); ok {
		if chain, err := n.ActiveNetwork(); err == nil && chain.Ticker != "" {
			return chain.Ticker
		}
	}
	return defaultNativeSymbol
}
