package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrBuyCapExceeded = errors.New("purchase exceeds buy cap")

// Cap limits a single purchase to a share of the total supply.
type Cap struct {
	SupplyPercent decimal.Decimal `json:"supplyPercent"`
	CapTokens     decimal.Decimal `json:"capTokens"`
	MaxETH        decimal.Decimal `json:"maxEth"`
}

// BuyCap computes capTokens = supply * supplyPct / 100 and
// maxETH = capTokens / ethPriceInTokens * safetyPct / 100.
func BuyCap(totalSupply, ethPriceInTokens, supplyPercent, safetyPercent decimal.Decimal) (Cap, error) {
	if !ethPriceInTokens.IsPositive() {
		return Cap{}, ErrNoPrice
	}
	capTokens := totalSupply.Mul(supplyPercent).Div(hundred)
	maxETH := capTokens.DivRound(ethPriceInTokens, divPrecision).Mul(safetyPercent).Div(hundred).Truncate(divPrecision)
	return Cap{SupplyPercent: supplyPercent, CapTokens: capTokens, MaxETH: maxETH}, nil
}

type BuyCapError struct {
	SupplyPercent decimal.Decimal
	MaxETH        decimal.Decimal
	Symbol        string
}

func (e *BuyCapError) Error() string {
	return fmt.Sprintf("The purchase amount exceeds %s%% of the total supply. You can buy up to %s %s.",
		e.SupplyPercent.String(), e.MaxETH.StringFixed(5), e.Symbol)
}

func (e *BuyCapError) Is(target error) bool { return target == ErrBuyCapExceeded }

// CheckBuyCap rejects ethAmount strictly above the cap. Equal is allowed.
func CheckBuyCap(ethAmount decimal.Decimal, c Cap, symbol string) error {
	if ethAmount.GreaterThan(c.MaxETH) {
		return &BuyCapError{SupplyPercent: c.SupplyPercent, MaxETH: c.MaxETH, Symbol: symbol}
	}
	return nil
}
