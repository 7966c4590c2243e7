// Package quote computes the display-side swap numbers: expected output,
// slippage-bounded minimum, creator fee and the per-purchase buy cap. The
// authoritative pricing lives in the token contract.
package quote

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tickertool/ticker-tool/internal/utils"
)

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("invalid direction %q (want buy or sell)", s)
	}
}

func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

var (
	ErrNoPrice       = errors.New("price unavailable")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// divPrecision keeps wei resolution through divisions.
const divPrecision = 18

// sellMinDecimals is the precision the sell minimum is submitted with.
const sellMinDecimals = 4

var hundred = decimal.NewFromInt(100)

// Prices are the two pool prices read from the contract.
type Prices struct {
	TokenPriceInETH  decimal.Decimal `json:"tokenPriceInEth"`  // getTokenPrice
	EthPriceInTokens decimal.Decimal `json:"ethPriceInTokens"` // getEthPrice
}

// PricesFromWei converts the raw 18-decimal contract values.
func PricesFromWei(tokenPriceInETH, ethPriceInTokens *big.Int) Prices {
	return Prices{
		TokenPriceInETH:  utils.ToDecimal(tokenPriceInETH, 18),
		EthPriceInTokens: utils.ToDecimal(ethPriceInTokens, 18),
	}
}

type Estimation struct {
	Direction    Direction       `json:"direction"`
	AmountIn     decimal.Decimal `json:"amountIn"`
	AmountOut    decimal.Decimal `json:"amountOut"`
	MinAmountOut decimal.Decimal `json:"minAmountOut"`
	// CreatorFee is in ETH for buys and in tokens for sells.
	CreatorFee decimal.Decimal `json:"creatorFee"`
}

// AmountInWei is AmountIn scaled to 18 decimals.
func (e Estimation) AmountInWei() *big.Int {
	return utils.ToUnits(e.AmountIn, 18)
}

func (e Estimation) MinAmountOutWei() *big.Int {
	return utils.ToUnits(e.MinAmountOut, 18)
}

// Estimate quotes a swap of amount (ETH for buys, tokens for sells).
//
//	buy:  out = amount / tokenPriceInETH
//	sell: out = amount / ethPriceInTokens, min rounded to 4 decimals
//	min = out * (100 - slippage) / 100
//	fee = amount * creatorFee / 100
func Estimate(dir Direction, amount decimal.Decimal, prices Prices, creatorFeePercent, slippagePercent decimal.Decimal) (Estimation, error) {
	if !amount.IsPositive() {
		return Estimation{}, ErrInvalidAmount
	}

	var price decimal.Decimal
	switch dir {
	case Buy:
		price = prices.TokenPriceInETH
	case Sell:
		price = prices.EthPriceInTokens
	default:
		return Estimation{}, fmt.Errorf("invalid direction %q", dir)
	}
	if !price.IsPositive() {
		return Estimation{}, ErrNoPrice
	}

	out := amount.DivRound(price, divPrecision)
	minOut := out.Mul(hundred.Sub(slippagePercent)).Div(hundred).Truncate(divPrecision)
	if dir == Sell {
		minOut = minOut.Round(sellMinDecimals)
	}
	if minOut.IsNegative() {
		minOut = decimal.Zero
	}

	return Estimation{
		Direction:    dir,
		AmountIn:     amount,
		AmountOut:    out,
		MinAmountOut: minOut,
		CreatorFee:   amount.Mul(creatorFeePercent).Div(hundred),
	}, nil
}
