package quote

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ConstantProductOut is the x*y=k output for amountIn against the reserves,
// in raw units and before any contract fee. Zero reserves yield zero.
func ConstantProductOut(reserveIn, reserveOut, amountIn *big.Int) *big.Int {
	if reserveIn == nil || reserveOut == nil || amountIn == nil ||
		reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 || amountIn.Sign() <= 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(amountIn, reserveOut)
	den := new(big.Int).Add(reserveIn, amountIn)
	return num.Quo(num, den)
}

// PriceImpact is the percentage by which the execution price falls short of
// the spot price reserveOut/reserveIn.
func PriceImpact(reserveIn, reserveOut, amountIn *big.Int) decimal.Decimal {
	out := ConstantProductOut(reserveIn, reserveOut, amountIn)
	if out.Sign() == 0 {
		return decimal.Zero
	}
	spot := decimal.NewFromBigInt(reserveOut, 0).DivRound(decimal.NewFromBigInt(reserveIn, 0), divPrecision)
	exec := decimal.NewFromBigInt(out, 0).DivRound(decimal.NewFromBigInt(amountIn, 0), divPrecision)
	return decimal.NewFromInt(1).Sub(exec.DivRound(spot, divPrecision)).Mul(hundred).Round(4)
}
