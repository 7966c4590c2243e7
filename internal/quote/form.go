package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tickertool/ticker-tool/internal/utils"
)

// Form is the swap form state: every setter recomputes the estimate. Not
// safe for concurrent use.
type Form struct {
	slippage decimal.Decimal

	direction  Direction
	amount     string
	prices     Prices
	creatorFee decimal.Decimal

	ethBalance   decimal.Decimal
	tokenBalance decimal.Decimal
	ethSymbol    string
	tokenSymbol  string

	estimate Estimation
	err      error
}

func NewForm(slippagePercent decimal.Decimal) *Form {
	f := &Form{slippage: slippagePercent, direction: Buy, ethSymbol: "ETH"}
	f.recompute()
	return f
}

func (f *Form) SetAmount(s string) {
	f.amount = s
	f.recompute()
}

func (f *Form) SetDirection(d Direction) {
	f.direction = d
	f.recompute()
}

// ToggleDirection flips buy/sell. Prices and the typed amount stay as they are.
func (f *Form) ToggleDirection() {
	f.direction = f.direction.Opposite()
	f.recompute()
}

func (f *Form) SetPrices(p Prices) {
	f.prices = p
	f.recompute()
}

func (f *Form) SetCreatorFee(percent decimal.Decimal) {
	f.creatorFee = percent
	f.recompute()
}

func (f *Form) SetBalances(eth, token decimal.Decimal) {
	f.ethBalance = eth
	f.tokenBalance = token
}

func (f *Form) SetSymbols(eth, token string) {
	if eth != "" {
		f.ethSymbol = eth
	}
	f.tokenSymbol = token
}

// UseMax fills the amount with the balance of the side being sold.
func (f *Form) UseMax() {
	bal, _ := f.Balance()
	f.SetAmount(bal.String())
}

func (f *Form) Direction() Direction { return f.direction }
func (f *Form) Amount() string       { return f.amount }

// Balance is the balance and symbol shown next to the input.
func (f *Form) Balance() (decimal.Decimal, string) {
	if f.direction == Buy {
		return f.ethBalance, f.ethSymbol
	}
	return f.tokenBalance, f.tokenSymbol
}

// OutputSymbol is the symbol of the side being received.
func (f *Form) OutputSymbol() string {
	if f.direction == Buy {
		return f.tokenSymbol
	}
	return f.ethSymbol
}

// Estimate returns the last computed estimate, or the reason there is none.
func (f *Form) Estimate() (Estimation, error) {
	return f.estimate, f.err
}

func (f *Form) recompute() {
	f.estimate = Estimation{}
	amount, err := utils.ParseAmount(f.amount)
	if err != nil {
		f.err = fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		return
	}
	f.estimate, f.err = Estimate(f.direction, amount, f.prices, f.creatorFee, f.slippage)
}
