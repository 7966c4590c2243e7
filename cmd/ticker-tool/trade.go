package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/setup"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/utils"
)

var errNoToken = errors.New("no --token given and no token deployed on the active network")

// tokenAddress parses raw or falls back to the token deployed on the active
// network.
func tokenAddress(ctx context.Context, app *setup.App, raw string) (common.Address, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		if !common.IsHexAddress(raw) {
			return common.Address{}, fmt.Errorf("invalid token address %q", raw)
		}
		return common.HexToAddress(raw), nil
	}
	st, err := app.Deployer.Status(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if st.Record == nil {
		return common.Address{}, errNoToken
	}
	return common.HexToAddress(st.Record.Contract), nil
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token [address]",
		Short: "Show token details, prices and reserves",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, raw)
				if err != nil {
					return err
				}
				s, err := app.Tokens.Snapshot(cmd.Context(), addr, app.Tokens.Holder())
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), s, formatSnapshot(s))
			})
		},
	}
}

func formatSnapshot(s *token.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s\n", s.Name, s.Symbol, s.Address)
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n", s.Description)
	}
	if s.LogoURL != "" {
		fmt.Fprintf(&b, "Logo: %s\n", s.LogoURL)
	}
	fmt.Fprintf(&b, "Creator: %s (fee %s%%)\n", s.Creator, s.CreatorFeePercent)
	fmt.Fprintf(&b, "Total supply: %s\n", s.TotalSupply)
	fmt.Fprintf(&b, "1 ETH = %s %s | 1 %s = %s ETH\n",
		s.Prices.EthPriceInTokens.Truncate(8), s.Symbol, s.Symbol, s.Prices.TokenPriceInETH.Truncate(8))
	fmt.Fprintf(&b, "Reserves: %s ETH / %s %s\n", s.EthReserve, s.TokenReserve, s.Symbol)
	fmt.Fprintf(&b, "Fees collected: %s ETH / %s %s, burned %s", s.TotalEthFees, s.TotalTokenFees, s.Symbol, s.Burned)
	if s.Holder != "" {
		fmt.Fprintf(&b, "\nYour balance: %s %s", s.HolderBalance, s.Symbol)
	}
	if s.NeedsLiquidity {
		b.WriteString("\nNo liquidity yet.")
	}
	return b.String()
}

func formatQuote(q *token.TradeQuote) string {
	e := q.Estimation
	feeSym := q.NativeSymbol
	if e.Direction == quote.Sell {
		feeSym = q.Symbol
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", strings.ToUpper(string(e.Direction)), e.AmountIn, q.BalanceSymbol)
	fmt.Fprintf(&b, "Estimated out: %s %s\n", e.AmountOut.Truncate(8), q.OutputSymbol)
	fmt.Fprintf(&b, "Minimum out: %s %s\n", e.MinAmountOut.Truncate(8), q.OutputSymbol)
	fmt.Fprintf(&b, "Fee (%s%%): %s %s\n", q.CreatorFee, e.CreatorFee.Truncate(8), feeSym)
	if q.PoolOut.IsPositive() {
		fmt.Fprintf(&b, "Pool out: %s %s (price impact %s%%)\n", q.PoolOut.Truncate(8), q.OutputSymbol, q.PriceImpact)
	}
	fmt.Fprintf(&b, "Balance: %s %s", q.Balance, q.BalanceSymbol)
	if q.Cap != nil {
		fmt.Fprintf(&b, "\nMax buy: %s %s", q.Cap.MaxETH.StringFixed(5), q.NativeSymbol)
	}
	if q.CapExceeded != "" {
		fmt.Fprintf(&b, "\n%s", q.CapExceeded)
	}
	return b.String()
}

type tradeFlags struct {
	token string
	max   bool
}

func (t *tradeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.token, "token", "", "token address (default: the token deployed on the active network)")
	cmd.Flags().BoolVar(&t.max, "max", false, "use the full balance of the side being sold")
}

func tradeArgs(args []string, useMax bool) (quote.Direction, string, error) {
	dir, err := quote.ParseDirection(args[0])
	if err != nil {
		return "", "", err
	}
	if len(args) < 2 && !useMax {
		return "", "", errors.New("amount is required unless --max is set")
	}
	var amount string
	if len(args) == 2 {
		amount = args[1]
	}
	return dir, amount, nil
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var tf tradeFlags
	cmd := &cobra.Command{
		Use:   "quote buy|sell [amount]",
		Short: "Estimate a swap without sending it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, amount, err := tradeArgs(args, tf.max)
			if err != nil {
				return err
			}
			// The wallet is only needed for balances with --max.
			return opts.withApp(cmd.Context(), tf.max, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, tf.token)
				if err != nil {
					return err
				}
				q, err := app.Tokens.Quote(cmd.Context(), addr, dir, amount, tf.max)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), q, formatQuote(q))
			})
		},
	}
	tf.register(cmd)
	return cmd
}

func newSwapCmd(opts *rootOptions) *cobra.Command {
	var tf tradeFlags
	cmd := &cobra.Command{
		Use:   "swap buy|sell [amount]",
		Short: "Buy tokens with ETH or sell tokens for ETH",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, amount, err := tradeArgs(args, tf.max)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, tf.token)
				if err != nil {
					return err
				}
				q, receipt, err := app.Tokens.Swap(cmd.Context(), addr, dir, amount, tf.max)
				if err != nil {
					return err
				}
				return printTx(opts, cmd, "Swap successful!", receipt, q)
			})
		},
	}
	tf.register(cmd)
	return cmd
}

func newLiquidityCmd(opts *rootOptions) *cobra.Command {
	var tokenFlag string
	cmd := &cobra.Command{
		Use:   "liquidity <tokens> <eth>",
		Short: "Seed the token's pool with tokens and ETH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenWei, err := utils.ParseUnits(args[0], constants.EtherDecimals)
			if err != nil {
				return fmt.Errorf("tokens: %w", err)
			}
			ethWei, err := utils.ParseEther(args[1])
			if err != nil {
				return fmt.Errorf("eth: %w", err)
			}
			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, tokenFlag)
				if err != nil {
					return err
				}
				receipt, err := app.Tokens.AddLiquidity(cmd.Context(), addr, tokenWei, ethWei)
				if err != nil {
					return err
				}
				return printTx(opts, cmd, "Liquidity added successfully!", receipt, nil)
			})
		},
	}
	cmd.Flags().StringVar(&tokenFlag, "token", "", "token address (default: the token deployed on the active network)")
	return cmd
}

func newRoyaltyCmd(opts *rootOptions) *cobra.Command {
	var tokenFlag string
	cmd := &cobra.Command{
		Use:   "royalty",
		Short: "Pay out the creator royalty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, tokenFlag)
				if err != nil {
					return err
				}
				receipt, err := app.Tokens.PayRoyalty(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return printTx(opts, cmd, "Royalty paid successfully!", receipt, nil)
			})
		},
	}
	cmd.Flags().StringVar(&tokenFlag, "token", "", "token address (default: the token deployed on the active network)")
	return cmd
}

func newApproveCmd(opts *rootOptions) *cobra.Command {
	var tokenFlag string
	cmd := &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "Approve a spender for an amount of tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid spender address %q", args[0])
			}
			spender := common.HexToAddress(args[0])
			amount, err := utils.ParseUnits(args[1], constants.EtherDecimals)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				addr, err := tokenAddress(cmd.Context(), app, tokenFlag)
				if err != nil {
					return err
				}
				receipt, err := app.Tokens.Approve(cmd.Context(), addr, spender, amount)
				if err != nil {
					return err
				}
				return printTx(opts, cmd, "Approval successful!", receipt, nil)
			})
		},
	}
	cmd.Flags().StringVar(&tokenFlag, "token", "", "token address (default: the token deployed on the active network)")
	return cmd
}

func printTx(opts *rootOptions, cmd *cobra.Command, msg string, r *types.Receipt, q *token.TradeQuote) error {
	out := map[string]any{"message": msg, "txHash": r.TxHash.Hex()}
	if r.BlockNumber != nil {
		out["blockNumber"] = r.BlockNumber.Uint64()
	}
	if q != nil {
		out["quote"] = q
	}
	return opts.print(cmd.OutOrStdout(), out, fmt.Sprintf("%s\nTx: %s", msg, r.TxHash.Hex()))
}
