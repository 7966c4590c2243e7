package main

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tickertool/ticker-tool/internal/deployer"
	"github.com/tickertool/ticker-tool/internal/setup"
	"github.com/tickertool/ticker-tool/internal/utils"
)

func newDeployCmd(opts *rootOptions) *cobra.Command {
	var (
		req          deployer.Request
		logoFile     string
		ethReserve   string
		tokenReserve string
		yes          bool
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new ticker token on the active network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.EthReserve, err = optionalWei(ethReserve); err != nil {
				return fmt.Errorf("--eth-reserve: %w", err)
			}
			if req.TokenReserve, err = optionalWei(tokenReserve); err != nil {
				return fmt.Errorf("--token-reserve: %w", err)
			}
			if logoFile != "" {
				f, err := os.Open(logoFile)
				if err != nil {
					return err
				}
				defer f.Close()
				req.Logo = f
				req.LogoFilename = filepath.Base(logoFile)
			}

			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				ctx := cmd.Context()
				st, err := app.Deployer.Status(ctx)
				if err != nil {
					return err
				}
				if st.HasToken && !yes {
					ok, err := setup.PromptYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(),
						fmt.Sprintf("%s (%s). Deploy another and replace it? [y/N] ", deployer.MsgActiveToken, st.Record.Contract))
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
				}

				res, err := app.Deployer.Deploy(ctx, req)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), res,
					fmt.Sprintf("Contract deployed successfully!\nContract: %s\nTx: %s\nNetwork: %s",
						res.Record.Contract, res.TxHash, res.Network.NetworkName))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "token name")
	f.StringVar(&req.Symbol, "symbol", "", "token symbol")
	f.StringVar(&req.Description, "description", "", "token description")
	f.StringVar(&req.LogoURL, "logo-url", "", "logo URL or ipfs:// URI")
	f.StringVar(&logoFile, "logo", "", "logo file to pin to IPFS (needs PINATA_JWT)")
	f.Int64Var(&req.CreatorFeePercent, "fee", 0, "creator fee percent (0-100)")
	f.StringVar(&ethReserve, "eth-reserve", "", "initial ETH reserve, for contracts that seed the pool at construction")
	f.StringVar(&tokenReserve, "token-reserve", "", "initial token reserve, for contracts that seed the pool at construction")
	f.BoolVarP(&yes, "yes", "y", false, "replace an existing token without asking")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the token deployed on the active network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				st, err := app.Deployer.Status(cmd.Context())
				if err != nil {
					return err
				}
				human := fmt.Sprintf("%s: %s", st.Network.NetworkName, st.Message)
				if st.Record != nil {
					human += fmt.Sprintf("\nContract: %s\nDeployer: %s", st.Record.Contract, st.Record.Deployer)
					if st.Network.Explorer != "" {
						human += fmt.Sprintf("\nExplorer: %s/address/%s", st.Network.Explorer, st.Record.Contract)
					}
					if st.NeedsLiquidity {
						human += "\nThe pool has no liquidity yet: run `ticker-tool liquidity <tokens> <eth>`."
					}
				}
				return opts.print(cmd.OutOrStdout(), st, human)
			})
		},
	}
}

func newForgetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Forget the token recorded for the active network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				ctx := cmd.Context()
				if !yes {
					st, err := app.Deployer.Status(ctx)
					if err != nil {
						return err
					}
					if !st.HasToken {
						return opts.print(cmd.OutOrStdout(), st, st.Message)
					}
					ok, err := setup.PromptYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(),
						fmt.Sprintf("Forget %s on %s? [y/N] ", st.Record.Contract, st.Network.NetworkName))
					if err != nil || !ok {
						return err
					}
				}
				rec, err := app.Deployer.Forget(ctx)
				if err != nil {
					return err
				}
				if rec == nil {
					return opts.print(cmd.OutOrStdout(), map[string]any{"forgotten": nil}, deployer.MsgNoToken)
				}
				return opts.print(cmd.OutOrStdout(), map[string]any{"forgotten": rec}, "Forgot "+rec.Contract)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func optionalWei(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return utils.ParseEther(s)
}
