package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tickertool/ticker-tool/internal/setup"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

func newWalletCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the local signing key",
	}
	cmd.AddCommand(newWalletInitCmd(opts), newWalletAddressCmd(opts))
	return cmd
}

func newWalletInitCmd(opts *rootOptions) *cobra.Command {
	var importHex string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create (or import) the encrypted wallet key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := wallet.NewStore("")
			if err != nil {
				return err
			}
			if store.Exists() && importHex == "" {
				return fmt.Errorf("wallet already exists at %s", store.Path)
			}

			pwd, err := wallet.PasswordFromEnvOrPrompt(cfg.Secrets.WalletPassword)
			if err != nil {
				return err
			}
			defer wallet.ZeroBytes(pwd)

			var key *wallet.Key
			if importHex != "" {
				key, err = store.Import(pwd, importHex)
			} else {
				key, err = store.Ensure(pwd)
			}
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(),
				map[string]string{"address": key.AddressHex, "path": store.Path},
				fmt.Sprintf("Wallet %s saved to %s", key.AddressHex, store.Path))
		},
	}
	cmd.Flags().StringVar(&importHex, "import", "", "hex private key to import instead of generating one")
	return cmd
}

func newWalletAddressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Show the wallet address, network and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), true, func(app *setup.App) error {
				st, err := app.Session.Connect(cmd.Context())
				if err != nil {
					return err
				}
				network := "unsupported network"
				if st.Network != nil {
					network = st.Network.NetworkName
				}
				return opts.print(cmd.OutOrStdout(), st,
					fmt.Sprintf("%s\n%s ETH on %s", st.Address, st.Balance, network))
			})
		},
	}
}
