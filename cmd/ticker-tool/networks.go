package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/setup"
)

func newNetworksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List, switch and add networks",
	}
	cmd.AddCommand(
		newNetworksListCmd(opts),
		newNetworksSwitchCmd(opts),
		newNetworksAddCmd(opts),
		newNetworksRemoveCmd(opts),
	)
	return cmd
}

func newNetworksListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				list := app.Chains.Networks()
				active, _ := app.Chains.ActiveNetwork()
				if opts.jsonOut {
					return opts.print(cmd.OutOrStdout(), map[string]any{"active": active.NetworkName, "networks": list}, "")
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tNAME\tCHAIN ID\tTICKER\tEXPLORER")
				for _, n := range list {
					mark := ""
					if n.Name == active.NetworkName {
						mark = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, n.Name, n.ChainIDHex, n.Ticker, n.Explorer)
				}
				return tw.Flush()
			})
		},
	}
}

func newNetworksSwitchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <chainIdHex>",
		Short: "Make a network active (remembered for later runs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				chain, _, err := app.SwitchNetwork(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), chain,
					fmt.Sprintf("Switched to %s (%s)", chain.NetworkName, chain.ChainIDHex))
			})
		},
	}
}

func newNetworksAddCmd(opts *rootOptions) *cobra.Command {
	var (
		n      chains.NetworkConfig
		rpcURL string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a custom network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n.RPCs = []chains.RPC{{Name: "default", URL: strings.TrimSpace(rpcURL)}}
			id, err := chainIDOf(n)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				if app.Chains.IsSupportedChainID(id) {
					return fmt.Errorf("chain id %d is already configured", id)
				}
				saved, err := app.Networks.Add(cmd.Context(), n)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), saved,
					fmt.Sprintf("Added %s (%s), saved to %s", saved.Name, saved.ChainIDHex, app.Networks.Path()))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&n.Name, "name", "", "network name (filled for well-known chain ids)")
	f.Uint64Var(&n.ChainID, "chain-id", 0, "chain id")
	f.StringVar(&n.ChainIDHex, "chain-id-hex", "", "chain id in hex")
	f.StringVar(&n.Explorer, "explorer", "", "block explorer URL")
	f.StringVar(&n.Ticker, "ticker", "", "native currency symbol")
	f.StringVar(&rpcURL, "rpc", "", "JSON-RPC URL")
	_ = cmd.MarkFlagRequired("rpc")
	return cmd
}

// chainIDOf reads the chain id from --chain-id or --chain-id-hex.
func chainIDOf(n chains.NetworkConfig) (uint64, error) {
	if n.ChainID != 0 {
		return n.ChainID, nil
	}
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(n.ChainIDHex)), "0x")
	if h == "" {
		return 0, fmt.Errorf("--chain-id or --chain-id-hex is required")
	}
	id, err := strconv.ParseUint(h, 16, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chain id hex %q", n.ChainIDHex)
	}
	return id, nil
}

func newNetworksRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <chainIdHex>",
		Short: "Remove a custom network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), false, func(app *setup.App) error {
				if err := app.Networks.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), map[string]string{"removed": args[0]}, "Removed "+args[0])
			})
		},
	}
}
