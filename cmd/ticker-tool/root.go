package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	clientconfig "github.com/tickertool/ticker-tool/cmd/ticker-tool/config"
	"github.com/tickertool/ticker-tool/internal/setup"
)

type rootOptions struct {
	configPath string
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ticker-tool",
		Short:         "Deploy and trade ticker tokens from a local wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: first config.yaml in ~/.config/tickertool, ~/config, .)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(opts),
		newWalletCmd(opts),
		newDeployCmd(opts),
		newStatusCmd(opts),
		newForgetCmd(opts),
		newTokenCmd(opts),
		newQuoteCmd(opts),
		newSwapCmd(opts),
		newLiquidityCmd(opts),
		newRoyaltyCmd(opts),
		newApproveCmd(opts),
		newNetworksCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) loadConfig() (*clientconfig.Config, error) {
	return clientconfig.Load(o.configPath)
}

// withApp builds the services for one command and closes them afterwards.
func (o *rootOptions) withApp(ctx context.Context, unlock bool, fn func(*setup.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	app, err := setup.Build(ctx, cfg, setup.Options{Unlock: unlock})
	if err != nil {
		return err
	}
	defer app.Close(context.Background())
	return fn(app)
}

// print writes v as JSON with --json, else the human text.
func (o *rootOptions) print(w io.Writer, v any, human string) error {
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, human)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ticker-tool %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local API on the loopback interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return setup.Run(cmd.Context(), setup.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}, cfg)
		},
	}
}
