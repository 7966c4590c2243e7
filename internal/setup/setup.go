// Package setup wires the configured services together for the CLI and the
// local API.
package setup

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/shopspring/decimal"

	clientconfig "github.com/tickertool/ticker-tool/cmd/ticker-tool/config"
	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/contracts/tickertoken"
	"github.com/tickertool/ticker-tool/internal/deployer"
	"github.com/tickertool/ticker-tool/internal/deployment"
	clienthttp "github.com/tickertool/ticker-tool/internal/http"
	"github.com/tickertool/ticker-tool/internal/ipfs"
	"github.com/tickertool/ticker-tool/internal/networks"
	"github.com/tickertool/ticker-tool/internal/notify"
	"github.com/tickertool/ticker-tool/internal/securefile"
	"github.com/tickertool/ticker-tool/internal/storage"
	"github.com/tickertool/ticker-tool/internal/telemetry"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

const serviceName = "ticker-tool"

type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

type Options struct {
	// Unlock opens (or creates) the signer key. Read-only commands leave it
	// off and run as "no wallet".
	Unlock bool
	// Dial overrides the JSON-RPC dialer, mainly for tests.
	Dial chains.Dialer
}

// App holds every wired service. Close releases them in reverse order.
type App struct {
	Config   *clientconfig.Config
	Chains   *chains.Service
	Networks *networks.Manager
	Storage  storage.Store
	Records  *deployment.Store
	Wallet   *wallet.Store
	Provider *wallet.Provider
	Session  *wallet.Session
	Tokens   *token.Service
	Uploader ipfs.Uploader
	Notifier *notify.Fanout
	Deployer *deployer.Deployer

	closers []func(context.Context) error
}

func Build(ctx context.Context, cfg *clientconfig.Config, opts Options) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	// ---- Telemetry
	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.Secrets.OTelEndpoint)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	// ---- Chains + user networks
	a.Chains, err = chains.NewService(ctx, chains.ChainConfig{Chains: cfg.Networks, Dial: opts.Dial})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Chains.Close() })

	a.Networks, err = networks.NewManager("")
	if err != nil {
		return nil, err
	}
	if err := a.Networks.Load(ctx); err != nil {
		return nil, err
	}
	if n := a.Networks.MergeInto(a.Chains); n > 0 {
		log.Info("user networks merged", "count", n, "path", a.Networks.Path())
	}

	// ---- Local storage
	storageCfg, err := resolveStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Storage, err = storage.Open(storageCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Storage.Close() })
	a.Records = deployment.NewStore(a.Storage)
	a.restoreActiveNetwork(ctx)

	// ---- Wallet
	a.Wallet, err = wallet.NewStore("")
	if err != nil {
		return nil, err
	}
	a.Session = wallet.NewSession(nil, a.Chains)
	if opts.Unlock {
		if err := a.unlock(); err != nil {
			return nil, err
		}
	}

	// ---- Token service
	var txp token.TxProvider
	if a.Provider != nil {
		txp = a.Provider
	}
	a.Tokens = token.NewService(a.Chains, txp, token.Config{
		IPFSGateway:         cfg.Ticker.IPFSGateway,
		SlippagePercent:     decimal.NewFromInt(cfg.Ticker.SlippagePercent),
		BuyCapSupplyPercent: decimal.NewFromInt(cfg.Ticker.BuyCapSupplyPercent),
		BuyCapSafetyPercent: decimal.NewFromInt(cfg.Ticker.BuyCapSafetyPercent),
		MinLiquidityETH:     decimal.NewFromFloat(cfg.Ticker.MinLiquidityETH),
	})
	a.Tokens.OnConfirmed(func(ctx context.Context) {
		if _, err := a.Session.Reload(ctx); err != nil {
			log.Warn("session reload after transaction failed", "error", err)
		}
	})

	// ---- Side channels
	if cfg.Secrets.PinataJWT != "" {
		a.Uploader = ipfs.NewPinataUploader(cfg.Pinata.Endpoint, cfg.Secrets.PinataJWT)
	}
	a.Notifier = notify.NewFanout(buildNotifiers(ctx, cfg)...)
	log.Info("deployment notifications", "sinks", a.Notifier.Len())
	a.closers = append(a.closers, func(context.Context) error { a.Notifier.Wait(); return nil })

	// ---- Deployer
	a.Deployer, err = deployer.New(deployer.Config{
		Tokens:   a.Tokens,
		Chains:   a.Chains,
		Records:  a.Records,
		Artifact: artifactLoader(cfg.Ticker.TokenArtifact),
		Uploader: a.Uploader,
		Notifier: a.Notifier,
		Session:  a.Session,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) unlock() error {
	pwd, err := wallet.PasswordFromEnvOrPrompt(a.Config.Secrets.WalletPassword)
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(pwd)

	key, err := a.Wallet.Ensure(pwd)
	if err != nil {
		return err
	}
	signer, err := wallet.NewSigner(key)
	if err != nil {
		return err
	}
	a.Provider = wallet.NewProvider(signer, a.Chains)
	a.Session.SetAccount(a.Provider)
	log.Info("wallet unlocked", "address", signer.Address().Hex(), "path", a.Wallet.Path)
	return nil
}

// Close runs every closer, newest first.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Error("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

// Serve connects the session, follows new blocks and runs the local API
// until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	st, err := a.Session.Connect(ctx)
	if err != nil {
		log.Warn("wallet connect failed", "error", err)
	}
	log.Info("wallet session",
		"address", st.Address,
		"balance", st.Balance,
		"connected", st.IsConnected,
		"wrong_network", st.IsWrongNetwork,
	)

	watcher := chains.NewHeaderWatcher(
		func(ctx context.Context) (chains.HeaderSource, error) { return a.Chains.ActiveClient(ctx) },
		a.Config.Ticker.PollInterval,
		func(ctx context.Context, h *types.Header) {
			if !a.Session.Status().IsConnected {
				return
			}
			if _, err := a.Session.Connect(ctx); err != nil {
				log.Warn("balance refresh failed", "block", h.Number, "error", err)
			}
		},
	)
	go watcher.Run(ctx)

	handler := clienthttp.NewHandler(clienthttp.Deps{
		Session:     a.Session,
		Chains:      rememberingChains{Service: a.Chains, app: a},
		Networks:    a.Networks,
		Deployer:    a.Deployer,
		Tokens:      a.Tokens,
		Uploader:    a.Uploader,
		IPFSGateway: a.Config.Ticker.IPFSGateway,
		Blocks:      watcher,
	})
	router := clienthttp.NewRouter(handler, a.Config.ClientSettings.AllowedOrigins)
	return clienthttp.Serve(ctx, a.Config.ListenAddr(), router)
}

// SwitchNetwork activates the network with chainIDHex, remembers it for the
// next start and reloads the session.
func (a *App) SwitchNetwork(ctx context.Context, chainIDHex string) (chains.ResolvedChain, wallet.Status, error) {
	chain, err := a.Chains.SwitchChainByChainIDHex(ctx, chainIDHex)
	if err != nil {
		return chains.ResolvedChain{}, wallet.Status{}, err
	}
	a.rememberNetwork(ctx, chain)
	st, err := a.Session.Reload(ctx)
	if err != nil {
		log.Warn("session reload after switch failed", "error", err)
	}
	return chain, st, nil
}

func (a *App) rememberNetwork(ctx context.Context, chain chains.ResolvedChain) {
	if err := a.Storage.Set(ctx, constants.ActiveNetworkKey, chain.NetworkName); err != nil {
		log.Warn("failed to remember active network", "network", chain.NetworkName, "error", err)
	}
}

func (a *App) restoreActiveNetwork(ctx context.Context) {
	name, ok, err := a.Storage.Get(ctx, constants.ActiveNetworkKey)
	if err != nil || !ok || name == "" {
		return
	}
	if current, err := a.Chains.ActiveNetwork(); err == nil && current.NetworkName == name {
		return
	}
	if err := a.Chains.SwitchChain(ctx, name); err != nil {
		log.Warn("remembered network unavailable, keeping configured one", "network", name, "error", err)
	}
}

// rememberingChains persists switches made through the local API.
type rememberingChains struct {
	*chains.Service
	app *App
}

func (r rememberingChains) SwitchChainByChainIDHex(ctx context.Context, chainIDHex string) (chains.ResolvedChain, error) {
	chain, err := r.Service.SwitchChainByChainIDHex(ctx, chainIDHex)
	if err != nil {
		return chain, err
	}
	r.app.rememberNetwork(ctx, chain)
	return chain, nil
}

// Run is the "serve" entry point: load, build, serve, close.
func Run(ctx context.Context, build BuildInfo, cfg *clientconfig.Config) error {
	log.Info(serviceName,
		"version", build.Version,
		"commit", build.Commit,
		"build_date", build.BuildDate,
	)

	app, err := Build(ctx, cfg, Options{Unlock: true})
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return app.Serve(ctx)
}

func resolveStorage(c storage.Config) (storage.Config, error) {
	if c.Path != "" {
		return c, nil
	}
	file := constants.StorageFile
	if c.Driver == storage.DriverSQLite {
		file = constants.StorageSQLite
	}
	p, err := securefile.ResolvePath(constants.AppName, file)
	if err != nil {
		return c, err
	}
	c.Path = p
	return c, nil
}

func artifactLoader(path string) deployer.ArtifactFunc {
	return func() (*tickertoken.Artifact, error) {
		if path == "" {
			return nil, errors.New("token artifact path is not configured (Ticker.TokenArtifact)")
		}
		return tickertoken.LoadArtifact(filepath.Clean(path))
	}
}

func buildNotifiers(ctx context.Context, cfg *clientconfig.Config) []notify.Notifier {
	var sinks []notify.Notifier

	if cfg.Notify.Sheets.Enabled {
		sc := notify.SheetsConfig{
			ClientEmail:   cfg.Secrets.GoogleClientEmail,
			PrivateKey:    cfg.Secrets.GooglePrivateKey,
			SpreadsheetID: cfg.Secrets.GoogleSheetID,
			Range:         cfg.Notify.Sheets.Range,
		}
		if sc.Enabled() {
			n, err := notify.NewSheetsNotifier(ctx, sc)
			if err != nil {
				log.Warn("sheets notifier disabled", "error", err)
			} else {
				sinks = append(sinks, n)
			}
		} else {
			log.Info("sheets notifier skipped: GOOGLE_* credentials not set")
		}
	}

	if cfg.Notify.Telegram.Enabled {
		tc := notify.TelegramConfig{
			BotToken: cfg.Secrets.TelegramBotToken,
			ChatID:   cfg.Secrets.TelegramChatID,
			APIBase:  cfg.Notify.Telegram.APIBase,
		}
		if tc.Enabled() {
			n, err := notify.NewTelegramNotifier(tc)
			if err != nil {
				log.Warn("telegram notifier disabled", "error", err)
			} else {
				sinks = append(sinks, n)
			}
		} else {
			log.Info("telegram notifier skipped: TELEGRAM_* credentials not set")
		}
	}
	return sinks
}
