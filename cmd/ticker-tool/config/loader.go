package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/storage"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

type ClientSettings struct {
	LocalHost      string
	Port           string
	AllowedOrigins []string
}

type TickerSettings struct {
	SlippagePercent     int64
	BuyCapSupplyPercent int64
	BuyCapSafetyPercent int64
	MinLiquidityETH     float64
	TokenArtifact       string
	IPFSGateway         string
	PollInterval        time.Duration
}

type SheetsSettings struct {
	Enabled bool
	Range   string
}

type TelegramSettings struct {
	Enabled bool
	APIBase string
}

type NotifySettings struct {
	Sheets   SheetsSettings
	Telegram TelegramSettings
}

type PinataSettings struct {
	Endpoint string
}

// Secrets never live in YAML.
type Secrets struct {
	GoogleClientEmail string `env:"GOOGLE_CLIENT_EMAIL"`
	GooglePrivateKey  string `env:"GOOGLE_PRIVATE_KEY"`
	GoogleSheetID     string `env:"GOOGLE_SHEET_ID"`
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID    string `env:"TELEGRAM_CHAT_ID"`
	PinataJWT         string `env:"PINATA_JWT"`
	WalletPassword    string `env:"TICKER_WALLET_PASSWORD"`
	OTelEndpoint      string `env:"TICKER_OTEL_ENDPOINT"`
}

type Config struct {
	ClientSettings *ClientSettings
	Networks       *chains.AllChainsConfig
	Ticker         TickerSettings
	Storage        storage.Config
	Notify         NotifySettings
	Pinata         PinataSettings

	Secrets Secrets `mapstructure:"-"`
}

// SearchPaths are the directories an override config.yaml is looked up in.
func SearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
}

// Load reads the embedded defaults, merges the first config.yaml found (or
// explicit, when set), then reads secrets from the environment.
func Load(explicit string) (*Config, error) {
	return load(explicit, SearchPaths())
}

func load(explicit string, paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	override := explicit
	if override == "" {
		for _, dir := range paths {
			p := filepath.Join(dir, constants.ConfigFileName+".yaml")
			if _, err := os.Stat(p); err == nil {
				override = p
				break
			}
		}
	}
	if override != "" {
		v.SetConfigFile(override)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge config %s: %w", override, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.Parse(&cfg.Secrets); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the merged config and fills defaults.
func (c *Config) Normalize() error {
	if c.ClientSettings == nil {
		return errors.New("ClientSettings section is missing")
	}
	if strings.TrimSpace(c.ClientSettings.LocalHost) == "" {
		c.ClientSettings.LocalHost = "127.0.0.1"
	}
	if c.Networks == nil || len(c.Networks.Networks) == 0 {
		return errors.New("no networks configured")
	}
	if err := c.Networks.Normalize(); err != nil {
		return err
	}
	if active := c.Networks.ActiveNetwork; active != "" {
		if _, ok := c.Networks.Networks[active]; !ok {
			return fmt.Errorf("active network %q not found in config", active)
		}
	}

	if c.Ticker.SlippagePercent < 0 || c.Ticker.SlippagePercent >= 100 {
		return fmt.Errorf("invalid slippage percent %d", c.Ticker.SlippagePercent)
	}
	if c.Ticker.SlippagePercent == 0 {
		c.Ticker.SlippagePercent = constants.DefaultSlippagePercent
	}
	if c.Ticker.BuyCapSupplyPercent <= 0 {
		c.Ticker.BuyCapSupplyPercent = constants.DefaultBuyCapSupplyPercent
	}
	if c.Ticker.BuyCapSafetyPercent <= 0 {
		c.Ticker.BuyCapSafetyPercent = constants.DefaultBuyCapSafetyPercent
	}
	if c.Ticker.MinLiquidityETH < 0 {
		return fmt.Errorf("invalid minimum liquidity %v", c.Ticker.MinLiquidityETH)
	}
	if c.Ticker.MinLiquidityETH == 0 {
		c.Ticker.MinLiquidityETH = constants.DefaultMinLiquidityETH
	}
	if c.Ticker.IPFSGateway == "" {
		c.Ticker.IPFSGateway = constants.DefaultIPFSGateway
	}
	if c.Ticker.PollInterval <= 0 {
		c.Ticker.PollInterval = 12 * time.Second
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = storage.DriverFile
	case storage.DriverFile, storage.DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ClientSettings.LocalHost, c.ClientSettings.Port)
}
