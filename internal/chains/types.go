package chains

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tickertool/ticker-tool/internal/utils"
)

type AllChainsConfig struct {
	Networks      map[string]NetworkConfig `json:"networks" yaml:"networks" mapstructure:"networks"`
	ActiveNetwork string                   `json:"activeNetwork" yaml:"activeNetwork" mapstructure:"activeNetwork"`
	PreferredRPC  string                   `json:"preferredRPC" yaml:"preferredRPC" mapstructure:"preferredRPC"`
}

// NetworkConfig describes a supported network: what the wallet needs to
// switch to it and what the UI needs to display it.
type NetworkConfig struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID    uint64 `json:"chainId" yaml:"chainId" mapstructure:"chainId"`
	ChainIDHex string `json:"chainIdHex" yaml:"chainIdHex" mapstructure:"chainIdHex"`
	Explorer   string `json:"explorer" yaml:"explorer" mapstructure:"explorer"`
	Ticker     string `json:"ticker" yaml:"ticker" mapstructure:"ticker"`
	Logo       string `json:"logo,omitempty" yaml:"logo" mapstructure:"logo"`
	RPCs       []RPC  `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
}

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
	WSS  string `json:"wss,omitempty" yaml:"wss" mapstructure:"wss"`
}

type ResolvedChain struct {
	NetworkName string `json:"networkName"`
	ChainID     uint64 `json:"chainId"`
	ChainIDHex  string `json:"chainIdHex"`
	Explorer    string `json:"explorer"`
	Ticker      string `json:"ticker"`
	Logo        string `json:"logo,omitempty"`

	RPCName string `json:"rpcName"`
	URL     string `json:"-"`
}

// Client is the slice of an Ethereum JSON-RPC client the tool relies on.
// *ethclient.Client satisfies it.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Dialer opens a client for an RPC URL.
type Dialer func(ctx context.Context, url string) (Client, error)

// Normalize lower-cases network keys and fills chainIdHex from chainId. Two
// networks with the same chain id are rejected.
func (mc *AllChainsConfig) Normalize() error {
	if mc == nil {
		return nil
	}
	out := make(map[string]NetworkConfig, len(mc.Networks))
	seen := make(map[string]string, len(mc.Networks))
	for name, n := range mc.Networks {
		key := normalizeName(name)
		if key == "" {
			return errors.New("network with empty name")
		}
		n.Name = key
		n.ChainIDHex = utils.NormalizeHex0x(n.ChainIDHex)
		if n.ChainIDHex == "" && n.ChainID != 0 {
			n.ChainIDHex = utils.ChainIDHex(n.ChainID)
		}
		if n.ChainID == 0 {
			if v, ok := parseHexUint(n.ChainIDHex); ok {
				n.ChainID = v
			}
		}
		if n.ChainIDHex != "" {
			if other, dup := seen[n.ChainIDHex]; dup {
				return errors.Newf("networks %q and %q share chain id %s", other, key, n.ChainIDHex)
			}
			seen[n.ChainIDHex] = key
		}
		out[key] = n
	}
	mc.Networks = out
	mc.ActiveNetwork = normalizeName(mc.ActiveNetwork)
	return nil
}
