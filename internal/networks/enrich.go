package networks

import (
	"strings"

	"github.com/tickertool/ticker-tool/internal/chains"
)

var chainDefaults = map[string]struct {
	Name     string
	Explorer string
	Ticker   string
}{
	"0x1":      {"mainnet", "https://etherscan.io", "ETH"},
	"0xaa36a7": {"sepolia", "https://sepolia.etherscan.io", "ETH"},
	"0x4268":   {"holesky", "https://holesky.etherscan.io", "ETH"},

	"0xa4b1":  {"arbitrum", "https://arbiscan.io", "ETH"},
	"0x66eee": {"arbitrum-sepolia", "https://sepolia.arbiscan.io", "ETH"},

	"0xa":      {"optimism", "https://optimistic.etherscan.io", "ETH"},
	"0xaa37dc": {"optimism-sepolia", "https://sepolia-optimistic.etherscan.io", "ETH"},

	"0x2105":  {"base", "https://basescan.org", "ETH"},
	"0x14a34": {"base-sepolia", "https://sepolia.basescan.org", "ETH"},

	"0x89":  {"polygon", "https://polygonscan.com", "POL"},
	"0x38":  {"bsc", "https://bscscan.com", "BNB"},
	"0x61":  {"bsc-testnet", "https://testnet.bscscan.com", "tBNB"},
	"0xa86a": {"avalanche", "https://snowtrace.io", "AVAX"},
}

// Enrich fills blank name, explorer and ticker from well-known chains.
// Values the user supplied are never overwritten.
func Enrich(n chains.NetworkConfig) chains.NetworkConfig {
	d, ok := chainDefaults[strings.ToLower(strings.TrimSpace(n.ChainIDHex))]
	if !ok {
		return n
	}
	if strings.TrimSpace(n.Name) == "" {
		n.Name = d.Name
	}
	if strings.TrimSpace(n.Explorer) == "" {
		n.Explorer = d.Explorer
	}
	if strings.TrimSpace(n.Ticker) == "" {
		n.Ticker = d.Ticker
	}
	return n
}
