package chains

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/utils"
)

var (
	ErrNoActiveChain  = errors.New("no active chain")
	ErrUnknownNetwork = errors.New("unknown network")
)

type ChainConfig struct {
	Chains           *AllChainsConfig
	PreferredRPCName string
	Dial             Dialer
}

type activeChain struct {
	resolved ResolvedChain
	client   Client
}

// Service owns the active network and a cache of dialed clients, one per network.
type Service struct {
	cfg    ChainConfig
	active atomic.Pointer[activeChain]

	mu               sync.Mutex
	networks         map[string]NetworkConfig
	clientsByNetwork map[string]Client
}

func DialEthClient(ctx context.Context, url string) (Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to blockchain at %s", url)
	}
	return c, nil
}

// NewService builds the service and switches to the configured active network.
// An empty active network leaves the service idle until SwitchChain is called.
func NewService(ctx context.Context, cfg ChainConfig) (*Service, error) {
	if cfg.Chains == nil {
		return nil, errors.New("chains config is nil")
	}
	if cfg.Dial == nil {
		cfg.Dial = DialEthClient
	}
	if cfg.PreferredRPCName == "" {
		cfg.PreferredRPCName = cfg.Chains.PreferredRPC
	}

	s := &Service{
		cfg:              cfg,
		networks:         make(map[string]NetworkConfig, len(cfg.Chains.Networks)),
		clientsByNetwork: make(map[string]Client),
	}
	for name, n := range cfg.Chains.Networks {
		key := normalizeName(name)
		n.Name = key
		n.ChainIDHex = utils.NormalizeHex0x(n.ChainIDHex)
		if n.ChainIDHex == "" && n.ChainID != 0 {
			n.ChainIDHex = utils.ChainIDHex(n.ChainID)
		}
		s.networks[key] = n
	}

	if active := strings.TrimSpace(cfg.Chains.ActiveNetwork); active != "" {
		if err := s.SwitchChain(ctx, active); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) Active() (ResolvedChain, Client, error) {
	current := s.active.Load()
	if current == nil {
		return ResolvedChain{}, nil, ErrNoActiveChain
	}
	return current.resolved, current.client, nil
}

func (s *Service) ActiveClient(ctx context.Context) (Client, error) {
	_ = ctx
	_, c, err := s.Active()
	return c, err
}

func (s *Service) ActiveNetwork() (ResolvedChain, error) {
	r, _, err := s.Active()
	return r, err
}

// SwitchChain makes networkName active, dialing it on first use.
func (s *Service) SwitchChain(ctx context.Context, networkName string) error {
	networkName = normalizeName(networkName)
	if networkName == "" {
		return errors.New("network name is empty")
	}
	if current := s.active.Load(); current != nil && current.resolved.NetworkName == networkName {
		return nil
	}

	resolved, err := s.ResolveNetworkByName(networkName)
	if err != nil {
		return err
	}
	client, err := s.ClientForNetwork(ctx, resolved)
	if err != nil {
		return err
	}

	s.active.Store(&activeChain{resolved: resolved, client: client})
	log.Info("active network switched", "network", resolved.NetworkName, "chain_id", resolved.ChainID)
	return nil
}

func (s *Service) SwitchChainByChainIDHex(ctx context.Context, chainIDHex string) (ResolvedChain, error) {
	resolved, err := s.ResolveNetworkByChainIDHex(chainIDHex)
	if err != nil {
		return ResolvedChain{}, err
	}
	if err := s.SwitchChain(ctx, resolved.NetworkName); err != nil {
		return ResolvedChain{}, err
	}
	return resolved, nil
}

// ClientForNetwork returns (and caches) a client WITHOUT changing the active chain.
func (s *Service) ClientForNetwork(ctx context.Context, chain ResolvedChain) (Client, error) {
	key := chain.NetworkName

	s.mu.Lock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	if strings.TrimSpace(chain.URL) == "" {
		return nil, fmt.Errorf("network %q has no rpc url", chain.NetworkName)
	}
	// dial outside the lock
	dialed, err := s.cfg.Dial(ctx, chain.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %q", chain.NetworkName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.clientsByNetwork[key]; existing != nil {
		closeClient(dialed)
		return existing, nil
	}
	s.clientsByNetwork[key] = dialed
	return dialed, nil
}

// AddNetwork registers a network at runtime. It is dialed on first switch.
func (s *Service) AddNetwork(n NetworkConfig) (NetworkConfig, error) {
	n.Name = normalizeName(n.Name)
	n.ChainIDHex = utils.NormalizeHex0x(n.ChainIDHex)
	if n.ChainIDHex == "" && n.ChainID != 0 {
		n.ChainIDHex = utils.ChainIDHex(n.ChainID)
	}
	if n.Name == "" {
		return NetworkConfig{}, errors.New("network name is required")
	}
	if n.ChainIDHex == "" {
		return NetworkConfig{}, errors.New("network chain id is required")
	}
	if len(n.RPCs) == 0 {
		return NetworkConfig{}, fmt.Errorf("network %q has no RPCs configured", n.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, existing := range s.networks {
		if existing.ChainIDHex == n.ChainIDHex {
			return NetworkConfig{}, fmt.Errorf("network already exists for chainIdHex %s (name: %s)", n.ChainIDHex, name)
		}
	}
	if _, ok := s.networks[n.Name]; ok {
		return NetworkConfig{}, fmt.Errorf("network name already exists: %s", n.Name)
	}
	s.networks[n.Name] = n
	return n, nil
}

// Networks lists known networks sorted by name.
func (s *Service) Networks() []NetworkConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]NetworkConfig, 0, len(s.networks))
	for _, n := range s.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) IsSupportedChainID(chainID uint64) bool {
	_, err := s.ResolveNetworkByChainID(chainID)
	return err == nil
}

func (s *Service) ResolveNetworkByChainID(chainID uint64) (ResolvedChain, error) {
	if chainID == 0 {
		return ResolvedChain{}, errors.New("chainID is 0")
	}
	return s.ResolveNetworkByChainIDHex(utils.ChainIDHex(chainID))
}

func (s *Service) ResolveNetworkByChainIDHex(chainIDHex string) (ResolvedChain, error) {
	want := utils.NormalizeHex0x(chainIDHex)
	if want == "" {
		return ResolvedChain{}, errors.New("chainIdHex is empty")
	}

	s.mu.Lock()
	var found *NetworkConfig
	for _, n := range s.networks {
		if n.ChainIDHex == want {
			n := n
			found = &n
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "chainIdHex %q", want)
	}
	return s.resolve(*found)
}

func (s *Service) ResolveNetworkByName(networkName string) (ResolvedChain, error) {
	key := normalizeName(networkName)
	if key == "" {
		return ResolvedChain{}, errors.New("network name is empty")
	}

	s.mu.Lock()
	network, ok := s.networks[key]
	s.mu.Unlock()
	if !ok {
		return ResolvedChain{}, errors.Wrapf(ErrUnknownNetwork, "%q", networkName)
	}
	return s.resolve(network)
}

func (s *Service) resolve(network NetworkConfig) (ResolvedChain, error) {
	var selected *RPC
	if preferred := strings.TrimSpace(s.cfg.PreferredRPCName); preferred != "" {
		for i := range network.RPCs {
			if strings.EqualFold(strings.TrimSpace(network.RPCs[i].Name), preferred) {
				selected = &network.RPCs[i]
				break
			}
		}
	}
	if selected == nil {
		if len(network.RPCs) == 0 {
			return ResolvedChain{}, fmt.Errorf("network %q has no RPCs configured", network.Name)
		}
		selected = &network.RPCs[0]
	}
	if strings.TrimSpace(selected.URL) == "" {
		return ResolvedChain{}, fmt.Errorf("network %q rpc %q url is empty", network.Name, selected.Name)
	}

	chainID := network.ChainID
	if chainID == 0 {
		if v, ok := parseHexUint(network.ChainIDHex); ok {
			chainID = v
		}
	}

	return ResolvedChain{
		NetworkName: network.Name,
		ChainID:     chainID,
		ChainIDHex:  network.ChainIDHex,
		Explorer:    network.Explorer,
		Ticker:      network.Ticker,
		Logo:        network.Logo,
		RPCName:     selected.Name,
		URL:         selected.URL,
	}, nil
}

// Close closes all cached clients.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.clientsByNetwork {
		closeClient(c)
		delete(s.clientsByNetwork, key)
	}
	s.active.Store(nil)
	return nil
}

func closeClient(c Client) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseHexUint(h string) (uint64, bool) {
	h = strings.TrimPrefix(utils.NormalizeHex0x(h), "0x")
	if h == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(h, 16, 64)
	return v, err == nil
}
