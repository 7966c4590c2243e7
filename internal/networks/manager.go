// Package networks persists networks the user added at runtime, the
// counterpart of a browser wallet's custom network list.
package networks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/securefile"
	"github.com/tickertool/ticker-tool/internal/utils"
)

type Manager struct {
	path string

	mu    sync.Mutex
	store Store
}

// NewManager uses path, or the resolved state file when path is empty.
func NewManager(path string) (*Manager, error) {
	if strings.TrimSpace(path) == "" {
		p, err := securefile.ResolvePath(constants.AppName, constants.NetworksFile)
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Manager{
		path:  path,
		store: NewEmptyStore(),
	}, nil
}

func (m *Manager) Path() string { return m.path }

// Load reads networks.json if present. Entries without a chain id are skipped.
func (m *Manager) Load(ctx context.Context) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	if !securefile.Exists(m.path) {
		m.store = NewEmptyStore()
		return nil
	}

	b, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read networks file: %w", err)
	}

	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshal networks file: %w", err)
	}

	norm := NewEmptyStore()
	if s.Schema != 0 {
		norm.Schema = s.Schema
	}
	for k, n := range s.Networks {
		n = normalize(n)
		if n.Name == "" {
			n.Name = normalizeKey(k)
		}
		if n.Name == "" || n.ChainIDHex == "" {
			continue
		}
		norm.Networks[n.Name] = n
	}

	m.store = norm
	return nil
}

// Add validates and persists n. Name and chain id must both be new.
func (m *Manager) Add(ctx context.Context, n chains.NetworkConfig) (chains.NetworkConfig, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	n = normalize(Enrich(normalize(n)))

	if n.Name == "" {
		return chains.NetworkConfig{}, fmt.Errorf("network.name is required")
	}
	if n.ChainIDHex == "" {
		return chains.NetworkConfig{}, fmt.Errorf("network.chainIdHex is required")
	}
	if len(n.RPCs) == 0 {
		return chains.NetworkConfig{}, fmt.Errorf("network.rpcs is required")
	}
	if key, ok := m.findKeyByChainIDHex(n.ChainIDHex); ok {
		return chains.NetworkConfig{}, fmt.Errorf("network already exists for chainIdHex %s (name: %s)", n.ChainIDHex, key)
	}
	if _, exists := m.store.Networks[n.Name]; exists {
		return chains.NetworkConfig{}, fmt.Errorf("network name already exists: %s", n.Name)
	}

	m.store.Networks[n.Name] = n
	if err := m.persistLocked(); err != nil {
		delete(m.store.Networks, n.Name)
		return chains.NetworkConfig{}, err
	}
	return n, nil
}

// Remove is idempotent.
func (m *Manager) Remove(ctx context.Context, chainIDHex string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.findKeyByChainIDHex(utils.NormalizeHex0x(chainIDHex))
	if !ok {
		return nil
	}
	delete(m.store.Networks, key)
	return m.persistLocked()
}

func (m *Manager) List() []chains.NetworkConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]chains.NetworkConfig, 0, len(m.store.Networks))
	for _, n := range m.store.Networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// MergeInto registers every stored network with svc. Networks the service
// already knows (by name or chain id) are skipped.
func (m *Manager) MergeInto(svc *chains.Service) int {
	added := 0
	for _, n := range m.List() {
		if _, err := svc.ResolveNetworkByChainIDHex(n.ChainIDHex); err == nil {
			continue
		}
		if _, err := svc.AddNetwork(n); err != nil {
			continue
		}
		added++
	}
	return added
}

func (m *Manager) findKeyByChainIDHex(chainIDHex string) (string, bool) {
	for k, n := range m.store.Networks {
		if n.ChainIDHex == chainIDHex {
			return k, true
		}
	}
	return "", false
}

func (m *Manager) persistLocked() error {
	return securefile.WriteJSON(m.path, m.store, constants.FilePerm, constants.DirectoryPerm)
}

func normalize(n chains.NetworkConfig) chains.NetworkConfig {
	n.Name = normalizeKey(n.Name)
	n.ChainIDHex = utils.NormalizeHex0x(n.ChainIDHex)
	if n.ChainIDHex == "" && n.ChainID != 0 {
		n.ChainIDHex = utils.ChainIDHex(n.ChainID)
	}
	n.Explorer = strings.TrimSpace(n.Explorer)

	rpcs := make([]chains.RPC, 0, len(n.RPCs))
	for _, r := range n.RPCs {
		r.Name = strings.TrimSpace(r.Name)
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" {
			continue
		}
		if r.Name == "" {
			r.Name = "default"
		}
		rpcs = append(rpcs, r)
	}
	n.RPCs = rpcs
	return n
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
