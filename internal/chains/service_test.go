package chains

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	Client
	url    string
	closed bool
	number atomic.Int64
}

func (f *fakeClient) Close() { f.closed = true }

func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(f.number.Load())}, nil
}

func testChains() *AllChainsConfig {
	return &AllChainsConfig{
		ActiveNetwork: "Sepolia",
		Networks: map[string]NetworkConfig{
			"sepolia": {
				ChainID:  11155111,
				Ticker:   "ETH",
				Explorer: "https://sepolia.etherscan.io",
				RPCs: []RPC{
					{Name: "public", URL: "https://rpc.sepolia.example"},
					{Name: "infura", URL: "https://sepolia.infura.example"},
				},
			},
			"base-sepolia": {
				ChainIDHex: "0x14A34",
				Ticker:     "ETH",
				RPCs:       []RPC{{Name: "public", URL: "https://base.example"}},
			},
		},
	}
}

func newTestService(t *testing.T, preferred string) (*Service, map[string]*fakeClient) {
	t.Helper()
	dialed := map[string]*fakeClient{}
	svc, err := NewService(context.Background(), ChainConfig{
		Chains:           testChains(),
		PreferredRPCName: preferred,
		Dial: func(ctx context.Context, url string) (Client, error) {
			c := &fakeClient{url: url}
			dialed[url] = c
			return c, nil
		},
	})
	require.NoError(t, err)
	return svc, dialed
}

func TestNewServiceActivatesConfiguredNetwork(t *testing.T) {
	svc, dialed := newTestService(t, "")

	active, err := svc.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "sepolia", active.NetworkName)
	assert.Equal(t, "0xaa36a7", active.ChainIDHex)
	assert.Equal(t, "public", active.RPCName)
	assert.Contains(t, dialed, "https://rpc.sepolia.example")
}

func TestPreferredRPC(t *testing.T) {
	svc, _ := newTestService(t, "INFURA")
	active, err := svc.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "infura", active.RPCName)
	assert.Equal(t, "https://sepolia.infura.example", active.URL)
}

func TestSwitchChainByChainIDHex(t *testing.T) {
	svc, dialed := newTestService(t, "")

	resolved, err := svc.SwitchChainByChainIDHex(context.Background(), "0x14a34")
	require.NoError(t, err)
	assert.Equal(t, "base-sepolia", resolved.NetworkName)
	assert.Equal(t, uint64(84532), resolved.ChainID)

	client, err := svc.ActiveClient(context.Background())
	require.NoError(t, err)
	assert.Same(t, dialed["https://base.example"], client)

	_, err = svc.SwitchChainByChainIDHex(context.Background(), "0x1")
	assert.True(t, errors.Is(err, ErrUnknownNetwork))

	// failed switch keeps the previous network
	active, err := svc.ActiveNetwork()
	require.NoError(t, err)
	assert.Equal(t, "base-sepolia", active.NetworkName)
}

func TestClientsAreCachedAndClosed(t *testing.T) {
	svc, dialed := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.SwitchChainByChainIDHex(ctx, "0x14a34")
	require.NoError(t, err)
	require.NoError(t, svc.SwitchChain(ctx, "sepolia"))
	assert.Len(t, dialed, 2)

	require.NoError(t, svc.Close())
	for _, c := range dialed {
		assert.True(t, c.closed)
	}
	_, err = svc.ActiveNetwork()
	assert.ErrorIs(t, err, ErrNoActiveChain)
}

func TestIsSupportedChainID(t *testing.T) {
	svc, _ := newTestService(t, "")
	assert.True(t, svc.IsSupportedChainID(11155111))
	assert.True(t, svc.IsSupportedChainID(84532))
	assert.False(t, svc.IsSupportedChainID(1))
	assert.False(t, svc.IsSupportedChainID(0))
}

func TestAddNetwork(t *testing.T) {
	svc, _ := newTestService(t, "")

	added, err := svc.AddNetwork(NetworkConfig{Name: " Holesky ", ChainID: 17000, RPCs: []RPC{{Name: "public", URL: "https://holesky.example"}}})
	require.NoError(t, err)
	assert.Equal(t, "holesky", added.Name)
	assert.Equal(t, "0x4268", added.ChainIDHex)
	assert.True(t, svc.IsSupportedChainID(17000))

	_, err = svc.AddNetwork(NetworkConfig{Name: "dupe", ChainIDHex: "0x4268", RPCs: []RPC{{URL: "x"}}})
	assert.Error(t, err)
	_, err = svc.AddNetwork(NetworkConfig{Name: "norpc", ChainID: 5})
	assert.Error(t, err)

	names := []string{}
	for _, n := range svc.Networks() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"base-sepolia", "holesky", "sepolia"}, names)
}

func TestHeaderWatcherPoll(t *testing.T) {
	client := &fakeClient{}
	client.number.Store(10)

	var seen []int64
	w := NewHeaderWatcher(func(ctx context.Context) (HeaderSource, error) { return client, nil }, 0,
		func(ctx context.Context, h *types.Header) { seen = append(seen, h.Number.Int64()) })

	require.NoError(t, w.Poll(context.Background()))
	require.NoError(t, w.Poll(context.Background()))
	client.number.Store(11)
	require.NoError(t, w.Poll(context.Background()))

	assert.Equal(t, []int64{10, 11}, seen)
	assert.Equal(t, int64(11), w.Latest().Number.Int64())
}

func TestAllChainsConfigNormalize(t *testing.T) {
	cfg := &AllChainsConfig{
		ActiveNetwork: " Sepolia ",
		Networks: map[string]NetworkConfig{
			"Sepolia": {ChainID: 11155111, RPCs: []RPC{{Name: "default", URL: "http://x"}}},
			"local":   {ChainIDHex: "7A69"},
		},
	}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, "sepolia", cfg.ActiveNetwork)
	require.Contains(t, cfg.Networks, "sepolia")
	assert.Equal(t, "0xaa36a7", cfg.Networks["sepolia"].ChainIDHex)
	assert.Equal(t, uint64(31337), cfg.Networks["local"].ChainID)
	assert.Equal(t, "0x7a69", cfg.Networks["local"].ChainIDHex)

	dup := &AllChainsConfig{Networks: map[string]NetworkConfig{
		"a": {ChainID: 1},
		"b": {ChainIDHex: "0x1"},
	}}
	assert.Error(t, dup.Normalize())
}
