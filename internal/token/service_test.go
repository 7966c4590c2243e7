package token

import (
	"context"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/contracts/tickertoken"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	eth       = big.NewInt(1e18)
)

// fakeChain answers calls from canned ABI outputs and records sent transactions.
type fakeChain struct {
	chains.Client

	t      *testing.T
	parsed *abi.ABI
	values map[string][]interface{}
	status uint64

	mu   sync.Mutex
	sent []*types.Transaction
}

func newFakeChain(t *testing.T) *fakeChain {
	parsed, err := tickertoken.TickerTokenMetaData.GetAbi()
	require.NoError(t, err)
	return &fakeChain{t: t, parsed: parsed, values: map[string][]interface{}{}, status: types.ReceiptStatusSuccessful}
}

func (f *fakeChain) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeChain) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m, err := f.parsed.MethodById(call.Data[:4])
	require.NoError(f.t, err)
	vals, ok := f.values[m.Name]
	if !ok {
		vals = zeroOutputs(m)
	}
	return m.Outputs.Pack(vals...)
}

func zeroOutputs(m *abi.Method) []interface{} {
	out := make([]interface{}, 0, len(m.Outputs))
	for _, o := range m.Outputs {
		switch o.Type.T {
		case abi.StringTy:
			out = append(out, "")
		case abi.AddressTy:
			out = append(out, common.Address{})
		default:
			out = append(out, new(big.Int))
		}
	}
	return out
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(31337), nil }

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error)  { return big.NewInt(2), nil }

func (f *fakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(10), BaseFee: big.NewInt(1)}, nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: f.status, TxHash: hash, BlockNumber: big.NewInt(11)}, nil
}

func (f *fakeChain) lastSent() *types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type activeFake struct{ c *fakeChain }

func (a activeFake) Active() (chains.ResolvedChain, chains.Client, error) {
	return chains.ResolvedChain{NetworkName: "hardhat", ChainID: 31337}, a.c, nil
}

func (a activeFake) ActiveClient(context.Context) (chains.Client, error) { return a.c, nil }

func newTestService(t *testing.T, withWallet bool) (*Service, *fakeChain) {
	t.Helper()
	fc := newFakeChain(t)
	var provider TxProvider
	if withWallet {
		k, err := wallet.KeyFromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
		require.NoError(t, err)
		signer, err := wallet.NewSigner(k)
		require.NoError(t, err)
		provider = wallet.NewProvider(signer, activeFake{fc})
	}
	return NewService(activeFake{fc}, provider, Config{IPFSGateway: "https://gw.example/ipfs/"}), fc
}

func TestBuySendsValueAndWaits(t *testing.T) {
	s, fc := newTestService(t, true)
	confirmed := 0
	s.OnConfirmed(func(context.Context) { confirmed++ })

	minOut := new(big.Int).Mul(big.NewInt(850), eth)
	receipt, err := s.Buy(context.Background(), tokenAddr, eth, minOut)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, 1, confirmed)

	tx := fc.lastSent()
	assert.Equal(t, tokenAddr, *tx.To())
	assert.Equal(t, 0, eth.Cmp(tx.Value()))
	want, err := fc.parsed.Pack("swapEthForTokens", minOut)
	require.NoError(t, err)
	assert.Equal(t, want, tx.Data())
}

func TestWritesEncodeArguments(t *testing.T) {
	s, fc := newTestService(t, true)
	ctx := context.Background()
	spender := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	_, err := s.Sell(ctx, tokenAddr, big.NewInt(5), big.NewInt(3))
	require.NoError(t, err)
	want, _ := fc.parsed.Pack("swapTokensForEth", big.NewInt(5), big.NewInt(3))
	assert.Equal(t, want, fc.lastSent().Data())
	assert.Equal(t, int64(0), fc.lastSent().Value().Int64())

	_, err = s.AddLiquidity(ctx, tokenAddr, big.NewInt(1000), eth)
	require.NoError(t, err)
	want, _ = fc.parsed.Pack("initializeLiquidity", big.NewInt(1000))
	assert.Equal(t, want, fc.lastSent().Data())
	assert.Equal(t, 0, eth.Cmp(fc.lastSent().Value()))

	_, err = s.Approve(ctx, tokenAddr, spender, big.NewInt(9))
	require.NoError(t, err)
	want, _ = fc.parsed.Pack("approve", spender, big.NewInt(9))
	assert.Equal(t, want, fc.lastSent().Data())

	_, err = s.PayRoyalty(ctx, tokenAddr)
	require.NoError(t, err)
	want, _ = fc.parsed.Pack("payRoyalty")
	assert.Equal(t, want, fc.lastSent().Data())
	assert.Equal(t, uint64(3), fc.lastSent().Nonce())
}

func TestAddLiquidityRejectsBadAmounts(t *testing.T) {
	s, fc := newTestService(t, true)
	ctx := context.Background()
	tenthETH := big.NewInt(1e17)

	cases := []struct {
		name          string
		tokens, value *big.Int
	}{
		{"zero amounts", big.NewInt(0), big.NewInt(0)},
		{"zero tokens", big.NewInt(0), eth},
		{"nil eth", big.NewInt(1000), nil},
		{"below minimum", big.NewInt(1000), tenthETH},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddLiquidity(ctx, tokenAddr, tc.tokens, tc.value)
			assert.ErrorIs(t, err, ErrInvalidLiquidity)
		})
	}
	assert.Empty(t, fc.sent)

	_, err := s.AddLiquidity(ctx, tokenAddr, big.NewInt(1000), tenthETH)
	assert.EqualError(t, err, "at least 1 ETH is required to add liquidity")
}

func TestAddLiquidityMinimumIsConfigurable(t *testing.T) {
	fc := newFakeChain(t)
	k, err := wallet.KeyFromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	signer, err := wallet.NewSigner(k)
	require.NoError(t, err)
	s := NewService(activeFake{fc}, wallet.NewProvider(signer, activeFake{fc}),
		Config{MinLiquidityETH: decimal.RequireFromString("0.1")})

	_, err = s.AddLiquidity(context.Background(), tokenAddr, big.NewInt(1000), big.NewInt(1e17))
	require.NoError(t, err)
	assert.Len(t, fc.sent, 1)
}

func TestRevertedReceiptIsError(t *testing.T) {
	s, fc := newTestService(t, true)
	fc.status = types.ReceiptStatusFailed
	confirmed := 0
	s.OnConfirmed(func(context.Context) { confirmed++ })

	_, err := s.PayRoyalty(context.Background(), tokenAddr)
	assert.ErrorIs(t, err, ErrReverted)
	assert.Equal(t, 0, confirmed)
}

func TestWritesNeedWallet(t *testing.T) {
	s, _ := newTestService(t, false)
	_, err := s.Buy(context.Background(), tokenAddr, eth, big.NewInt(1))
	assert.ErrorIs(t, err, wallet.ErrNoWallet)
	assert.Equal(t, common.Address{}, s.Holder())
}

func TestSnapshot(t *testing.T) {
	s, fc := newTestService(t, true)
	supply := new(big.Int).Mul(big.NewInt(1_000_000), eth)
	fc.values = map[string][]interface{}{
		"name":                    {"Ticker"},
		"symbol":                  {"TCK"},
		"tokenDescription":        {"a token"},
		"tokenImageUrl":           {"ipfs://QmLogo"},
		"creator":                 {common.HexToAddress("0x00000000000000000000000000000000000000c1")},
		"creatorFeePercentage":    {big.NewInt(2)},
		"totalSupply":             {supply},
		"getTokenPrice":           {big.NewInt(1e15)},
		"getEthPrice":             {new(big.Int).Mul(big.NewInt(1000), eth)},
		"ethReserve":              {eth},
		"tokenReserve":            {new(big.Int).Mul(big.NewInt(1000), eth)},
		"balanceOf":               {new(big.Int).Mul(big.NewInt(5), eth)},
		"totalEthFeesCollected":   {big.NewInt(0)},
		"totalTokenFeesCollected": {big.NewInt(0)},
		"tokenBurn":               {big.NewInt(0)},
	}

	snap, err := s.Snapshot(context.Background(), tokenAddr, s.Holder())
	require.NoError(t, err)
	assert.Equal(t, "Ticker", snap.Name)
	assert.Equal(t, "TCK", snap.Symbol)
	assert.Equal(t, "https://gw.example/ipfs/QmLogo", snap.LogoURL)
	assert.True(t, snap.TotalSupply.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, snap.HolderBalance.Equal(decimal.NewFromInt(5)))
	assert.True(t, snap.CreatorFeePercent.Equal(decimal.NewFromInt(2)))
	assert.True(t, snap.Prices.TokenPriceInETH.Equal(decimal.RequireFromString("0.001")))
	assert.False(t, snap.NeedsLiquidity)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", snap.Holder)
}

func TestNeedsLiquidity(t *testing.T) {
	s, fc := newTestService(t, false)
	need, err := s.NeedsLiquidity(context.Background(), tokenAddr)
	require.NoError(t, err)
	assert.True(t, need)

	fc.values["tokenReserve"] = []interface{}{big.NewInt(1)}
	need, err = s.NeedsLiquidity(context.Background(), tokenAddr)
	require.NoError(t, err)
	assert.False(t, need)
}

func TestDeployWaitsAndReturnsAddress(t *testing.T) {
	s, fc := newTestService(t, true)
	a, err := tickertoken.ParseArtifact([]byte(`{"abi":[{"type":"constructor","inputs":[{"name":"n","type":"string"},{"name":"s","type":"string"}]}],"bytecode":"0x6080"}`))
	require.NoError(t, err)

	addr, receipt, err := s.Deploy(context.Background(), a, tickertoken.DeployParams{Name: "Ticker", Symbol: "TCK"})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	tx := fc.lastSent()
	assert.Nil(t, tx.To())
	assert.Equal(t, crypto.CreateAddress(s.Holder(), 0), addr)
}
