package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/deployer"
	"github.com/tickertool/ticker-tool/internal/deployment"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

var (
	deployedToken = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	otherToken    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	sepolia       = chains.ResolvedChain{NetworkName: "sepolia", ChainID: 11155111, ChainIDHex: "0xaa36a7"}
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeSession struct {
	status  wallet.Status
	reloads int
}

func (f *fakeSession) Status() wallet.Status { return f.status }
func (f *fakeSession) Connect(context.Context) (wallet.Status, error) {
	f.status = wallet.Status{Address: "0xabc", Balance: "1.5", IsConnected: true}
	return f.status, nil
}
func (f *fakeSession) Disconnect() { f.status = wallet.Status{} }
func (f *fakeSession) Reload(ctx context.Context) (wallet.Status, error) {
	f.reloads++
	return f.Connect(ctx)
}

type fakeChains struct {
	active chains.ResolvedChain
	added  []chains.NetworkConfig
}

func (f *fakeChains) Networks() []chains.NetworkConfig {
	return []chains.NetworkConfig{{Name: "sepolia", ChainIDHex: "0xaa36a7"}}
}
func (f *fakeChains) ActiveNetwork() (chains.ResolvedChain, error) { return f.active, nil }
func (f *fakeChains) SwitchChainByChainIDHex(_ context.Context, hex string) (chains.ResolvedChain, error) {
	if hex != "0x7a69" {
		return chains.ResolvedChain{}, errors.Wrapf(chains.ErrUnknownNetwork, "chainIdHex %q", hex)
	}
	f.active = chains.ResolvedChain{NetworkName: "hardhat", ChainID: 31337, ChainIDHex: hex}
	return f.active, nil
}
func (f *fakeChains) AddNetwork(n chains.NetworkConfig) (chains.NetworkConfig, error) {
	f.added = append(f.added, n)
	return n, nil
}

type fakeNetStore struct{ saved []chains.NetworkConfig }

func (f *fakeNetStore) Add(_ context.Context, n chains.NetworkConfig) (chains.NetworkConfig, error) {
	if n.ChainIDHex == "" {
		return chains.NetworkConfig{}, errors.New("network chainIdHex is required")
	}
	f.saved = append(f.saved, n)
	return n, nil
}
func (f *fakeNetStore) Remove(context.Context, string) error { return nil }

type fakeDeployer struct {
	record *deployment.Record
	last   deployer.Request
}

func (f *fakeDeployer) Deploy(_ context.Context, req deployer.Request) (*deployer.Result, error) {
	if req.Name == "" {
		return nil, errors.Wrap(deployer.ErrInvalidRequest, "token name is required")
	}
	f.last = req
	rec := deployment.Record{Contract: deployedToken.Hex(), Network: "11155111", Name: req.Name}
	f.record = &rec
	return &deployer.Result{Record: rec, TxHash: "0xbeef", Network: sepolia}, nil
}

func (f *fakeDeployer) Status(context.Context) (*deployer.Status, error) {
	if f.record == nil {
		return &deployer.Status{Network: sepolia, Message: deployer.MsgNoToken}, nil
	}
	return &deployer.Status{Network: sepolia, Record: f.record, HasToken: true, Message: deployer.MsgActiveToken}, nil
}

type fakeTokens struct {
	token    common.Address
	dir      quote.Direction
	amount   string
	tokenWei *big.Int
	ethWei   *big.Int
	capErr   error
}

func (f *fakeTokens) Holder() common.Address { return common.Address{} }
func (f *fakeTokens) Snapshot(_ context.Context, tok, _ common.Address) (*token.Snapshot, error) {
	return &token.Snapshot{Address: tok.Hex(), Symbol: "TCK"}, nil
}
func (f *fakeTokens) Quote(_ context.Context, tok common.Address, dir quote.Direction, amount string, _ bool) (*token.TradeQuote, error) {
	f.token, f.dir, f.amount = tok, dir, amount
	form := quote.NewForm(decimal.NewFromInt(15))
	form.SetPrices(quote.Prices{TokenPriceInETH: decimal.RequireFromString("0.001"), EthPriceInTokens: decimal.NewFromInt(1000)})
	form.SetDirection(dir)
	form.SetAmount(amount)
	est, err := form.Estimate()
	if err != nil {
		return nil, err
	}
	return &token.TradeQuote{Token: tok.Hex(), Symbol: "TCK", Estimation: est}, nil
}
func (f *fakeTokens) Swap(ctx context.Context, tok common.Address, dir quote.Direction, amount string, max bool) (*token.TradeQuote, *types.Receipt, error) {
	q, err := f.Quote(ctx, tok, dir, amount, max)
	if err != nil {
		return nil, nil, err
	}
	if f.capErr != nil {
		return q, nil, f.capErr
	}
	return q, receipt(), nil
}
func (f *fakeTokens) AddLiquidity(_ context.Context, tok common.Address, tokenWei, ethWei *big.Int) (*types.Receipt, error) {
	if err := token.CheckLiquidity(tokenWei, ethWei, decimal.NewFromInt(1), "ETH"); err != nil {
		return nil, err
	}
	f.token, f.tokenWei, f.ethWei = tok, tokenWei, ethWei
	return receipt(), nil
}
func (f *fakeTokens) Approve(_ context.Context, tok, _ common.Address, amount *big.Int) (*types.Receipt, error) {
	f.token, f.tokenWei = tok, amount
	return receipt(), nil
}
func (f *fakeTokens) PayRoyalty(_ context.Context, tok common.Address) (*types.Receipt, error) {
	f.token = tok
	return receipt(), nil
}

func receipt() *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0x01"), BlockNumber: big.NewInt(7)}
}

func decimalFive() decimal.Decimal { return decimal.NewFromInt(5) }

type fakeUploader struct{ got string }

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	f.got = name + ":" + string(b)
	return "QmCid", nil
}

type fixture struct {
	engine   *gin.Engine
	session  *fakeSession
	chains   *fakeChains
	netStore *fakeNetStore
	deployer *fakeDeployer
	tokens   *fakeTokens
	uploader *fakeUploader
}

func newFixture(withUploader bool) *fixture {
	f := &fixture{
		session:  &fakeSession{},
		chains:   &fakeChains{active: sepolia},
		netStore: &fakeNetStore{},
		deployer: &fakeDeployer{},
		tokens:   &fakeTokens{},
		uploader: &fakeUploader{},
	}
	d := Deps{
		Session:     f.session,
		Chains:      f.chains,
		Networks:    f.netStore,
		Deployer:    f.deployer,
		Tokens:      f.tokens,
		IPFSGateway: "https://gw.example/ipfs/",
	}
	if withUploader {
		d.Uploader = f.uploader
	}
	f.engine = NewRouter(NewHandler(d), []string{"http://localhost:3000"})
	return f
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Host = "127.0.0.1:6137"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) postJSON(path string, v any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return f.do(http.MethodPost, path, bytes.NewReader(b), "application/json")
}

type envelope struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestHealthSetsRequestID(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).OK)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "127.0.0.1:1"
	req.Host = "localhost:6137"
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}

type fixedBlocks struct{ head *types.Header }

func (b fixedBlocks) Latest() *types.Header { return b.head }

func TestHealthReportsLatestBlock(t *testing.T) {
	f := newFixture(false)
	w := f.do(http.MethodGet, "/api/health", nil, "")
	var res healthRes
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, "ok", res.Status)
	assert.Nil(t, res.Block)

	engine := NewRouter(NewHandler(Deps{Blocks: fixedBlocks{head: &types.Header{Number: big.NewInt(42)}}}), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "127.0.0.1:1"
	req.Host = "127.0.0.1:6137"
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	require.NotNil(t, res.Block)
	assert.Equal(t, uint64(42), *res.Block)

	engine = NewRouter(NewHandler(Deps{Blocks: fixedBlocks{}}), nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req.Clone(context.Background()))
	res = healthRes{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Nil(t, res.Block)
}

func TestLoopbackOnly(t *testing.T) {
	f := newFixture(false)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Host = "127.0.0.1:6137"
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Host = "evil.example:6137"
	w = httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, HTTPErrorForbiddenHostText, decode(t, w).Error)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(false)

	req := httptest.NewRequest(http.MethodOptions, "/api/wallet", nil)
	req.RemoteAddr = "127.0.0.1:1"
	req.Host = "127.0.0.1:6137"
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWalletLifecycle(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodPost, "/api/wallet/connect", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st wallet.Status
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &st))
	assert.True(t, st.IsConnected)
	assert.Equal(t, "0xabc", st.Address)

	w = f.do(http.MethodPost, "/api/wallet/disconnect", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var dis disconnectRes
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &dis))
	assert.Equal(t, MsgWalletDisconnect, dis.Message)
	assert.False(t, dis.Wallet.IsConnected)
	st = dis.Wallet
	assert.Empty(t, st.Address)
}

func TestSwitchNetworkReloadsSession(t *testing.T) {
	f := newFixture(false)

	w := f.postJSON("/api/networks/switch", map[string]string{"chainIdHex": "0x7a69"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, f.session.reloads)
	assert.Equal(t, uint64(31337), f.chains.active.ChainID)

	w = f.postJSON("/api/networks/switch", map[string]string{"chainIdHex": "0x999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode(t, w).OK)
	assert.Equal(t, 1, f.session.reloads)
}

func TestAddNetwork(t *testing.T) {
	f := newFixture(false)

	w := f.postJSON("/api/networks/add", chains.NetworkConfig{
		Name: "local", ChainIDHex: "0x7a69", RPCs: []chains.RPC{{URL: "http://127.0.0.1:8545"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.netStore.saved, 1)
	require.Len(t, f.chains.added, 1)

	w = f.postJSON("/api/networks/add", chains.NetworkConfig{Name: "broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, f.chains.added, 1)
}

func TestDeployAndStatus(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/deployment", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st deployer.Status
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &st))
	assert.Equal(t, deployer.MsgNoToken, st.Message)

	w = f.postJSON("/api/deploy", map[string]any{
		"name": "Ticker", "symbol": "TCK", "creatorFeePercent": 2, "ethReserve": "0.5",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, big.NewInt(5e17), f.deployer.last.EthReserve)
	assert.Nil(t, f.deployer.last.TokenReserve)
	assert.Equal(t, int64(2), f.deployer.last.CreatorFeePercent)

	w = f.do(http.MethodGet, "/api/deployment", nil, "")
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &st))
	assert.Equal(t, deployer.MsgActiveToken, st.Message)

	w = f.postJSON("/api/deploy", map[string]any{"symbol": "TCK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "token name is required")
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	f := newFixture(true)

	body, ct := multipartBody(t, "file", "logo.png", "png")
	w := f.do(http.MethodPost, "/api/upload", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res uploadRes
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, "QmCid", res.IPFSHash)
	assert.Equal(t, "ipfs://QmCid", res.URI)
	assert.Equal(t, "https://gw.example/ipfs/QmCid", res.URL)
	assert.Equal(t, "logo.png:png", f.uploader.got)

	body, ct = multipartBody(t, "other", "logo.png", "png")
	w = f.do(http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f = newFixture(false)
	body, ct = multipartBody(t, "file", "logo.png", "png")
	w = f.do(http.MethodPost, "/api/upload", body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTokenRejectsBadAddress(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/token/nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/token/"+otherToken.Hex(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap token.Snapshot
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &snap))
	assert.Equal(t, otherToken.Hex(), snap.Address)
}

func TestSwapFallsBackToDeployedToken(t *testing.T) {
	f := newFixture(false)

	w := f.postJSON("/api/swap", map[string]any{"direction": "buy", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, HTTPErrorNoTokenText, decode(t, w).Error)

	f.deployer.record = &deployment.Record{Contract: deployedToken.Hex()}
	w = f.postJSON("/api/swap", map[string]any{"direction": "buy", "amount": "1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, deployedToken, f.tokens.token)
	assert.Equal(t, quote.Buy, f.tokens.dir)

	var res txRes
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
	assert.Equal(t, MsgSwapped, res.Message)
	assert.Equal(t, uint64(7), res.BlockNumber)
}

func TestSwapOverCap(t *testing.T) {
	f := newFixture(false)
	f.tokens.capErr = &quote.BuyCapError{SupplyPercent: decimalFive(), MaxETH: decimalFive(), Symbol: "ETH"}

	w := f.postJSON("/api/swap", map[string]any{"token": otherToken.Hex(), "direction": "buy", "amount": "9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The purchase amount exceeds 5% of the total supply. You can buy up to 5.00000 ETH.", decode(t, w).Error)
}

func TestQuoteValidatesDirection(t *testing.T) {
	f := newFixture(false)

	w := f.postJSON("/api/quote", map[string]any{"token": otherToken.Hex(), "direction": "hold", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.postJSON("/api/quote", map[string]any{"token": otherToken.Hex(), "direction": "sell", "amount": "3"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, quote.Sell, f.tokens.dir)
	assert.Equal(t, "3", f.tokens.amount)
}

func TestQuoteRejectsMalformedAmount(t *testing.T) {
	f := newFixture(false)

	for _, amount := range []string{"abc", "", "-1", "0"} {
		w := f.postJSON("/api/quote", map[string]any{"token": otherToken.Hex(), "direction": "buy", "amount": amount})
		assert.Equal(t, http.StatusBadRequest, w.Code, amount)
		assert.False(t, decode(t, w).OK)
	}

	w := f.postJSON("/api/swap", map[string]any{"token": otherToken.Hex(), "direction": "buy", "amount": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiquidityRequiresValidAmounts(t *testing.T) {
	f := newFixture(false)
	f.deployer.record = &deployment.Record{Contract: deployedToken.Hex()}

	w := f.postJSON("/api/liquidity", map[string]string{"tokenAmount": "0", "ethAmount": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, token.ErrInvalidLiquidity.Error(), decode(t, w).Error)

	w = f.postJSON("/api/liquidity", map[string]string{"tokenAmount": "1000", "ethAmount": "0.1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "at least 1 ETH is required to add liquidity", decode(t, w).Error)
	assert.Nil(t, f.tokens.ethWei)
}

func TestLiquidityApproveRoyalty(t *testing.T) {
	f := newFixture(false)
	f.deployer.record = &deployment.Record{Contract: deployedToken.Hex()}

	w := f.postJSON("/api/liquidity", map[string]string{"tokenAmount": "1000", "ethAmount": "1.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)), f.tokens.tokenWei)
	assert.Equal(t, big.NewInt(15e17), f.tokens.ethWei)

	w = f.postJSON("/api/liquidity", map[string]string{"tokenAmount": "abc", "ethAmount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.postJSON("/api/approve", map[string]string{"token": otherToken.Hex(), "spender": deployedToken.Hex(), "amount": "2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, otherToken, f.tokens.token)
	assert.Equal(t, big.NewInt(2e18), f.tokens.tokenWei)

	w = f.do(http.MethodPost, "/api/royalty", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, deployedToken, f.tokens.token)
}
