package http

import (
	"context"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/deployer"
	"github.com/tickertool/ticker-tool/internal/ipfs"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/utils"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

type Session interface {
	Status() wallet.Status
	Connect(ctx context.Context) (wallet.Status, error)
	Disconnect()
	Reload(ctx context.Context) (wallet.Status, error)
}

type Chains interface {
	Networks() []chains.NetworkConfig
	ActiveNetwork() (chains.ResolvedChain, error)
	SwitchChainByChainIDHex(ctx context.Context, chainIDHex string) (chains.ResolvedChain, error)
	AddNetwork(n chains.NetworkConfig) (chains.NetworkConfig, error)
}

// NetworkStore persists user-added networks.
type NetworkStore interface {
	Add(ctx context.Context, n chains.NetworkConfig) (chains.NetworkConfig, error)
	Remove(ctx context.Context, chainIDHex string) error
}

type Deployer interface {
	Deploy(ctx context.Context, req deployer.Request) (*deployer.Result, error)
	Status(ctx context.Context) (*deployer.Status, error)
}

type Tokens interface {
	Holder() common.Address
	Snapshot(ctx context.Context, token, holder common.Address) (*token.Snapshot, error)
	Quote(ctx context.Context, token common.Address, dir quote.Direction, amount string, useMax bool) (*token.TradeQuote, error)
	Swap(ctx context.Context, token common.Address, dir quote.Direction, amount string, useMax bool) (*token.TradeQuote, *types.Receipt, error)
	AddLiquidity(ctx context.Context, token common.Address, tokenWei, ethWei *big.Int) (*types.Receipt, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error)
	PayRoyalty(ctx context.Context, token common.Address) (*types.Receipt, error)
}

// Blocks reports the most recent header seen by the poller.
type Blocks interface {
	Latest() *types.Header
}

type Deps struct {
	Session  Session
	Chains   Chains
	Networks NetworkStore
	Deployer Deployer
	Tokens   Tokens

	// Optional; /api/upload answers 503 without it.
	Uploader    ipfs.Uploader
	IPFSGateway string
	// Optional; health omits the block without it.
	Blocks Blocks
}

type Handler struct {
	d Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{d: d}
}

func (h *Handler) Health(c *gin.Context) {
	res := healthRes{Status: "ok"}
	if h.d.Blocks != nil {
		if head := h.d.Blocks.Latest(); head != nil && head.Number != nil {
			n := head.Number.Uint64()
			res.Block = &n
		}
	}
	respondOK(c, http.StatusOK, res)
}

// GET /api/wallet
func (h *Handler) Wallet(c *gin.Context) {
	respondOK(c, http.StatusOK, h.d.Session.Status())
}

// POST /api/wallet/connect
func (h *Handler) ConnectWallet(c *gin.Context) {
	st, err := h.d.Session.Connect(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, st)
}

// POST /api/wallet/disconnect
func (h *Handler) DisconnectWallet(c *gin.Context) {
	h.d.Session.Disconnect()
	respondOK(c, http.StatusOK, disconnectRes{Message: MsgWalletDisconnect, Wallet: h.d.Session.Status()})
}

// GET /api/networks
func (h *Handler) ListNetworks(c *gin.Context) {
	res := networksRes{Networks: h.d.Chains.Networks()}
	if active, err := h.d.Chains.ActiveNetwork(); err == nil {
		res.Active = &active
	}
	respondOK(c, http.StatusOK, res)
}

// POST /api/networks/switch
func (h *Handler) SwitchNetwork(c *gin.Context) {
	var req switchNetworkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()

	chain, err := h.d.Chains.SwitchChainByChainIDHex(ctx, req.ChainIDHex)
	if err != nil {
		respondErr(c, err)
		return
	}
	log.Info(MsgNetworkSwitched, "network", chain.NetworkName, "chain_id_hex", chain.ChainIDHex)

	st, err := h.d.Session.Reload(ctx)
	if err != nil {
		log.Warn("session reload after switch failed", "error", err)
	}
	respondOK(c, http.StatusOK, gin.H{"network": chain, "wallet": st})
}

// POST /api/networks/add
func (h *Handler) AddNetwork(c *gin.Context) {
	var req chains.NetworkConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, HTTPErrorInvalidJSONText)
		return
	}
	ctx := c.Request.Context()

	saved, err := h.d.Networks.Add(ctx, req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	added, err := h.d.Chains.AddNetwork(saved)
	if err != nil {
		if rerr := h.d.Networks.Remove(ctx, saved.ChainIDHex); rerr != nil {
			log.Warn("rollback of added network failed", "chain_id_hex", saved.ChainIDHex, "error", rerr)
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, http.StatusCreated, added)
}

// GET /api/deployment
func (h *Handler) Deployment(c *gin.Context) {
	st, err := h.d.Deployer.Status(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, st)
}

// POST /api/deploy
func (h *Handler) Deploy(c *gin.Context) {
	var req deployReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, HTTPErrorInvalidJSONText)
		return
	}

	dreq := deployer.Request{
		Name:              req.Name,
		Symbol:            req.Symbol,
		Description:       req.Description,
		LogoURL:           req.LogoURL,
		CreatorFeePercent: req.CreatorFeePercent,
	}
	var err error
	if dreq.EthReserve, err = optionalUnits(req.EthReserve); err != nil {
		respondError(c, http.StatusBadRequest, "ethReserve: "+err.Error())
		return
	}
	if dreq.TokenReserve, err = optionalUnits(req.TokenReserve); err != nil {
		respondError(c, http.StatusBadRequest, "tokenReserve: "+err.Error())
		return
	}

	res, err := h.d.Deployer.Deploy(c.Request.Context(), dreq)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"message": MsgDeployed, "result": res})
}

// POST /api/upload (multipart, field "file")
func (h *Handler) Upload(c *gin.Context) {
	if h.d.Uploader == nil {
		respondError(c, http.StatusServiceUnavailable, HTTPErrorUploadDisabledText)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, HTTPErrorMissingFileText)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	cid, err := h.d.Uploader.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondErr(c, err)
		return
	}
	uri := ipfs.URI(cid)
	respondOK(c, http.StatusCreated, uploadRes{IPFSHash: cid, URI: uri, URL: ipfs.GatewayURL(h.d.IPFSGateway, uri)})
}

// GET /api/token/:address
func (h *Handler) Token(c *gin.Context) {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		respondError(c, http.StatusBadRequest, HTTPErrorInvalidAddressText)
		return
	}
	snap, err := h.d.Tokens.Snapshot(c.Request.Context(), addr, h.d.Tokens.Holder())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, snap)
}

// POST /api/quote
func (h *Handler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := quote.ParseDirection(req.Direction)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	addr, ok := h.tokenAddress(c, req.Token)
	if !ok {
		return
	}

	q, err := h.d.Tokens.Quote(c.Request.Context(), addr, dir, req.Amount, req.Max)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, q)
}

// POST /api/swap
func (h *Handler) Swap(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := quote.ParseDirection(req.Direction)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	addr, ok := h.tokenAddress(c, req.Token)
	if !ok {
		return
	}

	q, receipt, err := h.d.Tokens.Swap(c.Request.Context(), addr, dir, req.Amount, req.Max)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, newTxRes(MsgSwapped, receipt, q))
}

// POST /api/liquidity
func (h *Handler) Liquidity(c *gin.Context) {
	var req liquidityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	addr, ok := h.tokenAddress(c, req.Token)
	if !ok {
		return
	}
	tokenWei, err := utils.ParseUnits(req.TokenAmount, 18)
	if err != nil {
		respondError(c, http.StatusBadRequest, "tokenAmount: "+err.Error())
		return
	}
	ethWei, err := utils.ParseEther(req.EthAmount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ethAmount: "+err.Error())
		return
	}

	receipt, err := h.d.Tokens.AddLiquidity(c.Request.Context(), addr, tokenWei, ethWei)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, newTxRes(MsgLiquidityAdded, receipt, nil))
}

// POST /api/approve
func (h *Handler) Approve(c *gin.Context) {
	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	addr, ok := h.tokenAddress(c, req.Token)
	if !ok {
		return
	}
	spender, ok := parseAddress(req.Spender)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid spender address")
		return
	}
	amount, err := utils.ParseUnits(req.Amount, 18)
	if err != nil {
		respondError(c, http.StatusBadRequest, "amount: "+err.Error())
		return
	}

	receipt, err := h.d.Tokens.Approve(c.Request.Context(), addr, spender, amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, newTxRes(MsgApproved, receipt, nil))
}

// POST /api/royalty
func (h *Handler) Royalty(c *gin.Context) {
	var req royaltyReq
	// An empty body means the deployed token.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, HTTPErrorInvalidJSONText)
			return
		}
	}
	addr, ok := h.tokenAddress(c, req.Token)
	if !ok {
		return
	}

	receipt, err := h.d.Tokens.PayRoyalty(c.Request.Context(), addr)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, newTxRes(MsgRoyaltyPaid, receipt, nil))
}

// tokenAddress resolves raw, falling back to the token deployed on the
// active network. It writes the error response itself.
func (h *Handler) tokenAddress(c *gin.Context, raw string) (common.Address, bool) {
	if strings.TrimSpace(raw) != "" {
		addr, ok := parseAddress(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, HTTPErrorInvalidAddressText)
		}
		return addr, ok
	}

	st, err := h.d.Deployer.Status(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return common.Address{}, false
	}
	if st.Record == nil {
		respondError(c, http.StatusBadRequest, HTTPErrorNoTokenText)
		return common.Address{}, false
	}
	return common.HexToAddress(st.Record.Contract), true
}

func newTxRes(msg string, r *types.Receipt, q *token.TradeQuote) txRes {
	out := txRes{Message: msg, Quote: q}
	if r != nil {
		out.TxHash = r.TxHash.Hex()
		if r.BlockNumber != nil {
			out.BlockNumber = r.BlockNumber.Uint64()
		}
	}
	return out
}

func optionalUnits(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return utils.ParseUnits(s, 18)
}
