package http

import (
	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type healthRes struct {
	Status string  `json:"status"`
	Block  *uint64 `json:"block,omitempty"`
}

type disconnectRes struct {
	Message string        `json:"message"`
	Wallet  wallet.Status `json:"wallet"`
}

type switchNetworkReq struct {
	ChainIDHex string `json:"chainIdHex" binding:"required"`
}

type networksRes struct {
	Active   *chains.ResolvedChain  `json:"active,omitempty"`
	Networks []chains.NetworkConfig `json:"networks"`
}

// deployReq amounts are decimal strings in ETH / whole tokens.
type deployReq struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Description       string `json:"description"`
	LogoURL           string `json:"logoUrl"`
	CreatorFeePercent int64  `json:"creatorFeePercent"`
	EthReserve        string `json:"ethReserve"`
	TokenReserve      string `json:"tokenReserve"`
}

type uploadRes struct {
	IPFSHash string `json:"ipfsHash"`
	URI      string `json:"uri"`
	URL      string `json:"url"`
}

// Token may be empty, in which case the token deployed on the active
// network is used.
type quoteReq struct {
	Token     string `json:"token"`
	Direction string `json:"direction" binding:"required"`
	Amount    string `json:"amount"`
	Max       bool   `json:"max"`
}

type liquidityReq struct {
	Token       string `json:"token"`
	TokenAmount string `json:"tokenAmount" binding:"required"`
	EthAmount   string `json:"ethAmount" binding:"required"`
}

type approveReq struct {
	Token   string `json:"token"`
	Spender string `json:"spender" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type royaltyReq struct {
	Token string `json:"token"`
}

type txRes struct {
	Message     string            `json:"message"`
	TxHash      string            `json:"txHash"`
	BlockNumber uint64            `json:"blockNumber"`
	Quote       *token.TradeQuote `json:"quote,omitempty"`
}
