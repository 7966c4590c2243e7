package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/tickertool/ticker-tool/internal/chains"
	"github.com/tickertool/ticker-tool/internal/deployer"
	"github.com/tickertool/ticker-tool/internal/ipfs"
	"github.com/tickertool/ticker-tool/internal/notify"
	"github.com/tickertool/ticker-tool/internal/quote"
	"github.com/tickertool/ticker-tool/internal/token"
	"github.com/tickertool/ticker-tool/internal/wallet"
)

func isLoopbackRequest(r *http.Request) bool {
	ra := r.RemoteAddr

	h, _, err := net.SplitHostPort(ra)
	if err != nil {
		ip := net.ParseIP(ra)
		return ip != nil && ip.IsLoopback()
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

func isSafeLocalHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

func normalizeOrigin(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	u, err := url.Parse(in)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", strings.ToLower(u.Scheme), strings.ToLower(u.Host))
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, apiResponse{OK: true, Data: data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, apiResponse{OK: false, Error: msg})
}

// respondErr maps domain errors onto status codes. Unknown errors are logged
// with the request id.
func respondErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"request_id", c.GetString(ctxKeyRequestID),
			"path", c.FullPath(),
			"error", err,
		)
	}
	respondError(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, deployer.ErrInvalidRequest),
		errors.Is(err, quote.ErrInvalidAmount),
		errors.Is(err, quote.ErrNoPrice),
		errors.Is(err, quote.ErrBuyCapExceeded),
		errors.Is(err, token.ErrInvalidLiquidity):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrNoWallet):
		return http.StatusPreconditionRequired
	case errors.Is(err, chains.ErrUnknownNetwork):
		return http.StatusNotFound
	case errors.Is(err, chains.ErrNoActiveChain),
		errors.Is(err, ipfs.ErrNotConfigured),
		errors.Is(err, notify.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, token.ErrReverted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
