package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestID tags every request with an id, reusing a caller supplied one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// loopbackOnly rejects anything not coming from this machine, including
// DNS-rebinding attempts through a foreign Host header.
func loopbackOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isLoopbackRequest(c.Request) {
			respondError(c, http.StatusForbidden, HTTPErrorForbiddenText)
			return
		}
		if !isSafeLocalHost(c.Request.Host) {
			respondError(c, http.StatusForbidden, HTTPErrorForbiddenHostText)
			return
		}
		c.Next()
	}
}
