package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts the local API under /api. Only loopback callers are
// served; browsers additionally need an allowed origin.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", HeaderRequestID},
			ExposeHeaders: []string{HeaderRequestID},
			MaxAge:        600,
		}))
	}
	r.Use(requestID(), loopbackOnly())

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/wallet", h.Wallet)
		api.POST("/wallet/connect", h.ConnectWallet)
		api.POST("/wallet/disconnect", h.DisconnectWallet)

		api.GET("/networks", h.ListNetworks)
		api.POST("/networks/switch", h.SwitchNetwork)
		api.POST("/networks/add", h.AddNetwork)

		api.GET("/deployment", h.Deployment)
		api.POST("/deploy", h.Deploy)
		api.POST("/upload", h.Upload)

		api.GET("/token/:address", h.Token)
		api.POST("/quote", h.Quote)
		api.POST("/swap", h.Swap)
		api.POST("/liquidity", h.Liquidity)
		api.POST("/approve", h.Approve)
		api.POST("/royalty", h.Royalty)
	}

	return r
}
