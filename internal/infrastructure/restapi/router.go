package restapi

import (
	"wallet_scorer/internal/infrastructure/configloader"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the API routes onto the router. Rate limiting applies to
// the report endpoint only; health stays cheap and unthrottled.
func SetupRouter(router *gin.Engine, walletHandler *WalletHandler, cfg *configloader.Config) {
	router.GET("/health", HealthHandler)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))
	{
		v1.GET("/wallets/:address", walletHandler.GetWalletReportHandler)
	}
}
