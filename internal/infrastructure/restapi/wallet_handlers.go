package restapi

import (
	"net/http"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIWalletResponse is the envelope for the wallet report endpoint.
type APIWalletResponse struct {
	Data struct {
		Report *entity.WalletReport `json:"report"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIErrorResponse is the envelope for request failures.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// WalletHandler serves wallet report requests.
type WalletHandler struct {
	scoreService port.ScoreService
	logger       *zap.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(scoreService port.ScoreService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		scoreService: scoreService,
		logger:       logger.Named("WalletHandler"),
	}
}

// GetWalletReportHandler handles GET /api/v1/wallets/:address. The address is
// validated before any upstream call; an invalid one is a 400, never a crawl.
func (h *WalletHandler) GetWalletReportHandler(c *gin.Context) {
	ctx := c.Request.Context()

	address, err := entity.ParseAddress(c.Param("address"))
	if err != nil {
		metrics.ScoreRequestsTotal.WithLabelValues("invalid_address").Inc()
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
		return
	}

	started := time.Now()
	report, err := h.scoreService.BuildReport(ctx, address)
	metrics.ReportDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ScoreRequestsTotal.WithLabelValues("error").Inc()
		h.logger.Error("Report build failed",
			zap.String("address", address.String()),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, APIErrorResponse{Error: "failed to build wallet report"})
		return
	}

	metrics.ScoreRequestsTotal.WithLabelValues("ok").Inc()
	if report.LimitedData {
		metrics.DegradedReportsTotal.Inc()
	}

	response := APIWalletResponse{}
	response.Data.Report = report
	if report.LimitedData {
		response.StatusMessage = "Report built with limited data; some figures are estimated."
	} else {
		response.StatusMessage = "Report built successfully."
	}
	c.JSON(http.StatusOK, response)
}

// HealthHandler handles GET /health.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
