package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	currentPriceCacheKey = "native_usd_current"
	historyCacheKeyFmt   = "native_usd_history_%d"
)

type currentPriceResponse struct {
	Ethereum struct {
		USD float64 `json:"usd"`
	} `json:"ethereum"`
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"` // [unixMillis, usdPrice]
}

// priceClientImpl is the implementation of port.PriceClient. Responses are
// cached with a short TTL so repeated score requests do not hammer the API.
type priceClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewPriceClient creates a new price API client with TTL-cached responses.
func NewPriceClient(baseURL string, timeout time.Duration, cacheTTL time.Duration, logger *zap.Logger) port.PriceClient {
	return &priceClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		cache:   cache.New(cacheTTL, 10*time.Minute),
		logger:  logger.Named("PriceClient"),
	}
}

// GetCurrentPrice returns the current native-currency price in USD.
func (c *priceClientImpl) GetCurrentPrice(ctx context.Context) (float64, error) {
	if cached, found := c.cache.Get(currentPriceCacheKey); found {
		if price, ok := cached.(float64); ok {
			return price, nil
		}
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=ethereum&vs_currencies=usd", c.baseURL)
	body, err := c.doGET(ctx, requestURL, "current_price")
	if err != nil {
		return 0, err
	}

	var parsed currentPriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, entity.NewSourceError("pricefeed", "current_price", "failed to unmarshal response", err)
	}
	if parsed.Ethereum.USD <= 0 {
		return 0, entity.NewSourceError("pricefeed", "current_price", "missing or non-positive price", nil)
	}

	c.cache.Set(currentPriceCacheKey, parsed.Ethereum.USD, cache.DefaultExpiration)
	return parsed.Ethereum.USD, nil
}

// GetPriceHistory returns up to days daily snapshots, most recent last.
func (c *priceClientImpl) GetPriceHistory(ctx context.Context, days int) ([]entity.PriceSnapshot, error) {
	cacheKey := fmt.Sprintf(historyCacheKeyFmt, days)
	if cached, found := c.cache.Get(cacheKey); found {
		if snapshots, ok := cached.([]entity.PriceSnapshot); ok {
			return snapshots, nil
		}
	}

	requestURL := fmt.Sprintf("%s/coins/ethereum/market_chart?vs_currency=usd&days=%d&interval=daily", c.baseURL, days)
	body, err := c.doGET(ctx, requestURL, "price_history")
	if err != nil {
		return nil, err
	}

	var parsed marketChartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, entity.NewSourceError("pricefeed", "price_history", "failed to unmarshal response", err)
	}

	// Collapse intraday points to one snapshot per calendar day; the last
	// point of a day wins.
	byDate := make(map[string]float64, len(parsed.Prices))
	order := make([]string, 0, len(parsed.Prices))
	for _, point := range parsed.Prices {
		if len(point) < 2 {
			continue
		}
		date := time.UnixMilli(int64(point[0])).UTC().Format("2006-01-02")
		if _, seen := byDate[date]; !seen {
			order = append(order, date)
		}
		byDate[date] = point[1]
	}

	snapshots := make([]entity.PriceSnapshot, 0, len(order))
	for _, date := range order {
		snapshots = append(snapshots, entity.PriceSnapshot{Date: date, USDPrice: byDate[date]})
	}

	c.logger.Debug("Fetched price history", zap.Int("days", days), zap.Int("snapshotCount", len(snapshots)))
	c.cache.Set(cacheKey, snapshots, cache.DefaultExpiration)
	return snapshots, nil
}

func (c *priceClientImpl) doGET(ctx context.Context, requestURL, op string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, entity.NewSourceError("pricefeed", op, "request failed", err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, entity.NewSourceError("pricefeed", op, "request failed", err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, entity.NewSourceError("pricefeed", op,
			fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
