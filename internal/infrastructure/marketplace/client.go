package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const assetPageLimit = 200

type assetRow struct {
	Identifier string `json:"identifier"`
	Contract   string `json:"contract"`
	Collection string `json:"collection"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
}

type assetsResponse struct {
	NFTs []assetRow `json:"nfts"`
	Next string     `json:"next"`
}

type statsResponse struct {
	Total struct {
		FloorPrice float64 `json:"floor_price"`
	} `json:"total"`
}

// marketplaceClientImpl is the implementation of port.MarketplaceClient.
type marketplaceClientImpl struct {
	client   *fasthttp.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	maxPages int
	logger   *zap.Logger
}

// NewMarketplaceClient creates a new NFT marketplace client. The API key is
// optional; without it some deployments reject requests, which callers must
// treat as "no inventory from this source".
func NewMarketplaceClient(baseURL, apiKey string, timeout time.Duration, maxPages int, logger *zap.Logger) port.MarketplaceClient {
	if maxPages <= 0 {
		maxPages = 5
	}
	return &marketplaceClientImpl{
		client:   &fasthttp.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		maxPages: maxPages,
		logger:   logger.Named("MarketplaceClient"),
	}
}

// GetAssets walks the cursor-paginated inventory endpoint for the address.
func (c *marketplaceClientImpl) GetAssets(ctx context.Context, address entity.Address) ([]port.MarketplaceAsset, error) {
	var assets []port.MarketplaceAsset
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		requestURL := fmt.Sprintf("%s/chain/ethereum/account/%s/nfts?limit=%d", c.baseURL, address, assetPageLimit)
		if cursor != "" {
			requestURL += "&next=" + cursor
		}

		body, err := c.doGET(ctx, requestURL, "assets")
		if err != nil {
			// Partial inventory is still usable.
			if len(assets) > 0 {
				c.logger.Warn("Marketplace pagination stopped early", zap.Int("collected", len(assets)), zap.Error(err))
				return assets, nil
			}
			return nil, err
		}

		var parsed assetsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return assets, entity.NewSourceError("marketplace", "assets", "failed to unmarshal response", err)
		}

		for _, row := range parsed.NFTs {
			assets = append(assets, port.MarketplaceAsset{
				ContractAddress: strings.ToLower(row.Contract),
				TokenID:         row.Identifier,
				CollectionName:  row.Name,
				CollectionSlug:  row.Collection,
				ImageURL:        row.ImageURL,
				Count:           1,
			})
		}

		if parsed.Next == "" {
			break
		}
		cursor = parsed.Next
	}

	c.logger.Debug("Fetched marketplace inventory", zap.String("address", address.String()), zap.Int("assetCount", len(assets)))
	return assets, nil
}

// GetCollectionStats fetches floor price data for one collection slug.
func (c *marketplaceClientImpl) GetCollectionStats(ctx context.Context, slugOrContract string) (*entity.CollectionStats, error) {
	requestURL := fmt.Sprintf("%s/collections/%s/stats", c.baseURL, slugOrContract)

	body, err := c.doGET(ctx, requestURL, "collection_stats")
	if err != nil {
		return nil, err
	}

	var parsed statsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, entity.NewSourceError("marketplace", "collection_stats", "failed to unmarshal response", err)
	}

	return &entity.CollectionStats{
		ContractAddress: strings.ToLower(slugOrContract),
		FloorPriceEth:   parsed.Total.FloorPrice,
	}, nil
}

func (c *marketplaceClientImpl) doGET(ctx context.Context, requestURL, op string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, entity.NewSourceError("marketplace", op, "request failed", err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, entity.NewSourceError("marketplace", op, "request failed", err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("Marketplace API request rejected",
			zap.String("op", op),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, entity.NewSourceError("marketplace", op,
			fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}

	// Copy out before the response buffer is released.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
