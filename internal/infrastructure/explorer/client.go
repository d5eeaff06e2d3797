package explorer

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// listResponse is the envelope every explorer list endpoint returns.
// Status "0" with an empty result means "no rows", not a failure.
type listResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Result  jsoniter.RawMessage `json:"result"`
}

type txRow struct {
	BlockNumber  string `json:"blockNumber"`
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	GasUsed      string `json:"gasUsed"`
	GasPrice     string `json:"gasPrice"`
	ContractAddr string `json:"contractAddress"`
	TokenName    string `json:"tokenName"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
	TokenID      string `json:"tokenID"`
}

// explorerClientImpl is the implementation of port.ExplorerClient.
type explorerClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewExplorerClient creates a new paginated REST explorer client.
func NewExplorerClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) port.ExplorerClient {
	return &explorerClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("ExplorerClient"),
	}
}

// GetExternalTransactions implements port.ExplorerClient.
func (c *explorerClientImpl) GetExternalTransactions(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error) {
	return c.fetchList(ctx, "txlist", address, startBlock, endBlock, page, pageSize, entity.TxExternal)
}

// GetInternalTransactions implements port.ExplorerClient.
func (c *explorerClientImpl) GetInternalTransactions(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error) {
	return c.fetchList(ctx, "txlistinternal", address, startBlock, endBlock, page, pageSize, entity.TxInternal)
}

// GetTokenTransfers implements port.ExplorerClient.
func (c *explorerClientImpl) GetTokenTransfers(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error) {
	return c.fetchList(ctx, "tokentx", address, startBlock, endBlock, page, pageSize, entity.TxTokenTransfer)
}

func (c *explorerClientImpl) fetchList(ctx context.Context, action string, address entity.Address, startBlock, endBlock uint64, page, pageSize int, kind entity.TxKind) ([]entity.Transaction, error) {
	requestURL := fmt.Sprintf("%s?module=account&action=%s&address=%s&startblock=%d&endblock=%d&page=%d&offset=%d&sort=asc",
		c.baseURL, action, address, startBlock, endBlock, page, pageSize)
	if c.apiKey != "" {
		requestURL += "&apikey=" + c.apiKey
	}

	c.logger.Debug("Requesting transaction page from explorer",
		zap.String("action", action),
		zap.Uint64("startBlock", startBlock),
		zap.Uint64("endBlock", endBlock),
		zap.Int("page", page))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, entity.NewSourceError("explorer", action, "request failed", err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, entity.NewSourceError("explorer", action, "request failed", err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("Explorer API request failed",
			zap.String("action", action),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, entity.NewSourceError("explorer", action,
			fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}

	var envelope listResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, entity.NewSourceError("explorer", action, "failed to unmarshal response", err)
	}

	// Status "0" is how the API reports both an empty page and a refused
	// request; either way there is nothing more to page through here.
	if envelope.Status != "1" {
		c.logger.Debug("Explorer returned no rows",
			zap.String("action", action),
			zap.String("message", envelope.Message))
		return nil, nil
	}

	var rows []txRow
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		return nil, entity.NewSourceError("explorer", action, "unexpected result shape", err)
	}

	txs := make([]entity.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(row, kind))
	}
	return txs, nil
}

func rowToTransaction(row txRow, kind entity.TxKind) entity.Transaction {
	unix, _ := strconv.ParseInt(row.TimeStamp, 10, 64)
	gasUsed, _ := strconv.ParseUint(row.GasUsed, 10, 64)

	value := new(big.Int)
	if row.Value != "" {
		value.SetString(row.Value, 10)
	}
	gasPrice := new(big.Int)
	if row.GasPrice != "" {
		gasPrice.SetString(row.GasPrice, 10)
	}

	var decimals uint8
	if d, err := strconv.ParseUint(row.TokenDecimal, 10, 8); err == nil {
		decimals = uint8(d)
	}

	return entity.Transaction{
		Hash:          row.Hash,
		Timestamp:     time.Unix(unix, 0).UTC(),
		From:          strings.ToLower(row.From),
		To:            strings.ToLower(row.To),
		Value:         value,
		GasUsed:       gasUsed,
		GasPrice:      gasPrice,
		Kind:          kind,
		TokenContract: strings.ToLower(row.ContractAddr),
		TokenSymbol:   row.TokenSymbol,
		TokenDecimals: decimals,
		TokenID:       row.TokenID,
		TokenName:     row.TokenName,
	}
}
