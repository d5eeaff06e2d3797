package service

import (
	"context"
	"sort"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// CrawlResult is the full reconciled transaction history for one address.
// External is sorted by timestamp ascending so first/last activity and
// per-day grouping are well-defined downstream.
type CrawlResult struct {
	External       []entity.Transaction
	Internal       []entity.Transaction
	TokenTransfers []entity.Transaction

	// Limited is set when any page request failed and a range was abandoned
	// with partial data.
	Limited bool
}

// HistoryCrawler walks the explorer list endpoints across block ranges and
// pages. The explorer enforces a page×pageSize ceiling, so a wallet with more
// history than one range can return is retrieved by partitioning the block
// space into fixed-size ranges and paginating each range independently.
type HistoryCrawler struct {
	explorer  port.ExplorerClient
	logger    *zap.Logger
	pageSize  int
	rangeSize uint64
	limiter   *rate.Limiter
}

// NewHistoryCrawler creates a crawler paginating with the given page size over
// block ranges of rangeSize, pacing requests at requestsPerSecond to respect
// the explorer's undocumented rate limits.
func NewHistoryCrawler(explorer port.ExplorerClient, pageSize int, rangeSize uint64, requestsPerSecond float64, logger *zap.Logger) *HistoryCrawler {
	if pageSize <= 0 {
		pageSize = 1000
	}
	if rangeSize == 0 {
		rangeSize = 2_000_000
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &HistoryCrawler{
		explorer:  explorer,
		logger:    logger.Named("HistoryCrawler"),
		pageSize:  pageSize,
		rangeSize: rangeSize,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

type pageFetcher func(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error)

// Crawl retrieves the three transaction classes for the address over
// [0, currentBlock]. The per-class loops are sequential (ordering is needed
// for the dedup bookkeeping and the rate limiter is shared), but the three
// classes run concurrently with each other.
func (c *HistoryCrawler) Crawl(ctx context.Context, address entity.Address, currentBlock uint64) CrawlResult {
	var result CrawlResult

	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		result.External, result.Limited = c.crawlClass(childCtx, address, currentBlock, "external", c.explorer.GetExternalTransactions)
		return nil
	})

	var internalLimited, tokenLimited bool
	eg.Go(func() error {
		result.Internal, internalLimited = c.crawlClass(childCtx, address, currentBlock, "internal", c.explorer.GetInternalTransactions)
		return nil
	})
	eg.Go(func() error {
		result.TokenTransfers, tokenLimited = c.crawlClass(childCtx, address, currentBlock, "token", c.explorer.GetTokenTransfers)
		return nil
	})

	// Goroutines above only ever return nil; Wait is for joining.
	_ = eg.Wait()
	result.Limited = result.Limited || internalLimited || tokenLimited

	sort.SliceStable(result.External, func(i, j int) bool {
		return result.External[i].Timestamp.Before(result.External[j].Timestamp)
	})

	c.logger.Debug("History crawl complete",
		zap.String("address", address.String()),
		zap.Int("external", len(result.External)),
		zap.Int("internal", len(result.Internal)),
		zap.Int("tokenTransfers", len(result.TokenTransfers)),
		zap.Bool("limited", result.Limited))
	return result
}

// crawlClass walks every block range for one transaction class, deduplicating
// by hash: the same transaction can appear in boundary overlaps or arrive out
// of order, and must land in the result exactly once. A failed page abandons
// the current range (degrade, do not retry indefinitely) and marks the crawl
// as limited.
func (c *HistoryCrawler) crawlClass(ctx context.Context, address entity.Address, currentBlock uint64, class string, fetch pageFetcher) ([]entity.Transaction, bool) {
	seen := make(map[string]struct{})
	var collected []entity.Transaction
	limited := false

	for startBlock := uint64(0); startBlock <= currentBlock; startBlock += c.rangeSize {
		endBlock := startBlock + c.rangeSize - 1
		if endBlock > currentBlock {
			endBlock = currentBlock
		}

		for page := 1; ; page++ {
			if err := c.limiter.Wait(ctx); err != nil {
				return collected, true
			}

			txs, err := fetch(ctx, address, startBlock, endBlock, page, c.pageSize)
			if err != nil {
				c.logger.Warn("Page request failed, abandoning block range",
					zap.String("class", class),
					zap.Uint64("startBlock", startBlock),
					zap.Uint64("endBlock", endBlock),
					zap.Int("page", page),
					zap.Error(err))
				limited = true
				break
			}

			for _, tx := range txs {
				if _, dup := seen[tx.Hash]; dup {
					continue
				}
				seen[tx.Hash] = struct{}{}
				collected = append(collected, tx)
			}

			// A short page means the range is exhausted.
			if len(txs) < c.pageSize {
				break
			}
		}

		if ctx.Err() != nil {
			return collected, true
		}
	}

	return collected, limited
}
