package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/infrastructure/configloader"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const topContractsLimit = 10

// knownBadgeNames maps well-known badge token ids to display names. Ids
// outside the table fall back to a generic label.
var knownBadgeNames = map[uint64]string{
	1: "Early Adopter",
	2: "First Transaction",
	3: "Contract Explorer",
	4: "NFT Collector",
	5: "Volume Trader",
	6: "Gas Veteran",
	7: "Community Member",
}

func badgeName(id uint64) string {
	if name, ok := knownBadgeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Badge #%d", id)
}

// ScoreServiceImpl orchestrates all upstream sources into a single
// entity.WalletReport. The primary source (RPC balance and nonce) is
// mandatory; every other source degrades to an empty result and flips the
// report's LimitedData flag instead of failing the request.
type ScoreServiceImpl struct {
	chain       port.ChainClient
	marketplace port.MarketplaceClient // nil when no marketplace is configured
	prices      port.PriceClient
	crawler     *HistoryCrawler
	reconciler  *HoldingsReconciler
	cfg         *configloader.Config
	logger      *zap.Logger
}

// NewScoreService creates the report orchestrator.
func NewScoreService(
	chain port.ChainClient,
	marketplace port.MarketplaceClient,
	prices port.PriceClient,
	crawler *HistoryCrawler,
	reconciler *HoldingsReconciler,
	cfg *configloader.Config,
	logger *zap.Logger,
) port.ScoreService {
	return &ScoreServiceImpl{
		chain:       chain,
		marketplace: marketplace,
		prices:      prices,
		crawler:     crawler,
		reconciler:  reconciler,
		cfg:         cfg,
		logger:      logger.Named("ScoreService"),
	}
}

// fanOutResult collects the independent source snapshots gathered before the
// history crawl. Each goroutine writes its own field only.
type fanOutResult struct {
	balance      *big.Int
	nonce        uint64
	currentBlock uint64
	blockOK      bool
	currentPrice float64
	history      map[string]float64
	badges       []entity.Badge
	cards        []entity.CreatorCard
	assets       []port.MarketplaceAsset
	limited      bool
}

// BuildReport produces the full activity report for one canonical address.
// It fails only when the primary RPC source cannot provide the balance or the
// transaction count; all other source failures degrade the report.
func (s *ScoreServiceImpl) BuildReport(ctx context.Context, address entity.Address) (*entity.WalletReport, error) {
	var (
		out fanOutResult

		// Non-primary fallbacks are recorded by their own goroutines and
		// folded into out.limited after Wait; each flag has one writer.
		priceFallback   bool
		historyFallback bool
		blockFallback   bool
		badgeFallback   bool
		cardFallback    bool
		assetFallback   bool
	)

	eg, childCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		balance, err := s.chain.GetNativeBalance(childCtx, address)
		if err != nil {
			return fmt.Errorf("primary source balance: %w", err)
		}
		out.balance = balance
		return nil
	})
	eg.Go(func() error {
		nonce, err := s.chain.GetTransactionCount(childCtx, address)
		if err != nil {
			return fmt.Errorf("primary source nonce: %w", err)
		}
		out.nonce = nonce
		return nil
	})
	eg.Go(func() error {
		block, err := s.chain.GetCurrentBlock(childCtx)
		if err != nil {
			s.logger.Warn("Current block unavailable, skipping history crawl", zap.Error(err))
			blockFallback = true
			return nil
		}
		out.currentBlock = block
		out.blockOK = true
		return nil
	})
	eg.Go(func() error {
		price, err := s.prices.GetCurrentPrice(childCtx)
		if err != nil {
			s.logger.Warn("Current price unavailable, USD fields degraded", zap.Error(err))
			priceFallback = true
			return nil
		}
		out.currentPrice = price
		return nil
	})
	eg.Go(func() error {
		snapshots, err := s.prices.GetPriceHistory(childCtx, s.cfg.PriceFeed.HistoryDays)
		if err != nil {
			s.logger.Warn("Price history unavailable, falling back to current price", zap.Error(err))
			historyFallback = true
			return nil
		}
		out.history = make(map[string]float64, len(snapshots))
		for _, snap := range snapshots {
			out.history[snap.Date] = snap.USDPrice
		}
		return nil
	})
	eg.Go(func() error {
		out.badges, badgeFallback = s.probeBadges(childCtx, address)
		return nil
	})
	eg.Go(func() error {
		out.cards, cardFallback = s.probeCards(childCtx, address)
		return nil
	})
	eg.Go(func() error {
		if s.marketplace == nil {
			assetFallback = true
			return nil
		}
		assets, err := s.marketplace.GetAssets(childCtx, address)
		if err != nil {
			s.logger.Warn("Marketplace inventory unavailable, reconstructing from transfers", zap.Error(err))
			assetFallback = true
			return nil
		}
		out.assets = assets
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out.limited = priceFallback || historyFallback || blockFallback ||
		badgeFallback || cardFallback || assetFallback

	var crawl CrawlResult
	if out.blockOK {
		crawl = s.crawler.Crawl(ctx, address, out.currentBlock)
	}

	holdings := s.reconciler.Reconcile(ctx, address, out.assets, crawl.TokenTransfers, s.excludedContracts(), out.currentPrice)

	nftCount := len(out.badges) + len(out.cards)
	for _, holding := range holdings {
		nftCount += holding.OwnedCount
	}

	metrics, degraded := CalculateMetrics(MetricsInput{
		Address:        address,
		BalanceWei:     out.balance,
		Nonce:          out.nonce,
		CurrentPrice:   out.currentPrice,
		History:        out.history,
		External:       crawl.External,
		Internal:       crawl.Internal,
		TokenTransfers: crawl.TokenTransfers,
		NftCount:       nftCount,
	})

	report := &entity.WalletReport{
		Address:      address,
		Metrics:      metrics,
		Score:        ComputeScore(metrics),
		Personality:  ClassifyPersonality(metrics),
		TopContracts: TopContracts(address, crawl.External, topContractsLimit),
		Holdings:     holdings,
		Badges:       out.badges,
		CreatorCards: out.cards,
		LimitedData:  out.limited || crawl.Limited || degraded,
	}

	s.logger.Info("Report built",
		zap.String("address", address.String()),
		zap.Float64("score", report.Score.Score),
		zap.String("personality", report.Personality.Title),
		zap.Bool("limitedData", report.LimitedData))
	return report, nil
}

// probeBadges checks ownership over the configured badge id range. A probe
// failure degrades to an empty badge list.
func (s *ScoreServiceImpl) probeBadges(ctx context.Context, address entity.Address) ([]entity.Badge, bool) {
	contract := s.cfg.Collections.BadgeContract
	if contract == "" {
		return nil, false
	}
	ids, err := s.chain.GetOwnedTokenIDs(ctx, contract, address, s.cfg.Collections.BadgeMaxID)
	if err != nil {
		s.logger.Warn("Badge probe failed", zap.Error(err))
		return nil, true
	}
	badges := make([]entity.Badge, 0, len(ids))
	for _, id := range ids {
		badges = append(badges, entity.Badge{
			TokenID: id,
			Name:    badgeName(id),
		})
	}
	return badges, false
}

// probeCards checks ownership over the configured creator-card id range.
func (s *ScoreServiceImpl) probeCards(ctx context.Context, address entity.Address) ([]entity.CreatorCard, bool) {
	contract := s.cfg.Collections.CardContract
	if contract == "" {
		return nil, false
	}
	ids, err := s.chain.GetOwnedTokenIDs(ctx, contract, address, s.cfg.Collections.CardMaxID)
	if err != nil {
		s.logger.Warn("Creator card probe failed", zap.Error(err))
		return nil, true
	}
	cards := make([]entity.CreatorCard, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, entity.CreatorCard{
			TokenID: id,
			Name:    fmt.Sprintf("Creator Card #%d", id),
		})
	}
	return cards, false
}

// excludedContracts lists the collection contracts tracked separately from
// general NFT holdings so badge and card ownership is not double counted.
func (s *ScoreServiceImpl) excludedContracts() map[string]struct{} {
	excluded := make(map[string]struct{}, 2)
	if c := s.cfg.Collections.BadgeContract; c != "" {
		excluded[strings.ToLower(c)] = struct{}{}
	}
	if c := s.cfg.Collections.CardContract; c != "" {
		excluded[strings.ToLower(c)] = struct{}{}
	}
	return excluded
}
