package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/infrastructure/configloader"
	"wallet_scorer/internal/pkg/boundedcache"

	"go.uber.org/zap"
)

type fakeChain struct {
	balance    *big.Int
	balanceErr error
	nonce      uint64
	nonceErr   error
	block      uint64
	blockErr   error
	owned      map[string][]uint64
	ownedErr   error
}

func (f *fakeChain) GetNativeBalance(context.Context, entity.Address) (*big.Int, error) {
	return f.balance, f.balanceErr
}

func (f *fakeChain) GetTransactionCount(context.Context, entity.Address) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeChain) GetCurrentBlock(context.Context) (uint64, error) {
	return f.block, f.blockErr
}

func (f *fakeChain) GetOwnedTokenIDs(_ context.Context, contract string, _ entity.Address, _ uint64) ([]uint64, error) {
	if f.ownedErr != nil {
		return nil, f.ownedErr
	}
	return f.owned[contract], nil
}

type fakePrices struct {
	current    float64
	currentErr error
	history    []entity.PriceSnapshot
	historyErr error
}

func (f *fakePrices) GetCurrentPrice(context.Context) (float64, error) {
	return f.current, f.currentErr
}

func (f *fakePrices) GetPriceHistory(context.Context, int) ([]entity.PriceSnapshot, error) {
	return f.history, f.historyErr
}

func newOrchestrator(chain *fakeChain, explorer *fakeExplorer, marketplace *fakeMarketplace, prices *fakePrices, cfg *configloader.Config) *ScoreServiceImpl {
	log := zap.NewNop()
	crawler := NewHistoryCrawler(explorer, 1000, 2_000_000, 10_000, log)
	reconciler := NewHoldingsReconciler(marketplace, boundedcache.New(16, time.Minute), 10, log)
	return NewScoreService(chain, marketplace, prices, crawler, reconciler, cfg, log).(*ScoreServiceImpl)
}

func baseConfig() *configloader.Config {
	cfg := &configloader.Config{}
	cfg.PriceFeed.HistoryDays = 365
	cfg.Collections.BadgeContract = "0xbadge"
	cfg.Collections.BadgeMaxID = 50
	cfg.Collections.CardContract = "0xcard"
	cfg.Collections.CardMaxID = 900
	return cfg
}

func TestBuildReportHappyPath(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	chain := &fakeChain{
		balance: ethToWei(2),
		nonce:   1,
		block:   1_000_000,
		owned:   map[string][]uint64{"0xbadge": {3, 7}, "0xcard": {12}},
	}
	explorer := &fakeExplorer{
		externalPages: map[string][]entity.Transaction{
			pageKey(0, 1): {{
				Hash: "0x1", Timestamp: day,
				From: testAddr.String(), To: "0xcontract000000000000000000000000000000aa",
				Value: ethToWei(1), GasUsed: 21000, GasPrice: big.NewInt(1e9),
			}},
		},
	}
	marketplace := &fakeMarketplace{}
	prices := &fakePrices{
		current: 2000,
		history: []entity.PriceSnapshot{{Date: "2024-03-01", USDPrice: 1500}},
	}

	svc := newOrchestrator(chain, explorer, marketplace, prices, baseConfig())
	report, err := svc.BuildReport(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.LimitedData {
		t.Error("expected a clean run without the limited-data flag")
	}
	if report.Metrics.TransactionCount != 1 {
		t.Errorf("expected 1 transaction, got %d", report.Metrics.TransactionCount)
	}
	if len(report.Badges) != 2 {
		t.Errorf("expected 2 badges, got %d", len(report.Badges))
	}
	if len(report.CreatorCards) != 1 {
		t.Errorf("expected 1 creator card, got %d", len(report.CreatorCards))
	}
	// NFT count folds in badges and cards.
	if report.Metrics.NftCount != 3 {
		t.Errorf("expected nft count 3, got %d", report.Metrics.NftCount)
	}
	if report.Score.Score <= 0 {
		t.Errorf("expected a positive score, got %f", report.Score.Score)
	}
	if report.Personality.Title == "" {
		t.Error("expected a personality to always be assigned")
	}
	if len(report.TopContracts) != 1 {
		t.Errorf("expected 1 top contract, got %d", len(report.TopContracts))
	}
}

func TestBuildReportPrimaryBalanceFailureIsFatal(t *testing.T) {
	chain := &fakeChain{
		balanceErr: errors.New("rpc down"),
		nonce:      5,
		block:      100,
	}
	svc := newOrchestrator(chain, &fakeExplorer{}, &fakeMarketplace{}, &fakePrices{current: 2000}, baseConfig())

	if _, err := svc.BuildReport(context.Background(), testAddr); err == nil {
		t.Fatal("expected primary source failure to abort the request")
	}
}

func TestBuildReportPriceFailureDegrades(t *testing.T) {
	chain := &fakeChain{balance: ethToWei(1), nonce: 1, block: 100}
	prices := &fakePrices{currentErr: errors.New("price api down"), historyErr: errors.New("price api down")}
	svc := newOrchestrator(chain, &fakeExplorer{}, &fakeMarketplace{}, prices, baseConfig())

	report, err := svc.BuildReport(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("price failure must not abort the request: %v", err)
	}
	if !report.LimitedData {
		t.Error("expected the limited-data flag after a price source failure")
	}
}

func TestBuildReportBlockFailureSkipsCrawl(t *testing.T) {
	chain := &fakeChain{balance: ethToWei(1), nonce: 42, blockErr: errors.New("rpc hiccup")}
	explorer := &fakeExplorer{}
	svc := newOrchestrator(chain, explorer, &fakeMarketplace{}, &fakePrices{current: 2000}, baseConfig())

	report, err := svc.BuildReport(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("block failure must not abort the request: %v", err)
	}
	if len(explorer.externalCalls) != 0 {
		t.Errorf("expected no explorer calls without a block height, got %d", len(explorer.externalCalls))
	}
	if !report.LimitedData {
		t.Error("expected the limited-data flag when history could not be crawled")
	}
	// Metrics fall back to nonce estimation.
	if report.Metrics.TransactionCount != 42 {
		t.Errorf("expected transaction count from nonce, got %d", report.Metrics.TransactionCount)
	}
}

func TestBuildReportMarketplaceFailureDegrades(t *testing.T) {
	chain := &fakeChain{balance: ethToWei(1), nonce: 1, block: 100}
	marketplace := &fakeMarketplace{assetsErr: errors.New("marketplace down")}
	svc := newOrchestrator(chain, &fakeExplorer{}, marketplace, &fakePrices{current: 2000}, baseConfig())

	report, err := svc.BuildReport(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("marketplace failure must not abort the request: %v", err)
	}
	if !report.LimitedData {
		t.Error("expected the limited-data flag after a marketplace failure")
	}
}

func TestBuildReportBadgeProbeFailureDegrades(t *testing.T) {
	chain := &fakeChain{balance: ethToWei(1), nonce: 1, block: 100, ownedErr: errors.New("batch failed")}
	svc := newOrchestrator(chain, &fakeExplorer{}, &fakeMarketplace{}, &fakePrices{current: 2000}, baseConfig())

	report, err := svc.BuildReport(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("probe failure must not abort the request: %v", err)
	}
	if !report.LimitedData {
		t.Error("expected the limited-data flag after a badge probe failure")
	}
	if len(report.Badges) != 0 {
		t.Errorf("expected no badges after a failed probe, got %d", len(report.Badges))
	}
}
