package service

import (
	"math"
	"math/big"
	"testing"
	"time"

	"wallet_scorer/internal/domain/entity"
)

func ethToWei(eth float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18)).Int(nil)
	return wei
}

func approx(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

func TestCalculateMetricsGasPaidOnlyAsSender(t *testing.T) {
	addr := testAddr
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	external := []entity.Transaction{
		{
			Hash: "0x1", Timestamp: day1,
			From: addr.String(), To: "0xcontract000000000000000000000000000000aa",
			Value: ethToWei(1), GasUsed: 21000, GasPrice: big.NewInt(1e9),
		},
		{
			Hash: "0x2", Timestamp: day2,
			From: "0xother0000000000000000000000000000000000", To: addr.String(),
			Value: ethToWei(2), GasUsed: 21000, GasPrice: big.NewInt(1e9),
		},
		{
			Hash: "0x3", Timestamp: day2,
			From: "0xother0000000000000000000000000000000000", To: addr.String(),
			Value: ethToWei(3), GasUsed: 21000, GasPrice: big.NewInt(1e9),
		},
	}

	m, degraded := CalculateMetrics(MetricsInput{
		Address:      addr,
		BalanceWei:   ethToWei(5),
		Nonce:        1,
		CurrentPrice: 2000,
		External:     external,
		Now:          day2.Add(24 * time.Hour),
	})

	if degraded {
		t.Fatal("expected full data path, not degraded")
	}
	if m.ActiveDays != 2 {
		t.Errorf("expected 2 active days, got %d", m.ActiveDays)
	}
	// Only the sender transaction burns gas: 21000 * 1e9 wei.
	wantGasEth := 21000.0 * 1e9 / 1e18
	if !approx(m.TotalGasEth, wantGasEth, 1e-12) {
		t.Errorf("expected gas %.12f ETH, got %.12f", wantGasEth, m.TotalGasEth)
	}
	if m.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", m.TransactionCount)
	}
	if m.EthReceived != 5 {
		t.Errorf("expected 5 ETH received, got %f", m.EthReceived)
	}
	if m.EthSent != 1 {
		t.Errorf("expected 1 ETH sent, got %f", m.EthSent)
	}
	if m.FirstActivity != "2024-03-01" || m.LastActivity != "2024-03-02" {
		t.Errorf("unexpected activity window %s..%s", m.FirstActivity, m.LastActivity)
	}
	if m.WalletAgeDays != 2 {
		t.Errorf("expected wallet age 2 days, got %d", m.WalletAgeDays)
	}
}

func TestCalculateMetricsUsesHistoricalPrices(t *testing.T) {
	addr := testAddr
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	m, _ := CalculateMetrics(MetricsInput{
		Address:      addr,
		BalanceWei:   big.NewInt(0),
		CurrentPrice: 3000,
		History:      map[string]float64{"2024-03-01": 1500},
		External: []entity.Transaction{
			{
				Hash: "0x1", Timestamp: day,
				From: "0xother0000000000000000000000000000000000", To: addr.String(),
				Value: ethToWei(2),
			},
		},
		Now: day.Add(24 * time.Hour),
	})

	// 2 ETH at the historical 1500, not the current 3000.
	if !approx(m.ReceivedUsd, 3000, 1e-6) {
		t.Errorf("expected 3000 USD received at historical price, got %f", m.ReceivedUsd)
	}
}

func TestCalculateMetricsFallsBackToCurrentPriceOutsideHistory(t *testing.T) {
	addr := testAddr
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	m, _ := CalculateMetrics(MetricsInput{
		Address:      addr,
		BalanceWei:   big.NewInt(0),
		CurrentPrice: 3000,
		History:      map[string]float64{"2024-03-01": 1500},
		External: []entity.Transaction{
			{
				Hash: "0x1", Timestamp: day,
				From: "0xother0000000000000000000000000000000000", To: addr.String(),
				Value: ethToWei(1),
			},
		},
		Now: day.Add(24 * time.Hour),
	})

	if !approx(m.ReceivedUsd, 3000, 1e-6) {
		t.Errorf("expected current-price fallback of 3000 USD, got %f", m.ReceivedUsd)
	}
}

func TestCalculateMetricsStablecoinVolumeCountedAtFaceValue(t *testing.T) {
	addr := testAddr
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	m, _ := CalculateMetrics(MetricsInput{
		Address:      addr,
		BalanceWei:   big.NewInt(0),
		CurrentPrice: 2000,
		TokenTransfers: []entity.Transaction{
			{
				Hash: "0xs", Timestamp: day, Kind: entity.TxTokenTransfer,
				From: addr.String(), To: "0xother0000000000000000000000000000000000",
				TokenContract: "0xusdc", TokenSymbol: "USDC", TokenDecimals: 6,
				Value: big.NewInt(500_000_000), // 500 USDC
			},
		},
		Now: day.Add(24 * time.Hour),
	})

	if !approx(m.TradingVolumeUsd, 500, 1e-6) {
		t.Errorf("expected 500 USD stablecoin volume, got %f", m.TradingVolumeUsd)
	}
	if !approx(m.TradingVolumeEth, 0.25, 1e-9) {
		t.Errorf("expected 0.25 ETH equivalent, got %f", m.TradingVolumeEth)
	}
}

func TestCalculateMetricsContractCountSkipsSelfAndZeroAddress(t *testing.T) {
	addr := testAddr
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	m, _ := CalculateMetrics(MetricsInput{
		Address:      addr,
		BalanceWei:   big.NewInt(0),
		CurrentPrice: 2000,
		External: []entity.Transaction{
			{Hash: "0x1", Timestamp: day, From: addr.String(), To: "0xcontract000000000000000000000000000000aa"},
			{Hash: "0x2", Timestamp: day, From: addr.String(), To: "0xcontract000000000000000000000000000000aa"},
			{Hash: "0x3", Timestamp: day, From: addr.String(), To: addr.String()},
			{Hash: "0x4", Timestamp: day, From: addr.String(), To: entity.ZeroAddress},
			{Hash: "0x5", Timestamp: day, From: addr.String(), To: ""},
		},
		Now: day.Add(24 * time.Hour),
	})

	if m.ContractsInteracted != 1 {
		t.Errorf("expected 1 distinct contract, got %d", m.ContractsInteracted)
	}
}

func TestCalculateMetricsDegradedNonceEstimates(t *testing.T) {
	m, degraded := CalculateMetrics(MetricsInput{
		Address:      testAddr,
		BalanceWei:   ethToWei(1),
		Nonce:        120,
		CurrentPrice: 2000,
	})

	if !degraded {
		t.Fatal("expected degraded flag with empty sources and a positive nonce")
	}
	if m.TransactionCount != 120 {
		t.Errorf("expected transaction count from nonce, got %d", m.TransactionCount)
	}
	if m.WalletAgeDays != 360 {
		t.Errorf("expected estimated age 360 days, got %d", m.WalletAgeDays)
	}
	if m.ActiveDays != 40 {
		t.Errorf("expected estimated 40 active days, got %d", m.ActiveDays)
	}
	if m.ContractsInteracted != 24 {
		t.Errorf("expected estimated 24 contracts, got %d", m.ContractsInteracted)
	}
}

func TestCalculateMetricsEmptyWalletNotDegraded(t *testing.T) {
	m, degraded := CalculateMetrics(MetricsInput{
		Address:      testAddr,
		BalanceWei:   big.NewInt(0),
		Nonce:        0,
		CurrentPrice: 2000,
	})

	if degraded {
		t.Fatal("a wallet with no activity at all is empty, not degraded")
	}
	if m.TransactionCount != 0 || m.WalletAgeDays != 0 {
		t.Errorf("expected zeroed metrics, got txCount=%d age=%d", m.TransactionCount, m.WalletAgeDays)
	}
}

func TestCalculateMetricsEstimatedAgeIsCapped(t *testing.T) {
	m, _ := CalculateMetrics(MetricsInput{
		Address:    testAddr,
		BalanceWei: big.NewInt(0),
		Nonce:      100_000,
	})

	if m.WalletAgeDays != 3650 {
		t.Errorf("expected estimated age capped at 3650 days, got %d", m.WalletAgeDays)
	}
}

func TestTopContractsOrderedAndLimited(t *testing.T) {
	addr := testAddr
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	external := []entity.Transaction{
		{Hash: "0x1", Timestamp: day, From: addr.String(), To: "0xbb"},
		{Hash: "0x2", Timestamp: day, From: addr.String(), To: "0xbb"},
		{Hash: "0x3", Timestamp: day, From: addr.String(), To: "0xbb"},
		{Hash: "0x4", Timestamp: day, From: addr.String(), To: "0xaa"},
		{Hash: "0x5", Timestamp: day, From: addr.String(), To: "0xcc"},
		{Hash: "0x6", Timestamp: day, From: addr.String(), To: entity.ZeroAddress},
	}

	top := TopContracts(addr, external, 2)

	if len(top) != 2 {
		t.Fatalf("expected limit of 2 contracts, got %d", len(top))
	}
	if top[0].Address != "0xbb" || top[0].InteractionCount != 3 {
		t.Errorf("expected 0xbb with 3 interactions first, got %+v", top[0])
	}
	if !approx(top[0].SharePercent, 60, 1e-9) {
		t.Errorf("expected 60%% share, got %f", top[0].SharePercent)
	}
	// Equal counts resolve by address for deterministic output.
	if top[1].Address != "0xaa" {
		t.Errorf("expected 0xaa as the tie-broken second entry, got %s", top[1].Address)
	}
}

func TestTopContractsEmptyWhenNothingCounted(t *testing.T) {
	if top := TopContracts(testAddr, nil, 10); top != nil {
		t.Errorf("expected nil for empty input, got %+v", top)
	}
}
