package service

import (
	"math/big"
	"sort"
	"strings"
	"time"

	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/pkg/utils"
)

// Stablecoin token transfers are summed directly in USD without a price lookup.
var stablecoinSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"DAI":  {},
}

const wrappedNativeSymbol = "WETH"

// Nonce heuristic ratios for the degraded path where the explorer yields
// nothing at all and only the RPC-reported transaction count is available.
const (
	heuristicAgeDaysPerTx   = 3
	heuristicAgeDaysCap     = 3650
	heuristicTxPerActiveDay = 3
	heuristicTxPerContract  = 5
)

// MetricsInput is everything the calculator needs, snapshotted once per run so
// repeated runs over identical source data produce identical output.
type MetricsInput struct {
	Address        entity.Address
	BalanceWei     *big.Int
	Nonce          uint64
	CurrentPrice   float64
	History        map[string]float64   // YYYY-MM-DD → USD price
	External       []entity.Transaction // sorted by timestamp ascending
	Internal       []entity.Transaction
	TokenTransfers []entity.Transaction
	NftCount       int
	Now            time.Time // zero means time.Now().UTC()
}

// CalculateMetrics derives the aggregate activity snapshot in a single pass
// over the reconciled transaction set. When the explorer produced no data but
// the account nonce shows activity, age, active days and contract counts are
// estimated from the nonce and the degraded flag is returned true; estimated
// numbers are never silently presented as authoritative.
func CalculateMetrics(in MetricsInput) (entity.WalletMetrics, bool) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	m := entity.WalletMetrics{
		BalanceWei: in.BalanceWei,
		BalanceEth: utils.WeiToEther(in.BalanceWei),
		NftCount:   in.NftCount,
	}
	m.BalanceUsd = m.BalanceEth * in.CurrentPrice
	m.TransactionCount = len(in.External)

	degraded := false
	if len(in.External) == 0 && len(in.Internal) == 0 && len(in.TokenTransfers) == 0 {
		if in.Nonce > 0 {
			m.TransactionCount = int(in.Nonce)
			m.WalletAgeDays = estimateAgeDays(in.Nonce)
			m.ActiveDays = estimateActiveDays(in.Nonce)
			m.ContractsInteracted = estimateContracts(in.Nonce)
			degraded = true
		}
		return m, degraded
	}

	addr := in.Address.String()
	activeDates := make(map[string]struct{})
	contracts := make(map[string]struct{})
	totalGasWei := new(big.Int)
	var totalGasUsd float64

	for _, tx := range in.External {
		date := tx.Timestamp.Format("2006-01-02")
		activeDates[date] = struct{}{}

		if tx.To != "" && tx.To != addr && tx.To != entity.ZeroAddress {
			contracts[tx.To] = struct{}{}
		}

		// The recipient never pays gas.
		if tx.From == addr && tx.GasPrice != nil {
			gasWei := new(big.Int).Mul(new(big.Int).SetUint64(tx.GasUsed), tx.GasPrice)
			totalGasWei.Add(totalGasWei, gasWei)
			totalGasUsd += utils.WeiToEther(gasWei) * priceForDate(in, date)
		}

		accumulateNativeFlow(&m, in, tx, addr, date)
	}

	for _, tx := range in.Internal {
		date := tx.Timestamp.Format("2006-01-02")
		accumulateNativeFlow(&m, in, tx, addr, date)
	}

	tokensHeld := make(map[string]struct{})
	for _, tx := range in.TokenTransfers {
		if tx.TokenContract != "" && tx.To == addr {
			tokensHeld[tx.TokenContract] = struct{}{}
		}

		symbol := strings.ToUpper(tx.TokenSymbol)
		if _, isStable := stablecoinSymbols[symbol]; isStable {
			usd := tokenAmount(tx)
			m.TradingVolumeUsd += usd
			if in.CurrentPrice > 0 {
				m.TradingVolumeEth += usd / in.CurrentPrice
			}
			continue
		}
		if symbol == wrappedNativeSymbol && tx.Value != nil && tx.Value.Sign() > 0 {
			eth := utils.WeiToEther(tx.Value)
			m.TradingVolumeEth += eth
			m.TradingVolumeUsd += eth * priceForDate(in, tx.Timestamp.Format("2006-01-02"))
		}
	}

	m.ActiveDays = len(activeDates)
	m.ContractsInteracted = len(contracts)
	m.DistinctTokensHeld = len(tokensHeld)
	m.TotalGasEth = utils.WeiToEther(totalGasWei)
	m.TotalGasUsd = totalGasUsd

	if len(in.External) > 0 {
		first := in.External[0].Timestamp
		last := in.External[len(in.External)-1].Timestamp
		m.FirstActivity = first.Format("2006-01-02")
		m.LastActivity = last.Format("2006-01-02")
		m.WalletAgeDays = int(now.Sub(first).Hours() / 24)
		if m.WalletAgeDays < 0 {
			m.WalletAgeDays = 0
		}
	}

	m.NetPnlUsd = m.ReceivedUsd - m.SentUsd - m.TotalGasUsd
	m.IsProfitable = m.NetPnlUsd > 0
	return m, degraded
}

// accumulateNativeFlow adds one native-currency movement to volume and the
// received/sent split, valued at that day's historical price.
func accumulateNativeFlow(m *entity.WalletMetrics, in MetricsInput, tx entity.Transaction, addr, date string) {
	if tx.Value == nil || tx.Value.Sign() == 0 {
		return
	}
	eth := utils.WeiToEther(tx.Value)
	usd := eth * priceForDate(in, date)

	m.TradingVolumeEth += eth
	m.TradingVolumeUsd += usd

	if tx.To == addr {
		m.EthReceived += eth
		m.ReceivedUsd += usd
	}
	if tx.From == addr {
		m.EthSent += eth
		m.SentUsd += usd
	}
}

// priceForDate looks up the historical daily price, falling back to the
// current price for any date outside the fetched history window.
func priceForDate(in MetricsInput, date string) float64 {
	if price, ok := in.History[date]; ok && price > 0 {
		return price
	}
	return in.CurrentPrice
}

func tokenAmount(tx entity.Transaction) float64 {
	if tx.Value == nil {
		return 0
	}
	decimals := tx.TokenDecimals
	if decimals == 0 {
		decimals = 18
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	amount, _ := new(big.Float).Quo(new(big.Float).SetInt(tx.Value), divisor).Float64()
	return amount
}

func estimateAgeDays(nonce uint64) int {
	days := int(nonce) * heuristicAgeDaysPerTx
	if days > heuristicAgeDaysCap {
		return heuristicAgeDaysCap
	}
	if days < 1 {
		return 1
	}
	return days
}

func estimateActiveDays(nonce uint64) int {
	days := int(nonce) / heuristicTxPerActiveDay
	if days < 1 {
		return 1
	}
	return days
}

func estimateContracts(nonce uint64) int {
	contracts := int(nonce) / heuristicTxPerContract
	if contracts < 1 {
		return 1
	}
	return contracts
}

// TopContracts derives the most-interacted contracts from the external set,
// recomputed each run. Share percent is relative to the total counted
// interactions, not the full transaction count.
func TopContracts(address entity.Address, external []entity.Transaction, limit int) []entity.ContractInteraction {
	if limit <= 0 {
		limit = 10
	}

	addr := address.String()
	counts := make(map[string]int)
	total := 0
	for _, tx := range external {
		if tx.To == "" || tx.To == addr || tx.To == entity.ZeroAddress {
			continue
		}
		counts[tx.To]++
		total++
	}
	if total == 0 {
		return nil
	}

	interactions := make([]entity.ContractInteraction, 0, len(counts))
	for contract, count := range counts {
		interactions = append(interactions, entity.ContractInteraction{
			Address:          contract,
			InteractionCount: count,
			SharePercent:     float64(count) / float64(total) * 100,
		})
	}
	sort.SliceStable(interactions, func(i, j int) bool {
		if interactions[i].InteractionCount != interactions[j].InteractionCount {
			return interactions[i].InteractionCount > interactions[j].InteractionCount
		}
		return interactions[i].Address < interactions[j].Address
	})

	if len(interactions) > limit {
		interactions = interactions[:limit]
	}
	return interactions
}
