package service

import (
	"math"

	"wallet_scorer/internal/domain/entity"
)

// Sub-score caps. Each dimension is independently capped so no single metric
// can dominate the composite.
const (
	ageScoreCap      = 20.0
	txScoreCap       = 25.0
	activeScoreCap   = 15.0
	contractScoreCap = 15.0
	nftScoreCap      = 10.0
	volumeScoreCap   = 10.0
	balanceScoreCap  = 5.0
	totalScoreCap    = 100.0
)

// ComputeScore converts metrics into the capped composite score plus the rank
// letter and percentile bucket. Every sub-score is a monotonic function of one
// metric, so increasing any input metric never decreases the total.
func ComputeScore(m entity.WalletMetrics) entity.WalletScore {
	score := linearCapped(float64(m.WalletAgeDays), 1.0/36.5, ageScoreCap) +
		logCapped(float64(m.TransactionCount), 6.25, txScoreCap) +
		linearCapped(float64(m.ActiveDays), 0.1, activeScoreCap) +
		linearCapped(float64(m.ContractsInteracted), 0.3, contractScoreCap) +
		logCapped(float64(m.NftCount), 5, nftScoreCap) +
		logCapped(m.TradingVolumeEth, 10.0/3.0, volumeScoreCap) +
		logCapped(m.BalanceEth, 2.5, balanceScoreCap)

	if score > totalScoreCap {
		score = totalScoreCap
	}
	score = math.Round(score*10) / 10

	return entity.WalletScore{
		Score:            score,
		RankLetter:       rankLetter(score),
		PercentileBucket: percentileBucket(score),
	}
}

// linearCapped grows linearly (value × perUnit) up to limit.
func linearCapped(value, perUnit, limit float64) float64 {
	if value <= 0 {
		return 0
	}
	score := value * perUnit
	if score > limit {
		return limit
	}
	return score
}

// logCapped grows with log10(value+1) scaled by factor, up to limit.
func logCapped(value, factor, limit float64) float64 {
	if value <= 0 {
		return 0
	}
	score := math.Log10(value+1) * factor
	if score > limit {
		return limit
	}
	return score
}

// rankLetter maps a score to its letter band. Bands are fixed and
// non-overlapping: a higher score never yields a worse rank.
func rankLetter(score float64) string {
	switch {
	case score >= 90:
		return "S"
	case score >= 80:
		return "A"
	case score >= 65:
		return "B"
	case score >= 50:
		return "C"
	case score >= 35:
		return "D"
	case score >= 20:
		return "E"
	default:
		return "F"
	}
}

func percentileBucket(score float64) string {
	switch {
	case score >= 90:
		return "Top 1%"
	case score >= 80:
		return "Top 5%"
	case score >= 65:
		return "Top 10%"
	case score >= 50:
		return "Top 25%"
	case score >= 35:
		return "Top 50%"
	default:
		return "Bottom 50%"
	}
}

// personalityRule pairs a predicate with its label. Rules are evaluated top to
// bottom and the first match wins, so the order encodes priority: the most
// distinctive archetypes come first and the generic fallback last. Changing
// the order changes labels for existing wallets, so keep it stable.
type personalityRule struct {
	matches func(entity.WalletMetrics) bool
	label   entity.Personality
}

var personalityRules = []personalityRule{
	{
		matches: func(m entity.WalletMetrics) bool { return m.BalanceEth >= 100 },
		label: entity.Personality{
			Title: "The Whale", Glyph: "🐋",
			Description: "Moves markets just by waking up. Holds more ETH than most people will ever see.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.WalletAgeDays >= 2555 },
		label: entity.Personality{
			Title: "The OG", Glyph: "🗿",
			Description: "Was here before it was cool. This wallet has seen every cycle and survived them all.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool {
			return m.TransactionCount >= 5000 && m.TradingVolumeEth >= 100
		},
		label: entity.Personality{
			Title: "The Degen", Glyph: "🎰",
			Description: "Sleep is for people without positions. Thousands of transactions and serious volume.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.NftCount >= 50 },
		label: entity.Personality{
			Title: "The Collector", Glyph: "🖼️",
			Description: "A gallery, not a wallet. JPEGs are the portfolio and the portfolio is art.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.TotalGasUsd >= 10000 },
		label: entity.Personality{
			Title: "The Gas Burner", Glyph: "🔥",
			Description: "Single-handedly funding validators. Gas fees were never going to be an obstacle.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.ActiveDays >= 365 },
		label: entity.Personality{
			Title: "The Regular", Glyph: "📅",
			Description: "On-chain every day like it's a job. A full year of distinct active days and counting.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.ContractsInteracted >= 100 },
		label: entity.Personality{
			Title: "The Power User", Glyph: "⚡",
			Description: "If there's a protocol, this wallet has tried it. Breadth over depth, always.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool {
			return m.IsProfitable && m.TransactionCount < 100
		},
		label: entity.Personality{
			Title: "Diamond Hands", Glyph: "💎",
			Description: "Few moves, all of them right. Buys, holds, and lets time do the trading.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.WalletAgeDays < 30 },
		label: entity.Personality{
			Title: "The Fresh Wallet", Glyph: "🐣",
			Description: "Just hatched. The story of this wallet is still entirely unwritten.",
		},
	},
	{
		matches: func(m entity.WalletMetrics) bool { return m.TransactionCount < 10 },
		label: entity.Personality{
			Title: "The Ghost", Glyph: "👻",
			Description: "Present but rarely seen. A handful of transactions and a lot of silence.",
		},
	},
	{
		// Generic fallback, guaranteed to match everything.
		matches: func(entity.WalletMetrics) bool { return true },
		label: entity.Personality{
			Title: "The Explorer", Glyph: "🧭",
			Description: "Finding a path through the chain at its own pace. Solidly, happily mid-curve.",
		},
	},
}

// ClassifyPersonality returns the first matching personality for the metrics.
func ClassifyPersonality(m entity.WalletMetrics) entity.Personality {
	for _, rule := range personalityRules {
		if rule.matches(m) {
			return rule.label
		}
	}
	// Unreachable: the fallback rule matches everything.
	return personalityRules[len(personalityRules)-1].label
}
