package entity

import "math/big"

// WalletMetrics is the aggregate activity snapshot derived from the reconciled
// transaction set. All monetary fields denominated in USD use historical daily
// prices where available, falling back to the current price.
type WalletMetrics struct {
	BalanceWei *big.Int `json:"-"`
	BalanceEth float64  `json:"balanceEth"`
	BalanceUsd float64  `json:"balanceUsd"`

	TransactionCount    int    `json:"transactionCount"`
	FirstActivity       string `json:"firstActivity,omitempty"` // YYYY-MM-DD
	LastActivity        string `json:"lastActivity,omitempty"`
	WalletAgeDays       int    `json:"walletAgeDays"`
	ActiveDays          int    `json:"activeDays"`
	ContractsInteracted int    `json:"contractsInteracted"`
	DistinctTokensHeld  int    `json:"distinctTokensHeld"`
	NftCount            int    `json:"nftCount"`

	TotalGasEth float64 `json:"totalGasEth"`
	TotalGasUsd float64 `json:"totalGasUsd"`

	TradingVolumeEth float64 `json:"tradingVolumeEth"`
	TradingVolumeUsd float64 `json:"tradingVolumeUsd"`

	EthReceived    float64 `json:"ethReceived"`
	EthSent        float64 `json:"ethSent"`
	ReceivedUsd    float64 `json:"receivedUsd"`
	SentUsd        float64 `json:"sentUsd"`
	NetPnlUsd      float64 `json:"netPnlUsd"`
	IsProfitable   bool    `json:"isProfitable"`
}

// WalletScore is a pure function of WalletMetrics.
type WalletScore struct {
	Score            float64 `json:"score"` // 0..100
	RankLetter       string  `json:"rankLetter"`
	PercentileBucket string  `json:"percentileBucket"`
}

// Personality is the single best-matching behavioral label for the wallet.
type Personality struct {
	Title       string `json:"title"`
	Glyph       string `json:"glyph"`
	Description string `json:"description"`
}

// WalletReport is the immutable per-request result returned to the caller.
// LimitedData signals that at least one fallback or estimation path was used
// and the numbers should be presented with an "estimated" disclaimer.
type WalletReport struct {
	Address      Address               `json:"address"`
	Metrics      WalletMetrics         `json:"metrics"`
	Score        WalletScore           `json:"score"`
	Personality  Personality           `json:"personality"`
	TopContracts []ContractInteraction `json:"topContracts"`
	Holdings     []NftHolding          `json:"nftHoldings"`
	Badges       []Badge               `json:"badges"`
	CreatorCards []CreatorCard         `json:"creatorCards"`
	LimitedData  bool                  `json:"limitedData"`
}
