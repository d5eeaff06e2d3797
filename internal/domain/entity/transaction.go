package entity

import (
	"math/big"
	"time"
)

// TxKind classifies how a transaction was observed.
type TxKind int

const (
	// TxExternal is a top-level transaction signed directly by an account.
	TxExternal TxKind = iota
	// TxInternal is a value transfer caused indirectly by contract execution.
	TxInternal
	// TxTokenTransfer is an application-level token transfer event.
	TxTokenTransfer
)

// Transaction is one observed transfer, normalized across the three explorer
// list endpoints. Hash is the dedup identity: the reconciled set contains each
// hash exactly once per kind, regardless of which page or block range returned it.
type Transaction struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"` // empty for contract creation
	Value     *big.Int  `json:"-"`
	GasUsed   uint64    `json:"gasUsed"`
	GasPrice  *big.Int  `json:"-"`
	Kind      TxKind    `json:"kind"`

	// Token transfer fields, zero-valued for native movements.
	TokenContract string `json:"tokenContract,omitempty"`
	TokenSymbol   string `json:"tokenSymbol,omitempty"`
	TokenDecimals uint8  `json:"tokenDecimals,omitempty"`
	TokenID       string `json:"tokenId,omitempty"`
	TokenName     string `json:"tokenName,omitempty"`
}

// PriceSnapshot is one day of the historical price series.
type PriceSnapshot struct {
	Date     string  `json:"date"` // YYYY-MM-DD, day granularity
	USDPrice float64 `json:"usdPrice"`
}

// ContractInteraction is a derived per-contract activity row, recomputed each run.
type ContractInteraction struct {
	Address          string  `json:"address"`
	ResolvedName     string  `json:"resolvedName,omitempty"`
	InteractionCount int     `json:"interactionCount"`
	SharePercent     float64 `json:"sharePercent"`
}
