package port

import (
	"context"

	"wallet_scorer/internal/domain/entity"
)

// ScoreService builds the full activity report for one wallet address.
type ScoreService interface {
	// BuildReport runs the one-shot aggregation for the given canonical
	// address. It degrades instead of failing for every non-primary source;
	// an error is returned only when the primary RPC lookups fail.
	BuildReport(ctx context.Context, address entity.Address) (*entity.WalletReport, error)
}
