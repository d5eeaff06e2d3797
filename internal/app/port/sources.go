package port

import (
	"context"
	"math/big"

	"wallet_scorer/internal/domain/entity"
)

// ChainClient defines read-only access to a JSON-RPC blockchain node.
// Implementations must bound every call with a timeout and return
// *entity.SourceError for anything that is not a caller bug.
type ChainClient interface {
	// GetNativeBalance fetches the native currency balance in wei.
	GetNativeBalance(ctx context.Context, address entity.Address) (*big.Int, error)

	// GetTransactionCount fetches the account nonce.
	GetTransactionCount(ctx context.Context, address entity.Address) (uint64, error)

	// GetCurrentBlock fetches the latest block number.
	GetCurrentBlock(ctx context.Context) (uint64, error)

	// GetOwnedTokenIDs probes token ids [1, maxID] of an ERC-1155 contract
	// with batched balanceOf(address,id) calls and returns the ids the
	// address holds with balance > 0.
	GetOwnedTokenIDs(ctx context.Context, contract string, address entity.Address, maxID uint64) ([]uint64, error)
}

// ExplorerClient defines the paginated REST explorer list endpoints. Each call
// requests one page of one block range; a nil slice with nil error means the
// range is exhausted.
type ExplorerClient interface {
	GetExternalTransactions(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error)
	GetInternalTransactions(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error)
	GetTokenTransfers(ctx context.Context, address entity.Address, startBlock, endBlock uint64, page, pageSize int) ([]entity.Transaction, error)
}

// MarketplaceAsset is one owned item from the marketplace inventory endpoint.
type MarketplaceAsset struct {
	ContractAddress string
	TokenID         string
	CollectionName  string
	CollectionSlug  string
	ImageURL        string
	Count           int // edition count for multi-edition standards, else 1
}

// MarketplaceClient defines the NFT marketplace API. The engine must function
// in a reduced mode with this source entirely absent.
type MarketplaceClient interface {
	// GetAssets walks the cursor-paginated inventory for the address.
	GetAssets(ctx context.Context, address entity.Address) ([]MarketplaceAsset, error)

	// GetCollectionStats fetches floor price data for one collection.
	GetCollectionStats(ctx context.Context, slugOrContract string) (*entity.CollectionStats, error)
}

// PriceClient defines the price API for the native currency.
type PriceClient interface {
	// GetCurrentPrice returns the current native-currency price in USD.
	GetCurrentPrice(ctx context.Context) (float64, error)

	// GetPriceHistory returns up to days daily snapshots, most recent last.
	GetPriceHistory(ctx context.Context, days int) ([]entity.PriceSnapshot, error)
}
