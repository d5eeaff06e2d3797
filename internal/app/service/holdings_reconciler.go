package service

import (
	"context"
	"sort"
	"strings"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/domain/entity"
	"wallet_scorer/internal/pkg/boundedcache"

	"go.uber.org/zap"
)

// knownCollectionFloors is the static fallback table for collections whose
// floor the marketplace cannot serve. Keyed by lowercase contract address.
var knownCollectionFloors = map[string]entity.CollectionStats{
	"0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d": {Name: "Bored Ape Yacht Club", FloorPriceEth: 10.5},
	"0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb": {Name: "CryptoPunks", FloorPriceEth: 28.0},
	"0x60e4d786628fea6478f785a6d7e704777c86a7c6": {Name: "Mutant Ape Yacht Club", FloorPriceEth: 1.6},
	"0x49cf6f5d44e70224e2e23fdcdd2c053f30ada28b": {Name: "CloneX", FloorPriceEth: 0.3},
	"0x8a90cab2b38dba80c64b7734e58ee1db38b8992e": {Name: "Doodles", FloorPriceEth: 0.8},
	"0xed5af388653567af2f388e6224dc7c4b3241c544": {Name: "Azuki", FloorPriceEth: 2.4},
}

// holdingSource tags which resolver produced a holdings set.
type holdingSource int

const (
	sourceMarketplace holdingSource = iota
	sourceTransferLog
)

type collectionGroup struct {
	contract       string
	name           string
	slug           string
	imageURL       string
	representative string
	count          int
}

// HoldingsReconciler merges NFT ownership signals from the marketplace
// inventory and from raw transfer-log reconstruction, preferring the richer
// source, and enriches the largest groups with cached floor-price data.
type HoldingsReconciler struct {
	marketplace port.MarketplaceClient // may be nil: reduced mode
	floorCache  *boundedcache.Cache
	enrichTopN  int
	logger      *zap.Logger
}

// NewHoldingsReconciler creates a reconciler. floorCache bounds how much
// collection metadata is retained across requests; marketplace may be nil.
func NewHoldingsReconciler(marketplace port.MarketplaceClient, floorCache *boundedcache.Cache, enrichTopN int, logger *zap.Logger) *HoldingsReconciler {
	if enrichTopN <= 0 {
		enrichTopN = 10
	}
	return &HoldingsReconciler{
		marketplace: marketplace,
		floorCache:  floorCache,
		enrichTopN:  enrichTopN,
		logger:      logger.Named("HoldingsReconciler"),
	}
}

// Reconcile builds the per-collection holdings list. If the marketplace
// returned any inventory it is authoritative; otherwise holdings are
// reconstructed from the token-transfer set by running balances per
// (contract, tokenId). Collections tracked separately as badges or creator
// cards are excluded to avoid double counting.
func (r *HoldingsReconciler) Reconcile(
	ctx context.Context,
	address entity.Address,
	assets []port.MarketplaceAsset,
	tokenTransfers []entity.Transaction,
	excludedContracts map[string]struct{},
	currentUsdPrice float64,
) []entity.NftHolding {
	var groups []collectionGroup
	source := sourceMarketplace

	if len(assets) > 0 {
		groups = groupMarketplaceAssets(assets, excludedContracts)
	} else {
		source = sourceTransferLog
		groups = groupTransferBalances(address, tokenTransfers, excludedContracts)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	holdings := make([]entity.NftHolding, 0, len(groups))
	for i, group := range groups {
		holding := entity.NftHolding{
			ContractAddress:       group.contract,
			RepresentativeTokenID: group.representative,
			CollectionName:        group.name,
			ImageURL:              group.imageURL,
			OwnedCount:            group.count,
		}
		if holding.CollectionName == "" {
			holding.CollectionName = shortContractLabel(group.contract)
		}

		// Floor enrichment is capped to the largest groups to bound
		// external call volume.
		if i < r.enrichTopN {
			if stats := r.lookupFloor(ctx, group); stats != nil && stats.FloorPriceEth > 0 && currentUsdPrice > 0 {
				value := stats.FloorPriceEth * float64(group.count) * currentUsdPrice
				holding.EstimatedUsdValue = &value
				if holding.CollectionName == shortContractLabel(group.contract) && stats.Name != "" {
					holding.CollectionName = stats.Name
				}
			}
		}
		holdings = append(holdings, holding)
	}

	r.logger.Debug("Holdings reconciled",
		zap.String("address", address.String()),
		zap.Int("collections", len(holdings)),
		zap.Bool("fromTransferLogs", source == sourceTransferLog))
	return holdings
}

// lookupFloor resolves a collection's floor price: bounded cache first, then
// the marketplace stats endpoint, then the static known-collection table.
// Returns nil when no floor is available anywhere; the holding then carries
// no estimated value rather than a zero one.
func (r *HoldingsReconciler) lookupFloor(ctx context.Context, group collectionGroup) *entity.CollectionStats {
	cacheKey := strings.ToLower(group.contract)
	if cached, found := r.floorCache.Get(cacheKey); found {
		if stats, ok := cached.(*entity.CollectionStats); ok {
			return stats
		}
	}

	if r.marketplace != nil {
		lookupKey := group.slug
		if lookupKey == "" {
			lookupKey = group.contract
		}
		stats, err := r.marketplace.GetCollectionStats(ctx, lookupKey)
		if err == nil && stats != nil && stats.FloorPriceEth > 0 {
			stats.ContractAddress = cacheKey
			if stats.Name == "" {
				stats.Name = group.name
			}
			r.floorCache.Set(cacheKey, stats)
			return stats
		}
		if err != nil {
			r.logger.Debug("Floor price lookup failed", zap.String("collection", lookupKey), zap.Error(err))
		}
	}

	if known, ok := knownCollectionFloors[cacheKey]; ok {
		stats := known
		stats.ContractAddress = cacheKey
		r.floorCache.Set(cacheKey, &stats)
		return &stats
	}
	return nil
}

func groupMarketplaceAssets(assets []port.MarketplaceAsset, excluded map[string]struct{}) []collectionGroup {
	byContract := make(map[string]*collectionGroup)
	var order []string

	for _, asset := range assets {
		contract := strings.ToLower(asset.ContractAddress)
		if _, skip := excluded[contract]; skip {
			continue
		}
		group, ok := byContract[contract]
		if !ok {
			group = &collectionGroup{
				contract:       contract,
				name:           asset.CollectionName,
				slug:           asset.CollectionSlug,
				imageURL:       asset.ImageURL,
				representative: asset.TokenID,
			}
			byContract[contract] = group
			order = append(order, contract)
		}
		count := asset.Count
		if count <= 0 {
			count = 1
		}
		group.count += count
	}

	groups := make([]collectionGroup, 0, len(order))
	for _, contract := range order {
		groups = append(groups, *byContract[contract])
	}
	return groups
}

// groupTransferBalances reconstructs held tokens from transfer logs: per
// (contract, tokenId), balance = inbound − outbound; only balances > 0 count
// as held.
func groupTransferBalances(address entity.Address, tokenTransfers []entity.Transaction, excluded map[string]struct{}) []collectionGroup {
	type tokenKey struct {
		contract string
		tokenID  string
	}
	balances := make(map[tokenKey]int)
	names := make(map[string]string)

	addr := address.String()
	for _, tx := range tokenTransfers {
		if tx.TokenID == "" || tx.TokenContract == "" {
			continue
		}
		contract := strings.ToLower(tx.TokenContract)
		if _, skip := excluded[contract]; skip {
			continue
		}
		key := tokenKey{contract: contract, tokenID: tx.TokenID}
		if tx.To == addr {
			balances[key]++
		}
		if tx.From == addr {
			balances[key]--
		}
		if tx.TokenName != "" {
			names[contract] = tx.TokenName
		}
	}

	byContract := make(map[string]*collectionGroup)
	var order []string
	for key, balance := range balances {
		if balance <= 0 {
			continue
		}
		group, ok := byContract[key.contract]
		if !ok {
			group = &collectionGroup{
				contract:       key.contract,
				name:           names[key.contract],
				representative: key.tokenID,
			}
			byContract[key.contract] = group
			order = append(order, key.contract)
		}
		group.count += balance
	}

	sort.Strings(order) // map iteration order is not deterministic
	groups := make([]collectionGroup, 0, len(order))
	for _, contract := range order {
		groups = append(groups, *byContract[contract])
	}
	return groups
}

func shortContractLabel(contract string) string {
	if len(contract) >= 10 {
		return "Collection " + contract[:10]
	}
	return "Collection " + contract
}
