package entity

// NftHolding is one record per collection in the final report, with per-token
// counts collapsed. EstimatedUsdValue is nil when no floor price is known;
// a reader must be able to tell "no value available" from "zero value".
type NftHolding struct {
	ContractAddress       string   `json:"contractAddress"`
	RepresentativeTokenID string   `json:"representativeTokenId"`
	CollectionName        string   `json:"collectionName"`
	ImageURL              string   `json:"imageUrl,omitempty"`
	OwnedCount            int      `json:"ownedCount"`
	EstimatedUsdValue     *float64 `json:"estimatedUsdValue,omitempty"`
}

// Badge is a single owned token id in the badge collection, found by probing
// a fixed id range with batched ownership balance checks.
type Badge struct {
	TokenID  uint64 `json:"tokenId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// CreatorCard is a single owned token id in the creator-card collection.
type CreatorCard struct {
	TokenID  uint64 `json:"tokenId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// CollectionStats carries the floor price of an NFT collection, as reported
// by the marketplace API or the static known-collection table.
type CollectionStats struct {
	ContractAddress string  `json:"contractAddress"`
	Name            string  `json:"name,omitempty"`
	FloorPriceEth   float64 `json:"floorPriceEth"`
}
