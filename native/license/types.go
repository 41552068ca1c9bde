package license

import "math/big"

const (
	// Decimals is the number of display decimals carried by every license
	// ledger. Balances are denominated in minor units (1 license = 100 units).
	Decimals = 2
	// FeeDecimals is the number of implied decimals in CreatorFee. A fee of
	// 200 reads as 20.0%, so fee math divides by 1000.
	FeeDecimals = 1
	// MaxCreatorFee caps CreatorFee at 100.0% so a transfer fee can never
	// exceed the transferred amount.
	MaxCreatorFee = 1000

	// ColorGold is assigned to small-supply licenses, ColorGray to everything
	// at or above the gray supply threshold. Purely a display tier.
	ColorGold = "gold"
	ColorGray = "gray"
)

// MaxAllowance is the sentinel treated as an infinite allowance. Spending
// against it never decrements the stored value.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

var graySupplyThreshold = big.NewInt(1_000_000_000)

// License captures the metadata and runtime status of a single license ledger.
// The address is derived from the creator and a persisted nonce at creation
// time and never changes afterwards.
type License struct {
	Address     [20]byte `json:"address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	MetadataURL string   `json:"metadataUrl"`
	Color       string   `json:"color"`
	TotalSupply *big.Int `json:"totalSupply"`
	CreatorFee  uint32   `json:"creatorFee"`
	FeeCounter  *big.Int `json:"feeCounter"`
	IsOpen      bool     `json:"isOpen"`
	Creator     [20]byte `json:"creator"`
	Store       [20]byte `json:"store"`
	CreatedAt   uint64   `json:"createdAt"`
}

// Clone returns a deep copy of the license so callers can safely mutate the
// copy without affecting the stored instance.
func (l *License) Clone() *License {
	if l == nil {
		return nil
	}
	clone := *l
	if l.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(l.TotalSupply)
	} else {
		clone.TotalSupply = big.NewInt(0)
	}
	if l.FeeCounter != nil {
		clone.FeeCounter = new(big.Int).Set(l.FeeCounter)
	} else {
		clone.FeeCounter = big.NewInt(0)
	}
	return &clone
}

// ColorForSupply buckets a total supply into its display tier.
func ColorForSupply(supply *big.Int) string {
	if supply != nil && supply.Cmp(graySupplyThreshold) >= 0 {
		return ColorGray
	}
	return ColorGold
}
