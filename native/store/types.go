package store

import "math/big"

const (
	// MaxHashupFee caps the global platform fee, in whole percent.
	MaxHashupFee = 10
	// DefaultHashupFee is the platform fee applied until the owner changes it.
	DefaultHashupFee = 10
)

// Config holds the owner-administered store settings.
type Config struct {
	Owner        [20]byte `json:"owner"`
	Paused       bool     `json:"paused"`
	HashupFee    uint32   `json:"hashupFee"`
	PaymentToken [20]byte `json:"paymentToken"`
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Listing records the terms under which a license is sold through the store.
// Inventory is the escrowed license balance in minor units; it only moves one
// way, from the deposit amount down to zero.
type Listing struct {
	License        [20]byte `json:"license"`
	Price          *big.Int `json:"price"`
	MarketplaceFee uint32   `json:"marketplaceFee"`
	Inventory      *big.Int `json:"inventory"`
	ListedAt       uint64   `json:"listedAt"`
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	if l.Inventory != nil {
		clone.Inventory = new(big.Int).Set(l.Inventory)
	} else {
		clone.Inventory = big.NewInt(0)
	}
	return &clone
}
