package token

import "math/big"

// Decimals is the display precision of payment tokens.
const Decimals = 18

// MaxAllowance is the sentinel treated as an infinite allowance.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Token describes a plain fungible payment token. Unlike licenses it carries
// no transfer fee and no sale gate; it exists as the payment rail for store
// purchases.
type Token struct {
	Address     [20]byte `json:"address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	TotalSupply *big.Int `json:"totalSupply"`
	Creator     [20]byte `json:"creator"`
	CreatedAt   uint64   `json:"createdAt"`
}

// Clone returns a deep copy of the token record.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	if t.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(t.TotalSupply)
	} else {
		clone.TotalSupply = big.NewInt(0)
	}
	return &clone
}
