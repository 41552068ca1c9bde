package state

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"hashupcore/native/license"
	"hashupcore/native/store"
	"hashupcore/native/token"
	"hashupcore/storage"
)

// Manager implements the state interfaces of the license, token and store
// engines over a key-value database. Records are RLP encoded and stored under
// keccak-hashed, prefix-namespaced keys.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func hashKey(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) readRLP(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) writeRLP(key []byte, in interface{}) error {
	data, err := rlp.EncodeToBytes(in)
	if err != nil {
		return err
	}
	return m.db.Put(key, data)
}

func (m *Manager) readBig(key []byte) (*big.Int, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

func (m *Manager) writeBig(key []byte, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return m.db.Put(key, []byte{})
	}
	return m.db.Put(key, value.Bytes())
}

func (m *Manager) nonceNext(rawKey []byte) (uint64, error) {
	key := hashKey(rawKey)
	var current uint64
	data, err := m.db.Get(key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}
	if len(data) == 8 {
		current = binary.BigEndian.Uint64(data)
	}
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, current+1)
	if err := m.db.Put(key, next); err != nil {
		return 0, err
	}
	return current, nil
}

// --- license engine state ---

func (m *Manager) LicenseGet(addr [20]byte) (*license.License, bool, error) {
	lic := new(license.License)
	ok, err := m.readRLP(hashKey(licensePrefix, addr[:]), lic)
	if !ok || err != nil {
		return nil, false, err
	}
	return lic, true, nil
}

func (m *Manager) LicensePut(lic *license.License) error {
	if lic == nil {
		return nil
	}
	return m.writeRLP(hashKey(licensePrefix, lic.Address[:]), lic)
}

func (m *Manager) LicenseNonceNext() (uint64, error) {
	return m.nonceNext(licenseNonceKeyBytes)
}

func (m *Manager) BalanceGet(licenseAddr [20]byte, holder [20]byte) (*big.Int, error) {
	return m.readBig(hashKey(licenseBalancePrefix, licenseAddr[:], holder[:]))
}

func (m *Manager) BalancePut(licenseAddr [20]byte, holder [20]byte, balance *big.Int) error {
	return m.writeBig(hashKey(licenseBalancePrefix, licenseAddr[:], holder[:]), balance)
}

func (m *Manager) AllowanceGet(licenseAddr [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error) {
	return m.readBig(hashKey(licenseAllowancePrefix, licenseAddr[:], owner[:], spender[:]))
}

func (m *Manager) AllowancePut(licenseAddr [20]byte, owner [20]byte, spender [20]byte, value *big.Int) error {
	return m.writeBig(hashKey(licenseAllowancePrefix, licenseAddr[:], owner[:], spender[:]), value)
}

// --- token engine state ---

func (m *Manager) TokenGet(addr [20]byte) (*token.Token, bool, error) {
	tok := new(token.Token)
	ok, err := m.readRLP(hashKey(tokenPrefix, addr[:]), tok)
	if !ok || err != nil {
		return nil, false, err
	}
	return tok, true, nil
}

func (m *Manager) TokenPut(tok *token.Token) error {
	if tok == nil {
		return nil
	}
	return m.writeRLP(hashKey(tokenPrefix, tok.Address[:]), tok)
}

func (m *Manager) TokenNonceNext() (uint64, error) {
	return m.nonceNext(tokenNonceKeyBytes)
}

func (m *Manager) TokenBalanceGet(tokenAddr [20]byte, holder [20]byte) (*big.Int, error) {
	return m.readBig(hashKey(tokenBalancePrefix, tokenAddr[:], holder[:]))
}

func (m *Manager) TokenBalancePut(tokenAddr [20]byte, holder [20]byte, balance *big.Int) error {
	return m.writeBig(hashKey(tokenBalancePrefix, tokenAddr[:], holder[:]), balance)
}

func (m *Manager) TokenAllowanceGet(tokenAddr [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error) {
	return m.readBig(hashKey(tokenAllowancePrefix, tokenAddr[:], owner[:], spender[:]))
}

func (m *Manager) TokenAllowancePut(tokenAddr [20]byte, owner [20]byte, spender [20]byte, value *big.Int) error {
	return m.writeBig(hashKey(tokenAllowancePrefix, tokenAddr[:], owner[:], spender[:]), value)
}

// --- store engine state ---

func (m *Manager) StoreConfigGet() (*store.Config, bool, error) {
	cfg := new(store.Config)
	ok, err := m.readRLP(hashKey(storeConfigKeyBytes), cfg)
	if !ok || err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func (m *Manager) StoreConfigPut(cfg *store.Config) error {
	if cfg == nil {
		return nil
	}
	return m.writeRLP(hashKey(storeConfigKeyBytes), cfg)
}

func (m *Manager) ListingGet(licenseAddr [20]byte) (*store.Listing, bool, error) {
	listing := new(store.Listing)
	ok, err := m.readRLP(hashKey(listingPrefix, licenseAddr[:]), listing)
	if !ok || err != nil {
		return nil, false, err
	}
	return listing, true, nil
}

func (m *Manager) ListingPut(listing *store.Listing) error {
	if listing == nil {
		return nil
	}
	return m.writeRLP(hashKey(listingPrefix, listing.License[:]), listing)
}

func (m *Manager) WhitelistGet(marketplace [20]byte) (bool, error) {
	ok, err := m.db.Has(hashKey(whitelistPrefix, marketplace[:]))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (m *Manager) WhitelistPut(marketplace [20]byte, whitelisted bool) error {
	key := hashKey(whitelistPrefix, marketplace[:])
	if !whitelisted {
		return m.db.Delete(key)
	}
	return m.db.Put(key, []byte{0x01})
}
