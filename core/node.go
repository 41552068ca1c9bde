package core

import (
	"log/slog"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"hashupcore/core/events"
	"hashupcore/core/state"
	"hashupcore/native/license"
	"hashupcore/native/store"
	"hashupcore/native/token"
	"hashupcore/storage"
)

// StoreAccount is the custody identity holding escrowed listing inventory and
// routing purchase settlement. It is derived from a fixed tag so every node
// agrees on it without configuration.
func StoreAccount() [20]byte {
	hash := ethcrypto.Keccak256([]byte("hashup/store/custody"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Node composes the durable state manager and the three ledger engines behind
// a single mutex. Every mutating call runs to completion before the next
// begins, which is the whole concurrency model: engines validate all
// preconditions before their first write, so a failed call leaves state
// untouched and callers never observe partial effects.
type Node struct {
	mu       sync.RWMutex
	db       storage.Database
	state    *state.Manager
	licenses *license.Engine
	tokens   *token.Engine
	store    *store.Engine
	logger   *slog.Logger
}

// NewNode wires the engines over the supplied database and bootstraps the
// store config with the given owner on first run.
func NewNode(db storage.Database, storeOwner [20]byte, logger *slog.Logger, emitter events.Emitter) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	manager := state.NewManager(db)

	licenses := license.NewEngine()
	licenses.SetState(manager)
	licenses.SetEmitter(emitter)

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetEmitter(emitter)

	storeEngine := store.NewEngine()
	storeEngine.SetState(manager)
	storeEngine.SetLedgers(licenses, tokens)
	storeEngine.SetAccount(StoreAccount())
	storeEngine.SetEmitter(emitter)

	if err := storeEngine.Bootstrap(storeOwner); err != nil {
		return nil, err
	}

	return &Node{
		db:       db,
		state:    manager,
		licenses: licenses,
		tokens:   tokens,
		store:    storeEngine,
		logger:   logger,
	}, nil
}

// --- license surface ---

func (n *Node) LicenseCreate(creator [20]byte, name, symbol, metadataURL string, totalSupply *big.Int, creatorFee uint32, storeAddr [20]byte) (*license.License, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.Create(creator, name, symbol, metadataURL, totalSupply, creatorFee, storeAddr)
}

func (n *Node) LicenseTransfer(licenseAddr, from, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.Transfer(licenseAddr, from, to, amount)
}

func (n *Node) LicenseApprove(licenseAddr, owner, spender [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.Approve(licenseAddr, owner, spender, amount)
}

func (n *Node) LicenseTransferFrom(caller, licenseAddr, from, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.TransferFrom(caller, licenseAddr, from, to, amount)
}

func (n *Node) LicenseSwitchSale(caller, licenseAddr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.SwitchSale(caller, licenseAddr)
}

func (n *Node) LicenseSetStore(caller, licenseAddr, storeAddr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.SetStore(caller, licenseAddr, storeAddr)
}

func (n *Node) LicenseSetMetadata(caller, licenseAddr [20]byte, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.licenses.SetMetadata(caller, licenseAddr, url)
}

func (n *Node) LicenseInfo(licenseAddr [20]byte) (*license.License, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.licenses.Info(licenseAddr)
}

func (n *Node) LicenseBalanceOf(licenseAddr, holder [20]byte) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.licenses.BalanceOf(licenseAddr, holder)
}

func (n *Node) LicenseAllowance(licenseAddr, owner, spender [20]byte) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.licenses.Allowance(licenseAddr, owner, spender)
}

// --- payment token surface ---

func (n *Node) TokenCreate(creator [20]byte, name, symbol string, totalSupply *big.Int) (*token.Token, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.Create(creator, name, symbol, totalSupply)
}

func (n *Node) TokenTransfer(tokenAddr, from, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.Transfer(tokenAddr, from, to, amount)
}

func (n *Node) TokenApprove(tokenAddr, owner, spender [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.Approve(tokenAddr, owner, spender, amount)
}

func (n *Node) TokenTransferFrom(caller, tokenAddr, from, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.TransferFrom(caller, tokenAddr, from, to, amount)
}

func (n *Node) TokenInfo(tokenAddr [20]byte) (*token.Token, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tokens.Info(tokenAddr)
}

func (n *Node) TokenBalanceOf(tokenAddr, holder [20]byte) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tokens.BalanceOf(tokenAddr, holder)
}

func (n *Node) TokenAllowance(tokenAddr, owner, spender [20]byte) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tokens.Allowance(tokenAddr, owner, spender)
}

// --- store surface ---

func (n *Node) StoreTogglePause(caller [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.TogglePause(caller)
}

func (n *Node) StoreSetHashupFee(caller [20]byte, fee uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.SetHashupFee(caller, fee)
}

func (n *Node) StoreSetPaymentToken(caller, tokenAddr [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.SetPaymentToken(caller, tokenAddr)
}

func (n *Node) StoreToggleWhitelisted(caller, marketplace [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.ToggleWhitelisted(caller, marketplace)
}

func (n *Node) StoreSendLicense(caller, licenseAddr [20]byte, price, amount *big.Int, marketplaceFee uint32) (*store.Listing, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.SendLicenseToStore(caller, licenseAddr, price, amount, marketplaceFee)
}

func (n *Node) StoreBuyLicense(marketplace, buyer, licenseAddr [20]byte) (*store.Listing, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.BuyLicense(marketplace, buyer, licenseAddr)
}

func (n *Node) StoreInfo() (*store.Config, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.Info()
}

func (n *Node) StoreListing(licenseAddr [20]byte) (*store.Listing, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.Listing(licenseAddr)
}

func (n *Node) StoreIsWhitelisted(marketplace [20]byte) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.IsWhitelisted(marketplace)
}
