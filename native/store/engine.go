package store

import (
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"hashupcore/core/events"
	"hashupcore/core/types"
	"hashupcore/native/license"
)

var (
	errNilState            = errors.New("store engine: state not configured")
	errNilLedgers          = errors.New("store engine: ledgers not configured")
	errNotInitialized      = errors.New("store engine: store not initialized")
	errNotOwner            = errors.New("store engine: caller is not the owner")
	errPaused              = errors.New("store engine: store is paused")
	errFeeLimit            = errors.New("store engine: hashup fee above limit")
	errMarketplaceFee      = errors.New("store engine: marketplace fee above limit")
	errInvalidPrice        = errors.New("store engine: price must be non-negative")
	errInvalidAmount       = errors.New("store engine: amount must be positive")
	errNotLicenseCreator   = errors.New("store engine: caller is not the license creator")
	errAlreadyListed       = errors.New("store engine: license already listed")
	errNotWhitelisted      = errors.New("store engine: marketplace not whitelisted")
	errNotListed           = errors.New("store engine: license not listed")
	errSoldOut             = errors.New("store engine: listing inventory depleted")
	errNoPaymentToken      = errors.New("store engine: payment token not configured")
	errZeroAddressParty    = errors.New("store engine: zero address party")
	errInventoryMismatched = errors.New("store engine: deposit not a whole number of licenses")
)

// Exported aliases so callers (RPC) can classify failures.
var (
	ErrNotOwner          = errNotOwner
	ErrPaused            = errPaused
	ErrFeeLimit          = errFeeLimit
	ErrNotLicenseCreator = errNotLicenseCreator
	ErrAlreadyListed     = errAlreadyListed
	ErrNotWhitelisted    = errNotWhitelisted
	ErrNotListed         = errNotListed
	ErrSoldOut           = errSoldOut
	ErrNoPaymentToken    = errNoPaymentToken
)

// unitsPerLicense is the number of minor units in one whole license: license
// ledgers carry two display decimals, and one purchase releases one license.
var unitsPerLicense = new(big.Int).Exp(big.NewInt(10), big.NewInt(license.Decimals), nil)

type engineState interface {
	StoreConfigGet() (*Config, bool, error)
	StoreConfigPut(config *Config) error
	ListingGet(licenseAddr [20]byte) (*Listing, bool, error)
	ListingPut(listing *Listing) error
	WhitelistGet(marketplace [20]byte) (bool, error)
	WhitelistPut(marketplace [20]byte, whitelisted bool) error
}

// licenseLedger is the slice of the license engine the store needs: reading
// listing terms and moving inventory into and out of custody.
type licenseLedger interface {
	Info(licenseAddr [20]byte) (*license.License, error)
	Transfer(licenseAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error
	TransferFrom(caller [20]byte, licenseAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error
}

// paymentLedger is the slice of the token engine the store needs for purchase
// settlement.
type paymentLedger interface {
	Transfer(tokenAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error
	TransferFrom(caller [20]byte, tokenAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine implements the store ledger: the marketplace registry, escrowed
// inventory, and purchase settlement.
type Engine struct {
	state    engineState
	licenses licenseLedger
	payments paymentLedger
	emitter  events.Emitter
	nowFn    func() int64
	account  [20]byte
}

// NewEngine constructs a store engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedgers wires the license and payment token ledgers the store settles
// against.
func (e *Engine) SetLedgers(licenses licenseLedger, payments paymentLedger) {
	e.licenses = licenses
	e.payments = payments
}

// SetAccount configures the custody account that holds escrowed inventory and
// routes purchase settlement.
func (e *Engine) SetAccount(account [20]byte) { e.account = account }

// Account returns the custody account.
func (e *Engine) Account() [20]byte { return e.account }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// Bootstrap writes the default config on first run. Calling it again once a
// config exists is a no-op, preserving the settings of a restarted node.
func (e *Engine) Bootstrap(owner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.StoreConfigGet(); err != nil {
		return err
	} else if ok {
		return nil
	}
	cfg := &Config{
		Owner:     owner,
		Paused:    false,
		HashupFee: DefaultHashupFee,
	}
	return e.state.StoreConfigPut(cfg)
}

func (e *Engine) config() (*Config, error) {
	cfg, ok, err := e.state.StoreConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, errNotInitialized
	}
	return cfg, nil
}

func (e *Engine) ownerConfig(caller [20]byte) (*Config, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Owner {
		return nil, errNotOwner
	}
	return cfg, nil
}

// TogglePause flips the paused flag. Paused gates the value-moving operations
// only; the owner can always reach the admin setters to unpause.
func (e *Engine) TogglePause(caller [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return false, err
	}
	cfg.Paused = !cfg.Paused
	if err := e.state.StoreConfigPut(cfg); err != nil {
		return false, err
	}
	e.emit(PauseToggledEvent(cfg.Paused))
	return cfg.Paused, nil
}

// SetHashupFee sets the global platform fee in whole percent, capped at 10.
func (e *Engine) SetHashupFee(caller [20]byte, fee uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return err
	}
	if fee > MaxHashupFee {
		return errFeeLimit
	}
	cfg.HashupFee = fee
	if err := e.state.StoreConfigPut(cfg); err != nil {
		return err
	}
	e.emit(HashupFeeUpdatedEvent(fee))
	return nil
}

// SetPaymentToken overwrites the accepted payment token, zero included.
func (e *Engine) SetPaymentToken(caller [20]byte, tokenAddr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return err
	}
	cfg.PaymentToken = tokenAddr
	if err := e.state.StoreConfigPut(cfg); err != nil {
		return err
	}
	e.emit(PaymentTokenUpdatedEvent(hexAddr(tokenAddr)))
	return nil
}

// ToggleWhitelisted flips the whitelist entry for a marketplace.
func (e *Engine) ToggleWhitelisted(caller [20]byte, marketplace [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	if _, err := e.ownerConfig(caller); err != nil {
		return false, err
	}
	current, err := e.state.WhitelistGet(marketplace)
	if err != nil {
		return false, err
	}
	if err := e.state.WhitelistPut(marketplace, !current); err != nil {
		return false, err
	}
	e.emit(WhitelistToggledEvent(hexAddr(marketplace), !current))
	return !current, nil
}

// SendLicenseToStore lists a license for sale: it records the terms and pulls
// the deposit into store custody through the license ledger's allowance path.
// The caller must be the license creator and must have approved the store
// account beforehand. A license can be listed exactly once.
func (e *Engine) SendLicenseToStore(caller [20]byte, licenseAddr [20]byte, price *big.Int, amount *big.Int, marketplaceFee uint32) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.licenses == nil {
		return nil, errNilLedgers
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, errPaused
	}
	if price == nil || price.Sign() < 0 {
		return nil, errInvalidPrice
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if new(big.Int).Mod(amount, unitsPerLicense).Sign() != 0 {
		return nil, errInventoryMismatched
	}
	if uint64(cfg.HashupFee)+uint64(marketplaceFee) > 100 {
		return nil, errMarketplaceFee
	}
	lic, err := e.licenses.Info(licenseAddr)
	if err != nil {
		return nil, err
	}
	if caller != lic.Creator {
		return nil, errNotLicenseCreator
	}
	if _, ok, err := e.state.ListingGet(licenseAddr); err != nil {
		return nil, err
	} else if ok {
		return nil, errAlreadyListed
	}
	if err := e.licenses.TransferFrom(e.account, licenseAddr, caller, e.account, amount); err != nil {
		return nil, err
	}
	listing := &Listing{
		License:        licenseAddr,
		Price:          new(big.Int).Set(price),
		MarketplaceFee: marketplaceFee,
		Inventory:      new(big.Int).Set(amount),
		ListedAt:       uint64(e.nowFn()),
	}
	if err := e.state.ListingPut(listing); err != nil {
		return nil, err
	}
	e.emit(ListingCreatedEvent(hexAddr(licenseAddr), price.String(), amount.String(), marketplaceFee))
	return listing.Clone(), nil
}

// BuyLicense settles the purchase of one license through a whitelisted
// marketplace. The full price is pulled from the buyer into store custody,
// split between the store owner, the marketplace and the license creator, and
// one license is released from escrow to the buyer. The split truncates the
// two fee cuts and routes the remainder to the creator, so the three cuts
// always sum to the price.
func (e *Engine) BuyLicense(marketplace [20]byte, buyer [20]byte, licenseAddr [20]byte) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.licenses == nil || e.payments == nil {
		return nil, errNilLedgers
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, errPaused
	}
	if isZeroAddress(marketplace) || isZeroAddress(buyer) {
		return nil, errZeroAddressParty
	}
	whitelisted, err := e.state.WhitelistGet(marketplace)
	if err != nil {
		return nil, err
	}
	if !whitelisted {
		return nil, errNotWhitelisted
	}
	listing, ok, err := e.state.ListingGet(licenseAddr)
	if err != nil {
		return nil, err
	}
	if !ok || listing == nil {
		return nil, errNotListed
	}
	if listing.Inventory.Cmp(unitsPerLicense) < 0 {
		return nil, errSoldOut
	}
	if isZeroAddress(cfg.PaymentToken) {
		return nil, errNoPaymentToken
	}
	lic, err := e.licenses.Info(licenseAddr)
	if err != nil {
		return nil, err
	}

	// Pull the full price first: the buyer-side allowance and balance checks
	// inside the token ledger are the only fallible step, and they run before
	// any other state moves.
	if listing.Price.Sign() > 0 {
		if err := e.payments.TransferFrom(e.account, cfg.PaymentToken, buyer, e.account, listing.Price); err != nil {
			return nil, err
		}
		hashupCut := new(big.Int).Mul(listing.Price, big.NewInt(int64(cfg.HashupFee)))
		hashupCut = hashupCut.Div(hashupCut, big.NewInt(100))
		marketplaceCut := new(big.Int).Mul(listing.Price, big.NewInt(int64(listing.MarketplaceFee)))
		marketplaceCut = marketplaceCut.Div(marketplaceCut, big.NewInt(100))
		creatorCut := new(big.Int).Sub(listing.Price, hashupCut)
		creatorCut = creatorCut.Sub(creatorCut, marketplaceCut)
		if hashupCut.Sign() > 0 {
			if err := e.payments.Transfer(cfg.PaymentToken, e.account, cfg.Owner, hashupCut); err != nil {
				return nil, err
			}
		}
		if marketplaceCut.Sign() > 0 {
			if err := e.payments.Transfer(cfg.PaymentToken, e.account, marketplace, marketplaceCut); err != nil {
				return nil, err
			}
		}
		if creatorCut.Sign() > 0 {
			if err := e.payments.Transfer(cfg.PaymentToken, e.account, lic.Creator, creatorCut); err != nil {
				return nil, err
			}
		}
	}

	if err := e.licenses.Transfer(licenseAddr, e.account, buyer, unitsPerLicense); err != nil {
		return nil, err
	}
	listing.Inventory = new(big.Int).Sub(listing.Inventory, unitsPerLicense)
	if err := e.state.ListingPut(listing); err != nil {
		return nil, err
	}
	e.emit(ListingSoldEvent(hexAddr(licenseAddr), hexAddr(marketplace), hexAddr(buyer), listing.Price.String(), listing.Inventory.String()))
	return listing.Clone(), nil
}

// Info returns the store configuration.
func (e *Engine) Info() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Listing returns the stored listing for a license.
func (e *Engine) Listing(licenseAddr [20]byte) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	listing, ok, err := e.state.ListingGet(licenseAddr)
	if err != nil {
		return nil, err
	}
	if !ok || listing == nil {
		return nil, errNotListed
	}
	return listing.Clone(), nil
}

// IsWhitelisted reports whether a marketplace may buy through the store.
func (e *Engine) IsWhitelisted(marketplace [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.WhitelistGet(marketplace)
}
