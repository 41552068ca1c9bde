package license

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"hashupcore/core/events"
	"hashupcore/core/types"
)

var (
	errNilState              = errors.New("license engine: state not configured")
	errUnknownLicense        = errors.New("license engine: unknown license")
	errInvalidName           = errors.New("license engine: name and symbol required")
	errInvalidSupply         = errors.New("license engine: total supply must be positive")
	errInvalidFee            = errors.New("license engine: incorrect fee")
	errInvalidAmount         = errors.New("license engine: amount must be non-negative")
	errZeroAddressRecipient  = errors.New("license engine: transfer to the zero address")
	errZeroAddressSender     = errors.New("license engine: transfer from the zero address")
	errSaleClosed            = errors.New("license engine: transferFrom is closed")
	errInsufficientBalance   = errors.New("license engine: insufficient token balance")
	errInsufficientAllowance = errors.New("license engine: insufficient allowance")
	errNotAdmin              = errors.New("license engine: only admin can enable transferFrom")
	errNotOwner              = errors.New("license engine: caller is not the owner")
	errNotCreator            = errors.New("license engine: caller is not the creator")
)

// Exported aliases so callers (RPC, store engine) can classify failures.
var (
	ErrUnknownLicense        = errUnknownLicense
	ErrInvalidFee            = errInvalidFee
	ErrSaleClosed            = errSaleClosed
	ErrInsufficientBalance   = errInsufficientBalance
	ErrInsufficientAllowance = errInsufficientAllowance
	ErrNotAdmin              = errNotAdmin
	ErrNotOwner              = errNotOwner
	ErrNotCreator            = errNotCreator
	ErrZeroAddressRecipient  = errZeroAddressRecipient
	ErrZeroAddressSender     = errZeroAddressSender
)

type engineState interface {
	LicenseGet(addr [20]byte) (*License, bool, error)
	LicensePut(license *License) error
	LicenseNonceNext() (uint64, error)
	BalanceGet(license [20]byte, holder [20]byte) (*big.Int, error)
	BalancePut(license [20]byte, holder [20]byte, balance *big.Int) error
	AllowanceGet(license [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error)
	AllowancePut(license [20]byte, owner [20]byte, spender [20]byte, value *big.Int) error
}

// Engine wires license ledger business logic with persistence and event
// emission. Every mutating call validates all preconditions before the first
// write so a failed call leaves state untouched.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a license engine with default dependencies.
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

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func deriveAddress(creator [20]byte, nonce uint64) [20]byte {
	buf := make([]byte, 0, len("hashup/license")+len(creator)+8)
	buf = append(buf, []byte("hashup/license")...)
	buf = append(buf, creator[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	hash := ethcrypto.Keccak256(buf)
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Create registers a new license ledger and mints the full supply to the
// creator. The store address is the trusted operator permitted to call
// TransferFrom while the sale gate is still closed.
func (e *Engine) Create(creator [20]byte, name string, symbol string, metadataURL string, totalSupply *big.Int, creatorFee uint32, store [20]byte) (*License, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" || symbol == "" {
		return nil, errInvalidName
	}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return nil, errInvalidSupply
	}
	if creatorFee > MaxCreatorFee {
		return nil, errInvalidFee
	}
	nonce, err := e.state.LicenseNonceNext()
	if err != nil {
		return nil, err
	}
	lic := &License{
		Address:     deriveAddress(creator, nonce),
		Name:        name,
		Symbol:      symbol,
		MetadataURL: strings.TrimSpace(metadataURL),
		Color:       ColorForSupply(totalSupply),
		TotalSupply: new(big.Int).Set(totalSupply),
		CreatorFee:  creatorFee,
		FeeCounter:  big.NewInt(0),
		IsOpen:      false,
		Creator:     creator,
		Store:       store,
		CreatedAt:   uint64(e.now()),
	}
	if err := e.state.LicensePut(lic); err != nil {
		return nil, err
	}
	if err := e.state.BalancePut(lic.Address, creator, new(big.Int).Set(totalSupply)); err != nil {
		return nil, err
	}
	e.emit(LicenseCreatedEvent(hexAddr(lic.Address), hexAddr(creator), lic.Symbol, lic.TotalSupply.String()))
	return lic.Clone(), nil
}

// Transfer moves amount minor units from the sender to the recipient. Unless
// the sender is the creator, the creator fee is carved out of the amount and
// credited to the creator, and the cumulative fee counter advances.
func (e *Engine) Transfer(licenseAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return err
	}
	if !ok || lic == nil {
		return errUnknownLicense
	}
	return e.applyTransfer(lic, from, to, amount)
}

// Approve sets the spender allowance, unconditionally overwriting any previous
// value.
func (e *Engine) Approve(licenseAddr [20]byte, owner [20]byte, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	if _, ok, err := e.state.LicenseGet(licenseAddr); err != nil {
		return err
	} else if !ok {
		return errUnknownLicense
	}
	if err := e.state.AllowancePut(licenseAddr, owner, spender, new(big.Int).Set(amount)); err != nil {
		return err
	}
	e.emit(ApprovalEvent(hexAddr(licenseAddr), hexAddr(owner), hexAddr(spender), amount.String()))
	return nil
}

// TransferFrom spends the caller's allowance to move tokens between third
// parties. It is gated shut until the sale opens; the configured store is a
// trusted operator exempt from the gate so inventory can be escrowed before
// launch. An allowance equal to MaxAllowance is treated as infinite.
func (e *Engine) TransferFrom(caller [20]byte, licenseAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return err
	}
	if !ok || lic == nil {
		return errUnknownLicense
	}
	if isZeroAddress(from) {
		return errZeroAddressSender
	}
	if isZeroAddress(to) {
		return errZeroAddressRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	if !lic.IsOpen && caller != lic.Store {
		return errSaleClosed
	}
	allowance, err := e.state.AllowanceGet(licenseAddr, from, caller)
	if err != nil {
		return err
	}
	infinite := allowance.Cmp(MaxAllowance) == 0
	if !infinite && allowance.Cmp(amount) < 0 {
		return errInsufficientAllowance
	}
	if err := e.applyTransfer(lic, from, to, amount); err != nil {
		return err
	}
	if !infinite {
		remaining := new(big.Int).Sub(allowance, amount)
		if err := e.state.AllowancePut(licenseAddr, from, caller, remaining); err != nil {
			return err
		}
	}
	return nil
}

// applyTransfer runs the shared balance/fee bookkeeping for Transfer and
// TransferFrom. Balances are staged in a scratch map so self-transfers and
// creator-as-recipient aliasing resolve against one running value per holder.
func (e *Engine) applyTransfer(lic *License, from [20]byte, to [20]byte, amount *big.Int) error {
	if isZeroAddress(to) {
		return errZeroAddressRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	staged := make(map[[20]byte]*big.Int, 3)
	load := func(holder [20]byte) (*big.Int, error) {
		if bal, ok := staged[holder]; ok {
			return bal, nil
		}
		bal, err := e.state.BalanceGet(lic.Address, holder)
		if err != nil {
			return nil, err
		}
		staged[holder] = new(big.Int).Set(bal)
		return staged[holder], nil
	}

	fromBal, err := load(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errInsufficientBalance
	}

	fee := big.NewInt(0)
	if from != lic.Creator && lic.CreatorFee > 0 {
		fee = new(big.Int).Mul(amount, big.NewInt(int64(lic.CreatorFee)))
		fee = fee.Div(fee, big.NewInt(1000))
	}

	fromBal.Sub(fromBal, amount)
	toBal, err := load(to)
	if err != nil {
		return err
	}
	toBal.Add(toBal, new(big.Int).Sub(amount, fee))
	if fee.Sign() > 0 {
		creatorBal, err := load(lic.Creator)
		if err != nil {
			return err
		}
		creatorBal.Add(creatorBal, fee)
	}
	for holder, bal := range staged {
		if err := e.state.BalancePut(lic.Address, holder, bal); err != nil {
			return err
		}
	}
	if fee.Sign() > 0 {
		lic.FeeCounter = new(big.Int).Add(lic.FeeCounter, fee)
		if err := e.state.LicensePut(lic); err != nil {
			return err
		}
	}
	e.emit(TransferEvent(hexAddr(lic.Address), hexAddr(from), hexAddr(to), amount.String(), fee.String()))
	return nil
}

// SwitchSale opens the sale gate. The gate is a one-way latch: calling it
// again once open is a harmless no-op.
func (e *Engine) SwitchSale(caller [20]byte, licenseAddr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return err
	}
	if !ok || lic == nil {
		return errUnknownLicense
	}
	if caller != lic.Creator {
		return errNotAdmin
	}
	if lic.IsOpen {
		return nil
	}
	lic.IsOpen = true
	if err := e.state.LicensePut(lic); err != nil {
		return err
	}
	e.emit(SaleOpenedEvent(hexAddr(lic.Address), hexAddr(caller)))
	return nil
}

// SetStore replaces the trusted store operator.
func (e *Engine) SetStore(caller [20]byte, licenseAddr [20]byte, store [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return err
	}
	if !ok || lic == nil {
		return errUnknownLicense
	}
	if caller != lic.Creator {
		return errNotOwner
	}
	lic.Store = store
	if err := e.state.LicensePut(lic); err != nil {
		return err
	}
	e.emit(StoreUpdatedEvent(hexAddr(lic.Address), hexAddr(store)))
	return nil
}

// SetMetadata replaces the metadata URL.
func (e *Engine) SetMetadata(caller [20]byte, licenseAddr [20]byte, url string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return err
	}
	if !ok || lic == nil {
		return errUnknownLicense
	}
	if caller != lic.Creator {
		return errNotCreator
	}
	lic.MetadataURL = strings.TrimSpace(url)
	if err := e.state.LicensePut(lic); err != nil {
		return err
	}
	e.emit(MetadataUpdatedEvent(hexAddr(lic.Address), lic.MetadataURL))
	return nil
}

// Info returns the stored license record without mutating state.
func (e *Engine) Info(licenseAddr [20]byte) (*License, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lic, ok, err := e.state.LicenseGet(licenseAddr)
	if err != nil {
		return nil, err
	}
	if !ok || lic == nil {
		return nil, errUnknownLicense
	}
	return lic.Clone(), nil
}

// BalanceOf returns the holder balance in minor units.
func (e *Engine) BalanceOf(licenseAddr [20]byte, holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.LicenseGet(licenseAddr); err != nil {
		return nil, err
	} else if !ok {
		return nil, errUnknownLicense
	}
	return e.state.BalanceGet(licenseAddr, holder)
}

// Allowance returns the remaining spender allowance.
func (e *Engine) Allowance(licenseAddr [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.LicenseGet(licenseAddr); err != nil {
		return nil, err
	} else if !ok {
		return nil, errUnknownLicense
	}
	return e.state.AllowanceGet(licenseAddr, owner, spender)
}
