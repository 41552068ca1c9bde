package token

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
	errNilState              = errors.New("token engine: state not configured")
	errUnknownToken          = errors.New("token engine: unknown token")
	errInvalidName           = errors.New("token engine: name and symbol required")
	errInvalidSupply         = errors.New("token engine: total supply must be positive")
	errInvalidAmount         = errors.New("token engine: amount must be non-negative")
	errZeroAddressRecipient  = errors.New("token engine: transfer to the zero address")
	errZeroAddressSender     = errors.New("token engine: transfer from the zero address")
	errInsufficientBalance   = errors.New("token engine: insufficient balance")
	errInsufficientAllowance = errors.New("token engine: insufficient allowance")
)

// Exported aliases so callers (RPC, store engine) can classify failures.
var (
	ErrUnknownToken          = errUnknownToken
	ErrInsufficientBalance   = errInsufficientBalance
	ErrInsufficientAllowance = errInsufficientAllowance
	ErrZeroAddressRecipient  = errZeroAddressRecipient
	ErrZeroAddressSender     = errZeroAddressSender
)

type engineState interface {
	TokenGet(addr [20]byte) (*Token, bool, error)
	TokenPut(token *Token) error
	TokenNonceNext() (uint64, error)
	TokenBalanceGet(token [20]byte, holder [20]byte) (*big.Int, error)
	TokenBalancePut(token [20]byte, holder [20]byte, balance *big.Int) error
	TokenAllowanceGet(token [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error)
	TokenAllowancePut(token [20]byte, owner [20]byte, spender [20]byte, value *big.Int) error
}

// Engine implements the fee-free payment token ledger.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a token engine with default dependencies.
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

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func deriveAddress(creator [20]byte, nonce uint64) [20]byte {
	buf := make([]byte, 0, len("hashup/token")+len(creator)+8)
	buf = append(buf, []byte("hashup/token")...)
	buf = append(buf, creator[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	hash := ethcrypto.Keccak256(buf)
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Create registers a new payment token and mints the full supply to the
// creator.
func (e *Engine) Create(creator [20]byte, name string, symbol string, totalSupply *big.Int) (*Token, error) {
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
	nonce, err := e.state.TokenNonceNext()
	if err != nil {
		return nil, err
	}
	tok := &Token{
		Address:     deriveAddress(creator, nonce),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: new(big.Int).Set(totalSupply),
		Creator:     creator,
		CreatedAt:   uint64(e.nowFn()),
	}
	if err := e.state.TokenPut(tok); err != nil {
		return nil, err
	}
	if err := e.state.TokenBalancePut(tok.Address, creator, new(big.Int).Set(totalSupply)); err != nil {
		return nil, err
	}
	e.emit(TokenCreatedEvent(hexAddr(tok.Address), hexAddr(creator), tok.Symbol, tok.TotalSupply.String()))
	return tok.Clone(), nil
}

// Transfer moves amount units from the sender to the recipient.
func (e *Engine) Transfer(tokenAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.TokenGet(tokenAddr); err != nil {
		return err
	} else if !ok {
		return errUnknownToken
	}
	return e.applyTransfer(tokenAddr, from, to, amount)
}

// Approve sets the spender allowance, unconditionally overwriting any previous
// value.
func (e *Engine) Approve(tokenAddr [20]byte, owner [20]byte, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	if _, ok, err := e.state.TokenGet(tokenAddr); err != nil {
		return err
	} else if !ok {
		return errUnknownToken
	}
	return e.state.TokenAllowancePut(tokenAddr, owner, spender, new(big.Int).Set(amount))
}

// TransferFrom spends the caller's allowance to move tokens between third
// parties. An allowance equal to MaxAllowance is treated as infinite.
func (e *Engine) TransferFrom(caller [20]byte, tokenAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.TokenGet(tokenAddr); err != nil {
		return err
	} else if !ok {
		return errUnknownToken
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
	allowance, err := e.state.TokenAllowanceGet(tokenAddr, from, caller)
	if err != nil {
		return err
	}
	infinite := allowance.Cmp(MaxAllowance) == 0
	if !infinite && allowance.Cmp(amount) < 0 {
		return errInsufficientAllowance
	}
	if err := e.applyTransfer(tokenAddr, from, to, amount); err != nil {
		return err
	}
	if !infinite {
		remaining := new(big.Int).Sub(allowance, amount)
		if err := e.state.TokenAllowancePut(tokenAddr, from, caller, remaining); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyTransfer(tokenAddr [20]byte, from [20]byte, to [20]byte, amount *big.Int) error {
	if isZeroAddress(to) {
		return errZeroAddressRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	fromBal, err := e.state.TokenBalanceGet(tokenAddr, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBal, err := e.state.TokenBalanceGet(tokenAddr, to)
	if err != nil {
		return err
	}
	fromBal = new(big.Int).Sub(fromBal, amount)
	toBal = new(big.Int).Add(toBal, amount)
	if err := e.state.TokenBalancePut(tokenAddr, from, fromBal); err != nil {
		return err
	}
	if err := e.state.TokenBalancePut(tokenAddr, to, toBal); err != nil {
		return err
	}
	e.emit(TokenTransferEvent(hexAddr(tokenAddr), hexAddr(from), hexAddr(to), amount.String()))
	return nil
}

// Info returns the stored token record without mutating state.
func (e *Engine) Info(tokenAddr [20]byte) (*Token, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tok, ok, err := e.state.TokenGet(tokenAddr)
	if err != nil {
		return nil, err
	}
	if !ok || tok == nil {
		return nil, errUnknownToken
	}
	return tok.Clone(), nil
}

// BalanceOf returns the holder balance.
func (e *Engine) BalanceOf(tokenAddr [20]byte, holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.TokenGet(tokenAddr); err != nil {
		return nil, err
	} else if !ok {
		return nil, errUnknownToken
	}
	return e.state.TokenBalanceGet(tokenAddr, holder)
}

// Allowance returns the remaining spender allowance.
func (e *Engine) Allowance(tokenAddr [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.TokenGet(tokenAddr); err != nil {
		return nil, err
	} else if !ok {
		return nil, errUnknownToken
	}
	return e.state.TokenAllowanceGet(tokenAddr, owner, spender)
}
