package rpc

import (
	"encoding/json"
	"errors"

	"hashupcore/core"
	"hashupcore/native/store"
	"hashupcore/native/token"
)

func (s *Server) storeAccount() [20]byte {
	return core.StoreAccount()
}

type storeAdminParams struct {
	Caller      string `json:"caller"`
	Fee         uint32 `json:"fee,omitempty"`
	Token       string `json:"token,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
}

type storeSendLicenseParams struct {
	Caller         string `json:"caller"`
	License        string `json:"license"`
	Price          string `json:"price"`
	Amount         string `json:"amount"`
	MarketplaceFee uint32 `json:"marketplaceFee"`
}

type storeBuyParams struct {
	Caller  string `json:"caller"`
	Buyer   string `json:"buyer"`
	License string `json:"license"`
}

type storeQueryParams struct {
	License     string `json:"license,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
}

type storeInfoResult struct {
	Owner        string `json:"owner"`
	Paused       bool   `json:"paused"`
	HashupFee    uint32 `json:"hashupFee"`
	PaymentToken string `json:"paymentToken"`
	Account      string `json:"account"`
}

type listingResult struct {
	License        string `json:"license"`
	Price          string `json:"price"`
	MarketplaceFee uint32 `json:"marketplaceFee"`
	Inventory      string `json:"inventory"`
	ListedAt       uint64 `json:"listedAt"`
}

type pausedResult struct {
	Paused bool `json:"paused"`
}

type whitelistedResult struct {
	Whitelisted bool `json:"whitelisted"`
}

func formatListing(listing *store.Listing) listingResult {
	return listingResult{
		License:        formatAddr(listing.License),
		Price:          bigString(listing.Price),
		MarketplaceFee: listing.MarketplaceFee,
		Inventory:      bigString(listing.Inventory),
		ListedAt:       listing.ListedAt,
	}
}

func (s *Server) handleStoreTogglePause(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeAdminParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	paused, err := s.node.StoreTogglePause(caller)
	if err != nil {
		return nil, engineError(err)
	}
	return pausedResult{Paused: paused}, nil
}

func (s *Server) handleStoreSetHashupFee(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeAdminParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.node.StoreSetHashupFee(caller, p.Fee); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleStoreSetPaymentToken(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeAdminParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	var tokenAddr [20]byte
	if p.Token != "" {
		if tokenAddr, err = parseAddress(p.Token); err != nil {
			return nil, invalidParams(err)
		}
	}
	if err := s.node.StoreSetPaymentToken(caller, tokenAddr); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleStoreToggleWhitelisted(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeAdminParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	marketplace, err := parseAddress(p.Marketplace)
	if err != nil {
		return nil, invalidParams(err)
	}
	whitelisted, err := s.node.StoreToggleWhitelisted(caller, marketplace)
	if err != nil {
		return nil, engineError(err)
	}
	return whitelistedResult{Whitelisted: whitelisted}, nil
}

func (s *Server) handleStoreSendLicense(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeSendLicenseParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, invalidParams(err)
	}
	listing, err := s.node.StoreSendLicense(caller, licenseAddr, price, amount, p.MarketplaceFee)
	if err != nil {
		return nil, engineError(err)
	}
	return formatListing(listing), nil
}

func (s *Server) handleStoreBuy(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeBuyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	marketplace, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	buyer, err := parseAddress(p.Buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	listing, err := s.node.StoreBuyLicense(marketplace, buyer, licenseAddr)
	if err != nil {
		// The buyer authorises the store against the payment token; a missing
		// approval is the purchase-specific failure mode.
		if errors.Is(err, token.ErrInsufficientAllowance) {
			return nil, &errorObject{Code: codeServerError, Message: err.Error(), Data: "PaymentTokenNotApproved"}
		}
		return nil, engineError(err)
	}
	return formatListing(listing), nil
}

func (s *Server) handleStoreInfo(params []json.RawMessage) (interface{}, *errorObject) {
	if len(params) > 1 {
		return nil, invalidParams(errors.New("unexpected params"))
	}
	cfg, err := s.node.StoreInfo()
	if err != nil {
		return nil, engineError(err)
	}
	return storeInfoResult{
		Owner:        formatAddr(cfg.Owner),
		Paused:       cfg.Paused,
		HashupFee:    cfg.HashupFee,
		PaymentToken: formatAddr(cfg.PaymentToken),
		Account:      formatAddr(s.storeAccount()),
	}, nil
}

func (s *Server) handleStoreListing(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	listing, err := s.node.StoreListing(licenseAddr)
	if err != nil {
		return nil, engineError(err)
	}
	return formatListing(listing), nil
}

func (s *Server) handleStoreIsWhitelisted(params []json.RawMessage) (interface{}, *errorObject) {
	var p storeQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	marketplace, err := parseAddress(p.Marketplace)
	if err != nil {
		return nil, invalidParams(err)
	}
	whitelisted, err := s.node.StoreIsWhitelisted(marketplace)
	if err != nil {
		return nil, engineError(err)
	}
	return whitelistedResult{Whitelisted: whitelisted}, nil
}
