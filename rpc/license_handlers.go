package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"hashupcore/native/license"
)

type licenseCreateParams struct {
	Caller      string `json:"caller"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	MetadataURL string `json:"metadataUrl"`
	TotalSupply string `json:"totalSupply"`
	CreatorFee  uint32 `json:"creatorFee"`
	Store       string `json:"store,omitempty"`
}

type licenseTransferParams struct {
	Caller  string `json:"caller"`
	License string `json:"license"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

type licenseApproveParams struct {
	Caller  string `json:"caller"`
	License string `json:"license"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type licenseTransferFromParams struct {
	Caller  string `json:"caller"`
	License string `json:"license"`
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

type licenseAdminParams struct {
	Caller  string `json:"caller"`
	License string `json:"license"`
	Store   string `json:"store,omitempty"`
	URL     string `json:"url,omitempty"`
}

type licenseQueryParams struct {
	License string `json:"license"`
	Holder  string `json:"holder,omitempty"`
	Owner   string `json:"owner,omitempty"`
	Spender string `json:"spender,omitempty"`
}

type licenseResult struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	MetadataURL string `json:"metadataUrl"`
	Color       string `json:"color"`
	TotalSupply string `json:"totalSupply"`
	Decimals    uint8  `json:"decimals"`
	CreatorFee  uint32 `json:"creatorFee"`
	FeeDecimals uint8  `json:"feeDecimals"`
	FeeCounter  string `json:"feeCounter"`
	IsOpen      bool   `json:"isOpen"`
	Creator     string `json:"creator"`
	Store       string `json:"store"`
	CreatedAt   uint64 `json:"createdAt"`
}

type balanceResult struct {
	Balance string `json:"balance"`
}

type allowanceResult struct {
	Allowance string `json:"allowance"`
}

type okResult struct {
	OK bool `json:"ok"`
}

func formatAddr(addr [20]byte) string {
	return common.BytesToAddress(addr[:]).Hex()
}

func formatLicense(lic *license.License) licenseResult {
	return licenseResult{
		Address:     formatAddr(lic.Address),
		Name:        lic.Name,
		Symbol:      lic.Symbol,
		MetadataURL: lic.MetadataURL,
		Color:       lic.Color,
		TotalSupply: bigString(lic.TotalSupply),
		Decimals:    license.Decimals,
		CreatorFee:  lic.CreatorFee,
		FeeDecimals: license.FeeDecimals,
		FeeCounter:  bigString(lic.FeeCounter),
		IsOpen:      lic.IsOpen,
		Creator:     formatAddr(lic.Creator),
		Store:       formatAddr(lic.Store),
		CreatedAt:   lic.CreatedAt,
	}
}

func (s *Server) handleLicenseCreate(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseCreateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	supply, err := parseAmount(p.TotalSupply)
	if err != nil {
		return nil, invalidParams(err)
	}
	var storeAddr [20]byte
	if p.Store != "" {
		if storeAddr, err = parseAddress(p.Store); err != nil {
			return nil, invalidParams(err)
		}
	}
	lic, err := s.node.LicenseCreate(caller, p.Name, p.Symbol, p.MetadataURL, supply, p.CreatorFee, storeAddr)
	if err != nil {
		return nil, engineError(err)
	}
	return formatLicense(lic), nil
}

func (s *Server) handleLicenseTransfer(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseTransferParams
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
	to, err := parseAddress(p.To)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.node.LicenseTransfer(licenseAddr, caller, to, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseApprove(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseApproveParams
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
	spender, err := parseAddress(p.Spender)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.node.LicenseApprove(licenseAddr, caller, spender, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseTransferFrom(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseTransferFromParams
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
	from, err := parseAddress(p.From)
	if err != nil {
		return nil, invalidParams(err)
	}
	to, err := parseAddress(p.To)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.node.LicenseTransferFrom(caller, licenseAddr, from, to, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseSwitchSale(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseAdminParams
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
	if err := s.node.LicenseSwitchSale(caller, licenseAddr); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseSetStore(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseAdminParams
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
	storeAddr, err := parseAddress(p.Store)
	if err != nil {
		return nil, invalidParams(err)
	}
	if err := s.node.LicenseSetStore(caller, licenseAddr, storeAddr); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseSetMetadata(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseAdminParams
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
	if err := s.node.LicenseSetMetadata(caller, licenseAddr, p.URL); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleLicenseInfo(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	lic, err := s.node.LicenseInfo(licenseAddr)
	if err != nil {
		return nil, engineError(err)
	}
	return formatLicense(lic), nil
}

func (s *Server) handleLicenseBalanceOf(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	holder, err := parseAddress(p.Holder)
	if err != nil {
		return nil, invalidParams(err)
	}
	balance, err := s.node.LicenseBalanceOf(licenseAddr, holder)
	if err != nil {
		return nil, engineError(err)
	}
	return balanceResult{Balance: bigString(balance)}, nil
}

func (s *Server) handleLicenseAllowance(params []json.RawMessage) (interface{}, *errorObject) {
	var p licenseQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	licenseAddr, err := parseAddress(p.License)
	if err != nil {
		return nil, invalidParams(err)
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, invalidParams(err)
	}
	spender, err := parseAddress(p.Spender)
	if err != nil {
		return nil, invalidParams(err)
	}
	allowance, err := s.node.LicenseAllowance(licenseAddr, owner, spender)
	if err != nil {
		return nil, engineError(err)
	}
	return allowanceResult{Allowance: bigString(allowance)}, nil
}
