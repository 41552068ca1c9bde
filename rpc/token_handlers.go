package rpc

import (
	"encoding/json"

	"hashupcore/native/token"
)

type tokenCreateParams struct {
	Caller      string `json:"caller"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply string `json:"totalSupply"`
}

type tokenTransferParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenApproveParams struct {
	Caller  string `json:"caller"`
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type tokenTransferFromParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenQueryParams struct {
	Token   string `json:"token"`
	Holder  string `json:"holder,omitempty"`
	Owner   string `json:"owner,omitempty"`
	Spender string `json:"spender,omitempty"`
}

type tokenResult struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply string `json:"totalSupply"`
	Decimals    uint8  `json:"decimals"`
	Creator     string `json:"creator"`
	CreatedAt   uint64 `json:"createdAt"`
}

func formatToken(tok *token.Token) tokenResult {
	return tokenResult{
		Address:     formatAddr(tok.Address),
		Name:        tok.Name,
		Symbol:      tok.Symbol,
		TotalSupply: bigString(tok.TotalSupply),
		Decimals:    token.Decimals,
		Creator:     formatAddr(tok.Creator),
		CreatedAt:   tok.CreatedAt,
	}
}

func (s *Server) handleTokenCreate(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenCreateParams
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
	tok, err := s.node.TokenCreate(caller, p.Name, p.Symbol, supply)
	if err != nil {
		return nil, engineError(err)
	}
	return formatToken(tok), nil
}

func (s *Server) handleTokenTransfer(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenTransferParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
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
	if err := s.node.TokenTransfer(tokenAddr, caller, to, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleTokenApprove(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenApproveParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
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
	if err := s.node.TokenApprove(tokenAddr, caller, spender, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleTokenTransferFrom(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenTransferFromParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
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
	if err := s.node.TokenTransferFrom(caller, tokenAddr, from, to, amount); err != nil {
		return nil, engineError(err)
	}
	return okResult{OK: true}, nil
}

func (s *Server) handleTokenInfo(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
	if err != nil {
		return nil, invalidParams(err)
	}
	tok, err := s.node.TokenInfo(tokenAddr)
	if err != nil {
		return nil, engineError(err)
	}
	return formatToken(tok), nil
}

func (s *Server) handleTokenBalanceOf(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
	if err != nil {
		return nil, invalidParams(err)
	}
	holder, err := parseAddress(p.Holder)
	if err != nil {
		return nil, invalidParams(err)
	}
	balance, err := s.node.TokenBalanceOf(tokenAddr, holder)
	if err != nil {
		return nil, engineError(err)
	}
	return balanceResult{Balance: bigString(balance)}, nil
}

func (s *Server) handleTokenAllowance(params []json.RawMessage) (interface{}, *errorObject) {
	var p tokenQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, invalidParams(err)
	}
	tokenAddr, err := parseAddress(p.Token)
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
	allowance, err := s.node.TokenAllowance(tokenAddr, owner, spender)
	if err != nil {
		return nil, engineError(err)
	}
	return allowanceResult{Allowance: bigString(allowance)}, nil
}
