package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hashupcore/core"
	"hashupcore/storage"
)

var ownerAddr = [20]byte{0x41}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("HASHUP_RPC_TOKEN", "")
	node, err := core.NewNode(storage.NewMemDB(), ownerAddr, nil, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return NewServer(node, nil)
}

func call(t *testing.T, s *Server, method string, params interface{}, headers map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httpReq)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func resultInto(t *testing.T, resp response, out interface{}) {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("remarshal result: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestLicenseCreateAndInfo(t *testing.T) {
	s := newTestServer(t)

	_, resp := call(t, s, "license_create", map[string]interface{}{
		"caller":      "0x0000000000000000000000000000000000000042",
		"name":        "Game",
		"symbol":      "GME",
		"metadataUrl": "ipfs://meta",
		"totalSupply": "10000000",
		"creatorFee":  200,
	}, nil)
	if resp.Error != nil {
		t.Fatalf("create failed: %+v", resp.Error)
	}
	var created licenseResult
	resultInto(t, resp, &created)
	if created.Symbol != "GME" || created.TotalSupply != "10000000" {
		t.Fatalf("unexpected result: %+v", created)
	}
	if created.IsOpen {
		t.Fatalf("sale should start closed")
	}

	_, resp = call(t, s, "license_info", map[string]interface{}{
		"license": created.Address,
	}, nil)
	if resp.Error != nil {
		t.Fatalf("info failed: %+v", resp.Error)
	}
	var info licenseResult
	resultInto(t, resp, &info)
	if !strings.EqualFold(info.Address, created.Address) {
		t.Fatalf("info should return the created license")
	}
}

func TestEngineFailuresCarryReasonNames(t *testing.T) {
	s := newTestServer(t)

	_, resp := call(t, s, "license_create", map[string]interface{}{
		"caller":      "0x0000000000000000000000000000000000000042",
		"name":        "Game",
		"symbol":      "GME",
		"totalSupply": "10000000",
		"creatorFee":  200,
	}, nil)
	if resp.Error != nil {
		t.Fatalf("create failed: %+v", resp.Error)
	}
	var created licenseResult
	resultInto(t, resp, &created)

	// A stranger flipping the sale gate maps to the NotAdmin reason.
	_, resp = call(t, s, "license_switchSale", map[string]interface{}{
		"caller":  "0x0000000000000000000000000000000000000099",
		"license": created.Address,
	}, nil)
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected engine error, got %+v", resp.Error)
	}
	if resp.Error.Data != "NotAdmin" {
		t.Fatalf("expected NotAdmin reason, got %q", resp.Error.Data)
	}

	_, resp = call(t, s, "store_setHashupFee", map[string]interface{}{
		"caller": "0x0000000000000000000000000000000000000099",
		"fee":    5,
	}, nil)
	if resp.Error == nil || resp.Error.Data != "NotOwner" {
		t.Fatalf("expected NotOwner reason, got %+v", resp.Error)
	}
}

func TestInvalidParams(t *testing.T) {
	s := newTestServer(t)

	_, resp := call(t, s, "license_transfer", map[string]interface{}{
		"caller":  "not-an-address",
		"license": "0x0000000000000000000000000000000000000001",
		"to":      "0x0000000000000000000000000000000000000002",
		"amount":  "10",
	}, nil)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}

	_, resp = call(t, s, "license_transfer", nil, nil)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params for missing object, got %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	_, resp := call(t, s, "license_burn", nil, nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestRejectsNonPost(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBearerAuthGuardsMutatingMethods(t *testing.T) {
	t.Setenv("HASHUP_RPC_TOKEN", "secret")
	node, err := core.NewNode(storage.NewMemDB(), ownerAddr, nil, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	s := NewServer(node, nil)

	createParams := map[string]interface{}{
		"caller":      "0x0000000000000000000000000000000000000042",
		"name":        "Game",
		"symbol":      "GME",
		"totalSupply": "1000",
		"creatorFee":  0,
	}

	rec, resp := call(t, s, "license_create", createParams, nil)
	if rec.Code != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got status=%d error=%+v", rec.Code, resp.Error)
	}

	rec, resp = call(t, s, "license_create", createParams, map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token should be rejected, got %d", rec.Code)
	}

	_, resp = call(t, s, "license_create", createParams, map[string]string{"Authorization": "Bearer secret"})
	if resp.Error != nil {
		t.Fatalf("valid token should pass: %+v", resp.Error)
	}

	// Reads stay open without a token.
	_, resp = call(t, s, "store_info", nil, nil)
	if resp.Error != nil {
		t.Fatalf("read method should not require auth: %+v", resp.Error)
	}
}

func TestStoreInfoExposesCustodyAccount(t *testing.T) {
	s := newTestServer(t)
	_, resp := call(t, s, "store_info", nil, nil)
	if resp.Error != nil {
		t.Fatalf("store info: %+v", resp.Error)
	}
	var info storeInfoResult
	resultInto(t, resp, &info)
	if !strings.EqualFold(info.Account, formatAddr(core.StoreAccount())) {
		t.Fatalf("custody account mismatch: %q", info.Account)
	}
	if info.HashupFee != 10 {
		t.Fatalf("default hashup fee should be 10, got %d", info.HashupFee)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}
