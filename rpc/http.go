package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hashupcore/core"
	"hashupcore/observability"
)

const maxRequestBytes = 1 << 20 // 1 MiB

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

type handlerFunc func(params []json.RawMessage) (interface{}, *errorObject)

// Server exposes the node's ledger surfaces over JSON-RPC 2.0. Mutating
// methods require a bearer token when HASHUP_RPC_TOKEN is set; read methods
// are always open.
type Server struct {
	node      *core.Node
	logger    *slog.Logger
	authToken string
	methods   map[string]handlerFunc
	mutating  map[string]bool
}

// NewServer builds a server around the node. The auth token is read from the
// HASHUP_RPC_TOKEN environment variable.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:      node,
		logger:    logger,
		authToken: strings.TrimSpace(os.Getenv("HASHUP_RPC_TOKEN")),
	}
	s.registerMethods()
	return s
}

func (s *Server) registerMethods() {
	s.methods = map[string]handlerFunc{
		"license_create":       s.handleLicenseCreate,
		"license_transfer":     s.handleLicenseTransfer,
		"license_approve":      s.handleLicenseApprove,
		"license_transferFrom": s.handleLicenseTransferFrom,
		"license_switchSale":   s.handleLicenseSwitchSale,
		"license_setStore":     s.handleLicenseSetStore,
		"license_setMetadata":  s.handleLicenseSetMetadata,
		"license_info":         s.handleLicenseInfo,
		"license_balanceOf":    s.handleLicenseBalanceOf,
		"license_allowance":    s.handleLicenseAllowance,

		"token_create":       s.handleTokenCreate,
		"token_transfer":     s.handleTokenTransfer,
		"token_approve":      s.handleTokenApprove,
		"token_transferFrom": s.handleTokenTransferFrom,
		"token_info":         s.handleTokenInfo,
		"token_balanceOf":    s.handleTokenBalanceOf,
		"token_allowance":    s.handleTokenAllowance,

		"store_togglePause":        s.handleStoreTogglePause,
		"store_setHashupFee":       s.handleStoreSetHashupFee,
		"store_setPaymentToken":    s.handleStoreSetPaymentToken,
		"store_toggleWhitelisted":  s.handleStoreToggleWhitelisted,
		"store_sendLicenseToStore": s.handleStoreSendLicense,
		"store_buy":                s.handleStoreBuy,
		"store_info":               s.handleStoreInfo,
		"store_listing":            s.handleStoreListing,
		"store_isWhitelisted":      s.handleStoreIsWhitelisted,
	}
	s.mutating = make(map[string]bool, len(s.methods))
	for method := range s.methods {
		s.mutating[method] = true
	}
	for _, method := range []string{
		"license_info", "license_balanceOf", "license_allowance",
		"token_info", "token_balanceOf", "token_allowance",
		"store_info", "store_listing", "store_isWhitelisted",
	} {
		s.mutating[method] = false
	}
}

// Router returns the HTTP mux serving the JSON-RPC endpoint plus health and
// metrics.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves the RPC surface until the listener fails or is shut down.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeResponse(w, http.StatusMethodNotAllowed, response{
			JSONRPC: jsonRPCVersion,
			Error:   &errorObject{Code: codeInvalidRequest, Message: "POST required"},
		})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil || len(body) > maxRequestBytes {
		writeResponse(w, http.StatusBadRequest, response{
			JSONRPC: jsonRPCVersion,
			Error:   &errorObject{Code: codeInvalidRequest, Message: "request too large or unreadable"},
		})
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, response{
			JSONRPC: jsonRPCVersion,
			Error:   &errorObject{Code: codeParseError, Message: "invalid JSON"},
		})
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		writeResponse(w, http.StatusOK, response{
			JSONRPC: jsonRPCVersion,
			ID:      req.ID,
			Error:   &errorObject{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %s", req.Method)},
		})
		return
	}
	if s.mutating[req.Method] && !s.authorized(r) {
		writeResponse(w, http.StatusUnauthorized, response{
			JSONRPC: jsonRPCVersion,
			ID:      req.ID,
			Error:   &errorObject{Code: codeUnauthorized, Message: "unauthorized"},
		})
		return
	}

	module, method := splitMethod(req.Method)
	start := time.Now()
	result, rpcErr := handler(req.Params)
	var metricErr error
	if rpcErr != nil {
		metricErr = errors.New(rpcErr.Message)
	}
	observability.Metrics().Observe(module, method, start, metricErr)

	resp := response{JSONRPC: jsonRPCVersion, ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		s.logger.Debug("rpc call failed",
			slog.String("method", req.Method),
			slog.String("reason", rpcErr.Data),
			slog.String("error", rpcErr.Message))
	} else {
		resp.Result = result
	}
	writeResponse(w, http.StatusOK, resp)
}

func splitMethod(method string) (string, string) {
	if idx := strings.IndexByte(method, '_'); idx > 0 {
		return method[:idx], method[idx+1:]
	}
	return method, ""
}

func writeResponse(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func invalidParams(err error) *errorObject {
	return &errorObject{Code: codeInvalidParams, Message: err.Error()}
}

func engineError(err error) *errorObject {
	return &errorObject{Code: codeServerError, Message: err.Error(), Data: classifyFailure(err)}
}
