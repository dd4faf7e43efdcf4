package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	coreerrors "xenochain/core/errors"
	"xenochain/native/gametoken"
	"xenochain/native/minting"
	"xenochain/native/staking"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codePrecondition   = -32010
	codeNotFound       = -32011
	codeCapacity       = -32012
	codeStateConflict  = -32013
)

// Server exposes the staking ledger and mint engine over JSON-RPC.
type Server struct {
	ledger *staking.Ledger
	minter *minting.Engine
	logger *slog.Logger

	admin  gametoken.Address
	oracle gametoken.Address

	mu        sync.Mutex
	nonces    map[gametoken.Address]uint64
	authToken string
	onMutate  func()
	limits    *rateLimiter
}

// NewServer wires the RPC surface. The bearer token guarding privileged
// methods comes from XENO_RPC_TOKEN.
func NewServer(ledger *staking.Ledger, minter *minting.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ledger:    ledger,
		minter:    minter,
		logger:    logger,
		nonces:    make(map[gametoken.Address]uint64),
		authToken: strings.TrimSpace(os.Getenv("XENO_RPC_TOKEN")),
		limits:    newRateLimiter(0, 0),
	}
}

// SetRateLimit reconfigures the per-client request throttle. Zero values fall
// back to the defaults.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	s.limits = newRateLimiter(perSecond, burst)
}

// SetPrivileged configures the admin and seed-oracle identities impersonated
// by token-authenticated methods.
func (s *Server) SetPrivileged(admin, oracle gametoken.Address) {
	s.admin = admin
	s.oracle = oracle
}

// SetOnMutate installs a hook run after every successful mutating call,
// used by the daemon to flush snapshots.
func (s *Server) SetOnMutate(fn func()) {
	s.onMutate = fn
}

// Start serves the RPC endpoint until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

// writeModuleError maps the module error taxonomy onto RPC error codes.
func writeModuleError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, coreerrors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, coreerrors.ErrNotFound):
		writeError(w, http.StatusOK, id, codeNotFound, err.Error(), nil)
	case errors.Is(err, coreerrors.ErrCapacityExceeded):
		writeError(w, http.StatusOK, id, codeCapacity, err.Error(), nil)
	case errors.Is(err, coreerrors.ErrStateConflict):
		writeError(w, http.StatusOK, id, codeStateConflict, err.Error(), nil)
	case errors.Is(err, coreerrors.ErrPreconditionFailed):
		writeError(w, http.StatusOK, id, codePrecondition, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "rpc auth token not configured"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid token"}
	}
	return nil
}

func (s *Server) mutated() {
	if s.onMutate != nil {
		s.onMutate()
	}
}

// handle routes a JSON-RPC request to its method handler.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/json")

	if s.limits != nil && !s.limits.allow(r) {
		writeError(w, http.StatusTooManyRequests, nil, codeInvalidRequest, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	s.logger.Debug("rpc request",
		slog.String("reqId", uuid.NewString()),
		slog.String("method", req.Method),
		slog.String("remote", r.RemoteAddr),
	)

	switch req.Method {
	case "staking_stake":
		s.handleStake(w, req)
	case "staking_claim":
		s.handleClaim(w, req)
	case "staking_rescue":
		s.handleRescue(w, req)
	case "staking_position":
		s.handlePosition(w, req)
	case "staking_stats":
		s.handleStats(w, req)
	case "mint_commit":
		s.handleMintCommit(w, req)
	case "mint_reveal":
		s.handleMintReveal(w, req)
	case "mint_pending":
		s.handleMintPending(w, req)
	case "mint_bindSeed":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleBindSeed(w, req)
	case "admin_setPaused":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetPaused(w, req)
	case "admin_setRescueMode":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetRescueMode(w, req)
	case "admin_setMintIntake":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetMintIntake(w, req)
	case "admin_forceClear":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleForceClear(w, req)
	case "admin_forceReveal":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleForceReveal(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}
