package rpc

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"xenochain/observability/metrics"
)

var errParamCount = errors.New("expected a single params object")

type mintCommitParams struct {
	Requester string `json:"requester"`
	Count     uint16 `json:"count"`
	AutoStake bool   `json:"autoStake"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type mintRevealParams struct {
	Requester string `json:"requester"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type mintPendingParams struct {
	Requester string `json:"requester"`
}

type bindSeedParams struct {
	Seed string `json:"seed"`
}

type mintCommitResult struct {
	Slot      uint64 `json:"slot"`
	Count     uint16 `json:"count"`
	AutoStake bool   `json:"autoStake"`
}

type mintRevealResult struct {
	ItemIDs []uint64 `json:"itemIds"`
}

type mintPendingResult struct {
	Pending    bool   `json:"pending"`
	Slot       uint64 `json:"slot,omitempty"`
	Count      uint16 `json:"count,omitempty"`
	AutoStake  bool   `json:"autoStake,omitempty"`
	Revealable bool   `json:"revealable,omitempty"`
}

type bindSeedResult struct {
	Slot uint64 `json:"slot"`
}

func (s *Server) handleMintCommit(w http.ResponseWriter, req *RPCRequest) {
	var params mintCommitParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid commit params", err.Error())
		return
	}
	fields := []string{strconv.FormatUint(uint64(params.Count), 10), strconv.FormatBool(params.AutoStake)}
	requester, err := verifyCallSignature("mintCommit", params.Requester, fields, params.Nonce, params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.checkNonce(requester, params.Nonce); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	commit, err := s.minter.Commit(requester, params.Count, params.AutoStake)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	metrics.Game().ObserveCommit()
	writeResult(w, req.ID, mintCommitResult{Slot: commit.Slot, Count: commit.Count, AutoStake: commit.AutoStake})
}

func (s *Server) handleMintReveal(w http.ResponseWriter, req *RPCRequest) {
	var params mintRevealParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid reveal params", err.Error())
		return
	}
	requester, err := verifyCallSignature("mintReveal", params.Requester, nil, params.Nonce, params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.checkNonce(requester, params.Nonce); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	revealed, err := s.minter.Reveal(requester)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	metrics.Game().ObserveReveal(len(revealed.ItemIDs), revealed.Stolen)
	writeResult(w, req.ID, mintRevealResult{ItemIDs: revealed.ItemIDs})
}

func (s *Server) handleMintPending(w http.ResponseWriter, req *RPCRequest) {
	var params mintPendingParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid pending params", err.Error())
		return
	}
	requester, err := parseAddressParam(params.Requester)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	commit, pending, revealable := s.minter.PendingCommit(requester)
	if !pending {
		writeResult(w, req.ID, mintPendingResult{Pending: false})
		return
	}
	writeResult(w, req.ID, mintPendingResult{
		Pending:    true,
		Slot:       commit.Slot,
		Count:      commit.Count,
		AutoStake:  commit.AutoStake,
		Revealable: revealable,
	})
}

func (s *Server) handleBindSeed(w http.ResponseWriter, req *RPCRequest) {
	var params bindSeedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid seed params", err.Error())
		return
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(params.Seed), "0x"))
	if err != nil || len(raw) != 32 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "seed must be 32 hex bytes", nil)
		return
	}
	var seed [32]byte
	copy(seed[:], raw)
	slot, err := s.minter.BindSeed(s.oracle, seed)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, bindSeedResult{Slot: slot})
}
