package rpc

import (
	"net/http"

	"xenochain/native/gametoken"
)

type flagParams struct {
	Enabled bool `json:"enabled"`
}

type targetParams struct {
	Requester string `json:"requester"`
}

type okResult struct {
	OK bool `json:"ok"`
}

func parseAddressParam(value string) (gametoken.Address, error) {
	return gametoken.ParseAddress(value)
}

func (s *Server) handleSetPaused(w http.ResponseWriter, req *RPCRequest) {
	var params flagParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid flag params", err.Error())
		return
	}
	if err := s.ledger.SetPaused(s.admin, params.Enabled); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleSetRescueMode(w http.ResponseWriter, req *RPCRequest) {
	var params flagParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid flag params", err.Error())
		return
	}
	if err := s.ledger.SetRescueMode(s.admin, params.Enabled); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleSetMintIntake(w http.ResponseWriter, req *RPCRequest) {
	var params flagParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid flag params", err.Error())
		return
	}
	if err := s.minter.SetIntakeOpen(s.admin, params.Enabled); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleForceClear(w http.ResponseWriter, req *RPCRequest) {
	var params targetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid target params", err.Error())
		return
	}
	requester, err := parseAddressParam(params.Requester)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.minter.ForceClear(s.admin, requester); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleForceReveal(w http.ResponseWriter, req *RPCRequest) {
	var params targetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid target params", err.Error())
		return
	}
	requester, err := parseAddressParam(params.Requester)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	revealed, err := s.minter.ForceReveal(s.admin, requester)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, mintRevealResult{ItemIDs: revealed.ItemIDs})
}
