package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"xenochain/observability/metrics"
)

type stakeParams struct {
	Owner     string   `json:"owner"`
	ItemIDs   []uint64 `json:"itemIds"`
	Nonce     uint64   `json:"nonce"`
	Signature string   `json:"signature"`
}

type claimParams struct {
	Owner     string   `json:"owner"`
	ItemIDs   []uint64 `json:"itemIds"`
	Unstake   bool     `json:"unstake"`
	Nonce     uint64   `json:"nonce"`
	Signature string   `json:"signature"`
}

type rescueParams struct {
	Owner     string   `json:"owner"`
	ItemIDs   []uint64 `json:"itemIds"`
	Nonce     uint64   `json:"nonce"`
	Signature string   `json:"signature"`
}

type positionParams struct {
	ItemID uint64 `json:"itemId"`
}

type stakeResult struct {
	OK     bool `json:"ok"`
	Staked int  `json:"staked"`
}

type claimResult struct {
	Paid     string `json:"paid"`
	Unstaked bool   `json:"unstaked"`
}

type positionResult struct {
	Owner    string `json:"owner"`
	ItemID   uint64 `json:"itemId"`
	IsMarine bool   `json:"isMarine"`
	Rank     uint8  `json:"rank,omitempty"`
	StakedAt int64  `json:"stakedAt"`
	Pending  string `json:"pending"`
}

type statsResult struct {
	StakedMarines   int    `json:"stakedMarines"`
	StakedAliens    int    `json:"stakedAliens"`
	TotalRankWeight uint64 `json:"totalRankWeight"`
	TotalEmitted    string `json:"totalEmitted"`
	PerUnit         string `json:"perUnit"`
	Unaccounted     string `json:"unaccounted"`
	Paused          bool   `json:"paused"`
	RescueMode      bool   `json:"rescueMode"`
}

func idsField(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errParamCount
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleStake(w http.ResponseWriter, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid stake params", err.Error())
		return
	}
	owner, err := verifyCallSignature("stake", params.Owner, []string{idsField(params.ItemIDs)}, params.Nonce, params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.checkNonce(owner, params.Nonce); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	staked, err := s.ledger.StakeMany(owner, owner, params.ItemIDs)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, stakeResult{OK: true, Staked: staked})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid claim params", err.Error())
		return
	}
	fields := []string{idsField(params.ItemIDs), strconv.FormatBool(params.Unstake)}
	owner, err := verifyCallSignature("claim", params.Owner, fields, params.Nonce, params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.checkNonce(owner, params.Nonce); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paid, err := s.ledger.ClaimMany(owner, params.ItemIDs, params.Unstake)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	kind := "claim"
	if params.Unstake {
		kind = "unstake"
	}
	metrics.Game().ObserveClaim(kind, wholeTokens(paid))
	writeResult(w, req.ID, claimResult{Paid: paid.String(), Unstaked: params.Unstake})
}

func (s *Server) handleRescue(w http.ResponseWriter, req *RPCRequest) {
	var params rescueParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid rescue params", err.Error())
		return
	}
	owner, err := verifyCallSignature("rescue", params.Owner, []string{idsField(params.ItemIDs)}, params.Nonce, params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.checkNonce(owner, params.Nonce); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Rescue(owner, params.ItemIDs); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	s.mutated()
	writeResult(w, req.ID, stakeResult{OK: true, Staked: 0})
}

func (s *Server) handlePosition(w http.ResponseWriter, req *RPCRequest) {
	var params positionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid position params", err.Error())
		return
	}
	position, err := s.ledger.Position(params.ItemID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, positionResult{
		Owner:    position.Owner.Hex(),
		ItemID:   position.ItemID,
		IsMarine: position.IsMarine,
		Rank:     position.Rank,
		StakedAt: position.StakedAt,
		Pending:  position.Pending.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, req *RPCRequest) {
	stats := s.ledger.Stats()
	writeResult(w, req.ID, statsResult{
		StakedMarines:   stats.StakedMarines,
		StakedAliens:    stats.StakedAliens,
		TotalRankWeight: stats.TotalRankWeight,
		TotalEmitted:    stats.TotalEmitted.String(),
		PerUnit:         stats.PerUnit.String(),
		Unaccounted:     stats.Unaccounted.String(),
		Paused:          stats.Paused,
		RescueMode:      stats.RescueMode,
	})
}

// wholeTokens converts a base-unit amount to whole tokens for metrics.
func wholeTokens(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	whole := new(big.Int).Quo(amount, big.NewInt(1e18))
	f, _ := new(big.Float).SetInt(whole).Float64()
	return f
}
