package rpc

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"xenochain/native/gametoken"
	"xenochain/native/minting"
	"xenochain/native/staking"
)

type rpcFixture struct {
	server   *Server
	ledger   *staking.Ledger
	minter   *minting.Engine
	registry *gametoken.MemoryRegistry
	rewards  *gametoken.MemoryLedger
	traits   *gametoken.MemoryTraitStore
	key      *ecdsa.PrivateKey
	owner    gametoken.Address
	admin    gametoken.Address
	oracle   gametoken.Address
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	owner := gametoken.Address(ethcrypto.PubkeyToAddress(key.PublicKey))

	params := staking.DefaultParams()
	params.MinimumHold = 0
	ledger, err := staking.NewLedger(params)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	minter, err := minting.NewEngine(minting.DefaultParams())
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}

	f := &rpcFixture{
		ledger:   ledger,
		minter:   minter,
		registry: gametoken.NewMemoryRegistry(),
		rewards:  gametoken.NewMemoryLedger(),
		traits:   gametoken.NewMemoryTraitStore(),
		key:      key,
		owner:    owner,
	}
	f.admin[19] = 0xaa
	f.oracle[19] = 0xbb
	var custody, self gametoken.Address
	custody[19] = 0xcc
	self[19] = 0xee

	ledger.SetCollaborators(f.registry, f.rewards, f.traits, gametoken.NewSeededRandom(1))
	ledger.SetCustody(custody)
	ledger.SetAdmin(f.admin)
	ledger.SetMinter(self)
	minter.SetCollaborators(f.registry, f.rewards, f.traits, ledger)
	minter.SetIdentities(self, custody, f.admin, f.oracle)

	f.server = NewServer(ledger, minter, slog.Default())
	f.server.SetPrivileged(f.admin, f.oracle)
	return f
}

func (f *rpcFixture) mintMarine(t *testing.T, itemID uint64) {
	t.Helper()
	if err := f.registry.MintItem(f.owner, itemID); err != nil {
		t.Fatalf("mint item: %v", err)
	}
	if err := f.traits.SetTraits(itemID, gametoken.TraitRecord{IsMarine: true}); err != nil {
		t.Fatalf("set traits: %v", err)
	}
}

func (f *rpcFixture) sign(t *testing.T, action string, fields []string, nonce uint64) string {
	t.Helper()
	sig, err := ethcrypto.Sign(callDigest(action, f.owner.Hex(), fields, nonce), f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return hex.EncodeToString(sig)
}

func (f *rpcFixture) call(t *testing.T, method string, params interface{}, token string) RPCResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":[%s]}`, method, raw)
	r := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(body)))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.server.handle(w, r)
	var resp RPCResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
	return resp
}

func TestStakeAndClaimOverRPC(t *testing.T) {
	f := newRPCFixture(t)
	f.mintMarine(t, 1)

	resp := f.call(t, "staking_stake", stakeParams{
		Owner:     f.owner.Hex(),
		ItemIDs:   []uint64{1},
		Nonce:     1,
		Signature: f.sign(t, "stake", []string{idsField([]uint64{1})}, 1),
	}, "")
	if resp.Error != nil {
		t.Fatalf("stake error: %+v", resp.Error)
	}

	resp = f.call(t, "staking_position", positionParams{ItemID: 1}, "")
	if resp.Error != nil {
		t.Fatalf("position error: %+v", resp.Error)
	}

	fields := []string{idsField([]uint64{1}), strconv.FormatBool(false)}
	resp = f.call(t, "staking_claim", claimParams{
		Owner:     f.owner.Hex(),
		ItemIDs:   []uint64{1},
		Nonce:     2,
		Signature: f.sign(t, "claim", fields, 2),
	}, "")
	if resp.Error != nil {
		t.Fatalf("claim error: %+v", resp.Error)
	}
}

func TestRPCRejectsReplayedNonce(t *testing.T) {
	f := newRPCFixture(t)
	f.mintMarine(t, 1)
	f.mintMarine(t, 2)

	params := stakeParams{
		Owner:     f.owner.Hex(),
		ItemIDs:   []uint64{1},
		Nonce:     5,
		Signature: f.sign(t, "stake", []string{idsField([]uint64{1})}, 5),
	}
	if resp := f.call(t, "staking_stake", params, ""); resp.Error != nil {
		t.Fatalf("first stake: %+v", resp.Error)
	}
	// Same nonce again, even with a fresh signature over new items.
	params.ItemIDs = []uint64{2}
	params.Signature = f.sign(t, "stake", []string{idsField([]uint64{2})}, 5)
	resp := f.call(t, "staking_stake", params, "")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("replayed nonce: got %+v", resp.Error)
	}
}

func TestRPCRejectsForeignSignature(t *testing.T) {
	f := newRPCFixture(t)
	f.mintMarine(t, 1)
	otherKey, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sig, err := ethcrypto.Sign(callDigest("stake", f.owner.Hex(), []string{"1"}, 1), otherKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp := f.call(t, "staking_stake", stakeParams{
		Owner:     f.owner.Hex(),
		ItemIDs:   []uint64{1},
		Nonce:     1,
		Signature: hex.EncodeToString(sig),
	}, "")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("foreign signature: got %+v", resp.Error)
	}
}

func TestRPCMapsModuleErrors(t *testing.T) {
	f := newRPCFixture(t)
	resp := f.call(t, "staking_position", positionParams{ItemID: 99}, "")
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("unknown item: got %+v", resp.Error)
	}
	resp = f.call(t, "no_suchMethod", struct{}{}, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("unknown method: got %+v", resp.Error)
	}
}

func TestPrivilegedMethodsRequireToken(t *testing.T) {
	f := newRPCFixture(t)
	f.server.authToken = "secret"

	resp := f.call(t, "admin_setPaused", flagParams{Enabled: true}, "")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("missing token: got %+v", resp.Error)
	}
	resp = f.call(t, "admin_setPaused", flagParams{Enabled: true}, "wrong")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("wrong token: got %+v", resp.Error)
	}
	resp = f.call(t, "admin_setPaused", flagParams{Enabled: true}, "secret")
	if resp.Error != nil {
		t.Fatalf("valid token: %+v", resp.Error)
	}
	if !f.ledger.Stats().Paused {
		t.Fatalf("pause did not reach the ledger")
	}
}

func TestBindSeedOverRPC(t *testing.T) {
	f := newRPCFixture(t)
	f.server.authToken = "secret"

	seed := bytes.Repeat([]byte{0x11}, 32)
	resp := f.call(t, "mint_bindSeed", bindSeedParams{Seed: hex.EncodeToString(seed)}, "secret")
	if resp.Error != nil {
		t.Fatalf("bind seed: %+v", resp.Error)
	}
	if got := f.minter.OpenSlot(); got != 2 {
		t.Fatalf("open slot after bind: got %d want 2", got)
	}
	resp = f.call(t, "mint_bindSeed", bindSeedParams{Seed: "abcd"}, "secret")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("short seed: got %+v", resp.Error)
	}
}

func TestMintCommitOverRPC(t *testing.T) {
	f := newRPCFixture(t)
	fields := []string{strconv.FormatUint(2, 10), strconv.FormatBool(false)}
	resp := f.call(t, "mint_commit", mintCommitParams{
		Requester: f.owner.Hex(),
		Count:     2,
		AutoStake: false,
		Nonce:     1,
		Signature: f.sign(t, "mintCommit", fields, 1),
	}, "")
	if resp.Error != nil {
		t.Fatalf("commit: %+v", resp.Error)
	}
	resp = f.call(t, "mint_pending", mintPendingParams{Requester: f.owner.Hex()}, "")
	if resp.Error != nil {
		t.Fatalf("pending: %+v", resp.Error)
	}
	var pending mintPendingResult
	raw, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &pending); err != nil {
		t.Fatalf("decode pending result: %v", err)
	}
	if !pending.Pending || pending.Slot != 1 || pending.Count != 2 {
		t.Fatalf("pending result: %+v", pending)
	}
}

func TestRPCRateLimitThrottles(t *testing.T) {
	f := newRPCFixture(t)
	f.server.SetRateLimit(1, 2)
	for i := 0; i < 2; i++ {
		if resp := f.call(t, "staking_stats", struct{}{}, ""); resp.Error != nil {
			t.Fatalf("call %d throttled early: %+v", i, resp.Error)
		}
	}
	resp := f.call(t, "staking_stats", struct{}{}, "")
	if resp.Error == nil {
		t.Fatalf("expected the third burst call to be throttled")
	}
}
