package gametoken

import (
	"errors"
	"math/big"
	"testing"

	coreerrors "xenochain/core/errors"
)

func TestParseAddressRoundTrip(t *testing.T) {
	var addr Address
	addr[0] = 0xab
	addr[19] = 0x01

	parsed, err := ParseAddress(addr.Hex())
	if err != nil {
		t.Fatalf("parse hex form: %v", err)
	}
	if parsed != addr {
		t.Fatalf("round trip mismatch: %s vs %s", parsed.Hex(), addr.Hex())
	}
	// The bare form without the prefix parses too.
	parsed, err = ParseAddress(addr.Hex()[2:])
	if err != nil {
		t.Fatalf("parse bare form: %v", err)
	}
	if parsed != addr {
		t.Fatalf("bare round trip mismatch")
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "0x12", "0xzz", "0x" + string(make([]byte, 40))} {
		if _, err := ParseAddress(value); err == nil {
			t.Fatalf("parse %q: expected error", value)
		}
	}
}

func TestMemoryRegistryTransferChecksOwner(t *testing.T) {
	registry := NewMemoryRegistry()
	var alice, bob Address
	alice[19] = 1
	bob[19] = 2

	if err := registry.MintItem(alice, 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := registry.MintItem(alice, 1); !errors.Is(err, coreerrors.ErrStateConflict) {
		t.Fatalf("double mint: got %v", err)
	}
	if err := registry.TransferFrom(bob, alice, 1); !errors.Is(err, coreerrors.ErrUnauthorized) {
		t.Fatalf("transfer by non-owner: got %v", err)
	}
	if err := registry.TransferFrom(alice, bob, 1); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	owner, err := registry.OwnerOf(1)
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != bob {
		t.Fatalf("owner after transfer: %s", owner.Hex())
	}
	if _, err := registry.OwnerOf(99); !errors.Is(err, coreerrors.ErrNotFound) {
		t.Fatalf("unknown item: got %v", err)
	}
}

func TestMemoryLedgerBurnRequiresBalance(t *testing.T) {
	ledger := NewMemoryLedger()
	var acct Address
	acct[19] = 1

	if err := ledger.BurnReward(acct, big.NewInt(1)); !errors.Is(err, coreerrors.ErrPreconditionFailed) {
		t.Fatalf("burn from empty account: got %v", err)
	}
	if err := ledger.MintReward(acct, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.BurnReward(acct, big.NewInt(40)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if bal := ledger.Balance(acct); bal.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("balance: got %s want 60", bal)
	}
	// Balance returns a copy, not the live value.
	ledger.Balance(acct).SetInt64(0)
	if bal := ledger.Balance(acct); bal.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("balance aliased internal state: %s", bal)
	}
}

func TestSeededRandomIsDeterministic(t *testing.T) {
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)
	for i := 0; i < 16; i++ {
		if a.Random() != b.Random() {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
	// The zero seed falls back to a fixed non-zero state.
	if NewSeededRandom(0).Random() == 0 {
		t.Fatalf("zero-seeded generator emitted zero")
	}
}
