package gametoken

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an account participating in the game economy.
type Address [20]byte

// ZeroAddress is the empty account identity.
var ZeroAddress Address

// Hex returns the 0x-prefixed hexadecimal form of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the empty identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// ParseAddress decodes a 0x-prefixed or bare 40-character hex string.
func ParseAddress(value string) (Address, error) {
	var out Address
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid address %q: %w", value, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("invalid address length %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// TraitSlots is the number of cosmetic trait slots carried by every item.
const TraitSlots = 6

// TraitRecord captures the generated appearance of a single item. RankIndex is
// meaningful for aliens only and selects the reward weight class.
type TraitRecord struct {
	IsMarine  bool
	Traits    [TraitSlots]uint8
	RankIndex uint8
}
