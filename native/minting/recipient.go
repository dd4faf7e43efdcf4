package minting

import (
	"encoding/binary"

	"xenochain/native/gametoken"
)

// keepThreshold is the high-order 16-bit cutoff below which the requester
// keeps their unit, roughly an 80% chance.
const keepThreshold = 52429

// selectRecipient decides who receives a freshly revealed unit. The top two
// bytes of the unit seed gate the theft roll; a separate slice feeds the
// rank-weighted staker sample so the two decisions stay independent. A theft
// can still be cancelled by the requester's insurance hook, which consumes a
// qualifying secondary token on success.
func (e *Engine) selectRecipient(seed [32]byte, requester gametoken.Address) (gametoken.Address, bool) {
	if binary.BigEndian.Uint16(seed[0:2]) < keepThreshold {
		return requester, false
	}
	thief, ok := e.stakers.SampleAlienOwner(binary.BigEndian.Uint64(seed[8:16]))
	if !ok || thief == requester {
		return requester, false
	}
	if e.insurer != nil && e.insurer.CancelTheft(requester, binary.BigEndian.Uint64(seed[16:24])) {
		return requester, false
	}
	return thief, true
}
