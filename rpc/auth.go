package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"xenochain/native/gametoken"
)

// callDigest builds the deterministic payload users sign for mutating calls:
// "xeno_<action>|<owner>|<field>|...|<nonce>", hashed with sha256.
func callDigest(action, owner string, fields []string, nonce uint64) []byte {
	payload := "xeno_" + action + "|" + strings.ToLower(strings.TrimSpace(owner))
	for _, field := range fields {
		payload += "|" + field
	}
	payload += "|" + strconv.FormatUint(nonce, 10)
	digest := sha256.Sum256([]byte(payload))
	return digest[:]
}

// verifyCallSignature recovers the signer of a mutating call and checks it
// matches the claimed owner.
func verifyCallSignature(action, owner string, fields []string, nonce uint64, signature string) (gametoken.Address, error) {
	var zero gametoken.Address
	if nonce == 0 {
		return zero, fmt.Errorf("nonce must be greater than zero")
	}
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "0x"))
	if err != nil {
		return zero, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sigBytes) != 65 {
		return zero, fmt.Errorf("signature must be 65 bytes")
	}
	digest := callDigest(action, owner, fields, nonce)
	pubKey, err := ethcrypto.SigToPub(digest, sigBytes)
	if err != nil {
		return zero, fmt.Errorf("invalid signature: %w", err)
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	ownerAddr, err := gametoken.ParseAddress(owner)
	if err != nil {
		return zero, err
	}
	if gametoken.Address(recovered) != ownerAddr {
		return zero, fmt.Errorf("signature does not match owner")
	}
	return ownerAddr, nil
}

// checkNonce enforces strictly increasing nonces per owner to block replays.
func (s *Server) checkNonce(owner gametoken.Address, nonce uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nonce <= s.nonces[owner] {
		return fmt.Errorf("nonce %d already used", nonce)
	}
	s.nonces[owner] = nonce
	return nil
}
