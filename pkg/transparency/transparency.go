// Package transparency implements the append-only, hash-chained
// transparency log described by spec §3/§4.2: every sign, verify, and
// revoke event is recorded as an entry that carries its own hash and the
// immediately prior entry's hash as a separate link, so any reader can
// recompute the chain and detect tampering or omission.
package transparency

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// EntryType enumerates the events the log records.
type EntryType string

const (
	EntryPackageSigned      EntryType = "PackageSigned"
	EntrySignatureVerified  EntryType = "SignatureVerified"
	EntrySignatureRevoked   EntryType = "SignatureRevoked"
)

// Entry is one link in the transparency log chain.
type Entry struct {
	ID           string
	EntryType    EntryType
	ContractID   string // empty when not applicable
	SignatureID  string // empty when not applicable
	ActorAddress string
	Timestamp    time.Time
	PreviousHash string // hex; empty for the genesis entry
	EntryHash    string // hex
	Payload      []byte
}

// computeHash returns the hex SHA-256 digest over the fixed serialization
// entry_type ∥ contract_id? ∥ signature_id? ∥ actor_address ∥ unix_timestamp,
// per spec §3/§4.2. previousHash does not feed entry_hash itself — the
// chain linkage is carried in the separate previous_hash field — but it is
// threaded through the stored row so readers can recompute the chain.
func computeHash(entryType EntryType, contractID, signatureID, actorAddress string, ts time.Time) string {
	h := sha256.New()
	h.Write([]byte(entryType))
	h.Write([]byte{0})
	h.Write([]byte(contractID))
	h.Write([]byte{0})
	h.Write([]byte(signatureID))
	h.Write([]byte{0})
	h.Write([]byte(actorAddress))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyChain checks that entries, ordered oldest-first, form a valid hash
// chain: each entry's PreviousHash equals its predecessor's EntryHash, and
// each entry's EntryHash matches its own recomputed hash.
func VerifyChain(entries []Entry) bool {
	var prevHash string
	for _, e := range entries {
		if e.PreviousHash != prevHash {
			return false
		}
		want := computeHash(e.EntryType, e.ContractID, e.SignatureID, e.ActorAddress, e.Timestamp)
		if e.EntryHash != want {
			return false
		}
		prevHash = e.EntryHash
	}
	return true
}
