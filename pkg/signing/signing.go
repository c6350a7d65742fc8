// Package signing binds a signer identity to a contract version's wasm hash
// via Ed25519, and derives the display address the registry stores
// alongside (but never trusts instead of) the cryptographic signature.
package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Status is the lifecycle state of a PackageSignature.
type Status string

const (
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// DigestAlgo selects the hash used to derive a signer's display address.
// SHA-256 is the default; SHA3/Keccak is offered for interop with tooling
// that expects a Keccak-style address derivation.
type DigestAlgo string

const (
	DigestSHA256 DigestAlgo = "sha256"
	DigestSHA3   DigestAlgo = "sha3"
)

// PackageSignature records one signing event: who signed, what they signed,
// and its current lifecycle status.
type PackageSignature struct {
	ID            uuid.UUID
	ContractID    string
	Version       string
	WasmHash      string
	PublicKey     []byte
	Signature     []byte
	SignerAddress string
	Status        Status
	CreatedAt     time.Time
	ExpiresAt     *time.Time
	RevokedBy     string
	RevokedReason string
	RevokedAt     *time.Time
}

// CanonicalMessage builds the exact UTF-8 byte sequence an Ed25519 signature
// must cover: "<contract_id>:<version>:<wasm_hash>".
func CanonicalMessage(contractID, version, wasmHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", contractID, version, wasmHash))
}

// Sign produces a base64-encoded Ed25519 signature over the canonical
// message for (contractID, version, wasmHash) using privateKey.
func Sign(privateKey ed25519.PrivateKey, contractID, version, wasmHash string) string {
	sig := ed25519.Sign(privateKey, CanonicalMessage(contractID, version, wasmHash))
	return base64.StdEncoding.EncodeToString(sig)
}

// VerifySignature checks a base64 Ed25519 signature against a base64 public
// key for the canonical message of (contractID, version, wasmHash). It
// reports only the cryptographic result — callers must separately check the
// stored PackageSignature.Status and expiry (see Service.Verify).
func VerifySignature(publicKeyB64, signatureB64, contractID, version, wasmHash string) (bool, error) {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return false, fmt.Errorf("decoding public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	msg := CanonicalMessage(contractID, version, wasmHash)
	return ed25519.Verify(pub, msg, sig), nil
}

// DeriveAddress computes a display address from a base64-encoded Ed25519
// public key: a digest of the raw key bytes, truncated to 20 bytes, with a
// 4-byte trailing checksum, hex-encoded with a "C" contract-style prefix.
// This is a key-hash + checksum scheme in the teacher's style, never
// consulted by VerifySignature itself — only the raw public key is.
func DeriveAddress(publicKeyB64 string, algo DigestAlgo) (string, error) {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", fmt.Errorf("decoding public key: %w", err)
	}
	var digest []byte
	switch algo {
	case DigestSHA3:
		sum := sha3.Sum256(pub)
		digest = sum[:]
	case DigestSHA256, "":
		sum := sha256.Sum256(pub)
		digest = sum[:]
	default:
		return "", fmt.Errorf("unknown digest algorithm %q", algo)
	}

	keyHash := digest[:20]
	checksum := sha256.Sum256(keyHash)
	addrBytes := append(append([]byte{}, keyHash...), checksum[:4]...)
	return "C" + fmt.Sprintf("%X", addrBytes), nil
}
