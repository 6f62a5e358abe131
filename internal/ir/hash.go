package ir

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainType     = "lowercore/type/v1"
	DomainLowering = "lowercore/lowering/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TypeID computes the content-addressed identity of a type.
// Structurally equal types share an ID.
func TypeID(t Type) string {
	return hashWithDomain(DomainType, MarshalCanonical(t))
}

// LoweringID identifies one dispatch decision: an operator mnemonic applied
// to operand types. The store uses it to deduplicate the lowering log.
func LoweringID(operator string, types ...Type) string {
	var data []byte
	data = append(data, norm.NFC.String(operator)...)
	for _, t := range types {
		data = append(data, 0x00)
		data = append(data, MarshalCanonical(t)...)
	}
	return hashWithDomain(DomainLowering, data)
}
