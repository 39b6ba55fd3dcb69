// Package keys derives SMT leaf keys and values from the typed
// structures spec.md §3 defines: a domain tag followed by
// operation-specific fields, hashed to a 256-bit SMT key, and an
// operation-specific value structure hashed to a 256-bit SMT value.
// The domain tag at the front of every preimage is what keeps the
// Define/Hold/Withdraw/Claim/Extension key subspaces disjoint, so an
// NFT can be held, withdrawn, and claimed at once without its leaves
// ever colliding.
package keys

import (
	"encoding/binary"

	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// Domain tags, per spec.md §3.
const (
	TagDefine     uint16 = 0x8100
	TagHold       uint16 = 0x8200
	TagWithdrawV0 uint16 = 0x8300
	TagWithdrawV1 uint16 = 0x8400
	TagClaim      uint16 = 0x8500
	TagExtension  uint16 = 0x8600
)

// CotaID is an NFT collection identifier.
type CotaID [20]byte

// TokenIndex names one NFT within a cota_id.
type TokenIndex [4]byte

// OutPoint is the opaque external transaction reference an NFT's
// withdrawal/claim is bound to.
type OutPoint [36]byte

var hasher = smt.NewHasher()

func typedKey(tag uint16, fields ...[]byte) smt.Hash {
	var tagBytes [2]byte
	binary.BigEndian.PutUint16(tagBytes[:], tag)
	all := make([][]byte, 0, len(fields)+1)
	all = append(all, tagBytes[:])
	all = append(all, fields...)
	return hasher.Sum256(all...)
}

// DefineKey derives the Define leaf key for a cota_id.
func DefineKey(cotaID CotaID) smt.Hash {
	return typedKey(TagDefine, cotaID[:])
}

// HoldKey derives the Hold leaf key for an NFT.
func HoldKey(cotaID CotaID, index TokenIndex) smt.Hash {
	return typedKey(TagHold, cotaID[:], index[:])
}

// WithdrawKeyV0 derives the legacy (out-point-less) Withdraw leaf key.
// Still readable for historical reconciliation; no longer written.
func WithdrawKeyV0(cotaID CotaID, index TokenIndex) smt.Hash {
	return typedKey(TagWithdrawV0, cotaID[:], index[:])
}

// WithdrawKeyV1 derives the current Withdraw leaf key, which binds the
// out_point into the key so multiple withdrawals of the same NFT over
// time don't collide.
func WithdrawKeyV1(cotaID CotaID, index TokenIndex, outPoint OutPoint) smt.Hash {
	return typedKey(TagWithdrawV1, cotaID[:], index[:], outPoint[:])
}

// ClaimKey derives the Claim leaf key for a withdrawn NFT.
func ClaimKey(cotaID CotaID, index TokenIndex, outPoint OutPoint) smt.Hash {
	return typedKey(TagClaim, cotaID[:], index[:], outPoint[:])
}

// ExtensionKey derives an Extension leaf key from a caller-supplied
// subkey (spec.md §4.4: "raw key/value blobs that are hashed and
// applied").
func ExtensionKey(subkey []byte) smt.Hash {
	return typedKey(TagExtension, subkey)
}

// DefineValue hashes the (total_supply, issued, configure) structure a
// Define leaf's value encodes.
func DefineValue(totalSupply, issued uint32, configure byte) smt.Hash {
	var buf [9]byte
	binary.BigEndian.PutUint32(buf[0:4], totalSupply)
	binary.BigEndian.PutUint32(buf[4:8], issued)
	buf[8] = configure
	return hasher.Sum256(buf[:])
}

// HoldValue hashes the (configure, state, characteristic) structure a
// Hold leaf's value encodes.
func HoldValue(configure, state byte, characteristic [20]byte) smt.Hash {
	buf := make([]byte, 0, 22)
	buf = append(buf, configure, state)
	buf = append(buf, characteristic[:]...)
	return hasher.Sum256(buf)
}

// WithdrawValueV0 hashes the value a v0 Withdraw leaf encodes: the
// recipient and out_point travel in the value since the v0 key space
// doesn't carry them.
func WithdrawValueV0(configure, state byte, characteristic [20]byte, recipientLockHash smt.Hash, outPoint OutPoint) smt.Hash {
	buf := make([]byte, 0, 2+20+32+36)
	buf = append(buf, configure, state)
	buf = append(buf, characteristic[:]...)
	buf = append(buf, recipientLockHash[:]...)
	buf = append(buf, outPoint[:]...)
	return hasher.Sum256(buf)
}

// WithdrawValueV1 hashes the value a v1 Withdraw leaf encodes. The
// out_point already lives in the key, so the value omits it.
func WithdrawValueV1(configure, state byte, characteristic [20]byte, recipientLockHash smt.Hash) smt.Hash {
	buf := make([]byte, 0, 2+20+32)
	buf = append(buf, configure, state)
	buf = append(buf, characteristic[:]...)
	buf = append(buf, recipientLockHash[:]...)
	return hasher.Sum256(buf)
}

// ClaimValueV0 is the sentinel "present" marker for a claim produced
// against a v0 withdrawal.
func ClaimValueV0() smt.Hash {
	var h smt.Hash
	for i := range h {
		h[i] = 0x01
	}
	return h
}

// ClaimValueV1 is the sentinel "present" marker for a claim produced
// against a v1 withdrawal.
func ClaimValueV1() smt.Hash {
	var h smt.Hash
	for i := range h {
		h[i] = 0x02
	}
	return h
}

// ClaimValueForVersion picks the sentinel matching the withdrawal
// version being claimed against.
func ClaimValueForVersion(version uint8) smt.Hash {
	if version == 0 {
		return ClaimValueV0()
	}
	return ClaimValueV1()
}

// ExtensionValue hashes a caller-supplied raw value blob.
func ExtensionValue(raw []byte) smt.Hash {
	return hasher.Sum256(raw)
}
