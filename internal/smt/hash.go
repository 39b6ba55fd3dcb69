package smt

import (
	"golang.org/x/crypto/blake2b"
)

// Hash is a 256-bit SMT key, value, or node hash.
type Hash [32]byte

// IsZero reports whether h is the all-zero sentinel (the value of a
// missing leaf, per spec).
func (h Hash) IsZero() bool { return h == Hash{} }

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, 32)
	copy(b, h[:])
	return b
}

// BytesToHash right-aligns b into a Hash, keeping only the trailing 32
// bytes of a longer input and zero-padding the high bytes of a shorter
// one, the way the teacher's types.BytesToHash helpers do for
// fixed-width fields.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

// personalization is folded into every hash call as a domain-separating
// prefix. Blake2b's native personalization field is limited to 16 bytes
// by RFC 7693 and is too short to carry the fixed 32-byte tag the
// aggregator uses to keep its hashes from colliding with any other
// Blake2b-256 consumer sharing the same process. Folding it into the
// preimage instead of using the algorithm's Salt/Person fields sidesteps that size mismatch while keeping the
// separation property spec.md asks for.
var personalization = [32]byte{'c', 'o', 't', 'a', '-', 'a', 'g', 'g', 'r', 'e', 'g', 'a', 't', 'o', 'r', '-', 's', 'm', 't', '-', 'v', '1'}

const (
	leafDomain   byte = 0x00
	branchDomain byte = 0x01
)

// Hasher computes Blake2b-256 digests with the SMT's fixed
// personalization, used both for tree-internal hashing and for
// deriving account identities from lock scripts.
type Hasher struct{}

// NewHasher returns the SMT's Blake2b-256 hasher.
func NewHasher() Hasher { return Hasher{} }

// sum hashes the personalization tag followed by all of data.
func (Hasher) sum(data ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on an oversized key, and we pass
		// none; a failure here indicates a broken build.
		panic("smt: blake2b.New256: " + err.Error())
	}
	h.Write(personalization[:])
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Sum256 hashes the personalization tag followed by data, returning a
// plain 256-bit digest. Used for leaf-key derivation (hashing the
// domain tag followed by the typed-key fields), leaf-value derivation,
// and account-id derivation.
func (h Hasher) Sum256(data ...[]byte) Hash { return h.sum(data...) }

// HashLeaf computes a tree leaf's node hash, binding the leaf to its
// key so a branch node can never be reinterpreted as a leaf at another
// depth (classic second-preimage guard for sparse Merkle trees).
func (h Hasher) HashLeaf(key, value Hash) Hash {
	return h.sum([]byte{leafDomain}, key[:], value[:])
}

// HashBranch combines two child node hashes into their parent's hash.
func (h Hasher) HashBranch(left, right Hash) Hash {
	return h.sum([]byte{branchDomain}, left[:], right[:])
}

// AccountID derives the 32-byte account identity from a lock script,
// per spec.md §3 ("32-byte digest of an account's lock script").
func AccountID(lockScript []byte) Hash {
	return NewHasher().Sum256(lockScript)
}
