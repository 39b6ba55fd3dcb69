package smt

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// ProofSibling is one off-path subtree hash needed to recompute a
// root from a set of proven pairs. Depth counts edges from the root
// (0 is the top branch), matching the depth bitAt descends by.
type ProofSibling struct {
	Depth int
	Hash  Hash
}

// Proof is a multi-key Merkle proof: the (key, value) pairs being
// proven -- a zero value proves the key is absent -- plus the minimal
// set of sibling hashes needed to recompute the tree's root from
// them.
type Proof struct {
	Pairs    []Pair
	Siblings []ProofSibling
}

// MerkleProof builds the proof needed to verify or update the given
// keys against the tree's current root. Sibling hashes equal to the
// known zero-subtree hash at that depth are omitted, since the
// verifier can recompute those from the depth alone; this mirrors the
// shared-sibling-collection idea used by multi-proof sparse trees
// generally, collecting one sibling per branch point the query exits
// rather than one per proven key.
func (t *Tree) MerkleProof(keys []Hash) Proof {
	queried := dedupeSorted(keys)
	pairs := make([]Pair, len(queried))
	for i, k := range queried {
		pairs[i] = Pair{Key: k, Value: t.leaves[k]}
	}

	treeKeys := t.sortedKeys()
	var siblings []ProofSibling
	t.collectSiblings(treeKeys, queried, 0, &siblings)
	return Proof{Pairs: pairs, Siblings: siblings}
}

// collectSiblings walks the tree alongside the queried key set,
// descending only where a queried key may live. At every branch point
// where the query is confined to one side, it records the other
// side's subtree hash (computed from the full tree, not just the
// queried keys) as a sibling, unless that hash is the known empty
// value for a subtree of that height.
func (t *Tree) collectSiblings(treeKeys, queryKeys []Hash, depth int, out *[]ProofSibling) {
	if depth == 256 || len(queryKeys) == 0 {
		return
	}
	tmid := sort.Search(len(treeKeys), func(i int) bool { return bitAt(treeKeys[i], depth) == 1 })
	qmid := sort.Search(len(queryKeys), func(i int) bool { return bitAt(queryKeys[i], depth) == 1 })

	treeLeft, treeRight := treeKeys[:tmid], treeKeys[tmid:]
	queryLeft, queryRight := queryKeys[:qmid], queryKeys[qmid:]

	switch {
	case len(queryLeft) > 0 && len(queryRight) > 0:
		t.collectSiblings(treeLeft, queryLeft, depth+1, out)
		t.collectSiblings(treeRight, queryRight, depth+1, out)
	case len(queryLeft) > 0:
		if h := t.subtreeRoot(treeRight, depth+1); h != zeroHash[255-depth] {
			*out = append(*out, ProofSibling{Depth: depth, Hash: h})
		}
		t.collectSiblings(treeLeft, queryLeft, depth+1, out)
	case len(queryRight) > 0:
		if h := t.subtreeRoot(treeLeft, depth+1); h != zeroHash[255-depth] {
			*out = append(*out, ProofSibling{Depth: depth, Hash: h})
		}
		t.collectSiblings(treeRight, queryRight, depth+1, out)
	}
}

// CompiledProof is the proof's canonical, self-contained form. Its
// Encode output is what the operation builders place in the proof
// fields of an entries blob, so it travels with the blob to the
// verifier; DecodeCompiledProof and VerifyCompiled are its reader.
type CompiledProof struct {
	Pairs    []Pair
	Siblings []ProofSibling
}

// Compile freezes a Proof into its canonical form.
func (p Proof) Compile() CompiledProof {
	return CompiledProof{
		Pairs:    append([]Pair(nil), p.Pairs...),
		Siblings: append([]ProofSibling(nil), p.Siblings...),
	}
}

// Encode writes the compiled proof as: a 4-byte little-endian pair
// count, each pair as a 32-byte key followed by a 32-byte value, a
// 4-byte little-endian sibling count, and each sibling as a 2-byte
// little-endian depth followed by its 32-byte hash.
func (cp CompiledProof) Encode() []byte {
	buf := make([]byte, 0, 8+len(cp.Pairs)*64+len(cp.Siblings)*34)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(cp.Pairs)))
	for _, p := range cp.Pairs {
		buf = append(buf, p.Key[:]...)
		buf = append(buf, p.Value[:]...)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(cp.Siblings)))
	for _, s := range cp.Siblings {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s.Depth))
		buf = append(buf, s.Hash[:]...)
	}
	return buf
}

// DecodeCompiledProof parses the layout written by Encode.
func DecodeCompiledProof(b []byte) (CompiledProof, error) {
	var cp CompiledProof
	if len(b) < 4 {
		return cp, fmt.Errorf("smt: compiled proof truncated before pair count")
	}
	nPairs := binary.LittleEndian.Uint32(b)
	b = b[4:]
	cp.Pairs = make([]Pair, nPairs)
	for i := range cp.Pairs {
		if len(b) < 64 {
			return CompiledProof{}, fmt.Errorf("smt: compiled proof truncated at pair %d", i)
		}
		copy(cp.Pairs[i].Key[:], b[:32])
		copy(cp.Pairs[i].Value[:], b[32:64])
		b = b[64:]
	}
	if len(b) < 4 {
		return CompiledProof{}, fmt.Errorf("smt: compiled proof truncated before sibling count")
	}
	nSib := binary.LittleEndian.Uint32(b)
	b = b[4:]
	cp.Siblings = make([]ProofSibling, nSib)
	for i := range cp.Siblings {
		if len(b) < 34 {
			return CompiledProof{}, fmt.Errorf("smt: compiled proof truncated at sibling %d", i)
		}
		cp.Siblings[i].Depth = int(binary.LittleEndian.Uint16(b[:2]))
		copy(cp.Siblings[i].Hash[:], b[2:34])
		b = b[34:]
	}
	if len(b) != 0 {
		return CompiledProof{}, fmt.Errorf("smt: compiled proof has %d trailing bytes", len(b))
	}
	return cp, nil
}

// VerifyCompiled recomputes the root implied by a compiled proof and
// reports whether it matches root. It only needs the proof itself --
// no access to a Tree -- which is what lets a proof travel with an
// operation request to an aggregator that reconstructs an account's
// tree on demand.
func VerifyCompiled(root Hash, cp CompiledProof) bool {
	if len(cp.Pairs) == 0 {
		return root == zeroHash[256]
	}
	pairs := append([]Pair(nil), cp.Pairs...)
	sort.Slice(pairs, func(i, j int) bool { return less(pairs[i].Key, pairs[j].Key) })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Key == pairs[i-1].Key {
			return false // duplicate key, not a valid proof
		}
	}

	h := NewHasher()
	idx := 0
	got, ok := verifyRecurse(h, pairs, cp.Siblings, &idx, 0)
	if !ok || idx != len(cp.Siblings) {
		return false
	}
	return got == root
}

// verifyRecurse mirrors collectSiblings' traversal so consuming
// siblings in list order reconstructs exactly the subtree hashes the
// prover omitted.
func verifyRecurse(h Hasher, keys []Pair, sib []ProofSibling, idx *int, depth int) (Hash, bool) {
	if len(keys) == 0 {
		return zeroHash[256-depth], true
	}
	if depth == 256 {
		if len(keys) != 1 {
			return Hash{}, false
		}
		k := keys[0]
		if k.Value.IsZero() {
			return zeroHash[0], true
		}
		return h.HashLeaf(k.Key, k.Value), true
	}
	mid := sort.Search(len(keys), func(i int) bool { return bitAt(keys[i].Key, depth) == 1 })
	left, right := keys[:mid], keys[mid:]

	switch {
	case len(left) > 0 && len(right) > 0:
		lh, ok := verifyRecurse(h, left, sib, idx, depth+1)
		if !ok {
			return Hash{}, false
		}
		rh, ok := verifyRecurse(h, right, sib, idx, depth+1)
		if !ok {
			return Hash{}, false
		}
		return h.HashBranch(lh, rh), true
	case len(left) > 0:
		rh := zeroHash[255-depth]
		if *idx < len(sib) && sib[*idx].Depth == depth {
			rh = sib[*idx].Hash
			*idx++
		}
		lh, ok := verifyRecurse(h, left, sib, idx, depth+1)
		if !ok {
			return Hash{}, false
		}
		return h.HashBranch(lh, rh), true
	default:
		lh := zeroHash[255-depth]
		if *idx < len(sib) && sib[*idx].Depth == depth {
			lh = sib[*idx].Hash
			*idx++
		}
		rh, ok := verifyRecurse(h, right, sib, idx, depth+1)
		if !ok {
			return Hash{}, false
		}
		return h.HashBranch(lh, rh), true
	}
}
