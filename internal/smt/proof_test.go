package smt

import "testing"

func TestMerkleProofSingleEntryVerifies(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(0xaa))
	root := tr.Root()

	proof := tr.MerkleProof([]Hash{key(1)})
	cp := proof.Compile()

	if !VerifyCompiled(root, cp) {
		t.Fatal("proof for the only key in the tree should verify")
	}
}

func TestMerkleProofNonMembership(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(0xaa))
	root := tr.Root()

	proof := tr.MerkleProof([]Hash{key(200)})
	cp := proof.Compile()

	if len(cp.Pairs) != 1 || !cp.Pairs[0].Value.IsZero() {
		t.Fatal("proof for an absent key should carry the zero value")
	}
	if !VerifyCompiled(root, cp) {
		t.Fatal("a correctly-built non-membership proof should verify")
	}
}

func TestMerkleProofMultipleKeys(t *testing.T) {
	tr := NewTree()
	keys := []Hash{key(1), key(2), key(200), key(201)}
	for i, k := range keys {
		tr.Update(k, val(byte(i+1)))
	}
	root := tr.Root()

	proof := tr.MerkleProof(keys)
	cp := proof.Compile()

	if !VerifyCompiled(root, cp) {
		t.Fatal("multi-key proof should verify against the tree root")
	}
}

func TestMerkleProofMixedMembership(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(1))
	tr.Update(key(2), val(2))
	root := tr.Root()

	// key(3) is absent; prove it alongside two present keys.
	proof := tr.MerkleProof([]Hash{key(1), key(2), key(3)})
	cp := proof.Compile()

	if !VerifyCompiled(root, cp) {
		t.Fatal("a proof mixing present and absent keys should still verify")
	}
}

func TestVerifyCompiledRejectsWrongRoot(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(1))
	proof := tr.MerkleProof([]Hash{key(1)})
	cp := proof.Compile()

	var wrongRoot Hash
	wrongRoot[0] = 0xff
	if VerifyCompiled(wrongRoot, cp) {
		t.Fatal("proof should not verify against an unrelated root")
	}
}

func TestVerifyCompiledRejectsTamperedValue(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(1))
	root := tr.Root()

	proof := tr.MerkleProof([]Hash{key(1)})
	cp := proof.Compile()
	cp.Pairs[0].Value = val(0xff)

	if VerifyCompiled(root, cp) {
		t.Fatal("tampering with a proven value should invalidate the proof")
	}
}

func TestVerifyCompiledRejectsDuplicateKeys(t *testing.T) {
	cp := CompiledProof{
		Pairs: []Pair{
			{Key: key(1), Value: val(1)},
			{Key: key(1), Value: val(2)},
		},
	}
	if VerifyCompiled(EmptyRoot(), cp) {
		t.Fatal("a proof with a duplicate key must be rejected")
	}
}

func TestVerifyCompiledEmptyTree(t *testing.T) {
	if !VerifyCompiled(EmptyRoot(), CompiledProof{}) {
		t.Fatal("an empty compiled proof should verify against the empty root")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tr := NewTree()
	keys := []Hash{key(1), key(2), key(200)}
	for i, k := range keys {
		tr.Update(k, val(byte(i+10)))
	}
	proof := tr.MerkleProof(keys)
	cp := proof.Compile()

	encoded := cp.Encode()
	decoded, err := DecodeCompiledProof(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !VerifyCompiled(tr.Root(), decoded) {
		t.Fatal("round-tripped proof should still verify")
	}
	if len(decoded.Pairs) != len(cp.Pairs) || len(decoded.Siblings) != len(cp.Siblings) {
		t.Fatal("decoded proof should have the same shape as the original")
	}
}

func TestDecodeCompiledProofRejectsTruncated(t *testing.T) {
	if _, err := DecodeCompiledProof([]byte{1, 2, 3}); err == nil {
		t.Fatal("truncated input should fail to decode")
	}
}

func TestDecodeCompiledProofRejectsTrailingBytes(t *testing.T) {
	tr := NewTree()
	tr.Update(key(1), val(1))
	cp := tr.MerkleProof([]Hash{key(1)}).Compile()
	encoded := append(cp.Encode(), 0xff)
	if _, err := DecodeCompiledProof(encoded); err == nil {
		t.Fatal("trailing bytes should fail to decode")
	}
}
