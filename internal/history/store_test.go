package history

import (
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func hashByte(b byte) smt.Hash {
	var h smt.Hash
	h[0] = b
	return h
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRootDefaultsToEmpty(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)

	root, err := s.Root(account)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != smt.EmptyRoot() {
		t.Fatal("an account never written should report the empty-tree root")
	}
}

func TestTransactionCommitIsAtomic(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)
	leaf := hashByte(2)
	val := hashByte(3)
	root := hashByte(4)

	tx := s.Begin()
	if err := tx.PutLeaf(account, leaf, val); err != nil {
		t.Fatalf("PutLeaf: %v", err)
	}
	if err := tx.PutRoot(account, root); err != nil {
		t.Fatalf("PutRoot: %v", err)
	}
	if err := tx.PutSnapshot(account, root, []smt.Pair{{Key: leaf, Value: val}}); err != nil {
		t.Fatalf("PutSnapshot: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	gotRoot, err := s.Root(account)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if gotRoot != root {
		t.Fatalf("Root = %x, want %x", gotRoot, root)
	}

	leaves, err := s.Leaves(account)
	if err != nil {
		t.Fatalf("Leaves: %v", err)
	}
	if len(leaves) != 1 || leaves[0].Key != leaf || leaves[0].Value != val {
		t.Fatalf("Leaves = %+v, want single (%x, %x)", leaves, leaf, val)
	}

	snap, err := s.LeavesForRoot(account, root)
	if err != nil {
		t.Fatalf("LeavesForRoot: %v", err)
	}
	if len(snap) != 1 || snap[0].Key != leaf || snap[0].Value != val {
		t.Fatalf("LeavesForRoot = %+v, want single (%x, %x)", snap, leaf, val)
	}
}

func TestDiscardedTransactionDoesNotCommit(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)

	tx := s.Begin()
	if err := tx.PutRoot(account, hashByte(9)); err != nil {
		t.Fatalf("PutRoot: %v", err)
	}
	if err := tx.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	root, err := s.Root(account)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root != smt.EmptyRoot() {
		t.Fatal("a discarded transaction must not affect stored state")
	}
}

func TestPutLeafZeroValueDeletes(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)
	leaf := hashByte(2)

	tx := s.Begin()
	_ = tx.PutLeaf(account, leaf, hashByte(3))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx2 := s.Begin()
	_ = tx2.PutLeaf(account, leaf, smt.Hash{})
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	leaves, err := s.Leaves(account)
	if err != nil {
		t.Fatalf("Leaves: %v", err)
	}
	if len(leaves) != 0 {
		t.Fatalf("expected leaf to be pruned, got %+v", leaves)
	}
}

func TestLeavesScopedPerAccount(t *testing.T) {
	s := openTestStore(t)
	a1, a2 := hashByte(1), hashByte(2)

	tx := s.Begin()
	_ = tx.PutLeaf(a1, hashByte(10), hashByte(100))
	_ = tx.PutLeaf(a2, hashByte(20), hashByte(200))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	l1, err := s.Leaves(a1)
	if err != nil {
		t.Fatalf("Leaves(a1): %v", err)
	}
	if len(l1) != 1 || l1[0].Key != hashByte(10) {
		t.Fatalf("Leaves(a1) = %+v, want one leaf for a1 only", l1)
	}

	l2, err := s.Leaves(a2)
	if err != nil {
		t.Fatalf("Leaves(a2): %v", err)
	}
	if len(l2) != 1 || l2[0].Key != hashByte(20) {
		t.Fatalf("Leaves(a2) = %+v, want one leaf for a2 only", l2)
	}
}
