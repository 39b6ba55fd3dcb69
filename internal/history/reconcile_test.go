package history

import (
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func TestReconcileUnknownRootGivesEmptyTree(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)

	var unknownRoot smt.Hash
	unknownRoot[0] = 0xff

	tree, err := Reconcile(s, account, unknownRoot)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if tree.Root() != smt.EmptyRoot() {
		t.Fatal("reconciling against an unobserved root should yield an empty tree")
	}
}

func TestReconcileEmptyOnChainRootGivesEmptyTree(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)

	tree, err := Reconcile(s, account, smt.EmptyRoot())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if tree.Root() != smt.EmptyRoot() {
		t.Fatal("reconciling against the empty root should yield an empty tree")
	}
}

func TestReconcileMatchingLocalRootReplaysCurrentLeaves(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)
	leaf, val := hashByte(2), hashByte(3)

	tree := smt.NewTree()
	tree.Update(leaf, val)
	root := tree.Root()

	tx := s.Begin()
	_ = tx.PutLeaf(account, leaf, val)
	_ = tx.PutRoot(account, root)
	_ = tx.PutSnapshot(account, root, []smt.Pair{{Key: leaf, Value: val}})
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := Reconcile(s, account, root)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got.Root() != root {
		t.Fatal("reconciling against the already-current root should reproduce it")
	}
}

func TestReconcileReplaysHistoricalRootFromSnapshot(t *testing.T) {
	s := openTestStore(t)
	account := hashByte(1)

	// First root: one leaf.
	tree1 := smt.NewTree()
	tree1.Update(hashByte(2), hashByte(3))
	root1 := tree1.Root()

	tx1 := s.Begin()
	_ = tx1.PutLeaf(account, hashByte(2), hashByte(3))
	_ = tx1.PutRoot(account, root1)
	_ = tx1.PutSnapshot(account, root1, []smt.Pair{{Key: hashByte(2), Value: hashByte(3)}})
	if err := tx1.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Second root: a second leaf added: this is the "current" store state.
	tree2 := smt.NewTree()
	tree2.Update(hashByte(2), hashByte(3))
	tree2.Update(hashByte(4), hashByte(5))
	root2 := tree2.Root()

	tx2 := s.Begin()
	_ = tx2.PutLeaf(account, hashByte(4), hashByte(5))
	_ = tx2.PutRoot(account, root2)
	_ = tx2.PutSnapshot(account, root2, []smt.Pair{
		{Key: hashByte(2), Value: hashByte(3)},
		{Key: hashByte(4), Value: hashByte(5)},
	})
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// The indexer reports the chain is still on root1 (aggregator
	// raced ahead); reconciling should roll back to root1's leaf set,
	// not the store's latest.
	got, err := Reconcile(s, account, root1)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got.Root() != root1 {
		t.Fatal("reconciling against an earlier on-chain root should replay that root's snapshot, not the latest local state")
	}
}
