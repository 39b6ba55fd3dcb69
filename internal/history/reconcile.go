package history

import "github.com/xiaolou86/cota-aggregator/internal/smt"

// Reconcile rebuilds account's working tree so it matches onChainRoot
// before a builder applies a new delta, per spec.md §4.3: the chain is
// authoritative, and the off-chain aggregator may lag or race with
// on-chain commitments, so the local tree is made to match the
// chain's root first.
//
//  1. Read the local root for account.
//  2. If it already equals onChainRoot, the current leaf set is the
//     working tree -- no replay needed.
//  3. Otherwise, load the leaf set the root-table recorded for
//     onChainRoot and replay it into a fresh tree.
//
// If onChainRoot has never been observed (first-ever operation for
// the account), the working tree is empty.
func Reconcile(store *Store, account, onChainRoot smt.Hash) (*smt.Tree, error) {
	if onChainRoot == smt.EmptyRoot() {
		return smt.NewTree(), nil
	}

	localRoot, err := store.Root(account)
	if err != nil {
		return nil, err
	}
	if localRoot == onChainRoot {
		leaves, err := store.Leaves(account)
		if err != nil {
			return nil, err
		}
		tree := smt.NewTree()
		tree.UpdateAll(leaves)
		return tree, nil
	}

	leaves, err := store.LeavesForRoot(account, onChainRoot)
	if err != nil {
		return nil, err
	}
	tree := smt.NewTree()
	tree.UpdateAll(leaves)
	return tree, nil
}
