// Package builder implements the nine Operation Builders: Define,
// Mint, Withdraw, Claim, Update, Transfer, ClaimUpdate,
// TransferUpdate, and Extension. Each wires together the Account
// Serializer, the indexer's canonical-root lookup, the Root
// Reconciler, the SMT Core, the History Store, and the Entries Codec
// into one request-to-(root, entries-blob) operation, following the
// shared skeleton spec.md §4.4 lays out.
package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/account"
	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/history"
	"github.com/xiaolou86/cota-aggregator/internal/indexer"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// Deps are the collaborators every operation builder shares.
type Deps struct {
	Store      *history.Store
	Serializer *account.Serializer
	Indexer    indexer.RootFetcher
	Source     Source
}

// Result is what every operation builder returns: the account's new
// root, the binary entries blob for the on-chain verifier, and the
// block number the indexer reported the reconciliation baseline at.
type Result struct {
	Root        smt.Hash
	Entry       []byte
	BlockNumber uint64
}

// prepare runs skeleton steps 2-4 for a single-account operation:
// acquire the account lock, fetch the canonical root, and reconcile
// the working tree to it. The returned unlock must be called exactly
// once regardless of how the operation ends.
func (d *Deps) prepare(ctx context.Context, acc smt.Hash) (*smt.Tree, uint64, func(), error) {
	unlock := d.Serializer.Enter(acc)
	onChainRoot, blockNumber, err := d.Indexer.GetRoot(ctx, acc)
	if err != nil {
		unlock()
		return nil, 0, nil, err
	}
	tree, err := history.Reconcile(d.Store, acc, onChainRoot)
	if err != nil {
		unlock()
		return nil, 0, nil, err
	}
	return tree, blockNumber, unlock, nil
}

// prepareTwo is prepare for the two-account operations (Claim,
// ClaimUpdate, Transfer, TransferUpdate). Both account locks are
// acquired together, in canonical order, via Serializer.EnterTwo, so
// two operations naming the same pair of accounts in opposite order
// can never deadlock.
func (d *Deps) prepareTwo(ctx context.Context, accA, accB smt.Hash) (*smt.Tree, *smt.Tree, uint64, func(), error) {
	unlock := d.Serializer.EnterTwo(accA, accB)

	rootA, blockNumber, err := d.Indexer.GetRoot(ctx, accA)
	if err != nil {
		unlock()
		return nil, nil, 0, nil, err
	}
	treeA, err := history.Reconcile(d.Store, accA, rootA)
	if err != nil {
		unlock()
		return nil, nil, 0, nil, err
	}

	rootB, _, err := d.Indexer.GetRoot(ctx, accB)
	if err != nil {
		unlock()
		return nil, nil, 0, nil, err
	}
	treeB, err := history.Reconcile(d.Store, accB, rootB)
	if err != nil {
		unlock()
		return nil, nil, 0, nil, err
	}

	return treeA, treeB, blockNumber, unlock, nil
}

// leavesSlice snapshots a tree's leaves as a pair slice, the shape the
// History Store's snapshot table stores.
func leavesSlice(tree *smt.Tree) []smt.Pair {
	m := tree.Leaves()
	out := make([]smt.Pair, 0, len(m))
	for k, v := range m {
		out = append(out, smt.Pair{Key: k, Value: v})
	}
	return out
}

// commit stages touched's writes and the resulting root/snapshot for
// a single account into one atomic batch (skeleton step 7). No step
// lands on disk unless every step, including Commit, succeeds.
func (d *Deps) commit(acc smt.Hash, tree *smt.Tree, touched []smt.Pair) (smt.Hash, error) {
	tx := d.Store.Begin()
	for _, p := range touched {
		if err := tx.PutLeaf(acc, p.Key, p.Value); err != nil {
			tx.Discard()
			return smt.Hash{}, aggerr.DatabaseQuery(err)
		}
	}
	root := tree.Root()
	if err := tx.PutRoot(acc, root); err != nil {
		tx.Discard()
		return smt.Hash{}, aggerr.DatabaseQuery(err)
	}
	if err := tx.PutSnapshot(acc, root, leavesSlice(tree)); err != nil {
		tx.Discard()
		return smt.Hash{}, aggerr.DatabaseQuery(err)
	}
	if err := tx.Commit(); err != nil {
		return smt.Hash{}, err
	}
	return root, nil
}

// commitTwo is commit for a two-account operation: both accounts'
// writes land in one atomic batch, so a Claim/Transfer-family
// operation never leaves one tree mutated and the other not.
func (d *Deps) commitTwo(accA smt.Hash, treeA *smt.Tree, touchedA []smt.Pair, accB smt.Hash, treeB *smt.Tree, touchedB []smt.Pair) (smt.Hash, smt.Hash, error) {
	tx := d.Store.Begin()
	stage := func(acc smt.Hash, tree *smt.Tree, touched []smt.Pair) (smt.Hash, error) {
		for _, p := range touched {
			if err := tx.PutLeaf(acc, p.Key, p.Value); err != nil {
				return smt.Hash{}, aggerr.DatabaseQuery(err)
			}
		}
		root := tree.Root()
		if err := tx.PutRoot(acc, root); err != nil {
			return smt.Hash{}, aggerr.DatabaseQuery(err)
		}
		if err := tx.PutSnapshot(acc, root, leavesSlice(tree)); err != nil {
			return smt.Hash{}, aggerr.DatabaseQuery(err)
		}
		return root, nil
	}

	rootA, err := stage(accA, treeA, touchedA)
	if err != nil {
		tx.Discard()
		return smt.Hash{}, smt.Hash{}, err
	}
	rootB, err := stage(accB, treeB, touchedB)
	if err != nil {
		tx.Discard()
		return smt.Hash{}, smt.Hash{}, err
	}
	if err := tx.Commit(); err != nil {
		return smt.Hash{}, smt.Hash{}, err
	}
	return rootA, rootB, nil
}

// compileProof builds the compiled, encoded Merkle proof for keys
// against tree's current state (skeleton step 8).
func compileProof(tree *smt.Tree, keys []smt.Hash) []byte {
	proof := tree.MerkleProof(keys)
	return proof.Compile().Encode()
}

// keysOf extracts the Key field of a Pair slice, the shape
// tree.MerkleProof wants.
func keysOf(pairs []smt.Pair) []smt.Hash {
	out := make([]smt.Hash, len(pairs))
	for i, p := range pairs {
		out[i] = p.Key
	}
	return out
}
