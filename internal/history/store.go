// Package history implements the aggregator's per-account persistence
// and the Root Reconciler that keeps a rebuilt in-memory tree in sync
// with the chain's canonical root before every mutation.
package history

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// Key-space prefixes, one byte each, the way the teacher's
// rawdbNodeReader/rawdbNodeWriter prefix every trie-node key with "t".
// Four logical namespaces share one Pebble instance since Pebble
// orders keys lexicographically and a leading prefix byte is enough to
// keep them from ever colliding.
const (
	prefixBranch byte = 'b' // internal SMT nodes, reserved for future node caching
	prefixLeaf   byte = 'l' // current leaves, keyed by (account, leaf key)
	prefixRoot   byte = 'r' // account -> current root
	prefixSnap   byte = 's' // (account, root) -> leaf set that produced it
	prefixMeta   byte = 'x' // reserved metadata
)

// Store is the History Store: a Pebble-backed KV engine holding, per
// account, the current leaf set and the leaf set that produced each
// root ever observed, so the Root Reconciler can replay history
// forward from any root the indexer reports.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the History Store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying Pebble handle.
func (s *Store) Close() error { return s.db.Close() }

func leafKey(account, leaf smt.Hash) []byte {
	k := make([]byte, 1+32+32)
	k[0] = prefixLeaf
	copy(k[1:33], account[:])
	copy(k[33:65], leaf[:])
	return k
}

func leafPrefix(account smt.Hash) []byte {
	k := make([]byte, 1+32)
	k[0] = prefixLeaf
	copy(k[1:], account[:])
	return k
}

func rootKey(account smt.Hash) []byte {
	k := make([]byte, 1+32)
	k[0] = prefixRoot
	copy(k[1:], account[:])
	return k
}

func snapKey(account, root smt.Hash) []byte {
	k := make([]byte, 1+32+32)
	k[0] = prefixSnap
	copy(k[1:33], account[:])
	copy(k[33:65], root[:])
	return k
}

// Root returns the last root this store recorded for account, or the
// empty-tree root if the account has never been written.
func (s *Store) Root(account smt.Hash) (smt.Hash, error) {
	v, closer, err := s.db.Get(rootKey(account))
	if errors.Is(err, pebble.ErrNotFound) {
		return smt.EmptyRoot(), nil
	}
	if err != nil {
		return smt.Hash{}, aggerr.DatabaseQuery(err)
	}
	defer closer.Close()
	return smt.BytesToHash(v), nil
}

// Leaves returns every non-zero leaf currently on record for account.
func (s *Store) Leaves(account smt.Hash) ([]smt.Pair, error) {
	prefix := leafPrefix(account)
	iter, err := s.db.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return nil, aggerr.DatabaseQuery(err)
	}
	defer iter.Close()

	var pairs []smt.Pair
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		leaf := smt.BytesToHash(key[33:65])
		pairs = append(pairs, smt.Pair{Key: leaf, Value: smt.BytesToHash(iter.Value())})
	}
	if err := iter.Error(); err != nil {
		return nil, aggerr.DatabaseQuery(err)
	}
	return pairs, nil
}

// LeavesForRoot returns the leaf set that produced root for account,
// the root-table lookup the Root Reconciler uses to replay history
// (spec.md §4.2, §4.3).
func (s *Store) LeavesForRoot(account, root smt.Hash) ([]smt.Pair, error) {
	v, closer, err := s.db.Get(snapKey(account, root))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, aggerr.DatabaseQuery(err)
	}
	defer closer.Close()
	return decodeSnapshot(v)
}

func encodeSnapshot(pairs []smt.Pair) []byte {
	buf := make([]byte, 4, 4+len(pairs)*64)
	binary.LittleEndian.PutUint32(buf, uint32(len(pairs)))
	for _, p := range pairs {
		buf = append(buf, p.Key[:]...)
		buf = append(buf, p.Value[:]...)
	}
	return buf
}

func decodeSnapshot(b []byte) ([]smt.Pair, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("history: truncated snapshot")
	}
	n := binary.LittleEndian.Uint32(b)
	b = b[4:]
	pairs := make([]smt.Pair, n)
	for i := range pairs {
		if len(b) < 64 {
			return nil, fmt.Errorf("history: truncated snapshot at pair %d", i)
		}
		copy(pairs[i].Key[:], b[:32])
		copy(pairs[i].Value[:], b[32:64])
		b = b[64:]
	}
	return pairs, nil
}

func prefixIterOptions(prefix []byte) *pebble.IterOptions {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			upper = upper[:i+1]
			return &pebble.IterOptions{LowerBound: prefix, UpperBound: upper}
		}
	}
	return &pebble.IterOptions{LowerBound: prefix}
}

// Transaction accumulates one operation's writes so they land together
// or not at all, per spec.md §4.2's atomic-batch write path.
type Transaction struct {
	store *Store
	batch *pebble.Batch
}

// Begin opens a new write batch against the store.
func (s *Store) Begin() *Transaction {
	return &Transaction{store: s, batch: s.db.NewBatch()}
}

// PutLeaf stages a leaf write. A zero value stages a delete, mirroring
// the Tree's own zero-prunes-leaf convention.
func (tx *Transaction) PutLeaf(account, leaf, value smt.Hash) error {
	k := leafKey(account, leaf)
	if value.IsZero() {
		return tx.batch.Delete(k, nil)
	}
	return tx.batch.Set(k, value[:], nil)
}

// PutRoot stages the account's new current root.
func (tx *Transaction) PutRoot(account, root smt.Hash) error {
	return tx.batch.Set(rootKey(account), root[:], nil)
}

// PutSnapshot stages the leaf set that produced root, so a later
// reconciliation against this root can replay it.
func (tx *Transaction) PutSnapshot(account, root smt.Hash, leaves []smt.Pair) error {
	return tx.batch.Set(snapKey(account, root), encodeSnapshot(leaves), nil)
}

// Commit applies the batch atomically and durably. Per spec.md §4.2
// and the §5 failure discipline, a failed commit must leave the
// on-disk state at the previous consistent root -- Pebble's batch
// apply is all-or-nothing, so a returned error means nothing in the
// batch was written.
func (tx *Transaction) Commit() error {
	if err := tx.batch.Commit(pebble.Sync); err != nil {
		return aggerr.DatabaseQuery(err)
	}
	return nil
}

// Discard releases the batch without applying it.
func (tx *Transaction) Discard() error {
	return tx.batch.Close()
}
