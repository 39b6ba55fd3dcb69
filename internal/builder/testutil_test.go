package builder

import (
	"context"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/account"
	"github.com/xiaolou86/cota-aggregator/internal/history"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// fakeIndexer reports a fixed root per account, defaulting to the
// empty root for accounts it hasn't been told about.
type fakeIndexer struct {
	roots       map[smt.Hash]smt.Hash
	blockNumber uint64
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{roots: make(map[smt.Hash]smt.Hash), blockNumber: 1000}
}

func (f *fakeIndexer) GetRoot(ctx context.Context, acc smt.Hash) (smt.Hash, uint64, error) {
	if r, ok := f.roots[acc]; ok {
		return r, f.blockNumber, nil
	}
	return smt.EmptyRoot(), f.blockNumber, nil
}

func (f *fakeIndexer) setRoot(acc, root smt.Hash) { f.roots[acc] = root }

// fakeSource answers Source queries from an in-memory map of
// caller-seeded records, standing in for the out-of-scope relational
// database spec.md §1 treats as an external input source.
type fakeSource struct {
	defines   map[keys.CotaID]defineRecord
	holds     map[holdKeyTuple]holdRecord
	withdraws map[withdrawKeyTuple]withdrawRecord
}

type defineRecord struct {
	totalSupply, issued uint32
	configure           byte
}

type holdKeyTuple struct {
	cotaID keys.CotaID
	index  keys.TokenIndex
}

type holdRecord struct {
	configure, state byte
	characteristic   [20]byte
}

type withdrawKeyTuple struct {
	cotaID   keys.CotaID
	index    keys.TokenIndex
	outPoint keys.OutPoint
}

type withdrawRecord struct {
	version          uint8
	configure, state byte
	characteristic   [20]byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		defines:   make(map[keys.CotaID]defineRecord),
		holds:     make(map[holdKeyTuple]holdRecord),
		withdraws: make(map[withdrawKeyTuple]withdrawRecord),
	}
}

func (s *fakeSource) CurrentDefine(cotaID keys.CotaID) (uint32, uint32, byte, error) {
	r := s.defines[cotaID]
	return r.totalSupply, r.issued, r.configure, nil
}

func (s *fakeSource) CurrentHold(cotaID keys.CotaID, index keys.TokenIndex) (byte, byte, [20]byte, error) {
	r := s.holds[holdKeyTuple{cotaID, index}]
	return r.configure, r.state, r.characteristic, nil
}

func (s *fakeSource) CurrentWithdrawal(cotaID keys.CotaID, index keys.TokenIndex, outPoint keys.OutPoint) (uint8, byte, byte, [20]byte, error) {
	r := s.withdraws[withdrawKeyTuple{cotaID, index, outPoint}]
	return r.version, r.configure, r.state, r.characteristic, nil
}

func newTestDeps(t *testing.T) (*Deps, *fakeIndexer, *fakeSource) {
	t.Helper()
	store, err := history.Open(t.TempDir())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	idx := newFakeIndexer()
	src := newFakeSource()
	return &Deps{
		Store:      store,
		Serializer: account.New(),
		Indexer:    idx,
		Source:     src,
	}, idx, src
}

// seedWithdrawal withdraws one NFT out of lock's tree under op and
// points the fake indexer at the resulting root, so a following
// Claim/Transfer-family operation reconciles onto a sender tree that
// holds the Withdraw v1 leaf.
func seedWithdrawal(t *testing.T, deps *Deps, fidx *fakeIndexer, lock []byte, id keys.CotaID, index keys.TokenIndex, op keys.OutPoint) {
	t.Helper()
	res, err := deps.Withdraw(context.Background(), WithdrawRequest{
		LockScript: lock,
		OutPoint:   op,
		Items:      []WithdrawItem{{CotaID: id, TokenIndex: index, ToLockScript: lockScript(2)}},
	})
	if err != nil {
		t.Fatalf("seed Withdraw: %v", err)
	}
	fidx.setRoot(smt.AccountID(lock), res.Root)
}

func cotaID(b byte) keys.CotaID {
	var c keys.CotaID
	c[0] = b
	return c
}

func tokenIndex(n uint32) keys.TokenIndex {
	var idx keys.TokenIndex
	idx[3] = byte(n)
	return idx
}

func outPoint(b byte) keys.OutPoint {
	var o keys.OutPoint
	o[0] = b
	return o
}

func lockScript(b byte) []byte {
	return []byte{b, b, b}
}
