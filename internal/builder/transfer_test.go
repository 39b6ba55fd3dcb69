package builder

import (
	"bytes"
	"context"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func TestTransferRebindsWithdrawLeafAndRecordsClaim(t *testing.T) {
	deps, fidx, src := newTestDeps(t)
	id := cotaID(0x11)
	idx := tokenIndex(0)
	oldOP := outPoint(1)
	newOP := outPoint(2)

	seedWithdrawal(t, deps, fidx, lockScript(1), id, idx, oldOP)
	src.withdraws[withdrawKeyTuple{id, idx, oldOP}] = withdrawRecord{version: 1, configure: 1, state: 0, characteristic: [20]byte{0x22}}

	res, err := deps.Transfer(context.Background(), TransferRequest{
		LockScript:           lockScript(2),
		WithdrawalLockScript: lockScript(1),
		TransferOutPoint:     newOP,
		Transfers:            []TransferItem{{CotaID: id, TokenIndex: idx, OutPoint: oldOP, ToLockScript: lockScript(3)}},
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.Root.IsZero() {
		t.Fatal("claimant root should not be empty after a transfer")
	}

	sender := smt.AccountID(lockScript(1))
	leaves, err := deps.Store.Leaves(sender)
	if err != nil {
		t.Fatalf("Leaves(sender): %v", err)
	}
	oldKey := keys.WithdrawKeyV1(id, idx, oldOP)
	newKey := keys.WithdrawKeyV1(id, idx, newOP)
	var sawNew bool
	for _, p := range leaves {
		if p.Key == oldKey {
			t.Fatal("old withdraw leaf should have been zeroed")
		}
		if p.Key == newKey && !p.Value.IsZero() {
			sawNew = true
		}
	}
	if !sawNew {
		t.Fatal("new withdraw leaf should be present after transfer")
	}
}

func TestTransferSingleItemUsesTransferAction(t *testing.T) {
	deps, fidx, src := newTestDeps(t)
	id := cotaID(0x22)
	idx := tokenIndex(1)
	op := outPoint(5)
	seedWithdrawal(t, deps, fidx, lockScript(1), id, idx, op)
	src.withdraws[withdrawKeyTuple{id, idx, op}] = withdrawRecord{version: 1}

	res, err := deps.Transfer(context.Background(), TransferRequest{
		LockScript:           lockScript(2),
		WithdrawalLockScript: lockScript(1),
		TransferOutPoint:     outPoint(6),
		Transfers:            []TransferItem{{CotaID: id, TokenIndex: idx, OutPoint: op, ToLockScript: lockScript(3)}},
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !bytes.Contains(res.Entry, []byte("Transfer the NFT ")) {
		t.Fatal("single-item transfer should embed the single-item action label")
	}
}
