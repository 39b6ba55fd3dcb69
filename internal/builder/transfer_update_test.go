package builder

import (
	"context"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func TestTransferUpdateRebindsWithdrawWithCallerSuppliedState(t *testing.T) {
	deps, fidx, src := newTestDeps(t)
	id := cotaID(0x11)
	idx := tokenIndex(0)
	oldOP := outPoint(1)
	newOP := outPoint(2)
	seedWithdrawal(t, deps, fidx, lockScript(1), id, idx, oldOP)
	src.withdraws[withdrawKeyTuple{id, idx, oldOP}] = withdrawRecord{version: 1, configure: 1, state: 0, characteristic: [20]byte{0x22}}

	res, err := deps.TransferUpdate(context.Background(), TransferUpdateRequest{
		LockScript:           lockScript(2),
		WithdrawalLockScript: lockScript(1),
		TransferOutPoint:     newOP,
		Items:                []TransferUpdateItem{{CotaID: id, TokenIndex: idx, OutPoint: oldOP, State: 7, Characteristic: [20]byte{0x55}, ToLockScript: lockScript(3)}},
	})
	if err != nil {
		t.Fatalf("TransferUpdate: %v", err)
	}

	sender := smt.AccountID(lockScript(1))
	leaves, err := deps.Store.Leaves(sender)
	if err != nil {
		t.Fatalf("Leaves: %v", err)
	}
	newKey := keys.WithdrawKeyV1(id, idx, newOP)
	recipientHash := smt.AccountID(lockScript(3))
	wantValue := keys.WithdrawValueV1(1, 7, [20]byte{0x55}, recipientHash)
	var found bool
	for _, p := range leaves {
		if p.Key == newKey {
			found = true
			if p.Value != wantValue {
				t.Fatal("new withdraw leaf should carry the caller-supplied updated state")
			}
		}
	}
	if !found {
		t.Fatal("new withdraw leaf should exist after transfer update")
	}
	if res.Root.IsZero() {
		t.Fatal("root should not be empty")
	}
}
