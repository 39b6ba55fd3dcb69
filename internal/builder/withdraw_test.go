package builder

import (
	"context"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func TestWithdrawMovesHoldLeafToWithdrawLeaf(t *testing.T) {
	deps, _, src := newTestDeps(t)
	id := cotaID(0xaa)
	idx := tokenIndex(0)
	src.holds[holdKeyTuple{id, idx}] = holdRecord{configure: 1, state: 0, characteristic: [20]byte{0x33}}

	req := WithdrawRequest{
		LockScript: lockScript(1),
		OutPoint:   outPoint(1),
		Items:      []WithdrawItem{{CotaID: id, TokenIndex: idx, ToLockScript: lockScript(2)}},
	}
	res, err := deps.Withdraw(context.Background(), req)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if res.Root.IsZero() {
		t.Fatal("root should not be empty after a withdraw")
	}

	account := smt.AccountID(lockScript(1))
	tree, err := deps.Store.Leaves(account)
	if err != nil {
		t.Fatalf("Leaves: %v", err)
	}
	holdKey := keys.HoldKey(id, idx)
	for _, p := range tree {
		if p.Key == holdKey && !p.Value.IsZero() {
			t.Fatal("hold leaf should have been zeroed by withdraw")
		}
	}
}

func TestWithdrawRejectsEmptyItems(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	req := WithdrawRequest{LockScript: lockScript(1), OutPoint: outPoint(1)}
	if _, err := deps.Withdraw(context.Background(), req); err == nil {
		t.Fatal("expected RequestParamNotFound for empty withdrawals")
	}
}
