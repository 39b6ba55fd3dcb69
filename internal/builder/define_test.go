package builder

import (
	"context"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func TestDefineCreatesLeaf(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	req := DefineRequest{LockScript: lockScript(1), CotaID: cotaID(0x11), Total: 100}

	res, err := deps.Define(context.Background(), req)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if res.Root.IsZero() {
		t.Fatal("root should not be empty after a define")
	}
	if len(res.Entry) == 0 {
		t.Fatal("entries blob should not be empty")
	}
}

func TestDefineRejectsExistingCotaID(t *testing.T) {
	deps, fidx, _ := newTestDeps(t)
	req := DefineRequest{LockScript: lockScript(1), CotaID: cotaID(0x11), Total: 100}

	first, err := deps.Define(context.Background(), req)
	if err != nil {
		t.Fatalf("first define: %v", err)
	}
	fidx.setRoot(smt.AccountID(req.LockScript), first.Root)
	_, err = deps.Define(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error defining the same cota_id twice")
	}
	aerr, ok := err.(*aggerr.Error)
	if !ok || aerr.Kind != aggerr.KindDefineExisted {
		t.Fatalf("err = %v, want KindDefineExisted", err)
	}
}
