package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// DefineRequest registers a new cota_id with its total supply
// (spec.md §4.4 "Define").
type DefineRequest struct {
	LockScript []byte
	CotaID     keys.CotaID
	Total      uint32
	Configure  byte
}

// Define creates the Define leaf for a cota_id that must not already
// exist.
func (d *Deps) Define(ctx context.Context, req DefineRequest) (Result, error) {
	acc := smt.AccountID(req.LockScript)
	tree, blockNumber, unlock, err := d.prepare(ctx, acc)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	defineKey := keys.DefineKey(req.CotaID)
	if !tree.Get(defineKey).IsZero() {
		return Result{}, aggerr.DefineExisted()
	}

	defineValue := keys.DefineValue(req.Total, 0, req.Configure)
	tree.Update(defineKey, defineValue)

	touched := []smt.Pair{{Key: defineKey, Value: defineValue}}
	root, err := d.commit(acc, tree, touched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(tree, keysOf(touched))
	entry := codec.EncodeDefineEntries(codec.DefineEntries{
		Key:    defineKey,
		Value:  defineValue,
		Proof:  proof,
		Action: codec.CountAction("Define ", 1, " cota_id"),
	})

	return Result{Root: root, Entry: entry, BlockNumber: blockNumber}, nil
}
