package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// UpdateItem carries an NFT's new (state, characteristic).
type UpdateItem struct {
	CotaID         keys.CotaID
	TokenIndex     keys.TokenIndex
	State          byte
	Characteristic [20]byte
}

// UpdateRequest rewrites N Hold leaves to their new (state,
// characteristic) (spec.md §4.4 "Update").
type UpdateRequest struct {
	LockScript []byte
	Items      []UpdateItem
}

// Update rewrites each NFT's Hold leaf, keeping its configure field
// unchanged (read from the current Hold leaf, not caller-supplied).
func (d *Deps) Update(ctx context.Context, req UpdateRequest) (Result, error) {
	if len(req.Items) == 0 {
		return Result{}, aggerr.ParamNotFound("nfts")
	}

	acc := smt.AccountID(req.LockScript)
	tree, blockNumber, unlock, err := d.prepare(ctx, acc)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	holdKeys := make([]smt.Hash, 0, len(req.Items))
	holdValues := make([]smt.Hash, 0, len(req.Items))
	touched := make([]smt.Pair, 0, len(req.Items))

	for _, item := range req.Items {
		configure, _, _, err := d.Source.CurrentHold(item.CotaID, item.TokenIndex)
		if err != nil {
			return Result{}, err
		}

		hk := keys.HoldKey(item.CotaID, item.TokenIndex)
		hv := keys.HoldValue(configure, item.State, item.Characteristic)
		tree.Update(hk, hv)
		touched = append(touched, smt.Pair{Key: hk, Value: hv})
		holdKeys = append(holdKeys, hk)
		holdValues = append(holdValues, hv)
	}

	root, err := d.commit(acc, tree, touched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(tree, holdKeys)
	entry := codec.EncodeUpdateEntries(codec.UpdateEntries{
		HoldKeys:   holdKeys,
		HoldValues: holdValues,
		Proof:      proof,
		Action:     codec.CountAction("Update ", uint32(len(req.Items)), " NFTs"),
	})

	return Result{Root: root, Entry: entry, BlockNumber: blockNumber}, nil
}
