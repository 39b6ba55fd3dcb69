package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// WithdrawItem names one held NFT being withdrawn to a recipient.
type WithdrawItem struct {
	CotaID       keys.CotaID
	TokenIndex   keys.TokenIndex
	ToLockScript []byte
}

// WithdrawRequest moves N NFTs out of the Hold leaf space and into the
// Withdraw v1 leaf space, bound to a shared out_point (spec.md §4.4
// "Withdraw").
type WithdrawRequest struct {
	LockScript []byte
	OutPoint   keys.OutPoint
	Items      []WithdrawItem
}

// Withdraw zeroes each NFT's Hold leaf and creates its Withdraw v1
// leaf, carrying forward the Hold leaf's current (configure, state,
// characteristic).
func (d *Deps) Withdraw(ctx context.Context, req WithdrawRequest) (Result, error) {
	if len(req.Items) == 0 {
		return Result{}, aggerr.ParamNotFound("withdrawals")
	}

	acc := smt.AccountID(req.LockScript)
	tree, blockNumber, unlock, err := d.prepare(ctx, acc)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	holdKeys := make([]smt.Hash, 0, len(req.Items))
	withdrawKeys := make([]smt.Hash, 0, len(req.Items))
	withdrawValues := make([]smt.Hash, 0, len(req.Items))
	touched := make([]smt.Pair, 0, len(req.Items)*2)

	for _, item := range req.Items {
		configure, state, characteristic, err := d.Source.CurrentHold(item.CotaID, item.TokenIndex)
		if err != nil {
			return Result{}, err
		}

		hk := keys.HoldKey(item.CotaID, item.TokenIndex)
		tree.Update(hk, smt.Hash{})
		touched = append(touched, smt.Pair{Key: hk, Value: smt.Hash{}})
		holdKeys = append(holdKeys, hk)

		recipientHash := smt.AccountID(item.ToLockScript)
		wk := keys.WithdrawKeyV1(item.CotaID, item.TokenIndex, req.OutPoint)
		wv := keys.WithdrawValueV1(configure, state, characteristic, recipientHash)
		tree.Update(wk, wv)
		touched = append(touched, smt.Pair{Key: wk, Value: wv})
		withdrawKeys = append(withdrawKeys, wk)
		withdrawValues = append(withdrawValues, wv)
	}

	root, err := d.commit(acc, tree, touched)
	if err != nil {
		return Result{}, err
	}

	proofKeys := append(append([]smt.Hash{}, holdKeys...), withdrawKeys...)
	proof := compileProof(tree, proofKeys)

	entry := codec.EncodeWithdrawEntries(codec.WithdrawEntries{
		HoldKeys:         holdKeys,
		WithdrawalKeys:   withdrawKeys,
		WithdrawalValues: withdrawValues,
		Proof:            proof,
		Action:           codec.CountAction("Withdraw ", uint32(len(req.Items)), " NFTs"),
	})

	return Result{Root: root, Entry: entry, BlockNumber: blockNumber}, nil
}
