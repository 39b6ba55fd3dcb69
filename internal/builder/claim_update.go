package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// ClaimUpdateItem is a ClaimItem whose settled Hold leaf carries a
// caller-supplied (state, characteristic) rather than the withdrawal
// record's own values.
type ClaimUpdateItem struct {
	CotaID         keys.CotaID
	TokenIndex     keys.TokenIndex
	OutPoint       keys.OutPoint
	State          byte
	Characteristic [20]byte
}

// ClaimUpdateRequest is Claim combined with an in-flight state update
// (spec.md §4.4 "ClaimUpdate").
type ClaimUpdateRequest struct {
	LockScript           []byte // claimant
	WithdrawalLockScript []byte // original withdrawer
	Items                []ClaimUpdateItem
}

// ClaimUpdate is Claim, except the Hold leaf it settles in the
// claimant's tree carries the caller-supplied updated state rather
// than carrying forward the sender's withdrawal values.
func (d *Deps) ClaimUpdate(ctx context.Context, req ClaimUpdateRequest) (Result, error) {
	if len(req.Items) == 0 {
		return Result{}, aggerr.ParamNotFound("nfts")
	}

	claimant := smt.AccountID(req.LockScript)
	sender := smt.AccountID(req.WithdrawalLockScript)

	claimantTree, senderTree, blockNumber, unlock, err := d.prepareTwo(ctx, claimant, sender)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	var holdKeys []smt.Hash
	var holdValues []codec.ClaimInfo
	var claimKeys []smt.Hash
	var claimInfos []codec.ClaimInfo
	var claimantTouched, senderTouched []smt.Pair

	for _, item := range req.Items {
		version, configure, _, _, err := d.Source.CurrentWithdrawal(item.CotaID, item.TokenIndex, item.OutPoint)
		if err != nil {
			return Result{}, err
		}

		wk := withdrawKeyForVersion(version, item.CotaID, item.TokenIndex, item.OutPoint)
		if senderTree.Get(wk).IsZero() {
			return Result{}, aggerr.NotWithdrawn()
		}
		senderTree.Update(wk, smt.Hash{})
		senderTouched = append(senderTouched, smt.Pair{Key: wk, Value: smt.Hash{}})

		info := codec.ClaimInfo{Configure: configure, State: item.State, Characteristic: item.Characteristic}
		hk := keys.HoldKey(item.CotaID, item.TokenIndex)
		hv := keys.HoldValue(info.Configure, info.State, info.Characteristic)
		claimantTree.Update(hk, hv)
		claimantTouched = append(claimantTouched, smt.Pair{Key: hk, Value: hv})
		holdKeys = append(holdKeys, hk)
		holdValues = append(holdValues, info)

		ck := keys.ClaimKey(item.CotaID, item.TokenIndex, item.OutPoint)
		cv := keys.ClaimValueForVersion(version)
		claimantTree.Update(ck, cv)
		claimantTouched = append(claimantTouched, smt.Pair{Key: ck, Value: cv})
		claimKeys = append(claimKeys, ck)
		claimInfos = append(claimInfos, info)
	}

	claimantRoot, _, err := d.commitTwo(claimant, claimantTree, claimantTouched, sender, senderTree, senderTouched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(claimantTree, append(append([]smt.Hash{}, holdKeys...), claimKeys...))
	withdrawalProof := compileProof(senderTree, keysOf(senderTouched))

	entry := codec.EncodeClaimUpdateEntries(codec.ClaimUpdateEntries{
		HoldKeys:        holdKeys,
		HoldValues:      holdValues,
		ClaimKeys:       claimKeys,
		ClaimInfos:      claimInfos,
		Proof:           proof,
		WithdrawalProof: withdrawalProof,
		Action:          codec.CountAction("Claim ", uint32(len(req.Items)), " NFTs"),
	})

	return Result{Root: claimantRoot, Entry: entry, BlockNumber: blockNumber}, nil
}
