package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// TransferUpdateItem is a TransferItem whose re-withdrawn leaf carries
// a caller-supplied (state, characteristic).
type TransferUpdateItem struct {
	CotaID         keys.CotaID
	TokenIndex     keys.TokenIndex
	OutPoint       keys.OutPoint
	State          byte
	Characteristic [20]byte
	ToLockScript   []byte
}

// TransferUpdateRequest is Transfer combined with an in-flight state
// update (spec.md §4.4 "TransferUpdate").
type TransferUpdateRequest struct {
	LockScript           []byte // claimant (pass-through party)
	WithdrawalLockScript []byte // original withdrawer
	TransferOutPoint     keys.OutPoint
	Items                []TransferUpdateItem
}

// TransferUpdate is Transfer, except the new Withdraw v1 leaf created
// in the sender's tree carries the caller-supplied updated state, and
// the claimant's Claim leaf records which version it was recorded
// against (VersionedClaimInfo), matching src/smt/transfer_update.rs.
func (d *Deps) TransferUpdate(ctx context.Context, req TransferUpdateRequest) (Result, error) {
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

	var claimKeys []smt.Hash
	var claimInfos []codec.VersionedClaimInfo
	var withdrawalKeys, withdrawalValues []smt.Hash
	var claimantTouched, senderTouched []smt.Pair

	for _, item := range req.Items {
		version, configure, _, _, err := d.Source.CurrentWithdrawal(item.CotaID, item.TokenIndex, item.OutPoint)
		if err != nil {
			return Result{}, err
		}

		oldKey := withdrawKeyForVersion(version, item.CotaID, item.TokenIndex, item.OutPoint)
		if senderTree.Get(oldKey).IsZero() {
			return Result{}, aggerr.NotWithdrawn()
		}
		senderTree.Update(oldKey, smt.Hash{})
		senderTouched = append(senderTouched, smt.Pair{Key: oldKey, Value: smt.Hash{}})

		recipientHash := smt.AccountID(item.ToLockScript)
		newKey := keys.WithdrawKeyV1(item.CotaID, item.TokenIndex, req.TransferOutPoint)
		newValue := keys.WithdrawValueV1(configure, item.State, item.Characteristic, recipientHash)
		senderTree.Update(newKey, newValue)
		senderTouched = append(senderTouched, smt.Pair{Key: newKey, Value: newValue})
		withdrawalKeys = append(withdrawalKeys, newKey)
		withdrawalValues = append(withdrawalValues, newValue)

		ck := keys.ClaimKey(item.CotaID, item.TokenIndex, item.OutPoint)
		cv := keys.ClaimValueForVersion(version)
		claimantTree.Update(ck, cv)
		claimantTouched = append(claimantTouched, smt.Pair{Key: ck, Value: cv})
		claimKeys = append(claimKeys, ck)
		claimInfos = append(claimInfos, codec.VersionedClaimInfo{
			Info:    codec.ClaimInfo{Configure: configure, State: item.State, Characteristic: item.Characteristic},
			Version: version,
		})
	}

	claimantRoot, _, err := d.commitTwo(claimant, claimantTree, claimantTouched, sender, senderTree, senderTouched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(claimantTree, claimKeys)
	withdrawalProof := compileProof(senderTree, keysOf(senderTouched))

	entry := codec.EncodeTransferUpdateEntries(codec.TransferUpdateEntries{
		ClaimKeys:        claimKeys,
		ClaimInfos:       claimInfos,
		WithdrawalKeys:   withdrawalKeys,
		WithdrawalValues: withdrawalValues,
		Proof:            proof,
		WithdrawalProof:  withdrawalProof,
		Action:           codec.CountAction("Transfer ", uint32(len(req.Items)), " NFTs"),
	})

	return Result{Root: claimantRoot, Entry: entry, BlockNumber: blockNumber}, nil
}
