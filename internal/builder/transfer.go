package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// TransferItem reassigns a withdrawn-but-unclaimed NFT onward to a new
// recipient before the original claimant settles it.
type TransferItem struct {
	CotaID       keys.CotaID
	TokenIndex   keys.TokenIndex
	OutPoint     keys.OutPoint // the out_point the NFT is currently withdrawn under
	ToLockScript []byte        // the new recipient
}

// TransferRequest reassigns N in-flight withdrawals to new recipients
// under a freshly bound out_point, recording a Claim leaf for the
// original claimant's pass-through rather than settling a Hold leaf
// (spec.md §4.4 "Transfer").
type TransferRequest struct {
	LockScript           []byte // claimant (pass-through party)
	WithdrawalLockScript []byte // original withdrawer
	TransferOutPoint     keys.OutPoint
	Transfers            []TransferItem
}

// Transfer zeroes each NFT's current Withdraw leaf and replaces it
// with a new Withdraw v1 leaf bound to TransferOutPoint, while
// recording a Claim leaf for the claimant -- unlike Claim, no Hold
// leaf is created, since the NFT is still in transit.
func (d *Deps) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	if len(req.Transfers) == 0 {
		return Result{}, aggerr.ParamNotFound("transfers")
	}

	claimant := smt.AccountID(req.LockScript)
	sender := smt.AccountID(req.WithdrawalLockScript)

	claimantTree, senderTree, blockNumber, unlock, err := d.prepareTwo(ctx, claimant, sender)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	var claimKeys, claimValues, withdrawalKeys, withdrawalValues []smt.Hash
	var claimantTouched, senderTouched []smt.Pair

	for _, item := range req.Transfers {
		version, configure, state, characteristic, err := d.Source.CurrentWithdrawal(item.CotaID, item.TokenIndex, item.OutPoint)
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
		newValue := keys.WithdrawValueV1(configure, state, characteristic, recipientHash)
		senderTree.Update(newKey, newValue)
		senderTouched = append(senderTouched, smt.Pair{Key: newKey, Value: newValue})
		withdrawalKeys = append(withdrawalKeys, newKey)
		withdrawalValues = append(withdrawalValues, newValue)

		ck := keys.ClaimKey(item.CotaID, item.TokenIndex, item.OutPoint)
		cv := keys.ClaimValueForVersion(version)
		claimantTree.Update(ck, cv)
		claimantTouched = append(claimantTouched, smt.Pair{Key: ck, Value: cv})
		claimKeys = append(claimKeys, ck)
		claimValues = append(claimValues, cv)
	}

	claimantRoot, _, err := d.commitTwo(claimant, claimantTree, claimantTouched, sender, senderTree, senderTouched)
	if err != nil {
		return Result{}, err
	}

	proof := compileProof(claimantTree, claimKeys)
	withdrawalProof := compileProof(senderTree, keysOf(senderTouched))

	action := codec.CountAction("Transfer ", uint32(len(req.Transfers)), " NFTs")
	if len(req.Transfers) == 1 {
		t := req.Transfers[0]
		action = codec.SingleTransferAction(t.CotaID[:], t.TokenIndex[:], t.ToLockScript)
	}

	entry := codec.EncodeTransferEntries(codec.TransferEntries{
		ClaimKeys:        claimKeys,
		ClaimValues:      claimValues,
		WithdrawalKeys:   withdrawalKeys,
		WithdrawalValues: withdrawalValues,
		Proof:            proof,
		WithdrawalProof:  withdrawalProof,
		Action:           action,
	})

	return Result{Root: claimantRoot, Entry: entry, BlockNumber: blockNumber}, nil
}
