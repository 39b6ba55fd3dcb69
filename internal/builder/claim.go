package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// ClaimItem names one NFT a prior withdrawal made available to claim.
type ClaimItem struct {
	CotaID     keys.CotaID
	TokenIndex keys.TokenIndex
	OutPoint   keys.OutPoint
}

// ClaimRequest settles N withdrawn NFTs into the claimant's Hold leaf
// space, zeroing the matching Withdraw leaves in the sender's tree
// (spec.md §4.4 "Claim").
type ClaimRequest struct {
	LockScript           []byte // claimant
	WithdrawalLockScript []byte // original withdrawer
	Claims               []ClaimItem
}

// Claim moves each NFT from the sender's Withdraw leaf to the
// claimant's Hold leaf, and records an append-only Claim leaf in the
// claimant's tree. Both trees are mutated under a single two-account
// lock and committed in one atomic batch.
func (d *Deps) Claim(ctx context.Context, req ClaimRequest) (Result, error) {
	if len(req.Claims) == 0 {
		return Result{}, aggerr.ParamNotFound("claims")
	}

	claimant := smt.AccountID(req.LockScript)
	sender := smt.AccountID(req.WithdrawalLockScript)

	claimantTree, senderTree, blockNumber, unlock, err := d.prepareTwo(ctx, claimant, sender)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	var holdKeys, holdValues, claimKeys, claimValues []smt.Hash
	var claimantTouched, senderTouched []smt.Pair

	for _, c := range req.Claims {
		version, configure, state, characteristic, err := d.Source.CurrentWithdrawal(c.CotaID, c.TokenIndex, c.OutPoint)
		if err != nil {
			return Result{}, err
		}

		wk := withdrawKeyForVersion(version, c.CotaID, c.TokenIndex, c.OutPoint)
		if senderTree.Get(wk).IsZero() {
			return Result{}, aggerr.NotWithdrawn()
		}
		senderTree.Update(wk, smt.Hash{})
		senderTouched = append(senderTouched, smt.Pair{Key: wk, Value: smt.Hash{}})

		hk := keys.HoldKey(c.CotaID, c.TokenIndex)
		hv := keys.HoldValue(configure, state, characteristic)
		claimantTree.Update(hk, hv)
		claimantTouched = append(claimantTouched, smt.Pair{Key: hk, Value: hv})
		holdKeys = append(holdKeys, hk)
		holdValues = append(holdValues, hv)

		ck := keys.ClaimKey(c.CotaID, c.TokenIndex, c.OutPoint)
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

	proof := compileProof(claimantTree, append(append([]smt.Hash{}, holdKeys...), claimKeys...))
	withdrawalProof := compileProof(senderTree, keysOf(senderTouched))

	entry := codec.EncodeClaimEntries(codec.ClaimEntries{
		HoldKeys:        holdKeys,
		HoldValues:      holdValues,
		ClaimKeys:       claimKeys,
		ClaimValues:     claimValues,
		Proof:           proof,
		WithdrawalProof: withdrawalProof,
		Action:          codec.CountAction("Claim ", uint32(len(req.Claims)), " NFTs"),
	})

	return Result{Root: claimantRoot, Entry: entry, BlockNumber: blockNumber}, nil
}

// withdrawKeyForVersion derives the Withdraw leaf key under whichever
// version the withdrawal was originally recorded under -- v0 is still
// readable for historical reconciliation even though only v1 is
// written by new operations (spec.md §9).
func withdrawKeyForVersion(version uint8, cotaID keys.CotaID, index keys.TokenIndex, outPoint keys.OutPoint) smt.Hash {
	if version == 0 {
		return keys.WithdrawKeyV0(cotaID, index)
	}
	return keys.WithdrawKeyV1(cotaID, index, outPoint)
}
