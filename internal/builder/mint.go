package builder

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/codec"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// MintWithdrawal is one NFT minted directly into a withdrawn state
// (mint always produces a Withdraw v1 leaf rather than a Hold leaf,
// matching the source's "mint straight to an initial recipient" flow).
type MintWithdrawal struct {
	TokenIndex     keys.TokenIndex
	Configure      byte
	State          byte
	Characteristic [20]byte
	ToLockScript   []byte
}

// MintRequest mints N new NFTs under an existing cota_id (spec.md
// §4.4 "Mint").
type MintRequest struct {
	LockScript  []byte
	CotaID      keys.CotaID
	OutPoint    keys.OutPoint
	Withdrawals []MintWithdrawal
}

// Mint creates one Withdraw v1 leaf per withdrawal and advances the
// cota_id's Define leaf's issued counter by the batch size.
func (d *Deps) Mint(ctx context.Context, req MintRequest) (Result, error) {
	if len(req.Withdrawals) == 0 {
		return Result{}, aggerr.ParamNotFound("withdrawals")
	}

	acc := smt.AccountID(req.LockScript)
	tree, blockNumber, unlock, err := d.prepare(ctx, acc)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	defineKey := keys.DefineKey(req.CotaID)
	if tree.Get(defineKey).IsZero() {
		return Result{}, aggerr.DefineNotExist()
	}
	totalSupply, issued, configure, err := d.Source.CurrentDefine(req.CotaID)
	if err != nil {
		return Result{}, err
	}

	n := uint32(len(req.Withdrawals))
	if issued+n > totalSupply {
		return Result{}, aggerr.IssuedOverflow()
	}

	withdrawKeys := make([]smt.Hash, 0, n)
	withdrawValues := make([]smt.Hash, 0, n)
	touched := make([]smt.Pair, 0, n+1)
	for _, w := range req.Withdrawals {
		wk := keys.WithdrawKeyV1(req.CotaID, w.TokenIndex, req.OutPoint)
		recipientHash := smt.AccountID(w.ToLockScript)
		wv := keys.WithdrawValueV1(w.Configure, w.State, w.Characteristic, recipientHash)
		tree.Update(wk, wv)
		touched = append(touched, smt.Pair{Key: wk, Value: wv})
		withdrawKeys = append(withdrawKeys, wk)
		withdrawValues = append(withdrawValues, wv)
	}

	newDefineValue := keys.DefineValue(totalSupply, issued+n, configure)
	tree.Update(defineKey, newDefineValue)
	touched = append(touched, smt.Pair{Key: defineKey, Value: newDefineValue})

	root, err := d.commit(acc, tree, touched)
	if err != nil {
		return Result{}, err
	}

	proofKeys := append(append([]smt.Hash{}, withdrawKeys...), defineKey)
	proof := compileProof(tree, proofKeys)

	entry := codec.EncodeMintEntries(codec.MintEntries{
		WithdrawalKeys:   withdrawKeys,
		WithdrawalValues: withdrawValues,
		DefineKey:        defineKey,
		DefineValue:      newDefineValue,
		Proof:            proof,
		Action:           codec.CountAction("Mint ", n, " NFTs"),
	})

	return Result{Root: root, Entry: entry, BlockNumber: blockNumber}, nil
}
