package rpcserver

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// Auxiliary read-only endpoints (spec.md §1: "auxiliary read-only
// endpoints ... these surround the core but contain no hard
// engineering"). The hold, withdrawal and mint queries each load the
// account's current leaf set from the history store, rebuild an
// ephemeral tree to compile a proof, and return the plaintext fields
// from the external Source alongside it. check_cota_claimed only scans
// the stored leaf set for the Claim leaf and returns no proof.

type holdQueryParams struct {
	LockScript string `json:"lock_script"`
	CotaID     string `json:"cota_id"`
	TokenIndex string `json:"token_index"`
}

type holdQueryResult struct {
	Configure      string `json:"configure"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
	SMTRoot        string `json:"smt_root_hash"`
	Proof          string `json:"cota_nft_smt_proof"`
}

func (api *API) getHoldCota(ctx context.Context, req *Request) *Response {
	var p holdQueryParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	cotaID, err := decodeCotaID("cota_id", p.CotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	tokenIndex, err := decodeTokenIndex("token_index", p.TokenIndex)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	configure, state, characteristic, err := api.deps.Source.CurrentHold(cotaID, tokenIndex)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	account := smt.AccountID(lockScript)
	root, proof, err := api.proveLeaf(account, keys.HoldKey(cotaID, tokenIndex))
	if err != nil {
		return errToResponse(req.ID, err)
	}

	return successResponse(req.ID, holdQueryResult{
		Configure:      encodeHexBytes([]byte{configure}),
		State:          encodeHexBytes([]byte{state}),
		Characteristic: encodeHexBytes(characteristic[:]),
		SMTRoot:        encodeHexHash(root),
		Proof:          encodeHexBytes(proof),
	})
}

type withdrawalQueryParams struct {
	LockScript string `json:"lock_script"`
	CotaID     string `json:"cota_id"`
	TokenIndex string `json:"token_index"`
	OutPoint   string `json:"out_point"`
}

type withdrawalQueryResult struct {
	Version        string `json:"version"`
	Configure      string `json:"configure"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
	SMTRoot        string `json:"smt_root_hash"`
	Proof          string `json:"cota_nft_smt_proof"`
}

func (api *API) getWithdrawalCota(ctx context.Context, req *Request) *Response {
	var p withdrawalQueryParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	cotaID, err := decodeCotaID("cota_id", p.CotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	tokenIndex, err := decodeTokenIndex("token_index", p.TokenIndex)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	outPoint, err := decodeOutPoint("out_point", p.OutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	version, configure, state, characteristic, err := api.deps.Source.CurrentWithdrawal(cotaID, tokenIndex, outPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	account := smt.AccountID(lockScript)
	var leafKey smt.Hash
	if version == 0 {
		leafKey = keys.WithdrawKeyV0(cotaID, tokenIndex)
	} else {
		leafKey = keys.WithdrawKeyV1(cotaID, tokenIndex, outPoint)
	}
	root, proof, err := api.proveLeaf(account, leafKey)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	return successResponse(req.ID, withdrawalQueryResult{
		Version:        encodeHexBytes([]byte{version}),
		Configure:      encodeHexBytes([]byte{configure}),
		State:          encodeHexBytes([]byte{state}),
		Characteristic: encodeHexBytes(characteristic[:]),
		SMTRoot:        encodeHexHash(root),
		Proof:          encodeHexBytes(proof),
	})
}

type mintQueryParams struct {
	LockScript string `json:"lock_script"`
	CotaID     string `json:"cota_id"`
}

type mintQueryResult struct {
	TotalSupply string `json:"total_supply"`
	Issued      string `json:"issued"`
	Configure   string `json:"configure"`
	SMTRoot     string `json:"smt_root_hash"`
	Proof       string `json:"cota_nft_smt_proof"`
}

func (api *API) getMintCota(ctx context.Context, req *Request) *Response {
	var p mintQueryParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	cotaID, err := decodeCotaID("cota_id", p.CotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	totalSupply, issued, configure, err := api.deps.Source.CurrentDefine(cotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	account := smt.AccountID(lockScript)
	root, proof, err := api.proveLeaf(account, keys.DefineKey(cotaID))
	if err != nil {
		return errToResponse(req.ID, err)
	}

	return successResponse(req.ID, mintQueryResult{
		TotalSupply: encodeHexU32(totalSupply),
		Issued:      encodeHexU32(issued),
		Configure:   encodeHexBytes([]byte{configure}),
		SMTRoot:     encodeHexHash(root),
		Proof:       encodeHexBytes(proof),
	})
}

type claimedQueryParams struct {
	LockScript string `json:"lock_script"`
	CotaID     string `json:"cota_id"`
	TokenIndex string `json:"token_index"`
	OutPoint   string `json:"out_point"`
}

type claimedQueryResult struct {
	Claimed bool `json:"claimed"`
}

func (api *API) checkCotaClaimed(ctx context.Context, req *Request) *Response {
	var p claimedQueryParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	cotaID, err := decodeCotaID("cota_id", p.CotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	tokenIndex, err := decodeTokenIndex("token_index", p.TokenIndex)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	outPoint, err := decodeOutPoint("out_point", p.OutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	account := smt.AccountID(lockScript)
	leaves, err := api.deps.Store.Leaves(account)
	if err != nil {
		return errToResponse(req.ID, aggerr.DatabaseQuery(err))
	}
	claimKey := keys.ClaimKey(cotaID, tokenIndex, outPoint)
	claimed := false
	for _, p := range leaves {
		if p.Key == claimKey && !p.Value.IsZero() {
			claimed = true
			break
		}
	}

	return successResponse(req.ID, claimedQueryResult{Claimed: claimed})
}

// proveLeaf rebuilds an ephemeral tree from the account's stored
// leaves and compiles a single-leaf membership proof against it.
func (api *API) proveLeaf(account, leafKey smt.Hash) (smt.Hash, []byte, error) {
	leaves, err := api.deps.Store.Leaves(account)
	if err != nil {
		return smt.Hash{}, nil, aggerr.DatabaseQuery(err)
	}
	tree := smt.NewTree()
	tree.UpdateAll(leaves)
	proof := tree.MerkleProof([]smt.Hash{leafKey}).Compile().Encode()
	return tree.Root(), proof, nil
}

func encodeHexU32(n uint32) string {
	return encodeHexBytes([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}
