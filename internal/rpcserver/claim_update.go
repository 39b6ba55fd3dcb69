package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type claimUpdateItemParams struct {
	CotaID         string `json:"cota_id"`
	TokenIndex     string `json:"token_index"`
	OutPoint       string `json:"out_point"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
}

type claimUpdateParams struct {
	LockScript           string                  `json:"lock_script"`
	WithdrawalLockScript string                  `json:"withdrawal_lock_script"`
	NFTs                 []claimUpdateItemParams `json:"nfts"`
}

func (api *API) claimUpdate(ctx context.Context, req *Request) *Response {
	var p claimUpdateParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.NFTs) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("nfts"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	withdrawalLockScript, err := decodeLockScript("withdrawal_lock_script", p.WithdrawalLockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.ClaimUpdateItem, 0, len(p.NFTs))
	for i, n := range p.NFTs {
		cotaID, err := decodeCotaID(fmt.Sprintf("nfts[%d].cota_id", i), n.CotaID)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		idx, err := decodeTokenIndex(fmt.Sprintf("nfts[%d].token_index", i), n.TokenIndex)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		outPoint, err := decodeOutPoint(fmt.Sprintf("nfts[%d].out_point", i), n.OutPoint)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		state, err := decodeByte(fmt.Sprintf("nfts[%d].state", i), n.State)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		characteristic, err := decodeCharacteristic(fmt.Sprintf("nfts[%d].characteristic", i), n.Characteristic)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.ClaimUpdateItem{
			CotaID:         cotaID,
			TokenIndex:     idx,
			OutPoint:       outPoint,
			State:          state,
			Characteristic: characteristic,
		})
	}

	res, err := api.deps.ClaimUpdate(ctx, builder.ClaimUpdateRequest{
		LockScript:           lockScript,
		WithdrawalLockScript: withdrawalLockScript,
		Items:                items,
	})
	return toResponse(req.ID, res, err)
}
