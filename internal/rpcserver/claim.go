package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type claimItemParams struct {
	CotaID     string `json:"cota_id"`
	TokenIndex string `json:"token_index"`
	OutPoint   string `json:"out_point"`
}

type claimParams struct {
	LockScript           string            `json:"lock_script"`
	WithdrawalLockScript string            `json:"withdrawal_lock_script"`
	Claims               []claimItemParams `json:"claims"`
}

func (api *API) claim(ctx context.Context, req *Request) *Response {
	var p claimParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.Claims) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("claims"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	withdrawalLockScript, err := decodeLockScript("withdrawal_lock_script", p.WithdrawalLockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.ClaimItem, 0, len(p.Claims))
	for i, c := range p.Claims {
		cotaID, err := decodeCotaID(fmt.Sprintf("claims[%d].cota_id", i), c.CotaID)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		idx, err := decodeTokenIndex(fmt.Sprintf("claims[%d].token_index", i), c.TokenIndex)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		outPoint, err := decodeOutPoint(fmt.Sprintf("claims[%d].out_point", i), c.OutPoint)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.ClaimItem{CotaID: cotaID, TokenIndex: idx, OutPoint: outPoint})
	}

	res, err := api.deps.Claim(ctx, builder.ClaimRequest{
		LockScript:           lockScript,
		WithdrawalLockScript: withdrawalLockScript,
		Claims:               items,
	})
	return toResponse(req.ID, res, err)
}
