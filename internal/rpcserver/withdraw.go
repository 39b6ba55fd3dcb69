package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type withdrawItemParams struct {
	CotaID       string `json:"cota_id"`
	TokenIndex   string `json:"token_index"`
	ToLockScript string `json:"to_lock_script"`
}

type withdrawParams struct {
	LockScript string               `json:"lock_script"`
	OutPoint   string               `json:"out_point"`
	Withdraws  []withdrawItemParams `json:"withdrawals"`
}

func (api *API) withdraw(ctx context.Context, req *Request) *Response {
	var p withdrawParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.Withdraws) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("withdrawals"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	outPoint, err := decodeOutPoint("out_point", p.OutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.WithdrawItem, 0, len(p.Withdraws))
	for i, it := range p.Withdraws {
		cotaID, err := decodeCotaID(fmt.Sprintf("withdrawals[%d].cota_id", i), it.CotaID)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		idx, err := decodeTokenIndex(fmt.Sprintf("withdrawals[%d].token_index", i), it.TokenIndex)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		toLockScript, err := decodeLockScript(fmt.Sprintf("withdrawals[%d].to_lock_script", i), it.ToLockScript)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.WithdrawItem{CotaID: cotaID, TokenIndex: idx, ToLockScript: toLockScript})
	}

	res, err := api.deps.Withdraw(ctx, builder.WithdrawRequest{
		LockScript: lockScript,
		OutPoint:   outPoint,
		Items:      items,
	})
	return toResponse(req.ID, res, err)
}
