package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type mintWithdrawalParams struct {
	TokenIndex     string `json:"token_index"`
	Configure      string `json:"configure"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
	ToLockScript   string `json:"to_lock_script"`
}

type mintParams struct {
	LockScript  string                 `json:"lock_script"`
	CotaID      string                 `json:"cota_id"`
	OutPoint    string                 `json:"out_point"`
	Withdrawals []mintWithdrawalParams `json:"withdrawals"`
}

func (api *API) mint(ctx context.Context, req *Request) *Response {
	var p mintParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.Withdrawals) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("withdrawals"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	cotaID, err := decodeCotaID("cota_id", p.CotaID)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	outPoint, err := decodeOutPoint("out_point", p.OutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	withdrawals := make([]builder.MintWithdrawal, 0, len(p.Withdrawals))
	for i, w := range p.Withdrawals {
		idx, err := decodeTokenIndex(fmt.Sprintf("withdrawals[%d].token_index", i), w.TokenIndex)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		configure, err := decodeByte(fmt.Sprintf("withdrawals[%d].configure", i), w.Configure)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		state, err := decodeByte(fmt.Sprintf("withdrawals[%d].state", i), w.State)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		characteristic, err := decodeCharacteristic(fmt.Sprintf("withdrawals[%d].characteristic", i), w.Characteristic)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		toLockScript, err := decodeLockScript(fmt.Sprintf("withdrawals[%d].to_lock_script", i), w.ToLockScript)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		withdrawals = append(withdrawals, builder.MintWithdrawal{
			TokenIndex:     idx,
			Configure:      configure,
			State:          state,
			Characteristic: characteristic,
			ToLockScript:   toLockScript,
		})
	}

	res, err := api.deps.Mint(ctx, builder.MintRequest{
		LockScript:  lockScript,
		CotaID:      cotaID,
		OutPoint:    outPoint,
		Withdrawals: withdrawals,
	})
	return toResponse(req.ID, res, err)
}
