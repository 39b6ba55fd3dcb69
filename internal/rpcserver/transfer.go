package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type transferItemParams struct {
	CotaID       string `json:"cota_id"`
	TokenIndex   string `json:"token_index"`
	OutPoint     string `json:"out_point"`
	ToLockScript string `json:"to_lock_script"`
}

type transferParams struct {
	LockScript           string               `json:"lock_script"`
	WithdrawalLockScript string               `json:"withdrawal_lock_script"`
	TransferOutPoint     string               `json:"transfer_out_point"`
	Transfers            []transferItemParams `json:"transfers"`
}

func (api *API) transfer(ctx context.Context, req *Request) *Response {
	var p transferParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.Transfers) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("transfers"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	withdrawalLockScript, err := decodeLockScript("withdrawal_lock_script", p.WithdrawalLockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	transferOutPoint, err := decodeOutPoint("transfer_out_point", p.TransferOutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.TransferItem, 0, len(p.Transfers))
	for i, t := range p.Transfers {
		cotaID, err := decodeCotaID(fmt.Sprintf("transfers[%d].cota_id", i), t.CotaID)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		idx, err := decodeTokenIndex(fmt.Sprintf("transfers[%d].token_index", i), t.TokenIndex)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		outPoint, err := decodeOutPoint(fmt.Sprintf("transfers[%d].out_point", i), t.OutPoint)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		toLockScript, err := decodeLockScript(fmt.Sprintf("transfers[%d].to_lock_script", i), t.ToLockScript)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.TransferItem{CotaID: cotaID, TokenIndex: idx, OutPoint: outPoint, ToLockScript: toLockScript})
	}

	res, err := api.deps.Transfer(ctx, builder.TransferRequest{
		LockScript:           lockScript,
		WithdrawalLockScript: withdrawalLockScript,
		TransferOutPoint:     transferOutPoint,
		Transfers:            items,
	})
	return toResponse(req.ID, res, err)
}
