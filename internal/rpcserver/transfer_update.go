package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type transferUpdateItemParams struct {
	CotaID         string `json:"cota_id"`
	TokenIndex     string `json:"token_index"`
	OutPoint       string `json:"out_point"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
	ToLockScript   string `json:"to_lock_script"`
}

type transferUpdateParams struct {
	LockScript           string                     `json:"lock_script"`
	WithdrawalLockScript string                     `json:"withdrawal_lock_script"`
	TransferOutPoint     string                     `json:"transfer_out_point"`
	NFTs                 []transferUpdateItemParams `json:"nfts"`
}

func (api *API) transferUpdate(ctx context.Context, req *Request) *Response {
	var p transferUpdateParams
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
	transferOutPoint, err := decodeOutPoint("transfer_out_point", p.TransferOutPoint)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.TransferUpdateItem, 0, len(p.NFTs))
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
		toLockScript, err := decodeLockScript(fmt.Sprintf("nfts[%d].to_lock_script", i), n.ToLockScript)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.TransferUpdateItem{
			CotaID:         cotaID,
			TokenIndex:     idx,
			OutPoint:       outPoint,
			State:          state,
			Characteristic: characteristic,
			ToLockScript:   toLockScript,
		})
	}

	res, err := api.deps.TransferUpdate(ctx, builder.TransferUpdateRequest{
		LockScript:           lockScript,
		WithdrawalLockScript: withdrawalLockScript,
		TransferOutPoint:     transferOutPoint,
		Items:                items,
	})
	return toResponse(req.ID, res, err)
}
