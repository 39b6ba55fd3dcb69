package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type updateItemParams struct {
	CotaID         string `json:"cota_id"`
	TokenIndex     string `json:"token_index"`
	State          string `json:"state"`
	Characteristic string `json:"characteristic"`
}

type updateParams struct {
	LockScript string             `json:"lock_script"`
	NFTs       []updateItemParams `json:"nfts"`
}

func (api *API) update(ctx context.Context, req *Request) *Response {
	var p updateParams
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

	items := make([]builder.UpdateItem, 0, len(p.NFTs))
	for i, n := range p.NFTs {
		cotaID, err := decodeCotaID(fmt.Sprintf("nfts[%d].cota_id", i), n.CotaID)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		idx, err := decodeTokenIndex(fmt.Sprintf("nfts[%d].token_index", i), n.TokenIndex)
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
		items = append(items, builder.UpdateItem{CotaID: cotaID, TokenIndex: idx, State: state, Characteristic: characteristic})
	}

	res, err := api.deps.Update(ctx, builder.UpdateRequest{LockScript: lockScript, Items: items})
	return toResponse(req.ID, res, err)
}
