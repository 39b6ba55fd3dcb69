package rpcserver

import (
	"context"

	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type defineParams struct {
	LockScript string `json:"lock_script"`
	CotaID     string `json:"cota_id"`
	Total      string `json:"total"`
	Configure  string `json:"configure"`
}

func (api *API) define(ctx context.Context, req *Request) *Response {
	var p defineParams
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
	total, err := decodeUint32("total", p.Total)
	if err != nil {
		return errToResponse(req.ID, err)
	}
	var configure byte
	if p.Configure != "" {
		configure, err = decodeByte("configure", p.Configure)
		if err != nil {
			return errToResponse(req.ID, err)
		}
	}

	res, err := api.deps.Define(ctx, builder.DefineRequest{
		LockScript: lockScript,
		CotaID:     cotaID,
		Total:      total,
		Configure:  configure,
	})
	return toResponse(req.ID, res, err)
}
