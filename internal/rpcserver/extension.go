package rpcserver

import (
	"context"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

type extensionItemParams struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type extensionParams struct {
	LockScript string                `json:"lock_script"`
	Extensions []extensionItemParams `json:"extensions"`
}

// extension dispatches the generic key/value write that backs
// out-of-band metadata (issuer info, joyid metadata). It isn't part
// of the core NFT lifecycle's generate_*_cota_smt family but shares
// their request/response envelope.
func (api *API) extension(ctx context.Context, req *Request) *Response {
	var p extensionParams
	if err := paramsObject(req, &p); err != nil {
		return errToResponse(req.ID, err)
	}
	if len(p.Extensions) == 0 {
		return errToResponse(req.ID, aggerr.ParamNotFound("extensions"))
	}

	lockScript, err := decodeLockScript("lock_script", p.LockScript)
	if err != nil {
		return errToResponse(req.ID, err)
	}

	items := make([]builder.ExtensionItem, 0, len(p.Extensions))
	for i, e := range p.Extensions {
		subkey, err := decodeLockScript(fmt.Sprintf("extensions[%d].key", i), e.Key)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		value, err := decodeLockScript(fmt.Sprintf("extensions[%d].value", i), e.Value)
		if err != nil {
			return errToResponse(req.ID, err)
		}
		items = append(items, builder.ExtensionItem{Subkey: subkey, Value: value})
	}

	res, err := api.deps.Extension(ctx, builder.ExtensionRequest{LockScript: lockScript, Items: items})
	return toResponse(req.ID, res, err)
}
