package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
)

// API implements the cota-aggregator JSON-RPC methods (spec.md §6).
type API struct {
	deps *builder.Deps
}

// NewAPI creates an API bound to the given builder dependencies.
func NewAPI(deps *builder.Deps) *API {
	return &API{deps: deps}
}

// HandleRequest dispatches a single JSON-RPC request to the matching
// method.
func (api *API) HandleRequest(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "generate_define_cota_smt":
		return api.define(ctx, req)
	case "generate_mint_cota_smt":
		return api.mint(ctx, req)
	case "generate_withdrawal_cota_smt":
		return api.withdraw(ctx, req)
	case "generate_claim_cota_smt":
		return api.claim(ctx, req)
	case "generate_update_cota_smt":
		return api.update(ctx, req)
	case "generate_transfer_cota_smt":
		return api.transfer(ctx, req)
	case "generate_claim_update_cota_smt":
		return api.claimUpdate(ctx, req)
	case "generate_transfer_update_cota_smt":
		return api.transferUpdate(ctx, req)
	case "generate_extension_cota_smt":
		return api.extension(ctx, req)
	case "get_hold_cota":
		return api.getHoldCota(ctx, req)
	case "get_withdrawal_cota":
		return api.getWithdrawalCota(ctx, req)
	case "get_mint_cota":
		return api.getMintCota(ctx, req)
	case "check_cota_claimed":
		return api.checkCotaClaimed(ctx, req)
	default:
		return errorResponse(req.ID, errCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// paramsObject unmarshals the request's single params object into v.
// A field whose JSON value doesn't match v's declared type (e.g. a
// JSON number sent for a hex-string field) surfaces as a
// RequestParamTypeError naming that field, rather than a generic
// error, by reading the field name json.Unmarshal already reports on
// a *json.UnmarshalTypeError.
func paramsObject(req *Request, v interface{}) error {
	if len(req.Params) == 0 {
		return aggerr.Other("missing params object")
	}
	if err := json.Unmarshal(req.Params[0], v); err != nil {
		if terr, ok := err.(*json.UnmarshalTypeError); ok && terr.Field != "" {
			return aggerr.ParamTypeError(terr.Field)
		}
		return aggerr.Other("params must be a JSON object: " + err.Error())
	}
	return nil
}

// toResponse maps a builder.Result (or any aggerr-typed error) onto a
// JSON-RPC response.
func toResponse(id json.RawMessage, res builder.Result, err error) *Response {
	if err != nil {
		return errToResponse(id, err)
	}
	return successResponse(id, smtResult{
		SMTRoot:     encodeHexHash(res.Root),
		SMTEntry:    encodeHexBytes(res.Entry),
		BlockNumber: res.BlockNumber,
	})
}

// errToResponse maps an error onto a JSON-RPC error response, using
// the aggerr code when the error is one of ours.
func errToResponse(id json.RawMessage, err error) *Response {
	if aerr, ok := err.(*aggerr.Error); ok {
		return errorResponse(id, aerr.Code(), aerr.Error())
	}
	return errorResponse(id, errCodeInvalidRequest, err.Error())
}
