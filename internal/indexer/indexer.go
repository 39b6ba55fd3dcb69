// Package indexer talks to the external on-chain indexer that the
// Root Reconciler treats as ground truth: given an account, it reports
// the current canonical SMT root and the block number it was observed
// at. Per spec.md §1, this collaborator is deliberately thin -- no
// retry policy, no circuit breaker, no caching -- since it sits
// entirely outside the aggregator's own engineering surface.
package indexer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// RootFetcher reports the canonical on-chain SMT root for an account,
// as of some block height. Builders call GetRoot once per operation,
// at step 3 of the shared builder skeleton (spec.md §4.4), before
// reconciling local state against it.
type RootFetcher interface {
	GetRoot(ctx context.Context, account smt.Hash) (root smt.Hash, blockNumber uint64, err error)
}

// HTTPClient is a RootFetcher backed by a JSON-RPC 2.0 HTTP endpoint,
// the same wire protocol the aggregator itself exposes (spec.md §6).
type HTTPClient struct {
	url        string
	httpClient *http.Client
}

// NewHTTPClient builds an indexer client against the given base URL
// (e.g. "http://127.0.0.1:8116").
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{url: url, httpClient: http.DefaultClient}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type getRootResult struct {
	SMTRootHash string `json:"smt_root_hash"`
	BlockNumber string `json:"block_number"`
}

type rpcResponse struct {
	Result *getRootResult `json:"result"`
	Error  *rpcError      `json:"error"`
}

// GetRoot fetches the indexer's current view of an account's SMT root
// over the "get_smt_root" JSON-RPC method.
func (c *HTTPClient) GetRoot(ctx context.Context, account smt.Hash) (smt.Hash, uint64, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "get_smt_root",
		Params:  []any{"0x" + hex.EncodeToString(account[:])},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}
	if rpcResp.Error != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(fmt.Errorf("indexer: %s", rpcResp.Error.Message))
	}
	if rpcResp.Result == nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(fmt.Errorf("indexer: empty result"))
	}

	root, err := decodeHexHash(rpcResp.Result.SMTRootHash)
	if err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}
	var blockNumber uint64
	if _, err := fmt.Sscanf(rpcResp.Result.BlockNumber, "%d", &blockNumber); err != nil {
		return smt.Hash{}, 0, aggerr.IndexerRPC(err)
	}
	return root, blockNumber, nil
}

func decodeHexHash(s string) (smt.Hash, error) {
	s = trimHexPrefix(s)
	if s == "" {
		return smt.Hash{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return smt.Hash{}, err
	}
	return smt.BytesToHash(b), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
