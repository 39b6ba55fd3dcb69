package rpcserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/account"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
	"github.com/xiaolou86/cota-aggregator/internal/history"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

// fakeIndexer reports the History Store's current root for every
// account (the empty root for an account never written), standing in
// for an indexer that has already seen every commit this server made.
type fakeIndexer struct {
	blockNumber uint64
	store       *history.Store
}

func (f *fakeIndexer) GetRoot(ctx context.Context, acc smt.Hash) (smt.Hash, uint64, error) {
	root, err := f.store.Root(acc)
	return root, f.blockNumber, err
}

// fakeSource answers every query with zero-valued records; enough for
// tests that only exercise request decoding, dispatch, and response
// encoding rather than specific plaintext values.
type fakeSource struct {
	totalSupply uint32
}

func (s *fakeSource) CurrentDefine(cotaID keys.CotaID) (uint32, uint32, byte, error) {
	return s.totalSupply, 0, 0, nil
}

func (s *fakeSource) CurrentHold(cotaID keys.CotaID, index keys.TokenIndex) (byte, byte, [20]byte, error) {
	return 0, 0, [20]byte{}, nil
}

func (s *fakeSource) CurrentWithdrawal(cotaID keys.CotaID, index keys.TokenIndex, outPoint keys.OutPoint) (uint8, byte, byte, [20]byte, error) {
	return 1, 0, 0, [20]byte{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := history.Open(t.TempDir())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	deps := &builder.Deps{
		Store:      store,
		Serializer: account.New(),
		Indexer:    &fakeIndexer{blockNumber: 42, store: store},
		Source:     &fakeSource{totalSupply: 100},
	}
	return NewServer(deps)
}

func postRPC(t *testing.T, url string, body string) Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

func TestDefineThenMintOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	defineBody := `{"jsonrpc":"2.0","method":"generate_define_cota_smt","params":[{
		"lock_script":"0x01010101",
		"cota_id":"0x1100000000000000000000000000000000000000",
		"total":"0x64",
		"configure":"0x00"
	}],"id":1}`
	resp := postRPC(t, ts.URL, defineBody)
	if resp.Error != nil {
		t.Fatalf("define RPC error: %+v", resp.Error)
	}

	mintBody := `{"jsonrpc":"2.0","method":"generate_mint_cota_smt","params":[{
		"lock_script":"0x01010101",
		"cota_id":"0x1100000000000000000000000000000000000000",
		"out_point":"0x010000000000000000000000000000000000000000000000000000000000000000000000",
		"withdrawals":[{
			"token_index":"0x00000000",
			"configure":"0x00",
			"state":"0x00",
			"characteristic":"0x2222222222222222222222222222222222222222",
			"to_lock_script":"0x02020202"
		}]
	}],"id":2}`
	resp = postRPC(t, ts.URL, mintBody)
	if resp.Error != nil {
		t.Fatalf("mint RPC error: %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result = %#v, want object", resp.Result)
	}
	if result["smt_root_hash"] == "" {
		t.Fatal("expected a non-empty smt_root_hash")
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postRPC(t, ts.URL, `{"jsonrpc":"2.0","method":"nonexistent_method","params":[],"id":1}`)
	if resp.Error == nil {
		t.Fatal("expected an error for an unknown method")
	}
	if resp.Error.Code != errCodeMethodNotFound {
		t.Fatalf("code = %d, want %d", resp.Error.Code, errCodeMethodNotFound)
	}
}

func TestMissingRequiredFieldReturnsParamNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postRPC(t, ts.URL, `{"jsonrpc":"2.0","method":"generate_define_cota_smt","params":[{
		"cota_id":"0x1100000000000000000000000000000000000000",
		"total":"0x64"
	}],"id":1}`)
	if resp.Error == nil {
		t.Fatal("expected a RequestParamNotFound error for a missing lock_script")
	}
}

func TestGetMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
