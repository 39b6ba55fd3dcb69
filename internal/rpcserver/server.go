package rpcserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/xiaolou86/cota-aggregator/internal/builder"
	"github.com/xiaolou86/cota-aggregator/internal/elog"
)

// Server is the JSON-RPC HTTP server that dispatches mutating and
// read-only cota methods to the Operation Builders.
type Server struct {
	api *API
	mux *http.ServeMux
	log *elog.Logger
}

// NewServer creates a Server bound to the given builder dependencies.
func NewServer(deps *builder.Deps) *Server {
	s := &Server{
		api: NewAPI(deps),
		mux: http.NewServeMux(),
		log: elog.Default().Module("rpcserver"),
	}
	s.mux.HandleFunc("/", s.handleRPC)
	return s
}

// Handler returns the HTTP handler for the server, suitable for
// passing to http.ListenAndServe or httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, errorResponse(nil, errCodeParse, "failed to read request body"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, errorResponse(nil, errCodeParse, "invalid JSON"))
		return
	}

	resp := s.api.HandleRequest(r.Context(), &req)
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		elog.Default().Module("rpcserver").Warn("failed to encode response", "err", err)
	}
}
