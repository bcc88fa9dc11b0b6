package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hazyhaar/uniqline/pkg/csvline"
	"github.com/hazyhaar/uniqline/pkg/dedup"
	"github.com/hazyhaar/uniqline/pkg/kit"
	"github.com/hazyhaar/uniqline/pkg/source"
)

// maxBodySize bounds a dedup request body.
const maxBodySize = 16 << 20

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// NewRouter returns an http.Handler with all uniqline API routes.
func NewRouter(eps *Endpoints) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps}

	mux.HandleFunc("GET /v1/dedup", methodNotAllowed)
	mux.HandleFunc("POST /v1/dedup", h.handleDedup)
	mux.HandleFunc("GET /v1/normalize/number/{value}", h.handleNormalize(eps.NormalizeNumber))
	mux.HandleFunc("GET /v1/normalize/date/{value...}", h.handleNormalize(eps.NormalizeDate))
	mux.HandleFunc("GET /v1/validate/{digits...}", h.handleValidate)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestContext(mux))
}

type handler struct {
	eps *Endpoints
}

// --- dedup ---

// httpDedupRequest takes either lines or a newline separated text.
// Options not present in the body keep their defaults.
type httpDedupRequest struct {
	Lines   []string      `json:"lines,omitempty"`
	Text    string        `json:"text,omitempty"`
	Options dedup.Options `json:"options"`
}

func (h *handler) handleDedup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	req := httpDedupRequest{Options: dedup.DefaultOptions()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	lines := req.Lines
	if lines == nil && req.Text != "" {
		var err error
		if lines, err = source.SplitLines(req.Text); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.eps.Dedup(r.Context(), &dedupReq{Lines: lines, Options: req.Options})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- normalize ---

func (h *handler) handleNormalize(ep kit.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := r.PathValue("value")
		if value == "" {
			writeError(w, http.StatusBadRequest, "missing value")
			return
		}
		resp, err := ep(r.Context(), &normalizeReq{Value: value})
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// --- validate ---

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	digits := r.PathValue("digits")
	if digits == "" {
		writeError(w, http.StatusBadRequest, "missing digits")
		return
	}
	resp, err := h.eps.Validate(r.Context(), &validateReq{Digits: digits})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status     string   `json:"status"`
	Algorithms []string `json:"algorithms"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	algs := []string{}
	for _, a := range []dedup.Algorithm{dedup.XXHash, dedup.SHA256, dedup.SHA512, dedup.BLAKE3} {
		algs = append(algs, a.String())
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Algorithms: algs})
}

// --- helpers ---

func statusFor(err error) int {
	switch {
	case errors.Is(err, dedup.ErrInvalidOptions), errors.Is(err, errNotIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, csvline.ErrRebuild):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestContext tags the request context with the HTTP transport and a
// request id, echoed back in the response.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, kit.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
