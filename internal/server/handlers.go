package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/storyboard/pkg/config"
	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) research(w http.ResponseWriter, r *http.Request) {
	var req enrich.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.SearchResult(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) visualize(w http.ResponseWriter, r *http.Request) {
	var req enrich.VisualizeRequest
	if !decode(w, r, &req) {
		return
	}
	data, err := s.svc.Visualize(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	var req enrich.CompleteRequest
	if !decode(w, r, &req) {
		return
	}
	text, err := s.svc.Complete(r.Context(), req.Model, req.Prompt)
	writeText(w, text, err)
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	var req enrich.ExpandRequest
	if !decode(w, r, &req) {
		return
	}
	text, err := s.svc.Expand(r.Context(), req.Model, req.Concept)
	writeText(w, text, err)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var req enrich.ExportRequest
	if !decode(w, r, &req) {
		return
	}
	text, err := s.svc.Export(r.Context(), req.Report)
	writeText(w, text, err)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}
	st := s.svc.Reports()
	if st == nil {
		writeJSON(w, http.StatusOK, []*store.Report{})
		return
	}
	reps, err := st.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if reps == nil {
		reps = []*store.Report{}
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Reports()
	if st == nil {
		writeError(w, store.ErrNotFound)
		return
	}
	rep, err := st.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ===========================================================================
// Encoding helpers
// ===========================================================================

// decode reads a JSON body into v and validates it. On failure it writes
// a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body"))
		return false
	}
	if err := config.Struct(v); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, text string, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorBody{Error: errors.UserMessage(err), Code: code})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork, errors.ErrCodeInvalidConfig:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
