package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jerryzhao173985/ccr/internal/router"
	"github.com/jerryzhao173985/ccr/internal/types"
)

// routeResponse is the body returned by POST /v1/route: the decision plus
// the normalized request the surrounding proxy should forward upstream.
type routeResponse struct {
	Provider string               `json:"provider"`
	Model    string               `json:"model"`
	Source   types.DecisionSource `json:"source"`
	Request  *types.Request       `json:"request"`
}

// errorResponse is the structured error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
		return
	}

	var req types.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "messages must not be empty")
		return
	}

	decision, err := s.Pipeline.Process(r.Context(), &req, s.RouterCfg)
	if err != nil {
		var missing *router.MissingRouteError
		if errors.As(err, &missing) {
			writeError(w, http.StatusNotFound, "missing_route_error", missing.Error())
			return
		}
		if r.Context().Err() != nil {
			// Client went away; there is nobody to answer.
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, routeResponse{
		Provider: decision.Provider,
		Model:    decision.Model,
		Source:   decision.Source,
		Request:  &req,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Type: errType, Message: msg}})
}
