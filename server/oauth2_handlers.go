package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// maxTokenRequestBytes caps the form body read from a token request.
// Credentials, codes and assertion JWTs all fit comfortably in 64 KiB.
const maxTokenRequestBytes = 64 << 10

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Token exchanges credentials, codes or refresh tokens for tokens. The
// protocol work happens in the handler package; this shim adapts the wire
// request, copies the rendered response back and records metrics.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r.Body = http.MaxBytesReader(w, r.Body, maxTokenRequestBytes)

		req, err := oauth2.FromHTTPRequest(r)
		if err != nil {
			s.metrics.ObserveTokenRequest("none", resultError, time.Since(start))
			writeJSONError(w, "invalid_request", "failed to parse form body", http.StatusBadRequest)
			return
		}
		grantType := s.grantTypeLabel(req.Body.Get("grant_type"))

		resp := oauth2.NewResponse()
		if _, err := s.tokens.Handle(r.Context(), req, resp); err != nil {
			if oauthErr, ok := oauth2.AsError(err); ok && oauthErr.Status >= http.StatusInternalServerError {
				log.Err(err).Str("grant_type", grantType).Msg("token request failed")
			}
			s.metrics.ObserveTokenRequest(grantType, resultError, time.Since(start))
			writeResponse(w, resp)
			return
		}

		s.metrics.ObserveTokenRequest(grantType, resultSuccess, time.Since(start))
		writeResponse(w, resp)
	}
}

// Healthz reports process liveness.
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// grantTypeLabel clamps the grant_type metric label to the known set so
// arbitrary client input cannot grow the cardinality.
func (s *Server) grantTypeLabel(grantType string) string {
	if grantType == "" {
		return "none"
	}
	if _, ok := s.grantTypes[grantType]; ok {
		return grantType
	}
	return "other"
}

// writeResponse copies the rendered engine response onto the wire.
func writeResponse(w http.ResponseWriter, resp *oauth2.Response) {
	for key, values := range resp.Headers() {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	status := resp.Status()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body() != nil {
		_ = json.NewEncoder(w).Encode(resp.Body())
	}
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(oauth2.ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}
