package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

// tokenInfo is the body returned for a valid token, the refresh token is never exposed.
type tokenInfo struct {
	Token     string            `json:"token"`
	TokenType string            `json:"token_type"`
	ExpiresIn string            `json:"expires_in"`
	Scope     string            `json:"scope"`
	ClientID  string            `json:"client_id"`
	UserID    string            `json:"user_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Created   time.Time         `json:"created"`
}

// AuthCodes issues an authorization code and returns the redirect URI carrying it.
func (s *Server) AuthCodes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := oauthmodel.NewAuthorizationRequest(r.URL.Query())
		code, err := s.auth.IssueAuthorizationCode(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}

		redirectURI, err := auth.BuildRedirectURI(code)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"redirect_uri": redirectURI})
	}
}

// Token handles the token endpoint for every supported grant type.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauthmodel.CodeInvalidRequest, "malformed request body", http.StatusBadRequest)
			return
		}

		at, err := s.auth.IssueAccessToken(r.Context(), r.PostForm, r.Header.Get("Authorization"), r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		// RFC 6749 section 5.1
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, at.Response())
	}
}

// Revoke accepts a JSON or form encoded revocation request. Client credentials missing from
// the body are taken from a Basic Authorization header.
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req *oauthmodel.RevokeRequest
		if isJSON(r) {
			req = &oauthmodel.RevokeRequest{}
			if err := json.NewDecoder(r.Body).Decode(req); err != nil {
				writeJSONError(w, oauthmodel.CodeInvalidRequest, "malformed request body", http.StatusBadRequest)
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				writeJSONError(w, oauthmodel.CodeInvalidRequest, "malformed request body", http.StatusBadRequest)
				return
			}
			req = oauthmodel.NewRevokeRequest(r.PostForm)
		}
		if req.ClientID == "" {
			req.ClientID, req.ClientSecret = oauthmodel.ParseBasicAuthorization(r.Header.Get("Authorization"))
		}

		revoked, err := s.auth.RevokeToken(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
	}
}

// ValidateToken reports whether the token in the "token" query parameter may be used.
func (s *Server) ValidateToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := r.URL.Query().Get(oauthmodel.ParamToken)
		if value == "" {
			s.writeError(w, oauthmodel.MissingParameter(oauthmodel.ParamToken))
			return
		}

		at, err := s.auth.IsValidToken(r.Context(), value)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if at == nil {
			writeJSONError(w, oauthmodel.CodeInvalidToken, "token is invalid or expired", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, tokenInfo{
			Token:     at.Token,
			TokenType: at.Type,
			ExpiresIn: at.ExpiresIn,
			Scope:     at.Scope,
			ClientID:  at.ClientID,
			UserID:    at.UserID,
			Details:   at.Details,
			Created:   at.CreatedAt,
		})
	}
}

// Health reports whether the storage backend is reachable.
func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Ping(r.Context()); err != nil {
			log.Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeError writes a protocol error with its own status. Anything else is logged and
// reported as a server_error without detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if te, ok := oauthmodel.AsTokenError(err); ok {
		writeJSONError(w, te.Code, te.Description, te.Status)
		return
	}
	log.Err(err).Msg("request failed")
	writeJSONError(w, oauthmodel.CodeServerError, "internal server error", http.StatusInternalServerError)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(oauth2.ErrorResponse{Error: errorCode, ErrorDescription: description})
}
