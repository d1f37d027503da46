package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/scopes"
)

// RegisterApplication registers a client application. The response is the only place the
// generated secret is shown.
func (s *Server) RegisterApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg clients.Registration
		if !decodeJSONBody(w, r, &reg) {
			return
		}

		creds, err := s.auth.Clients().IssueClientCredentials(r.Context(), &reg)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, creds)
	}
}

func (s *Server) ListApplications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.auth.Clients().List(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}

		apps := make([]*oauth2.ApplicationInfo, 0, len(list))
		for _, creds := range list {
			apps = append(apps, auth.ApplicationInfoOf(creds))
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func (s *Server) GetApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := s.auth.GetApplicationInfo(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if info == nil {
			writeJSONError(w, oauthmodel.CodeInvalidRequest, oauthmodel.ErrClientDoesNotExist.Description, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func (s *Server) UpdateApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd clients.Update
		if !decodeJSONBody(w, r, &upd) {
			return
		}

		creds, err := s.auth.Clients().UpdateClientCredentials(r.Context(), r.PathValue("id"), &upd)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, auth.ApplicationInfoOf(creds))
	}
}

func (s *Server) DeleteApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Clients().DeleteClientCredentials(r.Context(), r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) CreateScope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scope scopes.Scope
		if !decodeJSONBody(w, r, &scope) {
			return
		}

		err := s.auth.Scopes().Register(r.Context(), &scope)
		switch {
		case errors.Is(err, scopes.ErrScopeExists), errors.Is(err, scopes.ErrInvalidScopeName), errors.Is(err, scopes.ErrNegativeExpiresIn):
			writeJSONError(w, oauthmodel.CodeInvalidRequest, err.Error(), http.StatusBadRequest)
		case err != nil:
			s.writeError(w, err)
		default:
			writeJSON(w, http.StatusCreated, scope)
		}
	}
}

func (s *Server) ListScopes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.auth.Scopes().List(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if list == nil {
			list = []*scopes.Scope{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetScope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := s.auth.Scopes().Get(r.Context(), r.PathValue("name"))
		if apperrors.IsNotFound(err) {
			writeJSONError(w, oauthmodel.CodeInvalidScope, oauthmodel.ErrScopeDoesNotExist.Description, http.StatusNotFound)
			return
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scope)
	}
}

// decodeJSONBody writes a 400 and returns false when the body is not a single JSON object.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSONError(w, oauthmodel.CodeInvalidRequest, "malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}
