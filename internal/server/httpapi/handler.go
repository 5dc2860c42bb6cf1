package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkarlovs/uservault/internal/common"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type preferencesRequest struct {
	Preferences map[string]any `json:"preferences"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	user, err := s.users.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(ctx, "user registered", "user_id", user.Email)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	token, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(ctx, "user logged in", "user_id", req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := s.users.Logout(r.Context(), user.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSelf(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorInvalidArgument)
		return
	}

	// An absent preferences field decodes to a nil map, which the service
	// rejects with InvalidArgument.
	if err := s.users.UpdatePreferences(r.Context(), user.Email, req.Preferences); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSelf(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := s.users.DeleteUser(r.Context(), user.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user deleted", "user_id", user.Email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError translates the error taxonomy into a status code and a small
// JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrorDuplicateKey), errors.Is(err, common.ErrorTokenCollision):
		status = http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
