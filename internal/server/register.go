package server

import (
	"encoding/json"
	"net/http"

	"github.com/ryzeagent/adsmcp/internal/logging"
	"github.com/ryzeagent/adsmcp/internal/userstore"
)

// registerRequest is the body for POST /register. A refresh token is
// optional: a user may register first and delegate credentials later, or
// point at a secret that already holds the token.
type registerRequest struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	SecretName   string `json:"secret_name,omitempty"`
}

type registerResponse struct {
	Status     string `json:"status"`
	UserID     string `json:"user_id"`
	SecretName string `json:"secret_name,omitempty"`
}

// handleRegister registers a user with the server. It upserts the user row
// and, when a refresh token is supplied and Secret Manager is configured,
// stores the token there so later tool calls can resolve it by reference.
func (s *OAuthHTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	sc := s.serverContext
	logger := sc.Logger()
	ctx := r.Context()

	resp := registerResponse{Status: "registered", UserID: req.UserID, SecretName: req.SecretName}

	// Delegate the refresh token to Secret Manager when available. Failure
	// here is fatal for the request: registering a token that then cannot
	// be resolved would fail every later tool call.
	if req.RefreshToken != "" && sc.SecretWriter() != nil {
		version, err := sc.SecretWriter().StoreUserRefreshToken(ctx, req.UserID, req.RefreshToken)
		if err != nil {
			logger.Error("failed to store refresh token",
				logging.UserHash(req.UserID),
				logging.Err(err))
			http.Error(w, "Failed to store refresh token", http.StatusInternalServerError)
			return
		}
		resp.SecretName = version
	}

	if sc.UserStore() == nil {
		http.Error(w, "User registration requires persistent storage", http.StatusServiceUnavailable)
		return
	}

	user := userstore.User{
		ID:           req.UserID,
		Email:        req.Email,
		Name:         req.Name,
		RefreshToken: req.RefreshToken,
	}
	if err := sc.UserStore().Save(ctx, user); err != nil {
		logger.Error("failed to register user",
			logging.UserHash(req.UserID),
			logging.Err(err))
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	logger.Info("registered user",
		logging.UserHash(req.UserID),
		logging.Domain(req.Email))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
