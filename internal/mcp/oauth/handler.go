package oauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ryzeagent/adsmcp/internal/logging"
)

// Handler is the OAuth resource-server gate: it validates Google Bearer
// tokens on the MCP endpoint, serves the protected-resource metadata, and
// revokes tokens. It never issues tokens of its own.
type Handler struct {
	config      *Config
	store       *Store
	rateLimiter *RateLimiter
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewHandler creates the gate. The resource URL must be HTTPS except for
// loopback addresses.
func NewHandler(config *Config) (*Handler, error) {
	if config.Resource == "" {
		return nil, fmt.Errorf("resource is required")
	}

	parsedURL, err := url.Parse(config.Resource)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URL: %w", err)
	}
	if parsedURL.Scheme != "https" {
		hostname := parsedURL.Hostname()
		if hostname != "localhost" &&
			hostname != "127.0.0.1" &&
			hostname != "::1" &&
			hostname != "[::1]" {
			return nil, fmt.Errorf("resource must use HTTPS in production (got %s://)", parsedURL.Scheme)
		}
	}

	if len(config.SupportedScopes) == 0 {
		config.SupportedScopes = DefaultSupportedScopes
	}
	if len(config.AuthorizationServers) == 0 {
		config.AuthorizationServers = []string{config.Resource}
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rateLimiter *RateLimiter
	if config.RateLimit.Rate > 0 {
		burst := config.RateLimit.Burst
		if burst == 0 {
			burst = config.RateLimit.Rate * 2
		}
		cleanupInterval := config.RateLimit.CleanupInterval
		if cleanupInterval == 0 {
			cleanupInterval = DefaultRateLimitCleanupInterval
		}
		rateLimiter = NewRateLimiter(config.RateLimit.Rate, burst, config.RateLimit.TrustProxy, cleanupInterval)
		logger.Info("per-ip rate limiting enabled",
			slog.Int("rate", config.RateLimit.Rate),
			slog.Int("burst", burst))
	}

	store := NewStoreWithInterval(config.CleanupInterval)
	store.SetLogger(logger)

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Handler{
		config:      config,
		store:       store,
		rateLimiter: rateLimiter,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// GetStore returns the underlying token cache.
func (h *Handler) GetStore() *Store {
	return h.store
}

// GetConfig returns the gate configuration.
func (h *Handler) GetConfig() *Config {
	return h.config
}

// Close releases background resources.
func (h *Handler) Close() {
	h.store.Close()
	if h.rateLimiter != nil {
		h.rateLimiter.Close()
	}
}

// ServeProtectedResourceMetadata serves OAuth 2.0 Protected Resource Metadata
// (RFC 9728). MCP clients hit this after receiving a 401 whose
// WWW-Authenticate header names it, to discover where to obtain a token.
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metadata := ProtectedResourceMetadata{
		Resource:               h.config.Resource,
		AuthorizationServers:   h.config.AuthorizationServers,
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        h.config.SupportedScopes,
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		h.logger.Error("failed to encode metadata", logging.Err(err))
		http.Error(w, "Failed to encode metadata", http.StatusInternalServerError)
	}
}

// setSecurityHeaders sets security headers on HTTP responses
func (h *Handler) setSecurityHeaders(w http.ResponseWriter) {
	// Prevent clickjacking attacks
	w.Header().Set("X-Frame-Options", "DENY")

	// Prevent MIME type sniffing
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Enable XSS protection in browsers
	w.Header().Set("X-XSS-Protection", "1; mode=block")

	// Content Security Policy - restrict resource loading
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

	// Referrer policy - don't leak referrer information
	w.Header().Set("Referrer-Policy", "no-referrer")

	// For HTTPS resources, enforce HTTPS for 1 year
	if h.config.Resource != "" {
		parsedURL, err := url.Parse(h.config.Resource)
		if err == nil && parsedURL.Scheme == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
	}
}

// writeError is a helper to write OAuth error responses
func (h *Handler) writeError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	h.logger.Debug("oauth error",
		slog.String("code", errorCode),
		slog.String("description", description),
		slog.Int("status", statusCode))
	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}

// RevokeToken revokes a user's Google token upstream and drops it from the
// cache, forcing re-authentication. Upstream revocation failure does not
// block the local delete.
func (h *Handler) RevokeToken(userID string) error {
	h.logger.Info("revoking token", logging.UserHash(userID))

	token, err := h.store.Token(userID)
	if err == nil && token != nil && token.AccessToken != "" {
		endpoint := h.config.RevokeEndpoint
		if endpoint == "" {
			endpoint = GoogleRevokeEndpoint
		}
		data := url.Values{}
		data.Set("token", token.AccessToken)

		resp, revokeErr := h.httpClient.PostForm(endpoint, data)
		if revokeErr != nil {
			h.logger.Warn("failed to revoke token upstream",
				logging.UserHash(userID),
				logging.Err(revokeErr))
		} else {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				h.logger.Warn("upstream token revocation returned non-OK status",
					logging.UserHash(userID),
					slog.Int("status", resp.StatusCode))
			}
		}
	}

	h.store.DeleteToken(userID)
	return nil
}

// ServeRevoke handles token revocation requests.
// POST /oauth/revoke with {"user_id": "..."}
func (h *Handler) ServeRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		h.writeError(w, "invalid_request", "user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.RevokeToken(req.UserID); err != nil {
		h.writeError(w, "server_error", fmt.Sprintf("Failed to revoke token: %v", err), http.StatusInternalServerError)
		return
	}

	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
	})
}
