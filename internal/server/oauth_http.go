package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ryzeagent/adsmcp/internal/instrumentation"
	"github.com/ryzeagent/adsmcp/internal/mcp/oauth"
)

// OAuthHTTPServer wraps an MCP server with the Google OAuth resource-server
// gate. It implements RFC 9728 Protected Resource Metadata so MCP clients can
// discover Google as the authorization server, and validates Bearer tokens on
// every MCP request.
type OAuthHTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	oauthHandler  *oauth.Handler
	healthChecker *HealthChecker
	httpServer    *http.Server
	serverType    string // "sse" or "streamable-http"
}

// NewOAuthHTTPServer creates a new OAuth-gated HTTP server for MCP.
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, serverType string, baseURL string) (*OAuthHTTPServer, error) {
	oauthConfig := &oauth.Config{
		Resource: baseURL,
		Logger:   sc.Logger(),
		RateLimit: oauth.RateLimitConfig{
			Rate:  oauth.DefaultRateLimitRate,
			Burst: oauth.DefaultRateLimitBurst,
		},
		CleanupInterval: oauth.DefaultCleanupInterval,
	}

	oauthHandler, err := oauth.NewHandler(oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth handler: %w", err)
	}

	return &OAuthHTTPServer{
		mcpServer:     mcpServer,
		serverContext: sc,
		oauthHandler:  oauthHandler,
		healthChecker: NewHealthChecker(sc),
		serverType:    serverType,
	}, nil
}

// responseWriter captures the status code written by a handler so the
// instrumentation middleware can record it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrumentationMiddleware records request counts and latency for every
// HTTP endpoint. A nil metrics provider makes it a pass-through.
func (s *OAuthHTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := s.metrics()
		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// oauthInstrumentationWrapper records Bearer token validation outcomes on
// the MCP endpoints. A 401 means the gate rejected the token; anything
// else means the request made it past authentication.
func (s *OAuthHTTPServer) oauthInstrumentationWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := s.metrics()
		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		result := instrumentation.OAuthResultSuccess
		if rw.statusCode == http.StatusUnauthorized {
			result = instrumentation.OAuthResultFailure
		}
		metrics.RecordOAuthAuth(r.Context(), result)
	})
}

func (s *OAuthHTTPServer) metrics() *instrumentation.Metrics {
	if s.serverContext == nil {
		return nil
	}
	return s.serverContext.Metrics()
}

// Start starts the OAuth-gated HTTP server.
func (s *OAuthHTTPServer) Start(addr string) error {
	// OAuth 2.1 requires HTTPS; localhost is exempt for development.
	config := s.oauthHandler.GetConfig()
	if err := validateHTTPSRequirement(config.Resource); err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Protected Resource Metadata endpoint (RFC 9728). This tells MCP
	// clients where to find the authorization server (Google).
	metadataHandler := http.HandlerFunc(s.oauthHandler.ServeProtectedResourceMetadata)
	mux.Handle("/.well-known/oauth-protected-resource",
		s.instrumentationMiddleware(s.oauthHandler.RateLimitMiddleware(metadataHandler)))

	// Token revocation and user registration, also rate limited.
	mux.Handle("/oauth/revoke",
		s.instrumentationMiddleware(s.oauthHandler.RateLimitMiddleware(http.HandlerFunc(s.oauthHandler.ServeRevoke))))
	mux.Handle("/register",
		s.instrumentationMiddleware(s.oauthHandler.RateLimitMiddleware(http.HandlerFunc(s.handleRegister))))

	s.healthChecker.RegisterHealthEndpoints(mux)

	// Register MCP endpoints based on server type.
	switch s.serverType {
	case "sse":
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)

		gated := s.instrumentationMiddleware(s.oauthHandler.RateLimitMiddleware(
			s.oauthInstrumentationWrapper(s.oauthHandler.ValidateGoogleToken(sseServer))))
		mux.Handle("/sse", gated)
		mux.Handle("/message", gated)

	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)

		mux.Handle("/mcp", s.instrumentationMiddleware(s.oauthHandler.RateLimitMiddleware(
			s.oauthInstrumentationWrapper(s.oauthHandler.ValidateGoogleToken(httpServer)))))

	default:
		return fmt.Errorf("unsupported server type: %s", s.serverType)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.healthChecker.SetReady(true)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	s.healthChecker.SetReady(false)
	s.oauthHandler.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetOAuthHandler returns the OAuth handler for testing or direct access.
func (s *OAuthHTTPServer) GetOAuthHandler() *oauth.Handler {
	return s.oauthHandler
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance.
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1).
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
