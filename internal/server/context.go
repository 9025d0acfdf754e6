package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/creds"
	"github.com/ryzeagent/adsmcp/internal/instrumentation"
	"github.com/ryzeagent/adsmcp/internal/userstore"
)

// ServerContext holds the shared dependencies for the MCP server: the user
// token store, the credential resolver, and a cache of Google Ads clients.
// Everything is injected here so tool handlers carry no global state.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	users    *userstore.Store
	resolver *creds.Resolver
	secrets  SecretWriter
	provider *instrumentation.Provider
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger

	adsOpts    []ads.Option
	adsClients map[string]*ads.Client // keyed by credential fingerprint

	mu       sync.RWMutex
	shutdown bool
}

// SecretWriter persists refresh tokens delegated to external secret storage.
// Satisfied by the Secret Manager client; nil when the server runs without it.
type SecretWriter interface {
	StoreUserRefreshToken(ctx context.Context, userID, refreshToken string) (string, error)
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithUserStore injects the persistent user token store.
func WithUserStore(store *userstore.Store) ContextOption {
	return func(sc *ServerContext) { sc.users = store }
}

// WithCredentialResolver injects the credential resolver.
func WithCredentialResolver(resolver *creds.Resolver) ContextOption {
	return func(sc *ServerContext) { sc.resolver = resolver }
}

// WithSecretWriter injects the secret store used to persist delegated
// refresh tokens at registration time.
func WithSecretWriter(writer SecretWriter) ContextOption {
	return func(sc *ServerContext) { sc.secrets = writer }
}

// WithInstrumentation injects the observability provider and audit logger.
func WithInstrumentation(provider *instrumentation.Provider, audit *instrumentation.AuditLogger) ContextOption {
	return func(sc *ServerContext) {
		sc.provider = provider
		sc.audit = audit
	}
}

// WithLogger sets the logger for the server context.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithAdsClientOptions sets extra options applied to every Ads client the
// context creates. Used by tests to point clients at a fake API server.
func WithAdsClientOptions(opts ...ads.Option) ContextOption {
	return func(sc *ServerContext) { sc.adsOpts = opts }
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts ...ContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:        shutdownCtx,
		cancel:     cancel,
		logger:     slog.Default(),
		adsClients: make(map[string]*ads.Client),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// UserStore returns the persistent user token store. May be nil when the
// server runs without persistence.
func (sc *ServerContext) UserStore() *userstore.Store {
	return sc.users
}

// CredentialResolver returns the credential resolver.
func (sc *ServerContext) CredentialResolver() *creds.Resolver {
	return sc.resolver
}

// SecretWriter returns the secret store for delegated refresh tokens. May be
// nil when the server runs without Secret Manager.
func (sc *ServerContext) SecretWriter() SecretWriter {
	return sc.secrets
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the logger for the server context.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// AdsClient returns a Google Ads client for the resolved credential bundle.
// Clients are cached by credential fingerprint so repeated tool calls with
// the same identity reuse the underlying HTTP client and token source.
func (sc *ServerContext) AdsClient(bundle *creds.Bundle) (*ads.Client, error) {
	key := credentialFingerprint(bundle)

	sc.mu.RLock()
	client, ok := sc.adsClients[key]
	sc.mu.RUnlock()
	if ok {
		return client, nil
	}

	adsCreds := ads.Credentials{
		DeveloperToken:  bundle.DeveloperToken,
		LoginCustomerID: bundle.LoginCustomerID,
		AccessToken:     bundle.AccessToken,
		RefreshToken:    bundle.RefreshToken,
		ClientID:        bundle.ClientID,
		ClientSecret:    bundle.ClientSecret,
	}

	opts := append([]ads.Option{ads.WithLogger(sc.logger)}, sc.adsOpts...)
	client, err := ads.NewClient(sc.ctx, adsCreds, opts...)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	sc.adsClients[key] = client
	sc.mu.Unlock()
	return client, nil
}

// credentialFingerprint derives a stable cache key from the token material.
// The raw tokens never leave the map key as plaintext.
func credentialFingerprint(bundle *creds.Bundle) string {
	h := sha256.New()
	h.Write([]byte(bundle.AccessToken))
	h.Write([]byte{0})
	h.Write([]byte(bundle.RefreshToken))
	h.Write([]byte{0})
	h.Write([]byte(bundle.LoginCustomerID))
	return hex.EncodeToString(h.Sum(nil))
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
