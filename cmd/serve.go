package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ryzeagent/adsmcp/internal/creds"
	"github.com/ryzeagent/adsmcp/internal/instrumentation"
	"github.com/ryzeagent/adsmcp/internal/resources"
	"github.com/ryzeagent/adsmcp/internal/secrets"
	"github.com/ryzeagent/adsmcp/internal/server"
	"github.com/ryzeagent/adsmcp/internal/tools/ads_tools"
	"github.com/ryzeagent/adsmcp/internal/userstore"
)

// ServeOptions holds the fully resolved serve configuration after flag and
// environment-variable merging.
type ServeOptions struct {
	Transport          string
	HTTPAddr           string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	DeveloperToken     string
	LoginCustomerID    string
	DBPath             string
	GCPProject         string
	MetricsEnabled     bool
	MetricsAddr        string
	Debug              bool
}

func newServeCmd() *cobra.Command {
	var opts ServeOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Google Ads
reporting tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

HTTP transports require clients to authenticate with Google OAuth; the
bearer token's Google identity keys the per-user token store.

Configuration:
  Base URL (required for deployed HTTP instances):
    --base-url https://your-domain.com OR MCP_BASE_URL env var
    Auto-detected for localhost (development only)

  Google Ads credentials:
    --developer-token OR GOOGLE_ADS_DEVELOPER_TOKEN env var (required)
    --login-customer-id OR GOOGLE_ADS_LOGIN_CUSTOMER_ID env var (for MCC access)

  OAuth client (for refresh-token credentials):
    --google-client-id and --google-client-secret flags
    OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars

  Secret Manager (optional):
    --gcp-project OR GOOGLE_CLOUD_PROJECT env var enables resolving
    secret_name auth payloads and storing refresh tokens on /register.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolveServeEnv(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "Transport type: stdio, sse or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Public base URL for OAuth (HTTP transports only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().StringVar(&opts.GoogleClientID, "google-client-id", "", "Google OAuth client ID used when resolving refresh-token credentials. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.GoogleClientSecret, "google-client-secret", "", "Google OAuth client secret used when resolving refresh-token credentials. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.DeveloperToken, "developer-token", "", "Google Ads developer token. Can also use GOOGLE_ADS_DEVELOPER_TOKEN env var.")
	cmd.Flags().StringVar(&opts.LoginCustomerID, "login-customer-id", "", "Manager (MCC) customer id sent as login-customer-id on Ads API calls. Can also use GOOGLE_ADS_LOGIN_CUSTOMER_ID env var.")
	cmd.Flags().StringVar(&opts.DBPath, "db-path", defaultDBPath(), "Path to the SQLite user token database. Can also use ADSMCP_DB_PATH env var.")
	cmd.Flags().StringVar(&opts.GCPProject, "gcp-project", "", "Google Cloud project for Secret Manager. Can also use GOOGLE_CLOUD_PROJECT env var.")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transports only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// resolveServeEnv merges environment variables into opts. A flag the user set
// explicitly always wins; env vars apply only to unset flags.
func resolveServeEnv(cmd *cobra.Command, opts *ServeOptions) {
	envFallback(cmd, "base-url", &opts.BaseURL, "MCP_BASE_URL")
	envFallback(cmd, "google-client-id", &opts.GoogleClientID, "GOOGLE_CLIENT_ID")
	envFallback(cmd, "google-client-secret", &opts.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	envFallback(cmd, "developer-token", &opts.DeveloperToken, "GOOGLE_ADS_DEVELOPER_TOKEN")
	envFallback(cmd, "login-customer-id", &opts.LoginCustomerID, "GOOGLE_ADS_LOGIN_CUSTOMER_ID")
	envFallback(cmd, "db-path", &opts.DBPath, "ADSMCP_DB_PATH")
	envFallback(cmd, "gcp-project", &opts.GCPProject, "GOOGLE_CLOUD_PROJECT")
	envFallback(cmd, "metrics-addr", &opts.MetricsAddr, "METRICS_ADDR")

	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v == "false" {
			opts.MetricsEnabled = false
		}
	}
}

// envFallback sets *dst from the named env var when the flag was not
// explicitly set on the command line.
func envFallback(cmd *cobra.Command, flagName string, dst *string, envKey string) {
	if cmd.Flags().Changed(flagName) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		*dst = v
	}
}

// defaultDBPath places the user database under the user's home directory.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "adsmcp.db"
	}
	return filepath.Join(home, ".adsmcp", "users.db")
}

func runServe(opts ServeOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// On stdio the protocol owns stdout, so all logging goes to stderr.
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// Open the user token store.
	if dir := filepath.Dir(opts.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := userstore.NewDB(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open user database: %w", err)
	}
	defer db.Close()
	if err := userstore.RunMigrations(db.Writer); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	store := userstore.NewStore(db, logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	// Secret Manager is optional: without a project, secret_name auth
	// payloads fail to resolve and /register returns 503.
	var secretsManager *secrets.Manager
	if opts.GCPProject != "" {
		secretsManager, err = secrets.NewManager(shutdownCtx, opts.GCPProject, logger)
		if err != nil {
			return fmt.Errorf("failed to create secrets manager: %w", err)
		}
		defer secretsManager.Close()
	}

	resolver := &creds.Resolver{
		Users: store,
		Defaults: creds.Defaults{
			DeveloperToken:  opts.DeveloperToken,
			ClientID:        opts.GoogleClientID,
			ClientSecret:    opts.GoogleClientSecret,
			LoginCustomerID: opts.LoginCustomerID,
		},
		Logger: logger,
	}
	if secretsManager != nil {
		resolver.Secrets = secretsManager
	}

	ctxOpts := []server.ContextOption{
		server.WithUserStore(store),
		server.WithCredentialResolver(resolver),
		server.WithLogger(logger),
	}
	if secretsManager != nil {
		ctxOpts = append(ctxOpts, server.WithSecretWriter(secretsManager))
	}
	if provider.Enabled() {
		audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
		ctxOpts = append(ctxOpts, server.WithInstrumentation(provider, audit))
	}

	serverContext := server.NewServerContext(shutdownCtx, ctxOpts...)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", "error", err)
		}
	}()

	if opts.DeveloperToken == "" {
		logger.Warn("no developer token configured; requests must supply one via the auth payload or a secret")
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("adsmcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "sse", "streamable-http":
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", opts.Transport)
	}
}

// registerAll registers all MCP tools and resources.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type registration struct {
		name     string
		register func() error
	}

	registrations := []registration{
		{
			name: "Ads tools",
			register: func() error {
				return ads_tools.RegisterAdsTools(mcpSrv, sc)
			},
		},
		{
			name: "Ads resources",
			register: func() error {
				return resources.RegisterAdsResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// resolveBaseURL determines the public base URL: explicit value wins, then
// auto-detection from the listen address for local development.
func resolveBaseURL(baseURL, addr string) string {
	if baseURL != "" {
		return baseURL
	}
	if len(addr) > 0 && addr[0] == ':' {
		return fmt.Sprintf("http://localhost%s", addr)
	}
	return fmt.Sprintf("http://%s", addr)
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider, opts ServeOptions) error {
	baseURL := resolveBaseURL(opts.BaseURL, opts.HTTPAddr)
	if opts.BaseURL == "" {
		log.Printf("No base URL configured, using auto-detected: %s", baseURL)
		log.Printf("For deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		log.Printf("Using configured base URL: %s", baseURL)
	}

	oauthServer, err := server.NewOAuthHTTPServer(mcpSrv, sc, opts.Transport, baseURL)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	// Start the dedicated metrics server if enabled.
	var metricsServer *server.MetricsServer
	if opts.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server stopped with error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}()
		log.Printf("Metrics server listening on %s", metricsServer.Addr())
	}

	fmt.Printf("Google Ads MCP server starting on %s (%s transport)\n", opts.HTTPAddr, opts.Transport)
	if opts.Transport == "sse" {
		fmt.Printf("  SSE endpoints: /sse, /message\n")
	} else {
		fmt.Printf("  HTTP endpoint: /mcp\n")
	}
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	fmt.Printf("  OAuth metadata: /.well-known/oauth-protected-resource\n")
	fmt.Printf("  Token registration: /register\n")
	if metricsServer != nil {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsServer.Addr())
	}
	fmt.Println("\nClients must authenticate with Google OAuth to access this server.")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(opts.HTTPAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
