package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	mcpoauth "github.com/ryzeagent/adsmcp/internal/mcp/oauth"
	"github.com/ryzeagent/adsmcp/internal/userstore"
)

// defaultRedirectURL is a loopback redirect for installed-app flows
// (RFC 8252). The browser lands on a dead port; the user copies the code
// from the URL bar.
const defaultRedirectURL = "http://localhost:8085/callback"

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for local stdio use",
		Long: `Authorize a Google account and persist its OAuth tokens in the local
user database. The stored tokens back user_id auth payloads when the server
runs with the stdio transport.

Run "auth url" to get an authorization URL, complete the consent flow in a
browser, then run "auth exchange" with the code from the redirect.`,
	}

	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newAuthExchangeCmd())
	return cmd
}

func newOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       mcpoauth.DefaultSupportedScopes,
	}
}

func newAuthURLCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		redirectURL  string
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the Google authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			envFallback(cmd, "client-id", &clientID, "GOOGLE_CLIENT_ID")
			envFallback(cmd, "client-secret", &clientSecret, "GOOGLE_CLIENT_SECRET")
			if clientID == "" {
				return fmt.Errorf("a Google OAuth client id is required (--client-id or GOOGLE_CLIENT_ID)")
			}

			cfg := newOAuthConfig(clientID, clientSecret, redirectURL)
			state := uuid.NewString()

			// prompt=consent forces Google to issue a refresh token even
			// for previously authorized clients.
			url := cfg.AuthCodeURL(state,
				oauth2.AccessTypeOffline,
				oauth2.SetAuthURLParam("prompt", "consent"))

			fmt.Println("Open this URL in a browser and complete the consent flow:")
			fmt.Println()
			fmt.Println(url)
			fmt.Println()
			fmt.Println("Then exchange the code from the redirect URL:")
			fmt.Printf("  adsmcp auth exchange --code <code> --state <state> --expected-state %s\n", state)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", defaultRedirectURL, "OAuth redirect URL registered on the client")

	return cmd
}

func newAuthExchangeCmd() *cobra.Command {
	var (
		clientID      string
		clientSecret  string
		redirectURL   string
		code          string
		state         string
		expectedState string
		errorCode     string
		errorDesc     string
		dbPath        string
	)

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code and store the tokens",
		Long: `Exchange an authorization code for OAuth tokens, look up the Google
identity behind them, and persist both in the local user database.

Pass the query parameters from the redirect URL: --code and --state on
success, --error and --error-description on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFallback(cmd, "client-id", &clientID, "GOOGLE_CLIENT_ID")
			envFallback(cmd, "client-secret", &clientSecret, "GOOGLE_CLIENT_SECRET")
			envFallback(cmd, "db-path", &dbPath, "ADSMCP_DB_PATH")
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("a Google OAuth client id and secret are required (--client-id/--client-secret or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET)")
			}

			result := mcpoauth.ParseCallbackQuery(code, state, errorCode, errorDesc, "")
			if err := result.Err(); err != nil {
				if mcpoauth.IsSilentAuthError(err) {
					return fmt.Errorf("authorization requires user interaction, retry without prompt=none: %w", err)
				}
				return fmt.Errorf("authorization failed: %w", err)
			}
			if code == "" {
				return fmt.Errorf("an authorization code is required (--code)")
			}
			if expectedState != "" && state != expectedState {
				return fmt.Errorf("state mismatch: possible cross-site request forgery, restart the flow with \"auth url\"")
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			ctx := context.Background()

			cfg := newOAuthConfig(clientID, clientSecret, redirectURL)
			token, err := cfg.Exchange(ctx, code)
			if err != nil {
				return fmt.Errorf("failed to exchange authorization code: %w", err)
			}
			if token.RefreshToken == "" {
				logger.Warn("exchange response carried no refresh token; stored credentials will stop working when the access token expires")
			}

			svc, err := oauth2api.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
			if err != nil {
				return fmt.Errorf("failed to create userinfo service: %w", err)
			}
			userinfo, err := svc.Userinfo.Get().Do()
			if err != nil {
				return fmt.Errorf("failed to fetch userinfo: %w", err)
			}

			store, closeStore, err := openUserStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Save(ctx, userstore.User{
				ID:           userinfo.Id,
				Email:        userinfo.Email,
				Name:         userinfo.Name,
				AccessToken:  token.AccessToken,
				RefreshToken: token.RefreshToken,
			}); err != nil {
				return fmt.Errorf("failed to store tokens: %w", err)
			}

			fmt.Printf("Authorized %s (user id %s)\n", userinfo.Email, userinfo.Id)
			fmt.Printf("Use {\"auth\": {\"user_id\": %q}} or rely on OAuth identity when calling tools.\n", userinfo.Id)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", defaultRedirectURL, "OAuth redirect URL registered on the client")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the redirect URL")
	cmd.Flags().StringVar(&state, "state", "", "State parameter from the redirect URL")
	cmd.Flags().StringVar(&expectedState, "expected-state", "", "State value printed by \"auth url\"; checked against --state when set")
	cmd.Flags().StringVar(&errorCode, "error", "", "Error parameter from a failed redirect")
	cmd.Flags().StringVar(&errorDesc, "error-description", "", "Error description from a failed redirect")
	cmd.Flags().StringVar(&dbPath, "db-path", defaultDBPath(), "Path to the SQLite user token database. Can also use ADSMCP_DB_PATH env var.")

	return cmd
}
