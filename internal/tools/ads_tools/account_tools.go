package ads_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/creds"
	"github.com/ryzeagent/adsmcp/internal/server"
	"github.com/ryzeagent/adsmcp/internal/tools/common"
)

func handleListAccounts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accounts, err := client.ListAccessibleAccounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	result, _ := json.MarshalIndent(accounts, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleGetAccountSummary(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	customerID, err := common.ResolveCustomerID(ctx, sc, client, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := client.GetAccountSummary(ctx, customerID, intArg(args, "days", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get account summary: %v", err)), nil
	}
	if summary == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No performance data for account %s in the requested period", customerID)), nil
	}

	result, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

// resolvedAccount is the ads_resolve_account projection.
type resolvedAccount struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	IsManager  bool   `json:"is_manager"`
}

func handleResolveAccount(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accounts, err := client.ListAccessibleAccounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	matches := matchAccounts(accounts, query)
	switch len(matches) {
	case 0:
		return mcp.NewToolResultError(fmt.Sprintf("No account matches %q among %d accessible accounts", query, len(accounts))), nil
	case 1:
		result, _ := json.MarshalIndent(matches[0], "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	default:
		candidates, _ := json.MarshalIndent(matches, "", "  ")
		return mcp.NewToolResultError(fmt.Sprintf("%q is ambiguous; candidates:\n%s", query, candidates)), nil
	}
}

// matchAccounts finds accounts whose id equals the normalized query or whose
// name contains it case-insensitively. An exact id match wins outright.
func matchAccounts(accounts []ads.Account, query string) []resolvedAccount {
	normalized := ads.NormalizeCustomerID(query)
	needle := strings.ToLower(query)

	var matches []resolvedAccount
	for _, a := range accounts {
		if ads.NormalizeCustomerID(a.ID) == normalized {
			return []resolvedAccount{{CustomerID: ads.NormalizeCustomerID(a.ID), Name: a.Name, IsManager: a.IsManager}}
		}
		if needle != "" && strings.Contains(strings.ToLower(a.Name), needle) {
			matches = append(matches, resolvedAccount{CustomerID: ads.NormalizeCustomerID(a.ID), Name: a.Name, IsManager: a.IsManager})
		}
	}
	return matches
}

func handleSetDefaultAccount(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	customerID, ok := args["customer_id"].(string)
	if !ok || customerID == "" {
		return mcp.NewToolResultError("customer_id is required"), nil
	}
	customerID = ads.NormalizeCustomerID(customerID)

	userID, ok := common.UserIDFromContext(ctx)
	if !ok {
		// Explicit user_id in the auth object also identifies the caller,
		// for stdio transports without the OAuth gate.
		if auth, isMap := args["auth"].(map[string]any); isMap {
			if v, isStr := auth["user_id"].(string); isStr {
				userID = v
			}
		}
	}
	if userID == "" {
		return mcp.NewToolResultError("setting a default account requires an authenticated user"), nil
	}
	if sc.UserStore() == nil {
		return mcp.NewToolResultError("setting a default account requires persistent storage"), nil
	}

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The default must point at an account the caller can actually reach.
	accounts, err := client.ListAccessibleAccounts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to verify account access: %v", err)), nil
	}
	accessible := false
	for _, a := range accounts {
		if ads.NormalizeCustomerID(a.ID) == customerID {
			accessible = true
			break
		}
	}
	if !accessible {
		return mcp.NewToolResultError(fmt.Sprintf("Account %s is not accessible to the authenticated user", customerID)), nil
	}

	if err := sc.UserStore().SetDefaultCustomerID(ctx, userID, customerID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to store default account: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Default account set to %s", customerID)), nil
}

// authStatus is the ads_auth_status projection.
type authStatus struct {
	Authenticated            bool   `json:"authenticated"`
	Method                   string `json:"method,omitempty"`
	UserID                   string `json:"user_id,omitempty"`
	Email                    string `json:"email,omitempty"`
	HasStoredTokens          bool   `json:"has_stored_tokens"`
	DefaultCustomerID        string `json:"default_customer_id,omitempty"`
	DeveloperTokenConfigured bool   `json:"developer_token_configured"`
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	status := authStatus{}

	if resolver := sc.CredentialResolver(); resolver != nil {
		status.DeveloperTokenConfigured = resolver.Defaults.DeveloperToken != ""
	}

	if userID, ok := common.UserIDFromContext(ctx); ok {
		status.Authenticated = true
		status.Method = creds.KindUserID.String()
		status.UserID = userID
		status.Email = common.UserEmailFromContext(ctx)

		if store := sc.UserStore(); store != nil {
			access, refresh := store.GetTokens(ctx, userID)
			status.HasStoredTokens = access != "" || refresh != ""
			status.DefaultCustomerID = store.DefaultCustomerID(ctx, userID)
		}
	}

	result, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
