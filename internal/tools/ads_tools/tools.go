package ads_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ryzeagent/adsmcp/internal/instrumentation"
	"github.com/ryzeagent/adsmcp/internal/server"
	"github.com/ryzeagent/adsmcp/internal/tools/common"
)

const authDescription = "Optional credentials for this call. One of: refresh_token, access_token, " +
	"secret_name (Secret Manager reference), or user_id (stored tokens). " +
	"Omit to use the OAuth-authenticated user."

// withAuth appends the shared auth argument to a tool definition.
func withAuth(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts, mcp.WithObject("auth", mcp.Description(authDescription)))
}

// RegisterAdsTools registers all Google Ads tools with the MCP server.
func RegisterAdsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listAccountsTool := mcp.NewTool("ads_list_accounts",
		withAuth(
			mcp.WithDescription("List all Google Ads accounts accessible to the authenticated user"),
		)...,
	)
	s.AddTool(listAccountsTool, common.InstrumentedAdsToolHandler(
		"ads_list_accounts", instrumentation.OperationListAccounts, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAccounts(ctx, request, sc)
		}))

	summaryTool := mcp.NewTool("ads_get_account_summary",
		withAuth(
			mcp.WithDescription("Aggregate account-level performance (impressions, clicks, cost, CTR, CPC, conversions) over a reporting window"),
			mcp.WithString("customer_id",
				mcp.Description("Google Ads customer ID (digits, dashes allowed). Defaults to the stored default account."),
			),
			mcp.WithNumber("days",
				mcp.Description("Reporting window in days (default: 30)"),
			),
		)...,
	)
	s.AddTool(summaryTool, common.InstrumentedAdsToolHandler(
		"ads_get_account_summary", instrumentation.OperationSummary, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAccountSummary(ctx, request, sc)
		}))

	campaignsTool := mcp.NewTool("ads_list_campaigns",
		withAuth(
			mcp.WithDescription("List campaigns with performance metrics, ordered by spend"),
			mcp.WithString("customer_id",
				mcp.Description("Google Ads customer ID. Defaults to the stored default account."),
			),
			mcp.WithNumber("days",
				mcp.Description("Reporting window in days (default: 30)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of campaigns to return (default: 100)"),
			),
		)...,
	)
	s.AddTool(campaignsTool, common.InstrumentedAdsToolHandler(
		"ads_list_campaigns", instrumentation.OperationCampaigns, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCampaigns(ctx, request, sc)
		}))

	keywordsTool := mcp.NewTool("ads_list_keywords",
		withAuth(
			mcp.WithDescription("List keyword performance rows, optionally filtered to one campaign"),
			mcp.WithString("customer_id",
				mcp.Description("Google Ads customer ID. Defaults to the stored default account."),
			),
			mcp.WithString("campaign_id",
				mcp.Description("Restrict to a single campaign (numeric ID)"),
			),
			mcp.WithNumber("days",
				mcp.Description("Reporting window in days (default: 30)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of keywords to return (default: 100)"),
			),
		)...,
	)
	s.AddTool(keywordsTool, common.InstrumentedAdsToolHandler(
		"ads_list_keywords", instrumentation.OperationKeywords, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListKeywords(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("ads_search",
		withAuth(
			mcp.WithDescription("Run a raw GAQL query against one account and return the result rows"),
			mcp.WithString("customer_id",
				mcp.Description("Google Ads customer ID. Defaults to the stored default account."),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("GAQL query, e.g. 'SELECT campaign.name FROM campaign LIMIT 10'"),
			),
		)...,
	)
	s.AddTool(searchTool, common.InstrumentedAdsToolHandler(
		"ads_search", instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	resolveTool := mcp.NewTool("ads_resolve_account",
		withAuth(
			mcp.WithDescription("Resolve a partial account name or ID to a customer ID"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Partial account name (case-insensitive) or customer ID"),
			),
		)...,
	)
	s.AddTool(resolveTool, common.InstrumentedAdsToolHandler(
		"ads_resolve_account", instrumentation.OperationListAccounts, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolveAccount(ctx, request, sc)
		}))

	setDefaultTool := mcp.NewTool("ads_set_default_account",
		withAuth(
			mcp.WithDescription("Persist a default Google Ads account for the authenticated user"),
			mcp.WithString("customer_id",
				mcp.Required(),
				mcp.Description("Google Ads customer ID to use as the default"),
			),
		)...,
	)
	s.AddTool(setDefaultTool, common.InstrumentedToolHandler(
		"ads_set_default_account", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetDefaultAccount(ctx, request, sc)
		}))

	authStatusTool := mcp.NewTool("ads_auth_status",
		mcp.WithDescription("Report how the current caller is authenticated and whether stored credentials exist"),
	)
	s.AddTool(authStatusTool, common.InstrumentedToolHandler(
		"ads_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	return nil
}
