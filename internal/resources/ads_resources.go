package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/server"
	"github.com/ryzeagent/adsmcp/internal/tools/common"
)

const accountURIPrefix = "google-ads://account/"

const helpText = `Google Ads MCP server

Tools:
  ads_list_accounts        List accessible Google Ads accounts
  ads_get_account_summary  Aggregate account performance over a window
  ads_list_campaigns       Campaigns with metrics, ordered by spend
  ads_list_keywords        Keyword performance, optionally per campaign
  ads_search               Raw GAQL queries
  ads_resolve_account      Partial name or ID -> customer ID
  ads_set_default_account  Persist a default account for the caller
  ads_auth_status          How the current caller is authenticated

Authentication:
  Requests through the HTTP transports carry a Google OAuth Bearer token;
  the authenticated user's stored tokens are used automatically. Any tool
  also accepts an explicit "auth" object with one of refresh_token,
  access_token, secret_name, or user_id.

Accounts:
  Customer IDs may include dashes (123-456-7890). When a tool call names
  no customer_id, the caller's stored default is used, then the sole
  accessible account. Set a default with ads_set_default_account.
`

// RegisterAdsResources registers the help and per-account resources.
func RegisterAdsResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	helpResource := mcp.NewResource(
		"google-ads://help",
		"Google Ads Server Help",
		mcp.WithResourceDescription("Usage notes for the Google Ads tools"),
		mcp.WithMIMEType("text/plain"),
	)

	s.AddResource(helpResource, func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "text/plain",
				Text:     helpText,
			},
		}, nil
	})

	accountTemplate := mcp.NewResourceTemplate(
		accountURIPrefix+"{customer_id}",
		"Account Summary",
		mcp.WithTemplateDescription("Performance summary for one Google Ads account over the last 30 days"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(accountTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccountResource(ctx, request, sc)
	})

	return nil
}

func handleAccountResource(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	customerID := strings.TrimPrefix(request.Params.URI, accountURIPrefix)
	if customerID == "" || customerID == request.Params.URI {
		return nil, fmt.Errorf("invalid account resource URI: %s", request.Params.URI)
	}
	customerID = ads.NormalizeCustomerID(customerID)

	client, err := common.AdsClientForRequest(ctx, sc, nil)
	if err != nil {
		return nil, err
	}

	summary, err := client.GetAccountSummary(ctx, customerID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get account summary: %w", err)
	}
	if summary == nil {
		summary = &ads.AccountSummary{AccountID: customerID}
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
