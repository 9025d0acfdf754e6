package ads_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/server"
	"github.com/ryzeagent/adsmcp/internal/tools/common"
)

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// campaignRow adds the derived ratios to a campaign projection for output.
type campaignRow struct {
	ads.Campaign
	CTR float64 `json:"ctr"`
	CPC float64 `json:"cpc"`
	CPA float64 `json:"cpa"`
}

// keywordRow adds the derived ratios to a keyword projection for output.
type keywordRow struct {
	ads.Keyword
	CTR float64 `json:"ctr"`
	CPC float64 `json:"cpc"`
	CPA float64 `json:"cpa"`
}

func handleListCampaigns(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	customerID, err := common.ResolveCustomerID(ctx, sc, client, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	campaigns, err := client.GetCampaigns(ctx, customerID, intArg(args, "days", 0), intArg(args, "limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list campaigns: %v", err)), nil
	}

	rows := make([]campaignRow, 0, len(campaigns))
	for _, c := range campaigns {
		rows = append(rows, campaignRow{
			Campaign: c,
			CTR:      round2(c.CTR()),
			CPC:      round2(c.CPC()),
			CPA:      round2(c.CPA()),
		})
	}

	result, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleListKeywords(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	customerID, err := common.ResolveCustomerID(ctx, sc, client, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	campaignID, _ := args["campaign_id"].(string)

	keywords, err := client.GetKeywords(ctx, customerID, campaignID, intArg(args, "days", 0), intArg(args, "limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list keywords: %v", err)), nil
	}

	rows := make([]keywordRow, 0, len(keywords))
	for _, k := range keywords {
		rows = append(rows, keywordRow{
			Keyword: k,
			CTR:     round2(k.CTR()),
			CPC:     round2(k.CPC()),
			CPA:     round2(k.CPA()),
		})
	}

	result, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	client, err := common.AdsClientForRequest(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	customerID, err := common.ResolveCustomerID(ctx, sc, client, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := client.Search(ctx, customerID, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
	}

	result, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
