// Package ads_tools registers the Google Ads MCP tools: account listing and
// resolution, campaign and keyword reporting, raw GAQL search, per-user
// default account management, and an auth status probe.
//
// Every tool accepts an optional "auth" object carrying one credential source
// (refresh_token, access_token, secret_name, or user_id). Calls without it
// fall back to the OAuth-authenticated user from the request context.
package ads_tools
