// Package cmd implements the command-line interface for adsmcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio, sse or streamable-http transport)
//   - auth: Authorize a Google account and store its tokens locally
//   - users: Inspect and remove stored user accounts
//   - version: Display version information
package cmd
