// Package common holds helpers shared by the MCP tool packages: auth payload
// extraction, customer id resolution, and the instrumented handler wrappers
// that record metrics and audit logs around every tool call.
package common
