// Package resources registers MCP resources: static usage help under
// google-ads://help and a per-account summary template under
// google-ads://account/{customer_id}.
package resources
