package common

import (
	"context"
	"fmt"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/server"
)

// CustomerIDFromArgs returns the normalized customer id when the request
// carries one explicitly, or "" when it does not.
func CustomerIDFromArgs(args map[string]any) string {
	if v, ok := args["customer_id"].(string); ok && v != "" {
		return ads.NormalizeCustomerID(v)
	}
	return ""
}

// ResolveCustomerID determines which account a tool call targets.
//
// Priority order:
//  1. Explicit "customer_id" argument
//  2. The caller's stored default account
//  3. The sole accessible account, when the user can reach exactly one
//
// Anything else is an error telling the caller how to disambiguate.
func ResolveCustomerID(ctx context.Context, sc *server.ServerContext, client *ads.Client, args map[string]any) (string, error) {
	if id := CustomerIDFromArgs(args); id != "" {
		return id, nil
	}

	if userID, ok := UserIDFromContext(ctx); ok && sc.UserStore() != nil {
		if id := sc.UserStore().DefaultCustomerID(ctx, userID); id != "" {
			return ads.NormalizeCustomerID(id), nil
		}
	}

	accounts, err := client.ListAccessibleAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 1 {
		return ads.NormalizeCustomerID(accounts[0].ID), nil
	}

	return "", fmt.Errorf("no customer_id given and %d accounts are accessible; pass customer_id or set a default with ads_set_default_account", len(accounts))
}
