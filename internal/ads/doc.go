// Package ads wraps the Google Ads reporting API.
//
// Google Ads has no official Go SDK, so the Client speaks the REST surface of
// googleads.googleapis.com directly: GAQL queries through googleAds:search
// plus the customers:listAccessibleCustomers listing call. Authentication is
// standard OAuth2 via golang.org/x/oauth2 with the per-request developer
// token header the API requires.
//
// Results are projected into flat value objects (Account, Campaign, Keyword,
// AccountSummary) whose derived ratios follow a guarded-division convention:
// CTR, CPC and CPA are 0 whenever their denominator is 0.
//
// All failures surface as *UpstreamError naming the operation and account.
// Nothing here retries; errors are terminal for the triggering request.
package ads
