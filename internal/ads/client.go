package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ryzeagent/adsmcp/internal/logging"
)

const (
	defaultBaseURL = "https://googleads.googleapis.com"
	apiVersion     = "v20"

	defaultReportingDays = 30
	defaultRowLimit      = 100
)

// Credentials holds everything needed to authenticate one Google Ads API
// call chain. It is request-scoped: built per call from the credential
// resolver and never persisted.
type Credentials struct {
	DeveloperToken  string
	LoginCustomerID string
	AccessToken     string
	RefreshToken    string
	ClientID        string
	ClientSecret    string
}

// Client is a thin REST client for the Google Ads reporting API. There is no
// official Go SDK for Google Ads, so queries go through the googleAds:search
// endpoint directly; OAuth handling stays on golang.org/x/oauth2.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	developerToken  string
	loginCustomerID string
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the client
// at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient replaces the OAuth-authorized HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for API call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient builds a Client from resolved credentials. An access token yields
// a static token source; a refresh token yields a refreshing source through
// the standard Google token endpoint. Token refresh beyond that standard
// exchange is out of scope here.
func NewClient(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:         defaultBaseURL,
		developerToken:  creds.DeveloperToken,
		loginCustomerID: NormalizeCustomerID(creds.LoginCustomerID),
		logger:          slog.Default(),
	}
	if creds.LoginCustomerID == "" {
		c.loginCustomerID = ""
	}

	var ts oauth2.TokenSource
	switch {
	case creds.AccessToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	case creds.RefreshToken != "":
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
		}
		ts = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	default:
		return nil, fmt.Errorf("ads: credentials carry neither access token nor refresh token")
	}
	c.httpClient = oauth2.NewClient(ctx, ts)
	c.httpClient.Timeout = 60 * time.Second

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// searchRow mirrors the subset of a GoogleAdsRow this server projects.
// INT64 metrics arrive as JSON strings per proto3 JSON mapping.
type searchRow struct {
	Customer *struct {
		ID              string `json:"id"`
		DescriptiveName string `json:"descriptiveName"`
		CurrencyCode    string `json:"currencyCode"`
		TimeZone        string `json:"timeZone"`
		Manager         bool   `json:"manager"`
	} `json:"customer"`
	Campaign *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"campaign"`
	AdGroup *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"adGroup"`
	AdGroupCriterion *struct {
		Keyword struct {
			Text      string `json:"text"`
			MatchType string `json:"matchType"`
		} `json:"keyword"`
	} `json:"adGroupCriterion"`
	Metrics *struct {
		Impressions      int64   `json:"impressions,string"`
		Clicks           int64   `json:"clicks,string"`
		CostMicros       int64   `json:"costMicros,string"`
		Conversions      float64 `json:"conversions"`
		ConversionsValue float64 `json:"conversionsValue"`
	} `json:"metrics"`
}

type searchResponse struct {
	Results       []json.RawMessage `json:"results"`
	NextPageToken string            `json:"nextPageToken"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, op, customerID, method, url string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, upstreamErr(op, customerID, err)
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return nil, upstreamErr(op, customerID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstreamErr(op, customerID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, upstreamErr(op, customerID, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &UpstreamError{Op: op, CustomerID: customerID, StatusCode: resp.StatusCode}
		var parsed apiErrorBody
		if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
			apiErr.Message = parsed.Error.Message
		} else {
			apiErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		c.logger.Error("google ads api call failed",
			logging.Operation(op),
			logging.Customer(customerID),
			slog.Int("http_status", resp.StatusCode),
			logging.Err(apiErr))
		return nil, apiErr
	}
	return data, nil
}

// searchAll runs a GAQL query against one account and collects every page of
// raw result rows.
func (c *Client) searchAll(ctx context.Context, op, customerID, query string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/customers/%s/googleAds:search", c.baseURL, apiVersion, customerID)

	var rows []json.RawMessage
	pageToken := ""
	for {
		reqBody := map[string]string{"query": query}
		if pageToken != "" {
			reqBody["pageToken"] = pageToken
		}
		data, err := c.do(ctx, op, customerID, http.MethodPost, url, reqBody)
		if err != nil {
			return nil, err
		}
		var page searchResponse
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, upstreamErr(op, customerID, fmt.Errorf("decoding response: %w", err))
		}
		rows = append(rows, page.Results...)
		if page.NextPageToken == "" {
			return rows, nil
		}
		pageToken = page.NextPageToken
	}
}

func decodeRows(op, customerID string, raw []json.RawMessage) ([]searchRow, error) {
	rows := make([]searchRow, 0, len(raw))
	for _, r := range raw {
		var row searchRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, upstreamErr(op, customerID, fmt.Errorf("decoding row: %w", err))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListAccessibleAccounts returns every account the authenticated user can
// reach, with identity details fetched per account. Accounts whose descriptor
// query fails (common for manager-linked accounts) are skipped with a
// warning, matching the permissive listing behavior users expect.
func (c *Client) ListAccessibleAccounts(ctx context.Context) ([]Account, error) {
	const op = "list_accessible_accounts"
	url := fmt.Sprintf("%s/%s/customers:listAccessibleCustomers", c.baseURL, apiVersion)

	data, err := c.do(ctx, op, "", http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	var listing struct {
		ResourceNames []string `json:"resourceNames"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, upstreamErr(op, "", fmt.Errorf("decoding response: %w", err))
	}

	accounts := make([]Account, 0, len(listing.ResourceNames))
	for _, name := range listing.ResourceNames {
		customerID := name[strings.LastIndex(name, "/")+1:]
		raw, err := c.searchAll(ctx, op, customerID, accountDescriptorQuery)
		if err != nil {
			c.logger.Warn("skipping inaccessible account",
				logging.Operation(op),
				logging.Customer(customerID),
				logging.Err(err))
			continue
		}
		rows, err := decodeRows(op, customerID, raw)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.Customer == nil {
				continue
			}
			accounts = append(accounts, Account{
				ID:        row.Customer.ID,
				Name:      row.Customer.DescriptiveName,
				Currency:  row.Customer.CurrencyCode,
				TimeZone:  row.Customer.TimeZone,
				IsManager: row.Customer.Manager,
			})
		}
	}
	return accounts, nil
}

// GetCampaigns returns campaigns for one account ordered by spend, over the
// last days days, capped at limit rows.
func (c *Client) GetCampaigns(ctx context.Context, customerID string, days, limit int) ([]Campaign, error) {
	const op = "get_campaigns"
	if days <= 0 {
		days = defaultReportingDays
	}
	if limit <= 0 {
		limit = defaultRowLimit
	}
	id := NormalizeCustomerID(customerID)

	raw, err := c.searchAll(ctx, op, id, campaignsQuery(days, limit))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(op, id, raw)
	if err != nil {
		return nil, err
	}

	campaigns := make([]Campaign, 0, len(rows))
	for _, row := range rows {
		if row.Campaign == nil || row.Metrics == nil {
			continue
		}
		campaigns = append(campaigns, Campaign{
			ID:          row.Campaign.ID,
			Name:        row.Campaign.Name,
			Status:      row.Campaign.Status,
			AccountID:   id,
			Impressions: row.Metrics.Impressions,
			Clicks:      row.Metrics.Clicks,
			Cost:        float64(row.Metrics.CostMicros) / 1e6,
			Conversions: row.Metrics.Conversions,
		})
	}
	return campaigns, nil
}

// GetKeywords returns keyword performance rows for one account, optionally
// filtered to a single campaign.
func (c *Client) GetKeywords(ctx context.Context, customerID, campaignID string, days, limit int) ([]Keyword, error) {
	const op = "get_keywords"
	if days <= 0 {
		days = defaultReportingDays
	}
	if limit <= 0 {
		limit = defaultRowLimit
	}
	id := NormalizeCustomerID(customerID)

	if campaignID != "" && !isDigits(campaignID) {
		return nil, upstreamErr(op, id, fmt.Errorf("campaign id %q is not numeric", campaignID))
	}

	raw, err := c.searchAll(ctx, op, id, keywordsQuery(campaignID, days, limit))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(op, id, raw)
	if err != nil {
		return nil, err
	}

	keywords := make([]Keyword, 0, len(rows))
	for _, row := range rows {
		if row.AdGroupCriterion == nil || row.Metrics == nil {
			continue
		}
		kw := Keyword{
			Text:        row.AdGroupCriterion.Keyword.Text,
			MatchType:   row.AdGroupCriterion.Keyword.MatchType,
			Impressions: row.Metrics.Impressions,
			Clicks:      row.Metrics.Clicks,
			Cost:        float64(row.Metrics.CostMicros) / 1e6,
			Conversions: row.Metrics.Conversions,
		}
		if row.Campaign != nil {
			kw.CampaignID = row.Campaign.ID
			kw.CampaignName = row.Campaign.Name
		}
		if row.AdGroup != nil {
			kw.AdGroupID = row.AdGroup.ID
			kw.AdGroupName = row.AdGroup.Name
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// GetAccountSummary aggregates account-level performance over the window.
// Returns nil when the API yields no rows for the period.
func (c *Client) GetAccountSummary(ctx context.Context, customerID string, days int) (*AccountSummary, error) {
	const op = "get_account_summary"
	if days <= 0 {
		days = defaultReportingDays
	}
	id := NormalizeCustomerID(customerID)

	raw, err := c.searchAll(ctx, op, id, summaryQuery(days))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(op, id, raw)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Customer == nil || row.Metrics == nil {
			continue
		}
		cost := float64(row.Metrics.CostMicros) / 1e6
		return &AccountSummary{
			AccountID:       row.Customer.ID,
			AccountName:     row.Customer.DescriptiveName,
			Currency:        row.Customer.CurrencyCode,
			PeriodDays:      days,
			Impressions:     row.Metrics.Impressions,
			Clicks:          row.Metrics.Clicks,
			CTR:             round2(ratio(float64(row.Metrics.Clicks), float64(row.Metrics.Impressions)) * 100),
			Cost:            round2(cost),
			CPC:             round2(ratio(cost, float64(row.Metrics.Clicks))),
			Conversions:     round2(row.Metrics.Conversions),
			ConversionValue: round2(row.Metrics.ConversionsValue),
		}, nil
	}
	return nil, nil
}

// Search runs a caller-supplied GAQL query and returns the raw result rows
// as generic JSON objects.
func (c *Client) Search(ctx context.Context, customerID, query string) ([]map[string]any, error) {
	const op = "search"
	id := NormalizeCustomerID(customerID)

	raw, err := c.searchAll(ctx, op, id, query)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		var row map[string]any
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, upstreamErr(op, id, fmt.Errorf("decoding row: %w", err))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
