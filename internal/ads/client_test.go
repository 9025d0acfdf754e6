package ads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(),
		Credentials{DeveloperToken: "dev-token", AccessToken: "at"},
		WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(context.Background(), Credentials{DeveloperToken: "dev"})
	if err == nil {
		t.Fatal("expected error for credentials without any token")
	}
}

func TestGetCampaigns(t *testing.T) {
	var gotPath, gotDevToken, gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDevToken = r.Header.Get("developer-token")
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body.Query

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"campaign": map[string]any{"id": "111", "name": "Brand", "status": "ENABLED"},
					"metrics": map[string]any{
						"impressions": "1000",
						"clicks":      "50",
						"costMicros":  "25000000",
						"conversions": 5.0,
					},
				},
			},
		})
	})

	client := testClient(t, handler)
	campaigns, err := client.GetCampaigns(context.Background(), "123-456-7890", 30, 100)
	if err != nil {
		t.Fatalf("GetCampaigns: %v", err)
	}

	if gotPath != "/v20/customers/1234567890/googleAds:search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotDevToken != "dev-token" {
		t.Errorf("developer-token header = %q", gotDevToken)
	}
	if gotQuery == "" {
		t.Error("expected a GAQL query in the request body")
	}

	if len(campaigns) != 1 {
		t.Fatalf("got %d campaigns, want 1", len(campaigns))
	}
	c := campaigns[0]
	if c.ID != "111" || c.Name != "Brand" || c.Status != "ENABLED" {
		t.Errorf("campaign identity = %+v", c)
	}
	if c.AccountID != "1234567890" {
		t.Errorf("account id = %q", c.AccountID)
	}
	if c.Impressions != 1000 || c.Clicks != 50 || c.Cost != 25.0 || c.Conversions != 5 {
		t.Errorf("campaign metrics = %+v", c)
	}
	if c.CTR() != 5.0 || c.CPC() != 0.5 || c.CPA() != 5.0 {
		t.Errorf("derived ratios = ctr %v cpc %v cpa %v", c.CTR(), c.CPC(), c.CPA())
	}
}

func TestGetCampaignsPagination(t *testing.T) {
	call := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if call == 1 {
			if body["pageToken"] != "" {
				t.Errorf("first page should not carry a pageToken, got %q", body["pageToken"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"campaign": map[string]any{"id": "1", "name": "A", "status": "ENABLED"}, "metrics": map[string]any{}},
				},
				"nextPageToken": "page-2",
			})
			return
		}
		if body["pageToken"] != "page-2" {
			t.Errorf("second page token = %q", body["pageToken"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"campaign": map[string]any{"id": "2", "name": "B", "status": "PAUSED"}, "metrics": map[string]any{}},
			},
		})
	})

	client := testClient(t, handler)
	campaigns, err := client.GetCampaigns(context.Background(), "1", 30, 100)
	if err != nil {
		t.Fatalf("GetCampaigns: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("got %d campaigns, want 2 across pages", len(campaigns))
	}
	if call != 2 {
		t.Errorf("made %d calls, want 2", call)
	}
}

func TestGetKeywords(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"campaign": map[string]any{"id": "10", "name": "Search"},
					"adGroup":  map[string]any{"id": "20", "name": "Shoes"},
					"adGroupCriterion": map[string]any{
						"keyword": map[string]any{"text": "running shoes", "matchType": "EXACT"},
					},
					"metrics": map[string]any{
						"impressions": "400",
						"clicks":      "8",
						"costMicros":  "4000000",
						"conversions": 2.0,
					},
				},
			},
		})
	})

	client := testClient(t, handler)
	keywords, err := client.GetKeywords(context.Background(), "1", "10", 30, 100)
	if err != nil {
		t.Fatalf("GetKeywords: %v", err)
	}
	if len(keywords) != 1 {
		t.Fatalf("got %d keywords, want 1", len(keywords))
	}
	kw := keywords[0]
	if kw.Text != "running shoes" || kw.MatchType != "EXACT" {
		t.Errorf("keyword = %+v", kw)
	}
	if kw.CampaignName != "Search" || kw.AdGroupName != "Shoes" {
		t.Errorf("keyword parents = %+v", kw)
	}
	if kw.Cost != 4.0 {
		t.Errorf("cost = %v, want 4.0", kw.Cost)
	}
}

func TestGetKeywordsRejectsNonNumericCampaign(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid campaign id")
	}))
	_, err := client.GetKeywords(context.Background(), "1", "10 OR 1=1", 30, 100)
	if err == nil {
		t.Fatal("expected error for non-numeric campaign id")
	}
}

func TestGetAccountSummary(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"customer": map[string]any{
						"id":              "1234567890",
						"descriptiveName": "Acme",
						"currencyCode":    "EUR",
					},
					"metrics": map[string]any{
						"impressions":      "10000",
						"clicks":           "300",
						"costMicros":       "123456789",
						"conversions":      12.345,
						"conversionsValue": 99.999,
					},
				},
			},
		})
	})

	client := testClient(t, handler)
	summary, err := client.GetAccountSummary(context.Background(), "1234567890", 30)
	if err != nil {
		t.Fatalf("GetAccountSummary: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if summary.AccountName != "Acme" || summary.Currency != "EUR" {
		t.Errorf("summary identity = %+v", summary)
	}
	if summary.PeriodDays != 30 {
		t.Errorf("period = %d, want 30", summary.PeriodDays)
	}
	if summary.CTR != 3.0 {
		t.Errorf("ctr = %v, want 3.0", summary.CTR)
	}
	if summary.Cost != 123.46 {
		t.Errorf("cost = %v, want 123.46", summary.Cost)
	}
	if summary.CPC != 0.41 {
		t.Errorf("cpc = %v, want 0.41", summary.CPC)
	}
	if summary.Conversions != 12.35 {
		t.Errorf("conversions = %v, want 12.35", summary.Conversions)
	}
}

func TestGetAccountSummaryEmpty(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	}))
	summary, err := client.GetAccountSummary(context.Background(), "1", 30)
	if err != nil {
		t.Fatalf("GetAccountSummary: %v", err)
	}
	if summary != nil {
		t.Errorf("expected nil summary for empty period, got %+v", summary)
	}
}

func TestListAccessibleAccounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v20/customers:listAccessibleCustomers" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"resourceNames": []string{"customers/1111111111", "customers/2222222222"},
			})
			return
		}
		switch r.URL.Path {
		case "/v20/customers/1111111111/googleAds:search":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"customer": map[string]any{
						"id":              "1111111111",
						"descriptiveName": "Main",
						"currencyCode":    "USD",
						"timeZone":        "America/New_York",
					}},
				},
			})
		case "/v20/customers/2222222222/googleAds:search":
			// Manager-linked account the token cannot query directly.
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 403, "message": "permission denied", "status": "PERMISSION_DENIED"},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	client := testClient(t, handler)
	accounts, err := client.ListAccessibleAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccessibleAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1 (inaccessible account skipped)", len(accounts))
	}
	if accounts[0].ID != "1111111111" || accounts[0].Name != "Main" {
		t.Errorf("account = %+v", accounts[0])
	}
}

func TestSearchRaw(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"adGroupAd": map[string]any{"ad": map[string]any{"id": "77"}}},
			},
		})
	}))
	rows, err := client.Search(context.Background(), "1", "SELECT ad_group_ad.ad.id FROM ad_group_ad")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0]["adGroupAd"]; !ok {
		t.Errorf("raw row missing adGroupAd key: %v", rows[0])
	}
}

func TestUpstreamErrorAnnotation(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "invalid GAQL", "status": "INVALID_ARGUMENT"},
		})
	}))

	_, err := client.GetCampaigns(context.Background(), "123-456-7890", 30, 100)
	if err == nil {
		t.Fatal("expected an error")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error %T is not *UpstreamError", err)
	}
	if upstream.Op != "get_campaigns" {
		t.Errorf("op = %q", upstream.Op)
	}
	if upstream.CustomerID != "1234567890" {
		t.Errorf("customer id = %q", upstream.CustomerID)
	}
	if upstream.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", upstream.StatusCode)
	}
	if upstream.Message != "invalid GAQL" {
		t.Errorf("message = %q", upstream.Message)
	}
}
