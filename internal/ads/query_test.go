package ads

import (
	"strings"
	"testing"
)

func TestNormalizeCustomerID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123-456-7890", "1234567890"},
		{"1234567890", "1234567890"},
		{"123456", "0000123456"},
		{"  987 654 3210 ", "9876543210"},
		{"customers/1234567890", "1234567890"},
		{"", "0000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeCustomerID(tt.in); got != tt.want {
				t.Errorf("NormalizeCustomerID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCampaignsQuery(t *testing.T) {
	q := campaignsQuery(7, 25)
	for _, want := range []string{"FROM campaign", "DURING LAST_7_DAYS", "LIMIT 25", "ORDER BY metrics.cost_micros DESC"} {
		if !strings.Contains(q, want) {
			t.Errorf("campaignsQuery missing %q in %q", want, q)
		}
	}
}

func TestKeywordsQueryFilter(t *testing.T) {
	q := keywordsQuery("", 30, 100)
	if strings.Contains(q, "campaign.id =") {
		t.Error("query without campaign filter should not mention campaign.id =")
	}

	q = keywordsQuery("42", 30, 100)
	if !strings.Contains(q, "AND campaign.id = 42") {
		t.Errorf("filtered query missing campaign clause: %q", q)
	}
	if !strings.Contains(q, "FROM keyword_view") {
		t.Errorf("query should select from keyword_view: %q", q)
	}
}

func TestSummaryQuery(t *testing.T) {
	q := summaryQuery(90)
	for _, want := range []string{"FROM customer", "DURING LAST_90_DAYS", "metrics.conversions_value"} {
		if !strings.Contains(q, want) {
			t.Errorf("summaryQuery missing %q in %q", want, q)
		}
	}
}
