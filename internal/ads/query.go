package ads

import (
	"fmt"
	"strings"
)

// customerIDWidth is the fixed width of a normalized Google Ads customer id.
const customerIDWidth = 10

// NormalizeCustomerID strips every non-digit character (dashes, spaces) from
// a customer id and left-pads the result with zeros to ten digits, the form
// the API expects in resource paths.
func NormalizeCustomerID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= customerIDWidth {
		return digits
	}
	return strings.Repeat("0", customerIDWidth-len(digits)) + digits
}

// accountDescriptorQuery fetches the identity row of a single account.
const accountDescriptorQuery = `SELECT customer.id, customer.descriptive_name, customer.manager, customer.currency_code, customer.time_zone FROM customer LIMIT 1`

func campaignsQuery(days, limit int) string {
	return fmt.Sprintf(`SELECT campaign.id, campaign.name, campaign.status, `+
		`metrics.impressions, metrics.clicks, metrics.cost_micros, metrics.conversions `+
		`FROM campaign WHERE segments.date DURING LAST_%d_DAYS `+
		`ORDER BY metrics.cost_micros DESC LIMIT %d`, days, limit)
}

func keywordsQuery(campaignID string, days, limit int) string {
	filter := ""
	if campaignID != "" {
		filter = fmt.Sprintf(" AND campaign.id = %s", campaignID)
	}
	return fmt.Sprintf(`SELECT campaign.id, campaign.name, ad_group.id, ad_group.name, `+
		`ad_group_criterion.keyword.text, ad_group_criterion.keyword.match_type, `+
		`metrics.impressions, metrics.clicks, metrics.cost_micros, metrics.conversions `+
		`FROM keyword_view WHERE segments.date DURING LAST_%d_DAYS%s `+
		`ORDER BY metrics.cost_micros DESC LIMIT %d`, days, filter, limit)
}

func summaryQuery(days int) string {
	return fmt.Sprintf(`SELECT customer.id, customer.descriptive_name, customer.currency_code, `+
		`metrics.impressions, metrics.clicks, metrics.cost_micros, metrics.conversions, `+
		`metrics.conversions_value FROM customer WHERE segments.date DURING LAST_%d_DAYS`, days)
}
