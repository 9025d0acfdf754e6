package ads

// Account describes a Google Ads account reachable by the authenticated user.
type Account struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Currency  string `json:"currency,omitempty"`
	TimeZone  string `json:"timezone,omitempty"`
	IsManager bool   `json:"is_manager"`
}

// Campaign is a flat projection of one campaign row with its metrics over the
// requested reporting window.
type Campaign struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	AccountID   string  `json:"account_id"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
}

// Keyword is a flat projection of one keyword_view row.
type Keyword struct {
	Text         string  `json:"text"`
	MatchType    string  `json:"match_type"`
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	AdGroupID    string  `json:"ad_group_id"`
	AdGroupName  string  `json:"ad_group_name"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Cost         float64 `json:"cost"`
	Conversions  float64 `json:"conversions"`
}

// AccountSummary aggregates account-level metrics over a reporting window.
// CTR, CPC and CPA are precomputed with the same guarded-division convention
// as the per-entity methods.
type AccountSummary struct {
	AccountID       string  `json:"account_id"`
	AccountName     string  `json:"account_name"`
	Currency        string  `json:"currency"`
	PeriodDays      int     `json:"period_days"`
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	CTR             float64 `json:"ctr"`
	Cost            float64 `json:"cost"`
	CPC             float64 `json:"cpc"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversion_value"`
}

// ratio returns num/den, or 0 when the denominator is 0. All derived metrics
// share this convention so zero-traffic entities never divide by zero.
func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}

// CTR returns the click-through rate as a percentage, 0 when there are no
// impressions.
func (c Campaign) CTR() float64 {
	return ratio(float64(c.Clicks), float64(c.Impressions)) * 100
}

// CPC returns the average cost per click, 0 when there are no clicks.
func (c Campaign) CPC() float64 {
	return ratio(c.Cost, float64(c.Clicks))
}

// CPA returns the cost per acquisition, 0 when there are no conversions.
func (c Campaign) CPA() float64 {
	return ratio(c.Cost, c.Conversions)
}

// CTR returns the click-through rate as a percentage, 0 when there are no
// impressions.
func (k Keyword) CTR() float64 {
	return ratio(float64(k.Clicks), float64(k.Impressions)) * 100
}

// CPC returns the average cost per click, 0 when there are no clicks.
func (k Keyword) CPC() float64 {
	return ratio(k.Cost, float64(k.Clicks))
}

// CPA returns the cost per acquisition, 0 when there are no conversions.
func (k Keyword) CPA() float64 {
	return ratio(k.Cost, k.Conversions)
}
