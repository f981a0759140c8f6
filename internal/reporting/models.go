package reporting

// Common filtering inputs. Dates are YYYY-MM-DD strings to match the stored
// metric rows; no timezone math happens at this layer.

type DateRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// SummaryRequest requests aggregated ad metrics for one client.
// Client isolation: ClientID is required.

type SummaryRequest struct {
	ClientID   string    `json:"client_id"`
	Range      DateRange `json:"range"`
	CampaignID string    `json:"campaign_id,omitempty"`
}

type Summary struct {
	ClientID   string `json:"client_id"`
	CampaignID string `json:"campaign_id,omitempty"`

	Days int `json:"days"`

	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Reach       int64   `json:"reach"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	VideoViews  int64   `json:"video_views"`
	Leads       int64   `json:"leads"`
	LinkClicks  int64   `json:"link_clicks"`

	// Rates recomputed from the totals, not averaged across days.
	CTR float64 `json:"ctr"`
	CPC float64 `json:"cpc"`
	CPM float64 `json:"cpm"`

	CostPerConversion *float64 `json:"cost_per_conversion"`
	ROAS              *float64 `json:"roas"`
}

// DailySeriesRequest requests a per-day series over the range.

type DailySeriesRequest struct {
	ClientID   string    `json:"client_id"`
	Range      DateRange `json:"range"`
	CampaignID string    `json:"campaign_id,omitempty"`
}

// DailyPoint is one day of the series, summed across the client's rows for
// that day when more than one campaign reports.

type DailyPoint struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Leads       int64   `json:"leads"`
	LinkClicks  int64   `json:"link_clicks"`
}
