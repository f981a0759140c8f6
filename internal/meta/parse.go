package meta

import "strconv"

// insightRow is one raw report row from the insights endpoint. Graph returns
// every numeric metric as a string.
type insightRow struct {
	DateStart         string        `json:"date_start"`
	DateStop          string        `json:"date_stop,omitempty"`
	Spend             string        `json:"spend"`
	Impressions       string        `json:"impressions"`
	Reach             string        `json:"reach"`
	Clicks            string        `json:"clicks"`
	CTR               string        `json:"ctr"`
	CPC               string        `json:"cpc"`
	CPM               string        `json:"cpm"`
	Actions           []actionValue `json:"actions,omitempty"`
	ActionValues      []actionValue `json:"action_values,omitempty"`
	CampaignID        string        `json:"campaign_id,omitempty"`
	CampaignName      string        `json:"campaign_name,omitempty"`
	AdsetID           string        `json:"adset_id,omitempty"`
	AdsetName         string        `json:"adset_name,omitempty"`
	Age               string        `json:"age,omitempty"`
	Gender            string        `json:"gender,omitempty"`
	PublisherPlatform string        `json:"publisher_platform,omitempty"`
	PlatformPosition  string        `json:"platform_position,omitempty"`
}

type actionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// DailyMetric is the canonical per-day metric record. Ratios (ctr/cpc/cpm)
// are provider-reported and used as-is, never recomputed here.
type DailyMetric struct {
	Date              string   `json:"date"`
	Spend             float64  `json:"spend"`
	Impressions       int64    `json:"impressions"`
	Reach             int64    `json:"reach"`
	Clicks            int64    `json:"clicks"`
	CTR               float64  `json:"ctr"`
	CPC               float64  `json:"cpc"`
	CPM               float64  `json:"cpm"`
	Conversions       int64    `json:"conversions"`
	CostPerConversion *float64 `json:"cost_per_conversion"`
	ROAS              *float64 `json:"roas"`
	VideoViews        int64    `json:"video_views"`
	Leads             int64    `json:"leads"`
	LinkClicks        int64    `json:"link_clicks"`
}

// The four pixel events that count as a conversion. Everything else in the
// actions array is ignored for the conversions total.
var conversionActionTypes = []string{
	"offsite_conversion.fb_pixel_purchase",
	"offsite_conversion.fb_pixel_lead",
	"offsite_conversion.fb_pixel_complete_registration",
	"offsite_conversion.fb_pixel_schedule",
}

const (
	actionLead       = "lead"
	actionVideoView  = "video_view"
	actionLinkClick  = "link_click"
	actionPurchase   = "offsite_conversion.fb_pixel_purchase"
)

// parseDailyMetric converts one raw row into a DailyMetric. It is total: a
// well-formed row never fails, and malformed numeric strings parse to zero.
func parseDailyMetric(row insightRow) DailyMetric {
	m := DailyMetric{
		Date:        row.DateStart,
		Spend:       parseFloat(row.Spend),
		Impressions: parseInt(row.Impressions),
		Reach:       parseInt(row.Reach),
		Clicks:      parseInt(row.Clicks),
		CTR:         parseFloat(row.CTR),
		CPC:         parseFloat(row.CPC),
		CPM:         parseFloat(row.CPM),
		VideoViews:  actionTotal(row.Actions, actionVideoView),
		Leads:       actionTotal(row.Actions, actionLead),
		LinkClicks:  actionTotal(row.Actions, actionLinkClick),
	}

	var conversions int64
	for _, t := range conversionActionTypes {
		conversions += actionTotal(row.Actions, t)
	}
	m.Conversions = conversions

	if conversions > 0 {
		cpa := m.Spend / float64(conversions)
		m.CostPerConversion = &cpa
	}

	revenue := actionTotalFloat(row.ActionValues, actionPurchase)
	if m.Spend > 0 && revenue > 0 {
		roas := revenue / m.Spend
		m.ROAS = &roas
	}
	return m
}

// actionTotal returns the value of the first action of the given type, or 0.
// Each action type appears at most once per row.
func actionTotal(actions []actionValue, actionType string) int64 {
	for _, a := range actions {
		if a.ActionType == actionType {
			return parseInt(a.Value)
		}
	}
	return 0
}

func actionTotalFloat(actions []actionValue, actionType string) float64 {
	for _, a := range actions {
		if a.ActionType == actionType {
			return parseFloat(a.Value)
		}
	}
	return 0
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Graph occasionally reports integer metrics with decimals.
		return int64(parseFloat(s))
	}
	return v
}
