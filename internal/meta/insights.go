package meta

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	adAccountPattern = regexp.MustCompile(`^act_\d+$`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// baseInsightFields is the fixed field set every insights request asks for.
const baseInsightFields = "date_start,date_stop,spend,impressions,reach,clicks,ctr,cpc,cpm,actions,action_values"

// NormalizeAdAccountID prefixes a bare numeric account id with act_ as the
// Graph API requires. Already-prefixed ids pass through unchanged.
func NormalizeAdAccountID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "act_") {
		return id
	}
	return "act_" + id
}

func validateInsightArgs(accountID, since, until string) error {
	if !adAccountPattern.MatchString(accountID) {
		return &ValidationError{Field: "ad_account_id", Reason: fmt.Sprintf("%q must match act_<digits>", accountID)}
	}
	if !isoDatePattern.MatchString(since) {
		return &ValidationError{Field: "since", Reason: fmt.Sprintf("%q must be YYYY-MM-DD", since)}
	}
	if !isoDatePattern.MatchString(until) {
		return &ValidationError{Field: "until", Reason: fmt.Sprintf("%q must be YYYY-MM-DD", until)}
	}
	return nil
}

// CampaignInsight is a daily metric split by campaign.
type CampaignInsight struct {
	Metric       DailyMetric `json:"metric"`
	CampaignID   string      `json:"campaign_id"`
	CampaignName string      `json:"campaign_name"`
}

// AdSetInsight is a daily metric split by ad set within its campaign.
type AdSetInsight struct {
	Metric       DailyMetric `json:"metric"`
	AdsetID      string      `json:"adset_id"`
	AdsetName    string      `json:"adset_name"`
	CampaignID   string      `json:"campaign_id"`
	CampaignName string      `json:"campaign_name"`
}

// DemographicInsight is a daily metric split by age bracket and gender.
type DemographicInsight struct {
	Metric DailyMetric `json:"metric"`
	Age    string      `json:"age"`
	Gender string      `json:"gender"`
}

// PlatformInsight is a daily metric split by placement.
type PlatformInsight struct {
	Metric            DailyMetric `json:"metric"`
	PublisherPlatform string      `json:"publisher_platform"`
	PlatformPosition  string      `json:"platform_position"`
}

// fetchInsights validates inputs, walks every page of one insights request
// and maps each raw row through the parser plus the variant's dimension keys.
func fetchInsights[T any](ctx context.Context, c *Client, accountID, since, until, extraFields string, extra url.Values, mapRow func(insightRow) T) ([]T, error) {
	if err := validateInsightArgs(accountID, since, until); err != nil {
		return nil, err
	}

	fields := baseInsightFields
	if extraFields != "" {
		fields += "," + extraFields
	}
	params := url.Values{}
	params.Set("fields", fields)
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`, since, until))
	params.Set("time_increment", "1")
	params.Set("access_token", c.accessToken)
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	firstURL := fmt.Sprintf("%s/%s/insights?%s", c.baseURL, accountID, params.Encode())
	rows, err := c.fetchAllPages(ctx, firstURL)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRow(row))
	}
	return out, nil
}

// AccountOverview returns account-level daily metrics for the date range.
func (c *Client) AccountOverview(ctx context.Context, accountID, since, until string) ([]DailyMetric, error) {
	return fetchInsights(ctx, c, accountID, since, until, "", nil, parseDailyMetric)
}

// CampaignBreakdown returns daily metrics per campaign.
func (c *Client) CampaignBreakdown(ctx context.Context, accountID, since, until string) ([]CampaignInsight, error) {
	extra := url.Values{"level": {"campaign"}}
	return fetchInsights(ctx, c, accountID, since, until, "campaign_id,campaign_name", extra, func(row insightRow) CampaignInsight {
		return CampaignInsight{
			Metric:       parseDailyMetric(row),
			CampaignID:   row.CampaignID,
			CampaignName: row.CampaignName,
		}
	})
}

// AdSetBreakdown returns daily metrics per ad set.
func (c *Client) AdSetBreakdown(ctx context.Context, accountID, since, until string) ([]AdSetInsight, error) {
	extra := url.Values{"level": {"adset"}}
	return fetchInsights(ctx, c, accountID, since, until, "adset_id,adset_name,campaign_id,campaign_name", extra, func(row insightRow) AdSetInsight {
		return AdSetInsight{
			Metric:       parseDailyMetric(row),
			AdsetID:      row.AdsetID,
			AdsetName:    row.AdsetName,
			CampaignID:   row.CampaignID,
			CampaignName: row.CampaignName,
		}
	})
}

// DemographicBreakdown returns daily metrics per age/gender bucket.
func (c *Client) DemographicBreakdown(ctx context.Context, accountID, since, until string) ([]DemographicInsight, error) {
	extra := url.Values{"breakdowns": {"age,gender"}}
	return fetchInsights(ctx, c, accountID, since, until, "", extra, func(row insightRow) DemographicInsight {
		return DemographicInsight{
			Metric: parseDailyMetric(row),
			Age:    row.Age,
			Gender: row.Gender,
		}
	})
}

// PlatformBreakdown returns daily metrics per publisher platform/position.
func (c *Client) PlatformBreakdown(ctx context.Context, accountID, since, until string) ([]PlatformInsight, error) {
	extra := url.Values{"breakdowns": {"publisher_platform,platform_position"}}
	return fetchInsights(ctx, c, accountID, since, until, "", extra, func(row insightRow) PlatformInsight {
		return PlatformInsight{
			Metric:            parseDailyMetric(row),
			PublisherPlatform: row.PublisherPlatform,
			PlatformPosition:  row.PlatformPosition,
		}
	})
}
