package reporting

import (
	"context"
	"database/sql"

	"adsync-platform/internal/adsync"
)

// PostgresRepo reads synced metric rows from the ad_metrics table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListMetrics(ctx context.Context, clientID, campaignID, since, until string) ([]adsync.StoredMetricRow, error) {
	const q = `
SELECT client_id, campaign_id, platform, date,
       spend, impressions, reach, clicks, ctr, cpc, cpm,
       conversions, cost_per_conversion, roas,
       video_views, leads, link_clicks
FROM ad_metrics
WHERE client_id = $1::uuid
  AND ($2 = '' OR campaign_id = $2)
  AND date >= $3 AND date <= $4
ORDER BY date, COALESCE(campaign_id, '')
`
	rows, err := r.db.QueryContext(ctx, q, clientID, campaignID, since, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []adsync.StoredMetricRow
	for rows.Next() {
		var row adsync.StoredMetricRow
		if err := rows.Scan(
			&row.ClientID,
			&row.CampaignID,
			&row.Platform,
			&row.Date,
			&row.Spend,
			&row.Impressions,
			&row.Reach,
			&row.Clicks,
			&row.CTR,
			&row.CPC,
			&row.CPM,
			&row.Conversions,
			&row.CostPerConversion,
			&row.ROAS,
			&row.VideoViews,
			&row.Leads,
			&row.LinkClicks,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
