package adsync

import (
	"context"
	"database/sql"
	"fmt"

	"adsync-platform/pkg/utils"
)

// PostgresRepo implements MetricsStore and ReferenceProvider on Postgres.
//
// NOTE: This repository assumes the following tables exist:
// - ad_metrics (one row per client/campaign/date/platform)
// - campaigns  (id, client_id, ad_account_id, is_active)
// - clients    (id, ad_account_id, is_active)
//
// The uniqueness key treats a NULL campaign_id as a distinct value, which a
// plain UNIQUE constraint does not. The schema is expected to carry:
// CREATE UNIQUE INDEX ad_metrics_key
//   ON ad_metrics (client_id, COALESCE(campaign_id, ''), date, platform);

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// ReplaceRange deletes every stored row for the reference's addressing key
// within [since, until] and inserts the fresh rows, in one transaction so
// readers never observe the range half-written.
func (r *PostgresRepo) ReplaceRange(ctx context.Context, ref SyncReference, platform, since, until string, rows []StoredMetricRow) (int, error) {
	inserted := 0
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := deleteRange(ctx, tx, ref, platform, since, until); err != nil {
			return fmt.Errorf("delete range: %w", err)
		}
		for _, row := range rows {
			if err := insertRow(ctx, tx, row); err != nil {
				return fmt.Errorf("insert row %s: %w", row.Date, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func deleteRange(ctx context.Context, tx *sql.Tx, ref SyncReference, platform, since, until string) error {
	// campaign_id is part of the addressing key: NULL matches only NULL,
	// never any campaign's rows.
	if ref.CampaignID == nil {
		const q = `
DELETE FROM ad_metrics
WHERE client_id = $1 AND campaign_id IS NULL AND platform = $2
  AND date >= $3 AND date <= $4
`
		_, err := tx.ExecContext(ctx, q, ref.ClientID, platform, since, until)
		return err
	}
	const q = `
DELETE FROM ad_metrics
WHERE client_id = $1 AND campaign_id = $2 AND platform = $3
  AND date >= $4 AND date <= $5
`
	_, err := tx.ExecContext(ctx, q, ref.ClientID, *ref.CampaignID, platform, since, until)
	return err
}

func insertRow(ctx context.Context, tx *sql.Tx, row StoredMetricRow) error {
	const q = `
INSERT INTO ad_metrics (
  client_id, campaign_id, platform, date,
  spend, impressions, reach, clicks, ctr, cpc, cpm,
  conversions, cost_per_conversion, roas,
  video_views, leads, link_clicks
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
)
`
	_, err := tx.ExecContext(ctx, q,
		row.ClientID,
		row.CampaignID,
		row.Platform,
		row.Date,
		row.Spend,
		row.Impressions,
		row.Reach,
		row.Clicks,
		row.CTR,
		row.CPC,
		row.CPM,
		row.Conversions,
		row.CostPerConversion,
		row.ROAS,
		row.VideoViews,
		row.Leads,
		row.LinkClicks,
	)
	return err
}

// UpsertRows merges rows on the addressing key. Used by the non-range sync
// path where only the touched dates should change.
func (r *PostgresRepo) UpsertRows(ctx context.Context, rows []StoredMetricRow) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO ad_metrics (
  client_id, campaign_id, platform, date,
  spend, impressions, reach, clicks, ctr, cpc, cpm,
  conversions, cost_per_conversion, roas,
  video_views, leads, link_clicks
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
)
ON CONFLICT (client_id, COALESCE(campaign_id, ''), date, platform)
DO UPDATE SET
  spend = EXCLUDED.spend,
  impressions = EXCLUDED.impressions,
  reach = EXCLUDED.reach,
  clicks = EXCLUDED.clicks,
  ctr = EXCLUDED.ctr,
  cpc = EXCLUDED.cpc,
  cpm = EXCLUDED.cpm,
  conversions = EXCLUDED.conversions,
  cost_per_conversion = EXCLUDED.cost_per_conversion,
  roas = EXCLUDED.roas,
  video_views = EXCLUDED.video_views,
  leads = EXCLUDED.leads,
  link_clicks = EXCLUDED.link_clicks
`
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, q,
				row.ClientID,
				row.CampaignID,
				row.Platform,
				row.Date,
				row.Spend,
				row.Impressions,
				row.Reach,
				row.Clicks,
				row.CTR,
				row.CPC,
				row.CPM,
				row.Conversions,
				row.CostPerConversion,
				row.ROAS,
				row.VideoViews,
				row.Leads,
				row.LinkClicks,
			); err != nil {
				return fmt.Errorf("upsert row %s: %w", row.Date, err)
			}
		}
		return nil
	})
}

// CampaignReferences returns one reference per active campaign with an ad
// account configured, optionally scoped to one client.
func (r *PostgresRepo) CampaignReferences(ctx context.Context, clientID string) ([]SyncReference, error) {
	const q = `
SELECT client_id, id, ad_account_id
FROM campaigns
WHERE is_active = TRUE
  AND ad_account_id IS NOT NULL AND ad_account_id <> ''
  AND ($1 = '' OR client_id = $1::uuid)
ORDER BY client_id, id
`
	rows, err := r.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncReference
	for rows.Next() {
		var ref SyncReference
		var campaignID string
		if err := rows.Scan(&ref.ClientID, &campaignID, &ref.AdAccountID); err != nil {
			return nil, err
		}
		ref.CampaignID = &campaignID
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ClientReferences returns one account-level reference per active client
// with an ad account configured, optionally scoped to one client.
func (r *PostgresRepo) ClientReferences(ctx context.Context, clientID string) ([]SyncReference, error) {
	const q = `
SELECT id, ad_account_id
FROM clients
WHERE is_active = TRUE
  AND ad_account_id IS NOT NULL AND ad_account_id <> ''
  AND ($1 = '' OR id = $1::uuid)
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncReference
	for rows.Next() {
		var ref SyncReference
		if err := rows.Scan(&ref.ClientID, &ref.AdAccountID); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
