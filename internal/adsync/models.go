package adsync

import "adsync-platform/internal/meta"

// PlatformMeta is the platform discriminator for rows written by this engine.
const PlatformMeta = "meta"

// SyncReference identifies one synchronization unit: a client plus either a
// specific campaign's ad account or the client's own account-level fallback.
// References are resolved fresh on every run and never persisted.
//
// Invariant: a client with at least one campaign-level reference never also
// gets a fallback reference in the same run.
type SyncReference struct {
	ClientID    string  `json:"client_id"`
	CampaignID  *string `json:"campaign_id"` // nil = client-level fallback
	AdAccountID string  `json:"ad_account_id"`
}

// StoredMetricRow is a daily metric addressed to its owning client/campaign.
// Uniqueness key: (client_id, campaign_id, date, platform) with a nil
// campaign_id treated as its own distinct key value, not a wildcard.
// Rows are replaced wholesale per date range, never mutated in place.
type StoredMetricRow struct {
	ClientID   string  `json:"client_id"`
	CampaignID *string `json:"campaign_id"`
	Platform   string  `json:"platform"`

	meta.DailyMetric
}

// RunRequest scopes one sync invocation. Empty dates default to yesterday;
// an empty ClientID means every client.
type RunRequest struct {
	Since    string `json:"since,omitempty"`
	Until    string `json:"until,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// RunResult is the outcome for one reference. A failed fetch is data here,
// not an error: the batch always completes.
type RunResult struct {
	Reference SyncReference `json:"reference"`
	Rows      int           `json:"rows"`
	Error     string        `json:"error,omitempty"`
}

// RunSummary is the caller-facing result of one sync invocation.
type RunSummary struct {
	Message string      `json:"message"`
	Since   string      `json:"since"`
	Until   string      `json:"until"`
	Results []RunResult `json:"results"`
}
