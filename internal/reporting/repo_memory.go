package reporting

import (
	"context"
	"sync"

	"adsync-platform/internal/adsync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	Rows []adsync.StoredMetricRow
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListMetrics(ctx context.Context, clientID, campaignID, since, until string) ([]adsync.StoredMetricRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []adsync.StoredMetricRow
	for _, row := range r.Rows {
		if row.ClientID != clientID {
			continue
		}
		if campaignID != "" && (row.CampaignID == nil || *row.CampaignID != campaignID) {
			continue
		}
		if row.Date < since || row.Date > until {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
