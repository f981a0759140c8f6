package adsync

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory MetricsStore for tests and early development.
type MemoryStore struct {
	mu   sync.Mutex
	Rows []StoredMetricRow
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) ReplaceRange(ctx context.Context, ref SyncReference, platform, since, until string, rows []StoredMetricRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.Rows[:0]
	for _, row := range s.Rows {
		if row.ClientID == ref.ClientID &&
			campaignKeyEqual(row.CampaignID, ref.CampaignID) &&
			row.Platform == platform &&
			row.Date >= since && row.Date <= until {
			continue
		}
		kept = append(kept, row)
	}
	s.Rows = append(kept, rows...)
	return len(rows), nil
}

func (s *MemoryStore) UpsertRows(ctx context.Context, rows []StoredMetricRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		replaced := false
		for i, existing := range s.Rows {
			if existing.ClientID == row.ClientID &&
				campaignKeyEqual(existing.CampaignID, row.CampaignID) &&
				existing.Date == row.Date &&
				existing.Platform == row.Platform {
				s.Rows[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			s.Rows = append(s.Rows, row)
		}
	}
	return nil
}

// All returns a copy of the stored rows.
func (s *MemoryStore) All() []StoredMetricRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredMetricRow, len(s.Rows))
	copy(out, s.Rows)
	return out
}

// campaignKeyEqual compares campaign ids as key values: nil only equals nil.
func campaignKeyEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// MemoryRefs is an in-memory ReferenceProvider for tests.
type MemoryRefs struct {
	Campaigns []SyncReference
	Clients   []SyncReference
}

func NewMemoryRefs() *MemoryRefs { return &MemoryRefs{} }

func (r *MemoryRefs) CampaignReferences(ctx context.Context, clientID string) ([]SyncReference, error) {
	return filterRefs(r.Campaigns, clientID), nil
}

func (r *MemoryRefs) ClientReferences(ctx context.Context, clientID string) ([]SyncReference, error) {
	return filterRefs(r.Clients, clientID), nil
}

func filterRefs(refs []SyncReference, clientID string) []SyncReference {
	if clientID == "" {
		out := make([]SyncReference, len(refs))
		copy(out, refs)
		return out
	}
	var out []SyncReference
	for _, ref := range refs {
		if ref.ClientID == clientID {
			out = append(out, ref)
		}
	}
	return out
}
