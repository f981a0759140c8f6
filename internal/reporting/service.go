package reporting

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"adsync-platform/internal/adsync"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce client filtering.
// - Implementations read the synced metric rows; reporting never writes.

type Repository interface {
	// ListMetrics returns the stored rows for one client in [since, until].
	// An empty campaignID means all of the client's rows, including the
	// account-level ones stored under a nil campaign id.
	ListMetrics(ctx context.Context, clientID, campaignID, since, until string) ([]adsync.StoredMetricRow, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Summary aggregates the client's rows over the range. Rates come from the
// totals: averaging per-day CTRs would weight low-traffic days the same as
// high-traffic ones.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (Summary, error) {
	rows, err := s.list(ctx, req.ClientID, req.CampaignID, req.Range)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{ClientID: req.ClientID, CampaignID: req.CampaignID}
	days := map[string]struct{}{}
	var revenue float64
	for _, r := range rows {
		days[r.Date] = struct{}{}
		out.Spend += r.Spend
		out.Impressions += r.Impressions
		out.Reach += r.Reach
		out.Clicks += r.Clicks
		out.Conversions += r.Conversions
		out.VideoViews += r.VideoViews
		out.Leads += r.Leads
		out.LinkClicks += r.LinkClicks
		// Stored rows carry roas, not revenue; reconstruct it so the
		// summary roas is spend-weighted.
		if r.ROAS != nil {
			revenue += *r.ROAS * r.Spend
		}
	}
	out.Days = len(days)

	if out.Impressions > 0 {
		out.CTR = float64(out.Clicks) / float64(out.Impressions) * 100
		out.CPM = out.Spend / float64(out.Impressions) * 1000
	}
	if out.Clicks > 0 {
		out.CPC = out.Spend / float64(out.Clicks)
	}
	if out.Conversions > 0 {
		cpa := out.Spend / float64(out.Conversions)
		out.CostPerConversion = &cpa
	}
	if revenue > 0 && out.Spend > 0 {
		roas := revenue / out.Spend
		out.ROAS = &roas
	}
	return out, nil
}

// DailySeries returns one point per day, ordered by date. Days with no rows
// are absent, not zero-filled.
func (s *Service) DailySeries(ctx context.Context, req DailySeriesRequest) ([]DailyPoint, error) {
	rows, err := s.list(ctx, req.ClientID, req.CampaignID, req.Range)
	if err != nil {
		return nil, err
	}

	byDate := map[string]*DailyPoint{}
	for _, r := range rows {
		p, ok := byDate[r.Date]
		if !ok {
			p = &DailyPoint{Date: r.Date}
			byDate[r.Date] = p
		}
		p.Spend += r.Spend
		p.Impressions += r.Impressions
		p.Clicks += r.Clicks
		p.Conversions += r.Conversions
		p.Leads += r.Leads
		p.LinkClicks += r.LinkClicks
	}

	out := make([]DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Service) list(ctx context.Context, clientID, campaignID string, rng DateRange) ([]adsync.StoredMetricRow, error) {
	if clientID == "" {
		return nil, ErrInvalidRequest
	}
	if !isoDatePattern.MatchString(rng.Since) || !isoDatePattern.MatchString(rng.Until) || rng.Since > rng.Until {
		return nil, ErrInvalidRequest
	}
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	return s.repo.ListMetrics(ctx, clientID, campaignID, rng.Since, rng.Until)
}
