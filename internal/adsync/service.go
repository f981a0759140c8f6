package adsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"adsync-platform/internal/audit"
	"adsync-platform/internal/meta"

	"github.com/google/uuid"
)

var ErrInvalidRequest = errors.New("adsync: invalid request")

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MetricsStore is the persistence contract for synced metric rows.
//
// ReplaceRange must delete every row matching the reference's addressing key
// and the date range, then insert the fresh rows, atomically: readers must
// never observe the range half-written.
type MetricsStore interface {
	ReplaceRange(ctx context.Context, ref SyncReference, platform, since, until string, rows []StoredMetricRow) (int, error)

	// UpsertRows merges rows on (client_id, campaign_id, date, platform).
	// Used by the non-range client sync path.
	UpsertRows(ctx context.Context, rows []StoredMetricRow) error
}

// ReferenceProvider yields the ad-account configurations to synchronize.
// Implementations must already filter to active, ad-account-configured rows.
type ReferenceProvider interface {
	// CampaignReferences returns campaign-level references, optionally
	// scoped to one client.
	CampaignReferences(ctx context.Context, clientID string) ([]SyncReference, error)
	// ClientReferences returns account-level references (CampaignID nil),
	// optionally scoped to one client.
	ClientReferences(ctx context.Context, clientID string) ([]SyncReference, error)
}

// InsightsFetcher is the slice of the Meta client the engine needs.
type InsightsFetcher interface {
	AccountOverview(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error)
}

// Service is the sync/reconciliation engine. References are processed
// sequentially; one reference's failure never aborts the batch.
type Service struct {
	store    MetricsStore
	refs     ReferenceProvider
	insights InsightsFetcher
	audit    *audit.Service
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(store MetricsStore, refs ReferenceProvider, insights InsightsFetcher, auditSvc *audit.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		refs:     refs,
		insights: insights,
		audit:    auditSvc,
		log:      log,
		clock:    time.Now,
	}
}

// Run executes one sync invocation over [since, until].
func (s *Service) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	since, until, err := s.resolveRange(req)
	if err != nil {
		return RunSummary{}, err
	}
	if req.ClientID != "" {
		if _, err := uuid.Parse(req.ClientID); err != nil {
			return RunSummary{}, fmt.Errorf("%w: client_id must be a UUID", ErrInvalidRequest)
		}
	}
	if s.store == nil || s.refs == nil || s.insights == nil {
		return RunSummary{}, errors.New("adsync: service not fully configured")
	}

	references, err := s.resolveReferences(ctx, req.ClientID)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Since: since, Until: until, Results: []RunResult{}}
	if len(references) == 0 {
		summary.Message = "no ad accounts configured for sync"
		return summary, nil
	}

	var ok, failed, rowsWritten int
	for _, ref := range references {
		result := s.syncReference(ctx, ref, since, until)
		summary.Results = append(summary.Results, result)
		if result.Error != "" {
			failed++
			continue
		}
		ok++
		rowsWritten += result.Rows
	}

	summary.Message = fmt.Sprintf("synced %d ad account(s): %d ok, %d failed, %d rows", len(references), ok, failed, rowsWritten)

	if s.audit != nil {
		if err := s.audit.LogSyncRun(ctx, req.ClientID, since, until, len(references), rowsWritten, failed, summary.Message); err != nil {
			s.log.Warn("sync audit append failed", "err", err)
		}
	}
	return summary, nil
}

// resolveReferences builds the run's reference list. Campaign-level
// references take priority: clients covered by one are excluded from the
// account-level fallback set.
func (s *Service) resolveReferences(ctx context.Context, clientID string) ([]SyncReference, error) {
	campaignRefs, err := s.refs.CampaignReferences(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("adsync: resolve campaign references: %w", err)
	}

	covered := make(map[string]struct{}, len(campaignRefs))
	for _, ref := range campaignRefs {
		covered[ref.ClientID] = struct{}{}
	}

	clientRefs, err := s.refs.ClientReferences(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("adsync: resolve client references: %w", err)
	}

	out := campaignRefs
	for _, ref := range clientRefs {
		if _, taken := covered[ref.ClientID]; taken {
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}

// syncReference runs the fetch-then-overwrite cycle for one reference.
// Failures are returned as data, never as an error.
func (s *Service) syncReference(ctx context.Context, ref SyncReference, since, until string) RunResult {
	account := meta.NormalizeAdAccountID(ref.AdAccountID)

	metrics, err := s.insights.AccountOverview(ctx, account, since, until)
	if err != nil {
		s.log.Warn("insights fetch failed",
			"client_id", ref.ClientID, "ad_account_id", account, "err", err)
		if apiErr, ok := meta.AsAPIError(err); ok && apiErr.IsTokenExpired() && s.audit != nil {
			if auditErr := s.audit.LogTokenExpiry(ctx, apiErr.Error()); auditErr != nil {
				s.log.Warn("token expiry audit append failed", "err", auditErr)
			}
		}
		return RunResult{Reference: ref, Rows: 0, Error: err.Error()}
	}
	if len(metrics) == 0 {
		// No spend in the range; nothing to overwrite.
		return RunResult{Reference: ref, Rows: 0}
	}

	rows := make([]StoredMetricRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, StoredMetricRow{
			ClientID:    ref.ClientID,
			CampaignID:  ref.CampaignID,
			Platform:    PlatformMeta,
			DailyMetric: m,
		})
	}

	n, err := s.store.ReplaceRange(ctx, ref, PlatformMeta, since, until, rows)
	if err != nil {
		s.log.Error("metric range replace failed",
			"client_id", ref.ClientID, "ad_account_id", account, "err", err)
		return RunResult{Reference: ref, Rows: 0, Error: err.Error()}
	}
	return RunResult{Reference: ref, Rows: n}
}

// SyncClientMetrics merges already-fetched metrics for one client without a
// range overwrite. Unlike Run, existing rows outside the given metrics are
// left untouched.
func (s *Service) SyncClientMetrics(ctx context.Context, clientID string, campaignID *string, metrics []meta.DailyMetric) (int, error) {
	if clientID == "" {
		return 0, fmt.Errorf("%w: client_id required", ErrInvalidRequest)
	}
	if len(metrics) == 0 {
		return 0, nil
	}
	rows := make([]StoredMetricRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, StoredMetricRow{
			ClientID:    clientID,
			CampaignID:  campaignID,
			Platform:    PlatformMeta,
			DailyMetric: m,
		})
	}
	if err := s.store.UpsertRows(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Service) resolveRange(req RunRequest) (string, string, error) {
	yesterday := s.clock().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	since, until := req.Since, req.Until
	if since == "" {
		since = yesterday
	}
	if until == "" {
		until = yesterday
	}
	if !isoDatePattern.MatchString(since) {
		return "", "", fmt.Errorf("%w: since must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if !isoDatePattern.MatchString(until) {
		return "", "", fmt.Errorf("%w: until must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if since > until {
		return "", "", fmt.Errorf("%w: since is after until", ErrInvalidRequest)
	}
	return since, until, nil
}
