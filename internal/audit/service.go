package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records internal sync activity.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogSyncRun records the outcome of one sync invocation.
func (s *Service) LogSyncRun(ctx context.Context, clientID, since, until string, references, rowsWritten, failures int, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeSyncRun,
		ClientID:    clientID,
		Since:       since,
		Until:       until,
		References:  references,
		RowsWritten: rowsWritten,
		Failures:    failures,
		Message:     message,
	})
}

// LogTokenExpiry records that the provider token was reported expired, so
// ops can prompt for re-auth.
func (s *Service) LogTokenExpiry(ctx context.Context, message string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeTokenExpiry,
		Message: message,
	})
}
