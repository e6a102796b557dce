package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/metrics"
	"github.com/PabloGalante/trina/internal/observability"
)

const (
	DefaultListLimit = 50
	maxTypeLength    = 100
)

// Service records usage of self-help activities. It is independent of the
// conversation flow.
type Service struct {
	store domain.ActivityStore
	now   func() time.Time
}

// NewService creates an activity service from an ActivityStore
func NewService(store domain.ActivityStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

type LogInput struct {
	ActivityType    string
	DurationSeconds *int
	Completed       bool
	Notes           string
}

// Log records an activity for the caller in ctx, or anonymously.
func (s *Service) Log(ctx context.Context, in LogInput) (*domain.Activity, error) {
	kind := strings.TrimSpace(in.ActivityType)
	if kind == "" || len(kind) > maxTypeLength {
		return nil, fmt.Errorf("activity type must be 1-%d characters: %w", maxTypeLength, domain.ErrInvalidInput)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return nil, fmt.Errorf("negative duration: %w", domain.ErrInvalidInput)
	}

	userID, _ := domain.IdentityFromContext(ctx)
	a := &domain.Activity{
		ID:              domain.ActivityID(uuid.NewString()),
		UserID:          userID,
		ActivityType:    kind,
		DurationSeconds: in.DurationSeconds,
		Completed:       in.Completed,
		Notes:           in.Notes,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.LogActivity(ctx, a); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("failed to log activity")
		return nil, fmt.Errorf("log activity: %w", err)
	}

	metrics.ActivitiesLogged.Inc()
	return a, nil
}

// List returns the caller's last `limit` activities, newest first.
// If limit <= 0, DefaultListLimit is used.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Activity, error) {
	userID, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("list activities: %w", domain.ErrUnauthorized)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	out, err := s.store.ListActivitiesByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if out == nil {
		out = []*domain.Activity{}
	}
	return out, nil
}
