package services

import (
	"context"
	"time"

	"github.com/cppla/officing/repository"
)

// StatsService reports daily activity for operators.
type StatsService struct {
	store repository.Store
	cal   calendar
}

// Daily returns the activity of the calendar day containing day. A zero day
// means today.
func (s *StatsService) Daily(ctx context.Context, day time.Time) (repository.DailyStats, error) {
	if day.IsZero() {
		day = s.cal.now()
	}
	stats, err := s.store.DailyStats(ctx, s.cal.startOfDay(day))
	return stats, wrap("daily stats", err)
}

// RecordHit counts a successful request to route today.
func (s *StatsService) RecordHit(ctx context.Context, route string) error {
	return s.store.RecordHit(ctx, s.cal.today(), route)
}
