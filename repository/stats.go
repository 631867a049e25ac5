package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// DailyStats aggregates one calendar day of activity.
type DailyStats struct {
	Date             string               `json:"date"`
	CheckIns         int64                `json:"check_ins"`
	Draws            int64                `json:"draws"`
	QuestCompletions int64                `json:"quest_completions"`
	Purchases        int64                `json:"purchases"`
	Hits             []models.EndpointHit `json:"hits"`
}

// RecordHit bumps the request counter for (date, route).
func (s *GormStore) RecordHit(ctx context.Context, date, route string) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "route"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("endpoint_hits.count + 1"), "updated_at": time.Now()}),
	}).Create(&models.EndpointHit{Date: date, Route: route, Count: 1}).Error
}

// DailyStats counts the activity of the day starting at dayStart.
func (s *GormStore) DailyStats(ctx context.Context, dayStart time.Time) (DailyStats, error) {
	db := s.conn(ctx)
	date := dayStart.Format(models.DateLayout)
	end := dayStart.AddDate(0, 0, 1)
	out := DailyStats{Date: date}

	if err := db.Model(&models.Attendance{}).Where("check_in_date = ?", date).Count(&out.CheckIns).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.LotteryLog{}).Where("created_at >= ? AND created_at < ?", dayStart, end).Count(&out.Draws).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.UserQuestLog{}).Where("completed_at >= ? AND completed_at < ?", dayStart, end).Count(&out.QuestCompletions).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.ShopPurchase{}).Where("created_at >= ? AND created_at < ?", dayStart, end).Count(&out.Purchases).Error; err != nil {
		return out, err
	}
	err := db.Where("date = ?", date).Order("count DESC").Find(&out.Hits).Error
	return out, err
}
