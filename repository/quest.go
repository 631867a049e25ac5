package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// GetQuestLog loads a log with its quest, scoped to the owner.
func (s *GormStore) GetQuestLog(ctx context.Context, userID, logID string) (models.UserQuestLog, error) {
	var l models.UserQuestLog
	err := s.conn(ctx).Preload("Quest").
		Where("id = ? AND user_id = ?", logID, userID).
		First(&l).Error
	return l, notFound(err)
}

// CompleteQuestLog marks the log done. It returns false when it was already
// completed.
func (s *GormStore) CompleteQuestLog(ctx context.Context, logID string, at time.Time, xp, points int) (bool, error) {
	res := s.conn(ctx).Model(&models.UserQuestLog{}).
		Where("id = ? AND completed_at IS NULL", logID).
		Updates(map[string]interface{}{
			"completed_at":  at,
			"xp_earned":     xp,
			"points_earned": points,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountCompletedQuests implements QuestStore.
func (s *GormStore) CountCompletedQuests(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.UserQuestLog{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&n).Error
	return int(n), err
}

// ListQuestLogs returns the user's logs assigned on date.
func (s *GormStore) ListQuestLogs(ctx context.Context, userID, date string) ([]models.UserQuestLog, error) {
	var logs []models.UserQuestLog
	err := s.conn(ctx).Preload("Quest").
		Where("user_id = ? AND assigned_date = ?", userID, date).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

// ListActiveQuests implements QuestStore.
func (s *GormStore) ListActiveQuests(ctx context.Context, questType string) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.conn(ctx).
		Where("is_active = ? AND quest_type = ?", true, questType).
		Order("code ASC").
		Find(&quests).Error
	return quests, err
}

// InsertQuestLogs skips logs that already exist for the same user, quest and day.
func (s *GormStore) InsertQuestLogs(ctx context.Context, logs []models.UserQuestLog) error {
	if len(logs) == 0 {
		return nil
	}
	return s.conn(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&logs).Error
}

// DeleteStaleQuestLogs removes incomplete logs assigned before the given date.
// An empty userID sweeps every user.
func (s *GormStore) DeleteStaleQuestLogs(ctx context.Context, userID, before string) (int64, error) {
	q := s.conn(ctx).Where("completed_at IS NULL AND assigned_date < ?", before)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&models.UserQuestLog{})
	return res.RowsAffected, res.Error
}
