package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// GetProgress returns ErrNotFound for users without a progress row.
func (s *GormStore) GetProgress(ctx context.Context, userID string) (models.UserProgress, error) {
	var p models.UserProgress
	err := s.conn(ctx).Where("user_id = ?", userID).First(&p).Error
	return p, notFound(err)
}

// LockProgress implements ProgressStore.
func (s *GormStore) LockProgress(ctx context.Context, userID string) (models.UserProgress, error) {
	db := s.conn(ctx)
	seed := models.UserProgress{UserID: userID, Level: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return models.UserProgress{}, err
	}
	var p models.UserProgress
	err := forUpdate(db).Where("user_id = ?", userID).First(&p).Error
	return p, notFound(err)
}

// UpdateLevel stores the post-leveling level and XP and adds pointsDelta.
func (s *GormStore) UpdateLevel(ctx context.Context, userID string, level, xp, pointsDelta int) error {
	return s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"level":        level,
			"current_xp":   xp,
			"total_points": gorm.Expr("total_points + ?", pointsDelta),
		}).Error
}

// UpdateStreak implements ProgressStore.
func (s *GormStore) UpdateStreak(ctx context.Context, userID string, current, maxStreak int) error {
	return s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"current_streak": current, "max_streak": maxStreak}).Error
}

// SetPity implements ProgressStore.
func (s *GormStore) SetPity(ctx context.Context, userID string, pity int) error {
	return s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Update("pity_counter", pity).Error
}

// AddPoints implements ProgressStore.
func (s *GormStore) AddPoints(ctx context.Context, userID string, delta int) error {
	return s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", delta)).Error
}

// SpendPoints deducts cost only when the balance covers it.
func (s *GormStore) SpendPoints(ctx context.Context, userID string, cost int) (bool, error) {
	res := s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ? AND total_points >= ?", userID, cost).
		Update("total_points", gorm.Expr("total_points - ?", cost))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetActiveTitle implements ProgressStore. A nil titleID clears it.
func (s *GormStore) SetActiveTitle(ctx context.Context, userID string, titleID *string) error {
	return s.conn(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Update("active_title_id", titleID).Error
}
