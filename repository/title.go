package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// ListTitles implements TitleStore.
func (s *GormStore) ListTitles(ctx context.Context) ([]models.Title, error) {
	var titles []models.Title
	err := s.conn(ctx).Order("code ASC").Find(&titles).Error
	return titles, err
}

// GetTitle implements TitleStore.
func (s *GormStore) GetTitle(ctx context.Context, id string) (models.Title, error) {
	var t models.Title
	err := s.conn(ctx).Where("id = ?", id).First(&t).Error
	return t, notFound(err)
}

// FindTitleByName implements TitleStore.
func (s *GormStore) FindTitleByName(ctx context.Context, name string) (models.Title, error) {
	var t models.Title
	err := s.conn(ctx).Where("name = ?", name).First(&t).Error
	return t, notFound(err)
}

// ListUserTitles implements TitleStore.
func (s *GormStore) ListUserTitles(ctx context.Context, userID string) ([]models.UserTitle, error) {
	var rows []models.UserTitle
	err := s.conn(ctx).Where("user_id = ?", userID).Order("unlocked_at ASC").Find(&rows).Error
	return rows, err
}

// HasUserTitle implements TitleStore.
func (s *GormStore) HasUserTitle(ctx context.Context, userID, titleID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.UserTitle{}).
		Where("user_id = ? AND title_id = ?", userID, titleID).
		Count(&n).Error
	return n > 0, err
}

// UnlockTitle inserts the unlock row. It returns false when the user already
// holds the title, including when a concurrent request won the race.
func (s *GormStore) UnlockTitle(ctx context.Context, userID, titleID string, at time.Time) (bool, error) {
	row := models.UserTitle{UserID: userID, TitleID: titleID, UnlockedAt: at}
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
