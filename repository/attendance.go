package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// InsertAttendance inserts a check-in. It returns false without error when the
// user already has a row for that date.
func (s *GormStore) InsertAttendance(ctx context.Context, a *models.Attendance) (bool, error) {
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasAttendance implements AttendanceStore.
func (s *GormStore) HasAttendance(ctx context.Context, userID, date string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Attendance{}).
		Where("user_id = ? AND check_in_date = ?", userID, date).
		Count(&n).Error
	return n > 0, err
}

// CountAttendance implements AttendanceStore.
func (s *GormStore) CountAttendance(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Attendance{}).Where("user_id = ?", userID).Count(&n).Error
	return int(n), err
}

// CountAttendanceMonth counts by the denormalised year and month columns.
func (s *GormStore) CountAttendanceMonth(ctx context.Context, userID string, year, month int) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Attendance{}).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Count(&n).Error
	return int(n), err
}

// CountAttendanceTag implements AttendanceStore.
func (s *GormStore) CountAttendanceTag(ctx context.Context, userID, tag string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Attendance{}).
		Where("user_id = ? AND location_tag = ?", userID, tag).
		Count(&n).Error
	return int(n), err
}

// ListAttendanceMonth implements AttendanceStore.
func (s *GormStore) ListAttendanceMonth(ctx context.Context, userID string, year, month int) ([]models.Attendance, error) {
	var rows []models.Attendance
	err := s.conn(ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Order("check_in_date ASC").
		Find(&rows).Error
	return rows, err
}
