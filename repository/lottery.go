package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// TicketBalance returns 0 for users without a ticket row.
func (s *GormStore) TicketBalance(ctx context.Context, userID string) (int, error) {
	var t models.LotteryTicket
	err := s.conn(ctx).Where("user_id = ?", userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return t.TicketCount, err
}

// AddTickets creates the balance row or increments it in place.
func (s *GormStore) AddTickets(ctx context.Context, userID string, n int) error {
	if n == 0 {
		return nil
	}
	row := models.LotteryTicket{UserID: userID, TicketCount: n}
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"ticket_count": gorm.Expr("lottery_tickets.ticket_count + ?", n),
			"updated_at":   time.Now(),
		}),
	}).Create(&row).Error
}

// ConsumeTicket takes one ticket if the balance is positive.
func (s *GormStore) ConsumeTicket(ctx context.Context, userID string) (int, bool, error) {
	res := s.conn(ctx).Model(&models.LotteryTicket{}).
		Where("user_id = ? AND ticket_count > 0", userID).
		Update("ticket_count", gorm.Expr("ticket_count - 1"))
	if res.Error != nil {
		return 0, false, res.Error
	}
	remaining, err := s.TicketBalance(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return remaining, res.RowsAffected == 1, nil
}

// ListDrawablePrizes returns available prizes with stock left, ordered by code.
func (s *GormStore) ListDrawablePrizes(ctx context.Context, lock bool) ([]models.Prize, error) {
	q := s.conn(ctx)
	if lock {
		q = forUpdate(q)
	}
	var prizes []models.Prize
	err := q.Where("is_available = ? AND (stock IS NULL OR stock > 0)", true).
		Order("code ASC").
		Find(&prizes).Error
	return prizes, err
}

// DecrementStock takes one unit of finite stock and marks the prize
// unavailable once it runs out. Unlimited prizes are left untouched and
// report true.
func (s *GormStore) DecrementStock(ctx context.Context, prizeID string) (bool, error) {
	db := s.conn(ctx)
	var p models.Prize
	if err := db.Select("id", "stock").Where("id = ?", prizeID).First(&p).Error; err != nil {
		return false, notFound(err)
	}
	if p.Stock == nil {
		return true, nil
	}
	res := db.Model(&models.Prize{}).
		Where("id = ? AND stock > 0", prizeID).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := db.Model(&models.Prize{}).
		Where("id = ? AND stock <= 0", prizeID).
		UpdateColumn("is_available", false).Error
	return err == nil, err
}

// InsertLotteryLog appends to the draw audit trail.
func (s *GormStore) InsertLotteryLog(ctx context.Context, l *models.LotteryLog) error {
	return s.conn(ctx).Create(l).Error
}
