// Package repository is the persistence boundary of the reward engine.
// Every idempotency rule is enforced here with unique indexes or conditional
// writes, never by a read followed by a write.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ProgressStore reads and mutates UserProgress rows.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID string) (models.UserProgress, error)
	// LockProgress creates the row if missing and returns it locked for update.
	LockProgress(ctx context.Context, userID string) (models.UserProgress, error)
	UpdateLevel(ctx context.Context, userID string, level, xp, pointsDelta int) error
	UpdateStreak(ctx context.Context, userID string, current, maxStreak int) error
	SetPity(ctx context.Context, userID string, pity int) error
	AddPoints(ctx context.Context, userID string, delta int) error
	SpendPoints(ctx context.Context, userID string, cost int) (bool, error)
	SetActiveTitle(ctx context.Context, userID string, titleID *string) error
}

// AttendanceStore records check-ins.
type AttendanceStore interface {
	InsertAttendance(ctx context.Context, a *models.Attendance) (bool, error)
	HasAttendance(ctx context.Context, userID, date string) (bool, error)
	CountAttendance(ctx context.Context, userID string) (int, error)
	CountAttendanceMonth(ctx context.Context, userID string, year, month int) (int, error)
	CountAttendanceTag(ctx context.Context, userID, tag string) (int, error)
	ListAttendanceMonth(ctx context.Context, userID string, year, month int) ([]models.Attendance, error)
}

// LotteryStore covers tickets, prizes and the draw log.
type LotteryStore interface {
	TicketBalance(ctx context.Context, userID string) (int, error)
	AddTickets(ctx context.Context, userID string, n int) error
	ConsumeTicket(ctx context.Context, userID string) (remaining int, ok bool, err error)
	ListDrawablePrizes(ctx context.Context, lock bool) ([]models.Prize, error)
	DecrementStock(ctx context.Context, prizeID string) (bool, error)
	InsertLotteryLog(ctx context.Context, l *models.LotteryLog) error
}

// QuestStore covers the quest catalog and per-user quest logs.
type QuestStore interface {
	GetQuestLog(ctx context.Context, userID, logID string) (models.UserQuestLog, error)
	CompleteQuestLog(ctx context.Context, logID string, at time.Time, xp, points int) (bool, error)
	CountCompletedQuests(ctx context.Context, userID string) (int, error)
	ListQuestLogs(ctx context.Context, userID, date string) ([]models.UserQuestLog, error)
	ListActiveQuests(ctx context.Context, questType string) ([]models.Quest, error)
	InsertQuestLogs(ctx context.Context, logs []models.UserQuestLog) error
	DeleteStaleQuestLogs(ctx context.Context, userID, before string) (int64, error)
}

// TitleStore covers the title catalog and unlocks.
type TitleStore interface {
	ListTitles(ctx context.Context) ([]models.Title, error)
	GetTitle(ctx context.Context, id string) (models.Title, error)
	FindTitleByName(ctx context.Context, name string) (models.Title, error)
	ListUserTitles(ctx context.Context, userID string) ([]models.UserTitle, error)
	HasUserTitle(ctx context.Context, userID, titleID string) (bool, error)
	UnlockTitle(ctx context.Context, userID, titleID string, at time.Time) (bool, error)
}

// ShopStore covers the points shop.
type ShopStore interface {
	ListShopItems(ctx context.Context) ([]models.ShopItem, error)
	GetShopItem(ctx context.Context, id string) (models.ShopItem, error)
	InsertPurchase(ctx context.Context, p *models.ShopPurchase) error
}

// StatsStore covers request counters and daily aggregates.
type StatsStore interface {
	RecordHit(ctx context.Context, date, route string) error
	DailyStats(ctx context.Context, dayStart time.Time) (DailyStats, error)
}

// Store is everything the services need. Transaction runs fn against a Store
// bound to a single database transaction; returning an error rolls it back.
type Store interface {
	ProgressStore
	AttendanceStore
	LotteryStore
	QuestStore
	TitleStore
	ShopStore
	StatsStore
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle.
func (s *GormStore) DB() *gorm.DB { return s.db }

// Transaction implements Store.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// forUpdate adds a row lock where the dialect supports one. SQLite serialises
// writers per database so it needs none.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
