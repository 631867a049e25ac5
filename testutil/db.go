// Package testutil provides an in-memory database and seed helpers for tests.
package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/officing/models"
)

// OpenTestDB opens an in-memory SQLite database and migrates every model.
func OpenTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	// every connection to :memory: is a separate database
	return openTestDB(tb, ":memory:", 1)
}

// OpenSharedTestDB opens a file-backed SQLite database that maxConns
// connections use at once, so concurrent callers really interleave. Write
// transactions take the lock up front and wait for each other.
func OpenSharedTestDB(tb testing.TB, maxConns int) *gorm.DB {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "officing.db")
	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	return openTestDB(tb, dsn, maxConns)
}

func openTestDB(tb testing.TB, dsn string, maxConns int) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// JSON marshals v for datatypes.JSON columns.
func JSON(tb testing.TB, v interface{}) datatypes.JSON {
	tb.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal json: %v", err)
	}
	return datatypes.JSON(b)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// SeedPrize inserts an available prize.
func SeedPrize(tb testing.TB, db *gorm.DB, code, rank string, weight float64, rewardType string, value interface{}, stock *int) models.Prize {
	tb.Helper()
	p := models.Prize{
		Code:        code,
		Name:        "Prize " + code,
		Rank:        rank,
		Weight:      weight,
		RewardType:  rewardType,
		RewardValue: JSON(tb, value),
		Stock:       stock,
		IsAvailable: true,
	}
	if err := db.Create(&p).Error; err != nil {
		tb.Fatalf("seed prize: %v", err)
	}
	return p
}

// SeedQuest inserts an active quest.
func SeedQuest(tb testing.TB, db *gorm.DB, code, rank, questType string, baseXP, basePoints int) models.Quest {
	tb.Helper()
	q := models.Quest{
		Code:       code,
		Title:      "Quest " + code,
		Rank:       rank,
		BaseXP:     baseXP,
		BasePoints: basePoints,
		QuestType:  questType,
		IsActive:   true,
	}
	if err := db.Create(&q).Error; err != nil {
		tb.Fatalf("seed quest: %v", err)
	}
	return q
}

// SeedQuestLog assigns quest to userID on date.
func SeedQuestLog(tb testing.TB, db *gorm.DB, userID, questID, date string) models.UserQuestLog {
	tb.Helper()
	l := models.UserQuestLog{UserID: userID, QuestID: questID, AssignedDate: date}
	if err := db.Omit("Quest").Create(&l).Error; err != nil {
		tb.Fatalf("seed quest log: %v", err)
	}
	return l
}

// SeedTitle inserts a title with the given condition.
func SeedTitle(tb testing.TB, db *gorm.DB, name, conditionType string, condition interface{}) models.Title {
	tb.Helper()
	t := models.Title{
		Name:                 name,
		UnlockConditionType:  conditionType,
		UnlockConditionValue: JSON(tb, condition),
	}
	if err := db.Create(&t).Error; err != nil {
		tb.Fatalf("seed title: %v", err)
	}
	return t
}

// SeedShopItem inserts an active shop item.
func SeedShopItem(tb testing.TB, db *gorm.DB, name, itemType string, cost int, value interface{}) models.ShopItem {
	tb.Helper()
	item := models.ShopItem{
		Name:      name,
		ItemType:  itemType,
		ItemValue: JSON(tb, value),
		Cost:      cost,
		IsActive:  true,
	}
	if err := db.Create(&item).Error; err != nil {
		tb.Fatalf("seed shop item: %v", err)
	}
	return item
}

// SeedProgress stores a progress row.
func SeedProgress(tb testing.TB, db *gorm.DB, p models.UserProgress) models.UserProgress {
	tb.Helper()
	if p.Level == 0 {
		p.Level = 1
	}
	if err := db.Create(&p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

// SeedTickets sets a ticket balance.
func SeedTickets(tb testing.TB, db *gorm.DB, userID string, n int) {
	tb.Helper()
	if err := db.Create(&models.LotteryTicket{UserID: userID, TicketCount: n}).Error; err != nil {
		tb.Fatalf("seed tickets: %v", err)
	}
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now implements services.Clock.
func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
