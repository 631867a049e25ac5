package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
	"github.com/cppla/officing/testutil"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type env struct {
	db    *gorm.DB
	svc   *Services
	clock *testutil.FixedClock
}

func newEnv(t *testing.T, rnd rewards.RandomSource) *env {
	t.Helper()
	return newEnvOn(t, testutil.OpenTestDB(t), rnd)
}

// newSharedEnv runs on a file-backed database with several connections.
func newSharedEnv(t *testing.T, rnd rewards.RandomSource) *env {
	t.Helper()
	return newEnvOn(t, testutil.OpenSharedTestDB(t, 8), rnd)
}

func newEnvOn(t *testing.T, db *gorm.DB, rnd rewards.RandomSource) *env {
	t.Helper()
	clock := &testutil.FixedClock{T: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	if rnd == nil {
		rnd = fixedSource(0)
	}
	svc := New(Deps{
		Store:    repository.NewGormStore(db),
		Clock:    clock,
		Rand:     rnd,
		Location: time.UTC,
		Rules:    rewards.DefaultRules(),
	})
	return &env{db: db, svc: svc, clock: clock}
}

func (e *env) progress(t *testing.T, userID string) models.UserProgress {
	t.Helper()
	var p models.UserProgress
	if err := e.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		t.Fatalf("load progress: %v", err)
	}
	return p
}

func (e *env) tickets(t *testing.T, userID string) int {
	t.Helper()
	var row models.LotteryTicket
	err := e.db.Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("load tickets: %v", err)
	}
	return row.TicketCount
}

func (e *env) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func titleNames(titles []models.Title) map[string]bool {
	out := make(map[string]bool, len(titles))
	for _, t := range titles {
		out[t.Name] = true
	}
	return out
}
