package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/testutil"
)

const uid = "11111111-1111-4111-8111-111111111111"

func TestInsertAttendanceOncePerDay(t *testing.T) {
	s := NewGormStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first := models.Attendance{UserID: uid, CheckInDate: "2026-03-02", CheckInTime: now, LocationTag: "office", Year: 2026, Month: 3}
	ok, err := s.InsertAttendance(ctx, &first)
	if err != nil || !ok {
		t.Fatalf("first insert: ok=%v err=%v", ok, err)
	}
	second := first
	second.ID = ""
	second.LocationTag = "cafe"
	ok, err = s.InsertAttendance(ctx, &second)
	if err != nil || ok {
		t.Fatalf("duplicate insert: ok=%v err=%v", ok, err)
	}

	n, err := s.CountAttendanceMonth(ctx, uid, 2026, 3)
	if err != nil || n != 1 {
		t.Fatalf("month count %d, err %v", n, err)
	}
	has, err := s.HasAttendance(ctx, uid, "2026-03-01")
	if err != nil || has {
		t.Fatalf("unexpected attendance on 03-01: %v %v", has, err)
	}
}

func TestTicketsUpsertAndConsume(t *testing.T) {
	s := NewGormStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	if _, ok, err := s.ConsumeTicket(ctx, uid); err != nil || ok {
		t.Fatalf("consume without row: ok=%v err=%v", ok, err)
	}
	if err := s.AddTickets(ctx, uid, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTickets(ctx, uid, 3); err != nil {
		t.Fatal(err)
	}
	if n, err := s.TicketBalance(ctx, uid); err != nil || n != 5 {
		t.Fatalf("balance %d, err %v", n, err)
	}
	for want := 4; want >= 0; want-- {
		left, ok, err := s.ConsumeTicket(ctx, uid)
		if err != nil || !ok || left != want {
			t.Fatalf("consume: left=%d ok=%v err=%v, want %d", left, ok, err, want)
		}
	}
	if _, ok, _ := s.ConsumeTicket(ctx, uid); ok {
		t.Fatal("consumed below zero")
	}
}

func TestLockProgressSeedsLevelOne(t *testing.T) {
	s := NewGormStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	if _, err := s.GetProgress(ctx, uid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p, err := s.LockProgress(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	if p.Level != 1 || p.CurrentXP != 0 || p.TotalPoints != 0 {
		t.Fatalf("unexpected seed %+v", p)
	}
	if err := s.UpdateLevel(ctx, uid, 2, 10, 40); err != nil {
		t.Fatal(err)
	}
	p, err = s.LockProgress(ctx, uid)
	if err != nil || p.Level != 2 || p.TotalPoints != 40 {
		t.Fatalf("second lock reset progress: %+v %v", p, err)
	}

	paid, err := s.SpendPoints(ctx, uid, 50)
	if err != nil || paid {
		t.Fatalf("overspend: paid=%v err=%v", paid, err)
	}
	paid, err = s.SpendPoints(ctx, uid, 40)
	if err != nil || !paid {
		t.Fatalf("spend: paid=%v err=%v", paid, err)
	}
}

func TestDecrementStock(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	unlimited := testutil.SeedPrize(t, db, "u", models.RankC, 1, models.RewardStamp, nil, nil)
	finite := testutil.SeedPrize(t, db, "f", models.RankC, 1, models.RewardStamp, nil, testutil.IntPtr(2))

	if ok, err := s.DecrementStock(ctx, unlimited.ID); err != nil || !ok {
		t.Fatalf("unlimited: ok=%v err=%v", ok, err)
	}
	for i := 0; i < 2; i++ {
		if ok, err := s.DecrementStock(ctx, finite.ID); err != nil || !ok {
			t.Fatalf("finite %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := s.DecrementStock(ctx, finite.ID); err != nil || ok {
		t.Fatalf("exhausted: ok=%v err=%v", ok, err)
	}
	if _, err := s.DecrementStock(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing prize: %v", err)
	}

	prizes, err := s.ListDrawablePrizes(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(prizes) != 1 || prizes[0].ID != unlimited.ID {
		t.Fatalf("drawable prizes %+v", prizes)
	}
}

func TestUnlockTitleIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	title := testutil.SeedTitle(t, db, "Newcomer", models.ConditionAttendance, map[string]int{"count": 1})
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	ok, err := s.UnlockTitle(ctx, uid, title.ID, at)
	if err != nil || !ok {
		t.Fatalf("first unlock: ok=%v err=%v", ok, err)
	}
	ok, err = s.UnlockTitle(ctx, uid, title.ID, at.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("second unlock: ok=%v err=%v", ok, err)
	}
	held, err := s.HasUserTitle(ctx, uid, title.ID)
	if err != nil || !held {
		t.Fatalf("held=%v err=%v", held, err)
	}
}

func TestCompleteQuestLogOnce(t *testing.T) {
	db := testutil.OpenTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	q := testutil.SeedQuest(t, db, "d1", models.RankA, models.QuestTypeDaily, 10, 1)
	l := testutil.SeedQuestLog(t, db, uid, q.ID, "2026-03-02")
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	if ok, err := s.CompleteQuestLog(ctx, l.ID, at, 20, 2); err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}
	if ok, err := s.CompleteQuestLog(ctx, l.ID, at, 20, 2); err != nil || ok {
		t.Fatalf("recomplete: ok=%v err=%v", ok, err)
	}
	if n, err := s.CountCompletedQuests(ctx, uid); err != nil || n != 1 {
		t.Fatalf("completed=%d err=%v", n, err)
	}
	got, err := s.GetQuestLog(ctx, uid, l.ID)
	if err != nil || got.Quest.Code != "d1" {
		t.Fatalf("quest not preloaded: %+v %v", got, err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := NewGormStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.AddTickets(ctx, uid, 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := s.TicketBalance(ctx, uid); n != 0 {
		t.Fatalf("rolled back tickets still present: %d", n)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{&pgconn.PgError{Code: "23503"}, false},
		{&mysql.MySQLError{Number: 1062}, true},
		{&mysql.MySQLError{Number: 1213}, false},
		{errors.New("constraint failed: UNIQUE constraint failed: prizes.code (2067)"), true},
	}
	for _, c := range cases {
		if got := IsUniqueViolation(c.err); got != c.want {
			t.Fatalf("IsUniqueViolation(%v)=%v, want %v", c.err, got, c.want)
		}
	}
}
