package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
	"github.com/cppla/officing/testutil"
)

func TestLedgerGrant(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	store := repository.NewGormStore(e.db)

	var got LedgerResult
	err := store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		got, err = e.svc.Ledger.Grant(ctx, tx, alice, Grant{XP: 900, Points: 7, Tickets: 2})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	// 282 for level 2, 519 for level 3
	if got.Level != 3 || got.XP != 99 || got.LevelsGained != 2 || got.TotalPoints != 7 {
		t.Fatalf("unexpected grant result %+v", got)
	}
	if got := e.tickets(t, alice); got != 2 {
		t.Fatalf("tickets=%d", got)
	}

	err = store.Transaction(ctx, func(tx repository.Store) error {
		_, err := e.svc.Ledger.Grant(ctx, tx, alice, Grant{Points: -1})
		return err
	})
	if err == nil {
		t.Fatal("negative grant accepted")
	}
}

func TestRuleSetSwap(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	e.svc.Rules.Set(rewards.Rules{CheckinXP: 5, CheckinPoints: 1, CheckinTickets: 3, PityThreshold: 4, DailyQuestCount: 1})
	res, err := e.svc.CheckIn.CheckIn(ctx, CheckInInput{UserID: alice})
	if err != nil {
		t.Fatal(err)
	}
	if res.Rewards.XPEarned != 5 || res.Rewards.PointsEarned != 1 || res.Rewards.TicketsEarned != 3 {
		t.Fatalf("swapped rules not applied: %+v", res.Rewards)
	}
	st, err := e.svc.Lottery.Status(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if st.PityThreshold != 4 {
		t.Fatalf("pity threshold %d", st.PityThreshold)
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.data[key]
	return b, ok
}

func (c *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
}

func (c *memCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func TestTitleCatalogCache(t *testing.T) {
	db := testutil.OpenTestDB(t)
	store := repository.NewGormStore(db)
	cache := &memCache{data: map[string][]byte{}}
	catalog := NewTitleCatalog(cache, nil)
	ctx := context.Background()
	testutil.SeedTitle(t, db, "Newcomer", models.ConditionAttendance, map[string]int{"count": 1})

	titles, err := catalog.Load(ctx, store)
	if err != nil || len(titles) != 1 {
		t.Fatalf("first load: %d titles, err %v", len(titles), err)
	}
	if _, ok := cache.data[titleCatalogKey]; !ok {
		t.Fatal("catalog not cached")
	}

	testutil.SeedTitle(t, db, "Regular", models.ConditionStreak, map[string]int{"threshold": 3})
	titles, err = catalog.Load(ctx, store)
	if err != nil || len(titles) != 1 {
		t.Fatalf("cached load: %d titles, err %v", len(titles), err)
	}

	catalog.Invalidate(ctx)
	titles, err = catalog.Load(ctx, store)
	if err != nil || len(titles) != 2 {
		t.Fatalf("reload: %d titles, err %v", len(titles), err)
	}
}

func TestDailyStats(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	testutil.SeedPrize(t, e.db, "c1", models.RankC, 1, models.RewardStamp, nil, nil)
	item := testutil.SeedShopItem(t, e.db, "Stamp", models.ItemStamp, 5, nil)

	for _, u := range []string{alice, bob} {
		if _, err := e.svc.CheckIn.CheckIn(ctx, CheckInInput{UserID: u}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.svc.Lottery.Draw(ctx, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Shop.Purchase(ctx, bob, item.ID); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := e.svc.Stats.RecordHit(ctx, "/api/checkin"); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := e.svc.Stats.Daily(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Date != "2026-03-02" || stats.CheckIns != 2 || stats.Draws != 1 || stats.Purchases != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.Hits) != 1 || stats.Hits[0].Count != 3 {
		t.Fatalf("unexpected hits %+v", stats.Hits)
	}

	yesterday, err := e.svc.Stats.Daily(ctx, e.clock.T.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if yesterday.CheckIns != 0 || yesterday.Draws != 0 {
		t.Fatalf("yesterday not empty: %+v", yesterday)
	}
}

// gatedTitles blocks ListTitles until release is closed.
type gatedTitles struct {
	repository.TitleStore
	started chan struct{}
	release chan struct{}
	titles  []models.Title
}

func (g *gatedTitles) ListTitles(context.Context) ([]models.Title, error) {
	close(g.started)
	<-g.release
	return g.titles, nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func TestTitleCatalogInvalidateDuringLoad(t *testing.T) {
	cache := &memCache{data: map[string][]byte{}}
	catalog := NewTitleCatalog(cache, nil)
	ctx := context.Background()

	old := &gatedTitles{
		started: make(chan struct{}),
		release: make(chan struct{}),
		titles:  []models.Title{{ID: "t1", Name: "Old"}},
	}
	done := make(chan error, 1)
	go func() {
		_, err := catalog.Load(ctx, old)
		done <- err
	}()

	<-old.started
	catalog.Invalidate(ctx)
	close(old.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if cache.has(titleCatalogKey) {
		t.Fatal("catalog loaded before invalidation was cached")
	}

	fresh := &gatedTitles{
		started: make(chan struct{}),
		release: make(chan struct{}),
		titles:  []models.Title{{ID: "t1", Name: "Old"}, {ID: "t2", Name: "New"}},
	}
	close(fresh.release)
	titles, err := catalog.Load(ctx, fresh)
	if err != nil || len(titles) != 2 {
		t.Fatalf("reload: %d titles, err %v", len(titles), err)
	}
	if !cache.has(titleCatalogKey) {
		t.Fatal("fresh catalog not cached")
	}
}
