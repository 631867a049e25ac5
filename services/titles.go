package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

// Cache is a byte cache with expiry. Implementations must fail open.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

const (
	titleCatalogKey = "catalog:titles"
	titleCatalogTTL = 10 * time.Minute
)

// TitleCatalog loads the title catalog, collapsing concurrent loads and
// caching the result when a cache is configured.
type TitleCatalog struct {
	cache Cache
	group singleflight.Group
	log   *zap.Logger

	// mu orders cache writes against Invalidate; gen counts invalidations.
	mu  sync.Mutex
	gen uint64
}

// NewTitleCatalog returns a catalog loader. cache may be nil.
func NewTitleCatalog(cache Cache, log *zap.Logger) *TitleCatalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &TitleCatalog{cache: cache, log: log}
}

// Load returns every title, reading through st on a cache miss. Concurrent
// misses share one query, so st must not be bound to a transaction: a caller
// holding a connection would wait on a leader that waits for a connection.
// Use LoadTx inside transactions.
func (c *TitleCatalog) Load(ctx context.Context, st repository.TitleStore) ([]models.Title, error) {
	if titles, ok := c.cached(ctx); ok {
		return titles, nil
	}
	v, err, _ := c.group.Do(titleCatalogKey, func() (interface{}, error) {
		gen := c.generation()
		titles, err := st.ListTitles(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, gen, titles)
		return titles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Title), nil
}

// LoadTx returns every title using the cache or the transaction itself. It
// never joins a shared load and never writes the cache.
func (c *TitleCatalog) LoadTx(ctx context.Context, tx repository.TitleStore) ([]models.Title, error) {
	if titles, ok := c.cached(ctx); ok {
		return titles, nil
	}
	return tx.ListTitles(ctx)
}

// Invalidate drops the cached catalog. Loads that started earlier finish
// without caching their result.
func (c *TitleCatalog) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.group.Forget(titleCatalogKey)
	if c.cache != nil {
		c.cache.Delete(ctx, titleCatalogKey)
	}
}

func (c *TitleCatalog) cached(ctx context.Context) ([]models.Title, bool) {
	if c.cache == nil {
		return nil, false
	}
	b, ok := c.cache.Get(ctx, titleCatalogKey)
	if !ok {
		return nil, false
	}
	var titles []models.Title
	if err := json.Unmarshal(b, &titles); err != nil {
		c.log.Warn("discarding malformed title cache entry")
		return nil, false
	}
	return titles, true
}

func (c *TitleCatalog) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// store caches titles unless the catalog was invalidated after gen was read.
func (c *TitleCatalog) store(ctx context.Context, gen uint64, titles []models.Title) {
	if c.cache == nil {
		return
	}
	b, err := json.Marshal(titles)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.cache.Set(ctx, titleCatalogKey, b, titleCatalogTTL)
}

// TitleEvaluator unlocks titles whose conditions are met.
type TitleEvaluator struct {
	catalog *TitleCatalog
	clock   Clock
	log     *zap.Logger
}

// Evaluate checks every title the user does not hold whose condition type is
// routed to trigger, and unlocks the ones that qualify. The unique index on
// user_titles keeps concurrent evaluations from unlocking a title twice; a
// lost race is simply not reported as new.
func (e *TitleEvaluator) Evaluate(ctx context.Context, tx repository.Store, userID string, stats rewards.Stats, trigger rewards.Trigger) ([]models.Title, error) {
	catalog, err := e.catalog.LoadTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	owned, err := tx.ListUserTitles(ctx, userID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(owned))
	for _, ut := range owned {
		held[ut.TitleID] = true
	}

	unlocked := []models.Title{}
	now := e.clock.Now()
	for _, t := range catalog {
		if held[t.ID] || !trigger.Evaluates(t.UnlockConditionType) {
			continue
		}
		cond, err := rewards.ParseCondition(t.UnlockConditionValue)
		if err != nil {
			e.log.Warn("skipping title with malformed condition", zap.String("title_id", t.ID), zap.Error(err))
			continue
		}
		if !rewards.Qualifies(t.UnlockConditionType, cond, stats, trigger) {
			continue
		}
		ok, err := tx.UnlockTitle(ctx, userID, t.ID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			held[t.ID] = true
			unlocked = append(unlocked, t)
		}
	}
	return unlocked, nil
}
