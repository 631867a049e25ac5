// Package services implements the reward transactions on top of the
// repository. Each operation runs in a single database transaction and takes
// its collaborators (store, clock, random source) explicitly.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

var tracer = otel.Tracer("github.com/cppla/officing/services")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store repository.Store
	Clock Clock
	// Rand must be safe for concurrent use in production.
	Rand     rewards.RandomSource
	Logger   *zap.Logger
	Location *time.Location
	Rules    rewards.Rules
	// DefaultTag is used for check-ins without a tag.
	DefaultTag string
	// MaxClockSkew bounds how far in the future a client timestamp may be.
	MaxClockSkew time.Duration
	// Cache is optional; nil disables catalog caching.
	Cache Cache
}

// RuleSet holds the live reward rules and allows swapping them at runtime.
type RuleSet struct {
	p atomic.Pointer[rewards.Rules]
}

// NewRuleSet stores the normalised rules.
func NewRuleSet(r rewards.Rules) *RuleSet {
	rs := &RuleSet{}
	rs.Set(r)
	return rs
}

// Get returns the current rules.
func (rs *RuleSet) Get() rewards.Rules { return *rs.p.Load() }

// Set replaces the rules.
func (rs *RuleSet) Set(r rewards.Rules) {
	n := r.Normalize()
	rs.p.Store(&n)
}

// Services bundles every operation.
type Services struct {
	Rules   *RuleSet
	Catalog *TitleCatalog
	Ledger  *Ledger
	Titles  *TitleEvaluator
	CheckIn *CheckInService
	Quests  *QuestService
	Lottery *LotteryService
	Shop    *ShopService
	Profile *ProfileService
	Stats   *StatsService
}

// New wires the services.
func New(d Deps) *Services {
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.Rand == nil {
		d.Rand = rewards.CryptoSource{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.DefaultTag == "" {
		d.DefaultTag = "office"
	}
	if d.MaxClockSkew <= 0 {
		d.MaxClockSkew = 5 * time.Minute
	}

	rules := NewRuleSet(d.Rules)
	catalog := NewTitleCatalog(d.Cache, d.Logger)
	ledger := &Ledger{}
	titles := &TitleEvaluator{catalog: catalog, clock: d.Clock, log: d.Logger}
	cal := calendar{clock: d.Clock, loc: d.Location}

	return &Services{
		Rules:   rules,
		Catalog: catalog,
		Ledger:  ledger,
		Titles:  titles,
		CheckIn: &CheckInService{
			store: d.Store, cal: cal, rules: rules, ledger: ledger, titles: titles,
			log: d.Logger, defaultTag: d.DefaultTag, maxSkew: d.MaxClockSkew,
		},
		Quests:  &QuestService{store: d.Store, cal: cal, rules: rules, ledger: ledger, titles: titles, rnd: d.Rand, log: d.Logger},
		Lottery: &LotteryService{store: d.Store, cal: cal, rules: rules, ledger: ledger, rnd: d.Rand, log: d.Logger},
		Shop:    &ShopService{store: d.Store, cal: cal, log: d.Logger},
		Profile: &ProfileService{store: d.Store, cal: cal, catalog: catalog, rules: rules, log: d.Logger},
		Stats:   &StatsService{store: d.Store, cal: cal},
	}
}

// calendar turns instants into calendar days in the configured location.
type calendar struct {
	clock Clock
	loc   *time.Location
}

func (c calendar) now() time.Time { return c.clock.Now() }

func (c calendar) day(t time.Time) string { return t.In(c.loc).Format(models.DateLayout) }

func (c calendar) today() string { return c.day(c.now()) }

func (c calendar) startOfDay(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc)
}

// startSpan opens a span tagged with the calling user.
func startSpan(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID)))
}

// finish records the outcome of an operation on its span and in the log.
// Business rejections are expected outcomes and are logged at info.
func finish(span trace.Span, log *zap.Logger, op, userID string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	var rule *RuleError
	if errors.As(err, &rule) {
		span.SetAttributes(attribute.String("rule.code", rule.Code))
		log.Info("request rejected", zap.String("op", op), zap.String("user_id", userID), zap.String("code", rule.Code))
		return
	}
	if errors.Is(err, ErrNotFound) {
		log.Info("not found", zap.String("op", op), zap.String("user_id", userID))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Error("operation failed", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var rule *RuleError
	if errors.As(err, &rule) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
