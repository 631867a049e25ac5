package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

// ProgressView is the profile summary.
type ProgressView struct {
	Level           int           `json:"level"`
	CurrentXP       int           `json:"currentXP"`
	XPForNextLevel  int           `json:"xpForNextLevel"`
	TotalPoints     int           `json:"totalPoints"`
	CurrentStreak   int           `json:"currentStreak"`
	MaxStreak       int           `json:"maxStreak"`
	PityCounter     int           `json:"pityCounter"`
	Tickets         int           `json:"tickets"`
	TotalAttendance int           `json:"totalAttendance"`
	CompletedQuests int           `json:"completedQuests"`
	ActiveTitle     *models.Title `json:"activeTitle,omitempty"`
}

// TitleView is a catalog title with the user's unlock state.
type TitleView struct {
	models.Title
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	Active     bool       `json:"active"`
}

// StampCard is one month of attendance.
type StampCard struct {
	Year  int                 `json:"year"`
	Month int                 `json:"month"`
	Days  []models.Attendance `json:"days"`
}

// ProfileService serves read models and the active title setting.
type ProfileService struct {
	store   repository.Store
	cal     calendar
	catalog *TitleCatalog
	rules   *RuleSet
	log     *zap.Logger
}

// Progress returns the user's profile. Users who never earned anything get
// the level 1 zero profile; nothing is created.
func (s *ProfileService) Progress(ctx context.Context, userID string) (ProgressView, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		p = models.UserProgress{UserID: userID, Level: 1}
	} else if err != nil {
		return ProgressView{}, wrap("load progress", err)
	}
	view := ProgressView{
		Level:          p.Level,
		CurrentXP:      p.CurrentXP,
		XPForNextLevel: rewards.NextLevelXP(p.Level),
		TotalPoints:    p.TotalPoints,
		CurrentStreak:  p.CurrentStreak,
		MaxStreak:      p.MaxStreak,
		PityCounter:    p.PityCounter,
	}
	if view.Tickets, err = s.store.TicketBalance(ctx, userID); err != nil {
		return ProgressView{}, wrap("ticket balance", err)
	}
	if view.TotalAttendance, err = s.store.CountAttendance(ctx, userID); err != nil {
		return ProgressView{}, wrap("count attendance", err)
	}
	if view.CompletedQuests, err = s.store.CountCompletedQuests(ctx, userID); err != nil {
		return ProgressView{}, wrap("count quests", err)
	}
	if p.ActiveTitleID != nil {
		t, err := s.store.GetTitle(ctx, *p.ActiveTitleID)
		switch {
		case err == nil:
			view.ActiveTitle = &t
		case !errors.Is(err, repository.ErrNotFound):
			return ProgressView{}, wrap("load active title", err)
		}
	}
	return view, nil
}

// Stamps returns the attendance of one month. Zero year or month means the
// current month.
func (s *ProfileService) Stamps(ctx context.Context, userID string, year, month int) (StampCard, error) {
	if year == 0 || month == 0 {
		now := s.cal.now().In(s.cal.loc)
		year, month = now.Year(), int(now.Month())
	}
	if month < 1 || month > 12 {
		return StampCard{}, InvalidRequest("month must be between 1 and 12")
	}
	days, err := s.store.ListAttendanceMonth(ctx, userID, year, month)
	if err != nil {
		return StampCard{}, wrap("list attendance", err)
	}
	if days == nil {
		days = []models.Attendance{}
	}
	return StampCard{Year: year, Month: month, Days: days}, nil
}

// Titles returns the catalog with the user's unlock state.
func (s *ProfileService) Titles(ctx context.Context, userID string) ([]TitleView, error) {
	catalog, err := s.catalog.Load(ctx, s.store)
	if err != nil {
		return nil, wrap("load titles", err)
	}
	owned, err := s.store.ListUserTitles(ctx, userID)
	if err != nil {
		return nil, wrap("list user titles", err)
	}
	unlockedAt := make(map[string]time.Time, len(owned))
	for _, ut := range owned {
		unlockedAt[ut.TitleID] = ut.UnlockedAt
	}
	var active string
	if p, err := s.store.GetProgress(ctx, userID); err == nil && p.ActiveTitleID != nil {
		active = *p.ActiveTitleID
	}

	views := make([]TitleView, 0, len(catalog))
	for _, t := range catalog {
		v := TitleView{Title: t, Active: t.ID == active}
		if at, ok := unlockedAt[t.ID]; ok {
			v.Unlocked = true
			v.UnlockedAt = &at
		}
		views = append(views, v)
	}
	return views, nil
}

// SetActiveTitle sets or, with a nil titleID, clears the displayed title.
// Only unlocked titles can be set.
func (s *ProfileService) SetActiveTitle(ctx context.Context, userID string, titleID *string) (err error) {
	ctx, span := startSpan(ctx, "profile.SetActiveTitle", userID)
	defer func() { finish(span, s.log, "set_active_title", userID, err) }()

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.LockProgress(ctx, userID); err != nil {
			return wrap("lock progress", err)
		}
		if titleID != nil {
			held, err := tx.HasUserTitle(ctx, userID, *titleID)
			if err != nil {
				return wrap("check title", err)
			}
			if !held {
				return ErrTitleNotUnlocked
			}
		}
		return wrap("set active title", tx.SetActiveTitle(ctx, userID, titleID))
	})
}
