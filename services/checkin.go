package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

const maxTagLength = 32

// CheckInInput is one check-in request.
type CheckInInput struct {
	UserID string
	Tag    string
	// Timestamp defaults to now when nil.
	Timestamp *time.Time
}

// CheckInRewards describes what a check-in granted.
type CheckInRewards struct {
	TicketsEarned  int                  `json:"ticketsEarned"`
	XPEarned       int                  `json:"xpEarned"`
	PointsEarned   int                  `json:"pointsEarned"`
	LevelUp        bool                 `json:"levelUp"`
	NewLevel       *int                 `json:"newLevel,omitempty"`
	MonthlyCount   int                  `json:"monthlyCount"`
	MilestoneBonus int                  `json:"milestoneBonus"`
	Streak         rewards.StreakResult `json:"streak"`
}

// CheckInResult is the outcome of a successful check-in.
type CheckInResult struct {
	Attendance models.Attendance `json:"attendance"`
	Rewards    CheckInRewards    `json:"rewards"`
	NewTitles  []models.Title    `json:"newTitles"`
}

// CheckInService records daily attendance and grants its rewards.
type CheckInService struct {
	store      repository.Store
	cal        calendar
	rules      *RuleSet
	ledger     *Ledger
	titles     *TitleEvaluator
	log        *zap.Logger
	defaultTag string
	maxSkew    time.Duration
}

// CheckIn records attendance for the calendar day of the timestamp. A second
// check-in on the same day returns ErrDuplicateCheckIn and changes nothing.
func (s *CheckInService) CheckIn(ctx context.Context, in CheckInInput) (res CheckInResult, err error) {
	ctx, span := startSpan(ctx, "checkin.CheckIn", in.UserID)
	defer func() { finish(span, s.log, "checkin", in.UserID, err) }()

	tag, err := s.normalizeTag(in.Tag)
	if err != nil {
		return res, err
	}
	now := s.cal.now()
	at := now
	if in.Timestamp != nil {
		at = *in.Timestamp
		if at.After(now.Add(s.maxSkew)) {
			return res, InvalidRequest("timestamp is in the future")
		}
	}
	local := at.In(s.cal.loc)
	rules := s.rules.Get()

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		att := models.Attendance{
			UserID:      in.UserID,
			CheckInDate: local.Format(models.DateLayout),
			CheckInTime: at,
			LocationTag: tag,
			Year:        local.Year(),
			Month:       int(local.Month()),
		}
		inserted, err := tx.InsertAttendance(ctx, &att)
		if err != nil {
			return wrap("insert attendance", err)
		}
		if !inserted {
			return ErrDuplicateCheckIn
		}

		monthly, err := tx.CountAttendanceMonth(ctx, in.UserID, att.Year, att.Month)
		if err != nil {
			return wrap("count monthly attendance", err)
		}

		progress, err := tx.LockProgress(ctx, in.UserID)
		if err != nil {
			return wrap("lock progress", err)
		}
		yesterday := local.AddDate(0, 0, -1).Format(models.DateLayout)
		presentYesterday, err := tx.HasAttendance(ctx, in.UserID, yesterday)
		if err != nil {
			return wrap("lookup yesterday", err)
		}
		streak := rewards.NextStreak(progress.CurrentStreak, progress.MaxStreak, presentYesterday)
		if err := tx.UpdateStreak(ctx, in.UserID, streak.Current, streak.Max); err != nil {
			return wrap("update streak", err)
		}

		bonus := rewards.MilestoneBonus(monthly, rules.TicketMilestones)
		tickets := rules.CheckinTickets + bonus
		granted, err := s.ledger.Grant(ctx, tx, in.UserID, Grant{XP: rules.CheckinXP, Points: rules.CheckinPoints, Tickets: tickets})
		if err != nil {
			return wrap("grant rewards", err)
		}

		total, err := tx.CountAttendance(ctx, in.UserID)
		if err != nil {
			return wrap("count attendance", err)
		}
		tagCount, err := tx.CountAttendanceTag(ctx, in.UserID, tag)
		if err != nil {
			return wrap("count tag attendance", err)
		}
		newTitles, err := s.titles.Evaluate(ctx, tx, in.UserID, rewards.Stats{
			Level:           granted.Level,
			CurrentStreak:   streak.Current,
			TotalAttendance: total,
			Tag:             tag,
			TagCount:        tagCount,
		}, rewards.TriggerCheckIn)
		if err != nil {
			return wrap("evaluate titles", err)
		}

		res = CheckInResult{
			Attendance: att,
			Rewards: CheckInRewards{
				TicketsEarned:  tickets,
				XPEarned:       rules.CheckinXP,
				PointsEarned:   rules.CheckinPoints,
				LevelUp:        granted.LeveledUp,
				MonthlyCount:   monthly,
				MilestoneBonus: bonus,
				Streak:         streak,
			},
			NewTitles: newTitles,
		}
		if granted.LeveledUp {
			level := granted.Level
			res.Rewards.NewLevel = &level
		}
		return nil
	})
	if err != nil {
		return CheckInResult{}, err
	}
	return res, nil
}

// normalizeTag trims the tag and applies the default. Tags longer than
// maxTagLength runes are rejected.
func (s *CheckInService) normalizeTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return s.defaultTag, nil
	}
	if utf8.RuneCountInString(tag) > maxTagLength {
		return "", InvalidRequest("tag is too long")
	}
	return tag, nil
}
