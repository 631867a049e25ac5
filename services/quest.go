package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

// QuestRewards describes a quest completion.
type QuestRewards struct {
	XPEarned       int  `json:"xpEarned"`
	PointsEarned   int  `json:"pointsEarned"`
	Level          int  `json:"level"`
	CurrentXP      int  `json:"currentXP"`
	XPForNextLevel int  `json:"xpForNextLevel"`
	LeveledUp      bool `json:"leveledUp"`
}

// QuestResult is the outcome of a successful quest completion.
type QuestResult struct {
	Rewards   QuestRewards   `json:"rewards"`
	NewTitles []models.Title `json:"newTitles"`
}

// QuestService completes and assigns quests.
type QuestService struct {
	store  repository.Store
	cal    calendar
	rules  *RuleSet
	ledger *Ledger
	titles *TitleEvaluator
	rnd    rewards.RandomSource
	log    *zap.Logger
}

// Complete marks a quest log done and grants its rank-scaled rewards. The
// log must belong to userID. Completing it twice returns
// ErrQuestAlreadyCompleted and grants nothing.
func (s *QuestService) Complete(ctx context.Context, userID, logID string) (res QuestResult, err error) {
	ctx, span := startSpan(ctx, "quest.Complete", userID)
	defer func() { finish(span, s.log, "quest_complete", userID, err) }()

	if logID == "" {
		return res, InvalidRequest("Quest log ID is required")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		ql, err := tx.GetQuestLog(ctx, userID, logID)
		if err != nil {
			return wrap("load quest log", err)
		}
		if ql.CompletedAt != nil {
			return ErrQuestAlreadyCompleted
		}
		if ql.Quest.ID == "" {
			return ErrNotFound
		}

		xp, points := rewards.QuestReward(ql.Quest.BaseXP, ql.Quest.BasePoints, ql.Quest.Rank)
		done, err := tx.CompleteQuestLog(ctx, ql.ID, s.cal.now(), xp, points)
		if err != nil {
			return wrap("complete quest log", err)
		}
		if !done {
			return ErrQuestAlreadyCompleted
		}

		granted, err := s.ledger.Grant(ctx, tx, userID, Grant{XP: xp, Points: points})
		if err != nil {
			return wrap("grant rewards", err)
		}

		completed, err := tx.CountCompletedQuests(ctx, userID)
		if err != nil {
			return wrap("count completed quests", err)
		}
		newTitles, err := s.titles.Evaluate(ctx, tx, userID, rewards.Stats{
			Level:           granted.Level,
			CompletedQuests: completed,
		}, rewards.TriggerQuest)
		if err != nil {
			return wrap("evaluate titles", err)
		}

		res = QuestResult{
			Rewards: QuestRewards{
				XPEarned:       xp,
				PointsEarned:   points,
				Level:          granted.Level,
				CurrentXP:      granted.XP,
				XPForNextLevel: rewards.NextLevelXP(granted.Level),
				LeveledUp:      granted.LeveledUp,
			},
			NewTitles: newTitles,
		}
		return nil
	})
	if err != nil {
		return QuestResult{}, err
	}
	return res, nil
}

// Today lists the user's quest logs for the current day.
func (s *QuestService) Today(ctx context.Context, userID string) ([]models.UserQuestLog, error) {
	logs, err := s.store.ListQuestLogs(ctx, userID, s.cal.today())
	return logs, wrap("list quest logs", err)
}

// AssignDaily gives the user today's daily quests, picked at random from the
// active daily pool. It is idempotent per day: an existing assignment is
// returned unchanged. Incomplete logs from earlier days are removed.
func (s *QuestService) AssignDaily(ctx context.Context, userID string) (logs []models.UserQuestLog, err error) {
	ctx, span := startSpan(ctx, "quest.AssignDaily", userID)
	defer func() { finish(span, s.log, "quest_assign", userID, err) }()

	today := s.cal.today()
	count := s.rules.Get().DailyQuestCount

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.DeleteStaleQuestLogs(ctx, userID, today); err != nil {
			return wrap("delete stale quest logs", err)
		}
		existing, err := tx.ListQuestLogs(ctx, userID, today)
		if err != nil {
			return wrap("list quest logs", err)
		}
		if len(existing) > 0 {
			logs = existing
			return nil
		}

		pool, err := tx.ListActiveQuests(ctx, models.QuestTypeDaily)
		if err != nil {
			return wrap("list daily quests", err)
		}
		if len(pool) == 0 {
			return ErrNoDailyQuests
		}
		picked := shuffle(pool, s.rnd)
		if len(picked) > count {
			picked = picked[:count]
		}
		assign := make([]models.UserQuestLog, 0, len(picked))
		for _, q := range picked {
			assign = append(assign, models.UserQuestLog{UserID: userID, QuestID: q.ID, AssignedDate: today})
		}
		if err := tx.InsertQuestLogs(ctx, assign); err != nil {
			return wrap("insert quest logs", err)
		}
		logs, err = tx.ListQuestLogs(ctx, userID, today)
		return wrap("list quest logs", err)
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// SweepStale removes incomplete quest logs from before today for every user.
func (s *QuestService) SweepStale(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteStaleQuestLogs(ctx, "", s.cal.today())
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("sweep stale quest logs failed", zap.Error(err))
	}
	return n, err
}

// shuffle returns a Fisher-Yates shuffled copy of quests.
func shuffle(quests []models.Quest, rnd rewards.RandomSource) []models.Quest {
	out := append([]models.Quest(nil), quests...)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rnd.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}
