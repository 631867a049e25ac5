package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

// DrawResult is the outcome of a successful draw.
type DrawResult struct {
	Prize            models.Prize  `json:"prize"`
	Rank             string        `json:"rank"`
	PityCounter      int           `json:"pityCounter"`
	PityApplied      bool          `json:"pityApplied"`
	TicketsRemaining int           `json:"ticketsRemaining"`
	PointsAwarded    int           `json:"pointsAwarded,omitempty"`
	TitleUnlocked    *models.Title `json:"titleUnlocked,omitempty"`
}

// LotteryStatus is the read-only view of a user's lottery state.
type LotteryStatus struct {
	Tickets       int            `json:"tickets"`
	PityCounter   int            `json:"pityCounter"`
	PityThreshold int            `json:"pityThreshold"`
	Prizes        []models.Prize `json:"prizes"`
}

// prizeValue is the decoded reward_value payload.
type prizeValue struct {
	Amount    int    `json:"amount"`
	TitleName string `json:"title_name"`
	TitleID   string `json:"title_id"`
}

// LotteryService runs ticket draws.
type LotteryService struct {
	store  repository.Store
	cal    calendar
	rules  *RuleSet
	ledger *Ledger
	rnd    rewards.RandomSource
	log    *zap.Logger
}

// Draw consumes one ticket and draws a prize. The whole draw is one
// transaction: when no prize can be drawn the ticket is not consumed.
func (s *LotteryService) Draw(ctx context.Context, userID string) (res DrawResult, err error) {
	ctx, span := startSpan(ctx, "lottery.Draw", userID)
	defer func() { finish(span, s.log, "lottery_draw", userID, err) }()

	threshold := s.rules.Get().PityThreshold

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		remaining, ok, err := tx.ConsumeTicket(ctx, userID)
		if err != nil {
			return wrap("consume ticket", err)
		}
		if !ok {
			return ErrInsufficientTickets
		}

		progress, err := tx.LockProgress(ctx, userID)
		if err != nil {
			return wrap("lock progress", err)
		}

		prizes, err := tx.ListDrawablePrizes(ctx, true)
		if err != nil {
			return wrap("list prizes", err)
		}
		pool, pityApplied := rewards.SelectPool(prizes, progress.PityCounter, threshold)
		idx, err := rewards.WeightedPick(pool, s.rnd)
		if errors.Is(err, rewards.ErrEmptyPool) {
			return ErrNoPrizes
		}
		if err != nil {
			return wrap("pick prize", err)
		}
		prize := pool[idx]

		taken, err := tx.DecrementStock(ctx, prize.ID)
		if err != nil {
			return wrap("decrement stock", err)
		}
		if !taken {
			return ErrNoPrizes
		}
		if prize.Stock != nil {
			left := *prize.Stock - 1
			prize.Stock = &left
			prize.IsAvailable = left > 0
		}

		res = DrawResult{Prize: prize, Rank: prize.Rank, PityApplied: pityApplied, TicketsRemaining: remaining}
		if err := s.applyReward(ctx, tx, userID, prize, &res); err != nil {
			return err
		}

		res.PityCounter = rewards.NextPity(progress.PityCounter, prize.Rank)
		if err := tx.SetPity(ctx, userID, res.PityCounter); err != nil {
			return wrap("update pity", err)
		}
		entry := models.LotteryLog{
			UserID:            userID,
			PrizeID:           prize.ID,
			Rank:              prize.Rank,
			PityCounterAtDraw: progress.PityCounter,
			CreatedAt:         s.cal.now(),
		}
		return wrap("write lottery log", tx.InsertLotteryLog(ctx, &entry))
	})
	if err != nil {
		return DrawResult{}, err
	}
	return res, nil
}

// applyReward grants points or a title. Stamp and item prizes change no state.
func (s *LotteryService) applyReward(ctx context.Context, tx repository.Store, userID string, prize models.Prize, res *DrawResult) error {
	var v prizeValue
	if len(prize.RewardValue) > 0 {
		if err := json.Unmarshal(prize.RewardValue, &v); err != nil {
			s.log.Warn("prize has malformed reward value", zap.String("prize_id", prize.ID), zap.Error(err))
			return nil
		}
	}

	switch prize.RewardType {
	case models.RewardPoints:
		if v.Amount <= 0 {
			return nil
		}
		if _, err := s.ledger.Grant(ctx, tx, userID, Grant{Points: v.Amount}); err != nil {
			return wrap("grant prize points", err)
		}
		res.PointsAwarded = v.Amount
	case models.RewardTitle:
		title, err := s.lookupTitle(ctx, tx, v)
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("prize references unknown title", zap.String("prize_id", prize.ID))
			return nil
		}
		if err != nil {
			return wrap("lookup prize title", err)
		}
		unlocked, err := tx.UnlockTitle(ctx, userID, title.ID, s.cal.now())
		if err != nil {
			return wrap("unlock prize title", err)
		}
		if unlocked {
			res.TitleUnlocked = &title
		}
	}
	return nil
}

func (s *LotteryService) lookupTitle(ctx context.Context, tx repository.Store, v prizeValue) (models.Title, error) {
	if v.TitleID != "" {
		return tx.GetTitle(ctx, v.TitleID)
	}
	if v.TitleName != "" {
		return tx.FindTitleByName(ctx, v.TitleName)
	}
	return models.Title{}, ErrNotFound
}

// Status returns the ticket balance, pity state and drawable prizes.
func (s *LotteryService) Status(ctx context.Context, userID string) (LotteryStatus, error) {
	out := LotteryStatus{PityThreshold: s.rules.Get().PityThreshold, Prizes: []models.Prize{}}
	tickets, err := s.store.TicketBalance(ctx, userID)
	if err != nil {
		return out, wrap("ticket balance", err)
	}
	out.Tickets = tickets
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return out, wrap("load progress", err)
	}
	out.PityCounter = p.PityCounter
	prizes, err := s.store.ListDrawablePrizes(ctx, false)
	if err != nil {
		return out, wrap("list prizes", err)
	}
	out.Prizes = append(out.Prizes, prizes...)
	return out, nil
}
