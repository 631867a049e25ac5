package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/rewards"
)

// Grant is a set of reward deltas.
type Grant struct {
	XP      int
	Points  int
	Tickets int
}

// LedgerResult is the progress state after a grant.
type LedgerResult struct {
	rewards.LevelResult
	TotalPoints int
}

// Ledger applies grants to progress and ticket balances. It must run inside
// the caller's transaction so a failed write leaves nothing granted.
type Ledger struct{}

// Grant adds XP (with leveling), points and tickets for userID. Missing
// progress or ticket rows are created with the granted values.
func (l *Ledger) Grant(ctx context.Context, tx repository.Store, userID string, g Grant) (LedgerResult, error) {
	if g.XP < 0 || g.Points < 0 || g.Tickets < 0 {
		return LedgerResult{}, errors.New("ledger: negative grant")
	}
	p, err := tx.LockProgress(ctx, userID)
	if err != nil {
		return LedgerResult{}, fmt.Errorf("lock progress: %w", err)
	}
	lv, err := rewards.ApplyXP(p.Level, p.CurrentXP, g.XP)
	if err != nil {
		return LedgerResult{}, fmt.Errorf("apply xp: %w", err)
	}
	if g.XP != 0 || g.Points != 0 {
		if err := tx.UpdateLevel(ctx, userID, lv.Level, lv.XP, g.Points); err != nil {
			return LedgerResult{}, fmt.Errorf("update progress: %w", err)
		}
	}
	if g.Tickets > 0 {
		if err := tx.AddTickets(ctx, userID, g.Tickets); err != nil {
			return LedgerResult{}, fmt.Errorf("add tickets: %w", err)
		}
	}
	return LedgerResult{LevelResult: lv, TotalPoints: p.TotalPoints + g.Points}, nil
}
