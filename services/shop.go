package services

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
)

// PurchaseResult is the outcome of a shop purchase.
type PurchaseResult struct {
	Item            models.ShopItem `json:"item"`
	PointsRemaining int             `json:"pointsRemaining"`
	TicketsGranted  int             `json:"ticketsGranted,omitempty"`
	Title           *models.Title   `json:"title,omitempty"`
}

type itemValue struct {
	Count   int    `json:"count"`
	TitleID string `json:"title_id"`
}

// ShopService sells catalog items for points.
type ShopService struct {
	store repository.Store
	cal   calendar
	log   *zap.Logger
}

// Items lists the purchasable items.
func (s *ShopService) Items(ctx context.Context) ([]models.ShopItem, error) {
	items, err := s.store.ListShopItems(ctx)
	return items, wrap("list shop items", err)
}

// Purchase spends points on an item and delivers it in one transaction.
// A title the user already holds is rejected and nothing is charged.
func (s *ShopService) Purchase(ctx context.Context, userID, itemID string) (res PurchaseResult, err error) {
	ctx, span := startSpan(ctx, "shop.Purchase", userID)
	defer func() { finish(span, s.log, "shop_purchase", userID, err) }()

	if itemID == "" {
		return res, InvalidRequest("Item ID is required")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		item, err := tx.GetShopItem(ctx, itemID)
		if err != nil {
			return wrap("load item", err)
		}
		var v itemValue
		if len(item.ItemValue) > 0 {
			if err := json.Unmarshal(item.ItemValue, &v); err != nil {
				return wrap("decode item value", err)
			}
		}

		if _, err := tx.LockProgress(ctx, userID); err != nil {
			return wrap("lock progress", err)
		}
		paid, err := tx.SpendPoints(ctx, userID, item.Cost)
		if err != nil {
			return wrap("spend points", err)
		}
		if !paid {
			return ErrInsufficientPoints
		}

		res = PurchaseResult{Item: item}
		switch item.ItemType {
		case models.ItemLotteryTicket:
			n := v.Count
			if n <= 0 {
				n = 1
			}
			if err := tx.AddTickets(ctx, userID, n); err != nil {
				return wrap("add tickets", err)
			}
			res.TicketsGranted = n
		case models.ItemTitle:
			title, err := tx.GetTitle(ctx, v.TitleID)
			if errors.Is(err, ErrNotFound) {
				return InvalidRequest("item references an unknown title")
			}
			if err != nil {
				return wrap("load title", err)
			}
			unlocked, err := tx.UnlockTitle(ctx, userID, title.ID, s.cal.now())
			if err != nil {
				return wrap("unlock title", err)
			}
			if !unlocked {
				return ErrTitleAlreadyOwned
			}
			res.Title = &title
		}

		if err := tx.InsertPurchase(ctx, &models.ShopPurchase{UserID: userID, ItemID: item.ID, Cost: item.Cost, CreatedAt: s.cal.now()}); err != nil {
			return wrap("record purchase", err)
		}
		p, err := tx.GetProgress(ctx, userID)
		if err != nil {
			return wrap("reload progress", err)
		}
		res.PointsRemaining = p.TotalPoints
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	return res, nil
}
