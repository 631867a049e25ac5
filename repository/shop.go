package repository

import (
	"context"

	"github.com/cppla/officing/models"
)

// ListShopItems returns active items, cheapest first.
func (s *GormStore) ListShopItems(ctx context.Context) ([]models.ShopItem, error) {
	var items []models.ShopItem
	err := s.conn(ctx).Where("is_active = ?", true).Order("cost ASC, code ASC").Find(&items).Error
	return items, err
}

// GetShopItem returns ErrNotFound for missing or inactive items.
func (s *GormStore) GetShopItem(ctx context.Context, id string) (models.ShopItem, error) {
	var item models.ShopItem
	err := s.conn(ctx).Where("id = ? AND is_active = ?", id, true).First(&item).Error
	return item, notFound(err)
}

// InsertPurchase implements ShopStore.
func (s *GormStore) InsertPurchase(ctx context.Context, p *models.ShopPurchase) error {
	return s.conn(ctx).Create(p).Error
}
