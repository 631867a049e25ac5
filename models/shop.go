package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Shop item types.
const (
	ItemLotteryTicket = "lottery_ticket"
	ItemTitle         = "title"
	ItemStamp         = "stamp"
	ItemGeneric       = "item"
)

// ShopItem is a points shop catalog entry.
type ShopItem struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Code        string         `gorm:"size:64;uniqueIndex" json:"code"`
	Name        string         `gorm:"size:128;not null" json:"name"`
	Description string         `gorm:"size:512" json:"description"`
	ItemType    string         `gorm:"size:16;not null" json:"item_type"`
	ItemValue   datatypes.JSON `json:"item_value"`
	Cost        int            `gorm:"not null" json:"cost"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a random id when none is set.
func (s *ShopItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Code == "" {
		s.Code = s.ID
	}
	return nil
}

// ShopPurchase is the purchase audit trail.
type ShopPurchase struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	ItemID    string    `gorm:"size:36;not null" json:"item_id"`
	Cost      int       `gorm:"not null" json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a random id when none is set.
func (s *ShopPurchase) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
