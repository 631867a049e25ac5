package models

import "time"

// EndpointHit stores aggregated successful request counts per day and route.
type EndpointHit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_hit_date_route,priority:1" json:"date"`
	Route     string    `gorm:"size:128;not null;uniqueIndex:idx_hit_date_route,priority:2" json:"route"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&UserProgress{},
		&Attendance{},
		&LotteryTicket{},
		&Prize{},
		&LotteryLog{},
		&Quest{},
		&UserQuestLog{},
		&Title{},
		&UserTitle{},
		&ShopItem{},
		&ShopPurchase{},
		&EndpointHit{},
	}
}
