package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Prize ranks, highest first.
const (
	RankS = "S"
	RankA = "A"
	RankB = "B"
	RankC = "C"
)

// Prize reward types.
const (
	RewardPoints = "points"
	RewardTitle  = "title"
	RewardStamp  = "stamp"
	RewardItem   = "item"
)

// LotteryTicket holds a user's ticket balance.
type LotteryTicket struct {
	UserID      string    `gorm:"primaryKey;size:36" json:"user_id"`
	TicketCount int       `gorm:"not null;default:0" json:"ticket_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Prize is a lottery catalog entry. A nil Stock means unlimited.
type Prize struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Code        string         `gorm:"size:64;uniqueIndex" json:"code"`
	Name        string         `gorm:"size:128;not null" json:"name"`
	Description string         `gorm:"size:512" json:"description"`
	Rank        string         `gorm:"size:1;not null;index" json:"rank"`
	Weight      float64        `gorm:"not null" json:"weight"`
	RewardType  string         `gorm:"size:16;not null" json:"reward_type"`
	RewardValue datatypes.JSON `json:"reward_value"`
	Stock       *int           `json:"stock"`
	IsAvailable bool           `gorm:"not null;index" json:"is_available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a random id when none is set.
func (p *Prize) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Code == "" {
		p.Code = p.ID
	}
	return nil
}

// LotteryLog is the append-only draw audit trail.
type LotteryLog struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	UserID            string    `gorm:"size:36;not null;index" json:"user_id"`
	PrizeID           string    `gorm:"size:36;not null" json:"prize_id"`
	Rank              string    `gorm:"size:1;not null" json:"rank"`
	PityCounterAtDraw int       `gorm:"not null" json:"pity_counter_at_draw"`
	CreatedAt         time.Time `json:"created_at"`
}

// BeforeCreate assigns a random id when none is set.
func (l *LotteryLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
