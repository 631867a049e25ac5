package models

import "time"

// UserProgress is the per-user reward state. CurrentXP is always the remainder
// after every completed level-up.
type UserProgress struct {
	UserID        string    `gorm:"primaryKey;size:36" json:"user_id"`
	Level         int       `gorm:"not null;default:1" json:"level"`
	CurrentXP     int       `gorm:"column:current_xp;not null;default:0" json:"current_xp"`
	TotalPoints   int       `gorm:"not null;default:0" json:"total_points"`
	CurrentStreak int       `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak     int       `gorm:"not null;default:0" json:"max_streak"`
	ActiveTitleID *string   `gorm:"size:36" json:"active_title_id"`
	PityCounter   int       `gorm:"not null;default:0" json:"pity_counter"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName keeps the singular table name used by the existing schema.
func (UserProgress) TableName() string { return "user_progress" }
