package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestTypeDaily marks quests eligible for daily assignment.
const QuestTypeDaily = "daily"

// Quest is a quest catalog entry.
type Quest struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex" json:"code"`
	Title       string    `gorm:"size:128;not null" json:"title"`
	Description string    `gorm:"size:512" json:"description"`
	Rank        string    `gorm:"size:1;not null" json:"rank"`
	BaseXP      int       `gorm:"column:base_xp;not null" json:"base_xp"`
	BasePoints  int       `gorm:"not null" json:"base_points"`
	QuestType   string    `gorm:"size:16;not null;index" json:"quest_type"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random id when none is set.
func (q *Quest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Code == "" {
		q.Code = q.ID
	}
	return nil
}

// UserQuestLog assigns a quest to a user for one day. CompletedAt is the
// completion marker.
type UserQuestLog struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"size:36;not null;uniqueIndex:idx_quest_log_user_quest_day,priority:1" json:"user_id"`
	QuestID      string     `gorm:"size:36;not null;uniqueIndex:idx_quest_log_user_quest_day,priority:2" json:"quest_id"`
	AssignedDate string     `gorm:"size:10;not null;uniqueIndex:idx_quest_log_user_quest_day,priority:3;index" json:"assigned_date"`
	CompletedAt  *time.Time `json:"completed_at"`
	XPEarned     int        `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	PointsEarned int        `gorm:"not null;default:0" json:"points_earned"`
	CreatedAt    time.Time  `json:"created_at"`
	Quest        Quest      `gorm:"foreignKey:QuestID" json:"quest"`
}

// BeforeCreate assigns a random id when none is set.
func (l *UserQuestLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
