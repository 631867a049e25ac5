package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Title unlock condition types.
const (
	ConditionStreak     = "streak"
	ConditionAttendance = "attendance"
	ConditionLevel      = "level"
	ConditionQuest      = "quest"
	ConditionTag        = "tag"
)

// Title is an achievement catalog entry.
type Title struct {
	ID                   string         `gorm:"primaryKey;size:36" json:"id"`
	Code                 string         `gorm:"size:64;uniqueIndex" json:"code"`
	Name                 string         `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Description          string         `gorm:"size:512" json:"description"`
	UnlockConditionType  string         `gorm:"size:16;not null" json:"unlock_condition_type"`
	UnlockConditionValue datatypes.JSON `json:"unlock_condition_value"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a random id when none is set.
func (t *Title) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Code == "" {
		t.Code = t.ID
	}
	return nil
}

// UserTitle marks a title as unlocked for a user. Its presence is the only
// unlock marker.
type UserTitle struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_user_title,priority:1" json:"user_id"`
	TitleID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_title,priority:2" json:"title_id"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}

// BeforeCreate assigns a random id when none is set.
func (u *UserTitle) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
