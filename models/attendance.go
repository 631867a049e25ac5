package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the calendar-day format stored in date columns.
const DateLayout = "2006-01-02"

// Attendance is one check-in per user per calendar day. Year and Month are
// denormalised from CheckInDate for monthly counts.
type Attendance struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_attendance_user_date,priority:1;index:idx_attendance_user_month,priority:1" json:"user_id"`
	CheckInDate string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_date,priority:2" json:"check_in_date"`
	CheckInTime time.Time `gorm:"not null" json:"check_in_time"`
	LocationTag string    `gorm:"size:32;not null;index" json:"location_tag"`
	Year        int       `gorm:"not null;index:idx_attendance_user_month,priority:2" json:"year"`
	Month       int       `gorm:"not null;index:idx_attendance_user_month,priority:3" json:"month"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate assigns a random id when none is set.
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
