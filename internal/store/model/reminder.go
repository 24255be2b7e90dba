package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusEvaluated ReminderStatus = "evaluated"
	ReminderStatusExpired   ReminderStatus = "expired"
)

// Reminder tracks the review solicitation sent to one party of a mission.
type Reminder struct {
	ID            uuid.UUID      `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	MissionID     uuid.UUID      `gorm:"not null;type:VARCHAR(255);uniqueIndex:reminders_mission_recipient"`
	Recipient     Side           `gorm:"not null;type:VARCHAR(20);uniqueIndex:reminders_mission_recipient"`
	Status        ReminderStatus `gorm:"not null;type:VARCHAR(20);default:'pending'"`
	Attempts      int            `gorm:"not null;default:0"`
	NextAttemptAt *time.Time
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false"`
}

type ReminderList []Reminder

func (r Reminder) Terminal() bool {
	return r.Status == ReminderStatusEvaluated || r.Status == ReminderStatusExpired
}

func (r Reminder) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
