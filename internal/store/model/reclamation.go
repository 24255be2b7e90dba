package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ReclamationStatus string

const (
	ReclamationStatusPending    ReclamationStatus = "pending"
	ReclamationStatusInProgress ReclamationStatus = "in_progress"
	ReclamationStatusResolved   ReclamationStatus = "resolved"
	ReclamationStatusClosed     ReclamationStatus = "closed"
)

var reclamationTransitions = map[ReclamationStatus][]ReclamationStatus{
	ReclamationStatusPending:    {ReclamationStatusInProgress, ReclamationStatusClosed},
	ReclamationStatusInProgress: {ReclamationStatusInProgress, ReclamationStatusResolved, ReclamationStatusClosed},
	ReclamationStatusResolved:   {ReclamationStatusClosed},
}

// CanTransition reports whether an administrator may move a reclamation
// from one status to the other. Closed is terminal.
func (s ReclamationStatus) CanTransition(to ReclamationStatus) bool {
	for _, allowed := range reclamationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Reclamation struct {
	ID           uuid.UUID         `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	MissionID    *uuid.UUID        `gorm:"type:VARCHAR(255);index:reclamations_mission_id_idx"`
	EvaluationID *uuid.UUID        `gorm:"type:VARCHAR(255);index:reclamations_evaluation_id_idx"`
	CreatorID    uuid.UUID         `gorm:"not null;type:VARCHAR(255);index:reclamations_creator_id_idx"`
	CreatorType  Side              `gorm:"not null;type:VARCHAR(20)"`
	Subject      string            `gorm:"not null;type:VARCHAR(255)"`
	Description  string            `gorm:"not null;type:TEXT"`
	Status       ReclamationStatus `gorm:"not null;type:VARCHAR(20);default:'pending';index:reclamations_status_idx"`
	Response     *string           `gorm:"type:TEXT"`
	RespondedAt  *time.Time
	ResponderID  *uuid.UUID `gorm:"type:VARCHAR(255)"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime:false"`
}

type ReclamationList []Reclamation

func (r Reclamation) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
