package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MissionStatus string

const (
	MissionStatusPending      MissionStatus = "pending"
	MissionStatusInDiscussion MissionStatus = "in_discussion"
	MissionStatusAccepted     MissionStatus = "accepted"
	MissionStatusRefused      MissionStatus = "refused"
	MissionStatusCompleted    MissionStatus = "completed"
)

type Mission struct {
	ID              uuid.UUID     `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	ClientID        uuid.UUID     `gorm:"not null;type:VARCHAR(255);index:missions_client_id_idx"`
	Client          User          `gorm:"foreignKey:ClientID;references:ID"`
	OfferingID      uuid.UUID     `gorm:"not null;type:VARCHAR(255);index:missions_offering_id_idx"`
	Offering        Offering      `gorm:"foreignKey:OfferingID;references:ID"`
	Status          MissionStatus `gorm:"not null;type:VARCHAR(20);default:'pending';index:missions_status_idx"`
	ContactReleased bool          `gorm:"not null;default:false"`
	Price           float64       `gorm:"not null;type:NUMERIC(10,2)"`
	Description     string        `gorm:"type:TEXT"`
	CreatedAt       time.Time     `gorm:"not null;autoCreateTime:false"`
	UpdatedAt       time.Time     `gorm:"not null;autoUpdateTime:false;index:missions_updated_at_idx"`
}

type MissionList []Mission

func (m Mission) ProviderID() uuid.UUID {
	return m.Offering.ProviderID
}

// PartyID returns the user standing on the given side of the mission.
func (m Mission) PartyID(side Side) uuid.UUID {
	switch side {
	case SideClient:
		return m.ClientID
	case SideProvider:
		return m.ProviderID()
	default:
		return uuid.Nil
	}
}

// SideOf tells on which side userID stands, if any.
func (m Mission) SideOf(userID uuid.UUID) (Side, bool) {
	switch userID {
	case m.ClientID:
		return SideClient, true
	case m.ProviderID():
		return SideProvider, true
	default:
		return "", false
	}
}

func (m Mission) String() string {
	val, _ := json.Marshal(m)
	return string(val)
}
