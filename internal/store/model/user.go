package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	Role      string    `gorm:"not null;type:VARCHAR(20)"`
	FirstName string    `gorm:"type:VARCHAR(100)"`
	LastName  string    `gorm:"type:VARCHAR(100)"`
	Email     string    `gorm:"not null;uniqueIndex:users_email;type:VARCHAR(255)"`
	Phone     string    `gorm:"type:VARCHAR(50)"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u User) String() string {
	val, _ := json.Marshal(u)
	return string(val)
}

// Offering is the service a provider sells. The provider of a mission is
// always derived through its offering.
type Offering struct {
	ID         uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	ProviderID uuid.UUID `gorm:"not null;type:VARCHAR(255);index:offerings_provider_id_idx"`
	Provider   User      `gorm:"foreignKey:ProviderID;references:ID"`
	Title      string    `gorm:"not null;type:VARCHAR(255)"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false"`
}
