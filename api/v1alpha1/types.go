// Package v1alpha1 holds the wire types of the missions API.
package v1alpha1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

type MissionStatus string

const (
	MissionStatusPending    MissionStatus = "pending"
	MissionStatusDiscussion MissionStatus = "discussion"
	MissionStatusAccepted   MissionStatus = "accepted"
	MissionStatusRefused    MissionStatus = "refused"
	MissionStatusCompleted  MissionStatus = "completed"
)

type Side string

const (
	SideClient   Side = "client"
	SideProvider Side = "provider"
)

type ReclamationStatus string

const (
	ReclamationStatusPending    ReclamationStatus = "pending"
	ReclamationStatusInProgress ReclamationStatus = "in_progress"
	ReclamationStatusResolved   ReclamationStatus = "resolved"
	ReclamationStatusClosed     ReclamationStatus = "closed"
)

type MissionCreate struct {
	OfferingID  uuid.UUID `json:"offering_id" validate:"uuid_set"`
	Price       float64   `json:"price" validate:"gte=0"`
	Description string    `json:"description" validate:"required,max=2000"`
}

type Party struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Mission struct {
	ID              uuid.UUID     `json:"id"`
	Client          Party         `json:"client"`
	Provider        Party         `json:"provider"`
	OfferingID      uuid.UUID     `json:"offering_id"`
	OfferingTitle   string        `json:"offering_title"`
	Status          MissionStatus `json:"status"`
	ContactReleased bool          `json:"contact_released"`
	Price           float64       `json:"price"`
	Description     string        `json:"description"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type EvaluationCreate struct {
	Target      Side    `json:"target" validate:"side"`
	Punctuality int     `json:"punctuality" validate:"score"`
	Cleanliness int     `json:"cleanliness" validate:"score"`
	Quality     int     `json:"quality" validate:"score"`
	Comment     *string `json:"comment,omitempty"`
}

type Evaluation struct {
	ID           uuid.UUID `json:"id"`
	MissionID    uuid.UUID `json:"mission_id"`
	Target       Side      `json:"target"`
	AuthorID     uuid.UUID `json:"author_id"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	Punctuality  int       `json:"punctuality"`
	Cleanliness  int       `json:"cleanliness"`
	Quality      int       `json:"quality"`
	Average      float64   `json:"average"`
	Comment      *string   `json:"comment,omitempty"`
	Visible      bool      `json:"visible"`
	CreatedAt    time.Time `json:"created_at"`
}

type EvaluationList struct {
	Items []Evaluation `json:"items"`
}

type UserEvaluations struct {
	UserID  uuid.UUID    `json:"user_id"`
	Count   int          `json:"count"`
	Average float64      `json:"average"`
	Items   []Evaluation `json:"items"`
}

type ReclamationCreate struct {
	MissionID    *uuid.UUID `json:"mission_id,omitempty"`
	EvaluationID *uuid.UUID `json:"evaluation_id,omitempty"`
	Subject      string     `json:"subject" validate:"required,max=255"`
	Description  string     `json:"description" validate:"required"`
}

type ReclamationResponse struct {
	Status   ReclamationStatus `json:"status" validate:"reclamation_response_status"`
	Response string            `json:"response" validate:"required,min=10"`
}

type Reclamation struct {
	ID           uuid.UUID         `json:"id"`
	MissionID    *uuid.UUID        `json:"mission_id,omitempty"`
	EvaluationID *uuid.UUID        `json:"evaluation_id,omitempty"`
	CreatorID    uuid.UUID         `json:"creator_id"`
	CreatorType  Side              `json:"creator_type"`
	Subject      string            `json:"subject"`
	Description  string            `json:"description"`
	Status       ReclamationStatus `json:"status"`
	Response     *string           `json:"response,omitempty"`
	RespondedAt  *time.Time        `json:"responded_at,omitempty"`
	ResponderID  *uuid.UUID        `json:"responder_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ReclamationList struct {
	Total int64         `json:"total"`
	Items []Reclamation `json:"items"`
}

type SweepOutcome struct {
	Sweep  string         `json:"sweep"`
	Counts map[string]int `json:"counts"`
}

type Health struct {
	Status string `json:"status"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

func (Mission) Render(http.ResponseWriter, *http.Request) error         { return nil }
func (Evaluation) Render(http.ResponseWriter, *http.Request) error      { return nil }
func (EvaluationList) Render(http.ResponseWriter, *http.Request) error  { return nil }
func (UserEvaluations) Render(http.ResponseWriter, *http.Request) error { return nil }
func (Reclamation) Render(http.ResponseWriter, *http.Request) error     { return nil }
func (ReclamationList) Render(http.ResponseWriter, *http.Request) error { return nil }
func (SweepOutcome) Render(http.ResponseWriter, *http.Request) error    { return nil }
func (Health) Render(http.ResponseWriter, *http.Request) error          { return nil }
func (Error) Render(http.ResponseWriter, *http.Request) error           { return nil }
