package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
)

type Kind string

const (
	KindContactRelease Kind = "missions.notification.contact_release"
	KindReviewReminder Kind = "missions.notification.review_reminder"
)

// Contact is the counterpart's contact details disclosed after acceptance.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Notification struct {
	Kind        Kind       `json:"kind"`
	MissionID   uuid.UUID  `json:"mission_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Recipient   model.Side `json:"recipient"`
	Contact     *Contact   `json:"contact,omitempty"`
	Attempt     int        `json:"attempt,omitempty"`
}

func (n Notification) Validate() error {
	if n.MissionID == uuid.Nil || n.RecipientID == uuid.Nil {
		return fmt.Errorf("notification %s: mission and recipient are required", n.Kind)
	}
	switch n.Kind {
	case KindContactRelease:
		if n.Contact == nil {
			return fmt.Errorf("notification %s: contact is required", n.Kind)
		}
	case KindReviewReminder:
		if n.Attempt < 1 {
			return fmt.Errorf("notification %s: attempt must be positive", n.Kind)
		}
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return nil
}

func (n Notification) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

// Gateway delivers notifications on a best effort basis. An error means the
// notification was not accepted for delivery.
type Gateway interface {
	Send(ctx context.Context, n Notification) error
}

func NewContactRelease(m model.Mission, recipient model.Side, counterpart model.User) Notification {
	return Notification{
		Kind:        KindContactRelease,
		MissionID:   m.ID,
		RecipientID: m.PartyID(recipient),
		Recipient:   recipient,
		Contact: &Contact{
			Name:  counterpart.FullName(),
			Email: counterpart.Email,
			Phone: counterpart.Phone,
		},
	}
}

func NewReviewReminder(m model.Mission, recipient model.Side, attempt int) Notification {
	return Notification{
		Kind:        KindReviewReminder,
		MissionID:   m.ID,
		RecipientID: m.PartyID(recipient),
		Recipient:   recipient,
		Attempt:     attempt,
	}
}
