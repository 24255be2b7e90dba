package model

import "fmt"

// Side names one of the two parties of a mission.
type Side string

const (
	SideClient   Side = "client"
	SideProvider Side = "provider"
)

func (s Side) Opposite() Side {
	switch s {
	case SideClient:
		return SideProvider
	case SideProvider:
		return SideClient
	default:
		panic(fmt.Sprintf("unknown side %q", string(s)))
	}
}

func (s Side) String() string {
	return string(s)
}

// Sides lists both parties in a stable order.
func Sides() []Side {
	return []Side{SideClient, SideProvider}
}
