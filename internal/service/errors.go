package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrMissionNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "mission")
}

func NewErrOfferingNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "offering")
}

func NewErrEvaluationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "evaluation")
}

func NewErrReclamationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "reclamation")
}

func NewErrUserNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "user")
}

// ErrUnauthorized means the actor is known but not allowed to act.
type ErrUnauthorized struct {
	error
}

func NewErrUnauthorized(actorID uuid.UUID, action string) *ErrUnauthorized {
	return &ErrUnauthorized{fmt.Errorf("user %s is not allowed to %s", actorID, action)}
}

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(resource string, id uuid.UUID, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("%s %s cannot move from %s to %s", resource, id, from, to)}
}

type ErrInvalidState struct {
	error
}

func NewErrInvalidState(format string, args ...any) *ErrInvalidState {
	return &ErrInvalidState{fmt.Errorf(format, args...)}
}

type ErrConflict struct {
	error
}

func NewErrEvaluationExists(missionID uuid.UUID, target string) *ErrConflict {
	return &ErrConflict{fmt.Errorf("mission %s already has an evaluation of the %s", missionID, target)}
}

type ErrValidation struct {
	error
}

func NewErrValidation(format string, args ...any) *ErrValidation {
	return &ErrValidation{fmt.Errorf(format, args...)}
}
