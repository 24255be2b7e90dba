package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/log"
	"github.com/servicemarket/missions/pkg/metrics"
	"github.com/thoas/go-funk"
)

const MaxDescriptionLength = 2000

type MissionService struct {
	store  store.Store
	clock  util.Clock
	logger *log.StructuredLogger
}

func NewMissionService(store store.Store, clock util.Clock) *MissionService {
	return &MissionService{
		store:  store,
		clock:  clock,
		logger: log.NewDebugLogger("mission_service"),
	}
}

type MissionCreateForm struct {
	OfferingID  uuid.UUID
	Price       float64
	Description string
}

func (ms *MissionService) CreateMission(ctx context.Context, actor auth.User, form MissionCreateForm) (*model.Mission, error) {
	tracer := ms.logger.WithContext(ctx).Operation("create_mission").
		WithUUID("actor_id", actor.ID).
		WithUUID("offering_id", form.OfferingID).
		Build()

	if actor.Role != auth.RoleClient {
		return nil, NewErrUnauthorized(actor.ID, "create a mission")
	}
	if form.Price < 0 {
		return nil, NewErrValidation("price must not be negative")
	}
	description := strings.TrimSpace(form.Description)
	if description == "" || utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, NewErrValidation("description must be between 1 and %d characters", MaxDescriptionLength)
	}

	if _, err := ms.store.Party().GetOffering(ctx, form.OfferingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrOfferingNotFound(form.OfferingID)
		}
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}

	now := ms.clock.Now()
	mission, err := ms.store.Mission().Create(ctx, model.Mission{
		ID:          uuid.New(),
		ClientID:    actor.ID,
		OfferingID:  form.OfferingID,
		Status:      model.MissionStatusPending,
		Price:       form.Price,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	metrics.IncreaseMissionTransitionMetric(string(model.MissionStatusPending))
	tracer.Success().WithUUID("mission_id", mission.ID).Log()
	return mission, nil
}

// GetMission returns the mission to one of its parties or to an administrator.
func (ms *MissionService) GetMission(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error) {
	mission, err := ms.getMission(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, isParty := mission.SideOf(actor.ID); !isParty && !actor.IsAdmin() {
		return nil, NewErrUnauthorized(actor.ID, "read mission "+id.String())
	}
	return mission, nil
}

func (ms *MissionService) DiscussMission(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error) {
	return ms.transition(ctx, actor, id, eitherParty,
		[]model.MissionStatus{model.MissionStatusPending},
		model.MissionStatusInDiscussion)
}

func (ms *MissionService) AcceptMission(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error) {
	return ms.transition(ctx, actor, id, providerOnly,
		[]model.MissionStatus{model.MissionStatusPending, model.MissionStatusInDiscussion},
		model.MissionStatusAccepted)
}

func (ms *MissionService) RefuseMission(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error) {
	return ms.transition(ctx, actor, id, providerOnly,
		[]model.MissionStatus{model.MissionStatusPending, model.MissionStatusInDiscussion},
		model.MissionStatusRefused)
}

func (ms *MissionService) CompleteMission(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Mission, error) {
	return ms.transition(ctx, actor, id, eitherParty,
		[]model.MissionStatus{model.MissionStatusAccepted},
		model.MissionStatusCompleted)
}

type partyCheck func(m *model.Mission, actorID uuid.UUID) bool

func providerOnly(m *model.Mission, actorID uuid.UUID) bool {
	return m.ProviderID() == actorID
}

func eitherParty(m *model.Mission, actorID uuid.UUID) bool {
	_, ok := m.SideOf(actorID)
	return ok
}

// transition authorizes the actor, then applies a compare-and-set on the
// status. Losing the race to another writer is reported like any other
// illegal transition.
func (ms *MissionService) transition(ctx context.Context, actor auth.User, id uuid.UUID, allowed partyCheck, from []model.MissionStatus, to model.MissionStatus) (*model.Mission, error) {
	tracer := ms.logger.WithContext(ctx).Operation("transition_mission").
		WithUUID("mission_id", id).
		WithUUID("actor_id", actor.ID).
		WithString("to", string(to)).
		Build()

	mission, err := ms.getMission(ctx, id)
	if err != nil {
		return nil, err
	}

	if !allowed(mission, actor.ID) {
		tracer.Step("actor_not_allowed").WithString("status", string(mission.Status)).Log()
		return nil, NewErrUnauthorized(actor.ID, fmt.Sprintf("move mission %s to %s", id, to))
	}

	if !funk.Contains(from, mission.Status) {
		return nil, NewErrInvalidTransition("mission", id, string(mission.Status), string(to))
	}

	now := ms.clock.Now()
	if err := ms.store.Mission().UpdateStatus(ctx, id, from, to, now); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			tracer.Step("lost_compare_and_set").Log()
			return nil, NewErrInvalidTransition("mission", id, string(mission.Status), string(to))
		}
		return nil, fmt.Errorf("failed to update mission status: %w", err)
	}

	metrics.IncreaseMissionTransitionMetric(string(to))
	tracer.Success().WithString("from", string(mission.Status)).Log()

	mission.Status = to
	mission.UpdatedAt = now
	return mission, nil
}

func (ms *MissionService) getMission(ctx context.Context, id uuid.UUID) (*model.Mission, error) {
	mission, err := ms.store.Mission().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMissionNotFound(id)
		}
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return mission, nil
}
