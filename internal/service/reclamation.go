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

const (
	MinResponseLength = 10
	MaxSubjectLength  = 255
)

var respondableStatuses = []model.ReclamationStatus{
	model.ReclamationStatusInProgress,
	model.ReclamationStatusResolved,
	model.ReclamationStatusClosed,
}

type ReclamationService struct {
	store  store.Store
	clock  util.Clock
	logger *log.StructuredLogger
}

func NewReclamationService(store store.Store, clock util.Clock) *ReclamationService {
	return &ReclamationService{
		store:  store,
		clock:  clock,
		logger: log.NewDebugLogger("reclamation_service"),
	}
}

type ReclamationCreateForm struct {
	MissionID    *uuid.UUID
	EvaluationID *uuid.UUID
	Subject      string
	Description  string
}

type ReclamationResponseForm struct {
	Status   model.ReclamationStatus
	Response string
}

type ReclamationFilter struct {
	Status      *model.ReclamationStatus
	CreatorType *model.Side
	Limit       int
	Offset      int
}

// CreateReclamation opens a dispute on a completed mission or one of its
// evaluations. The creator must be a party of that mission.
func (rs *ReclamationService) CreateReclamation(ctx context.Context, actor auth.User, form ReclamationCreateForm) (*model.Reclamation, error) {
	tracer := rs.logger.WithContext(ctx).Operation("create_reclamation").
		WithUUID("actor_id", actor.ID).
		WithUUIDPtr("mission_id", form.MissionID).
		WithUUIDPtr("evaluation_id", form.EvaluationID).
		Build()

	if form.MissionID == nil && form.EvaluationID == nil {
		return nil, NewErrValidation("a reclamation must reference a mission or an evaluation")
	}
	subject := strings.TrimSpace(form.Subject)
	if subject == "" || utf8.RuneCountInString(subject) > MaxSubjectLength {
		return nil, NewErrValidation("subject must be between 1 and %d characters", MaxSubjectLength)
	}
	description := strings.TrimSpace(form.Description)
	if description == "" {
		return nil, NewErrValidation("description is required")
	}

	var missionID uuid.UUID
	if form.MissionID != nil {
		missionID = *form.MissionID
	}
	if form.EvaluationID != nil {
		evaluation, err := rs.store.Evaluation().Get(ctx, *form.EvaluationID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, NewErrEvaluationNotFound(*form.EvaluationID)
			}
			return nil, fmt.Errorf("failed to get evaluation: %w", err)
		}
		if form.MissionID != nil && evaluation.MissionID != *form.MissionID {
			return nil, NewErrValidation("evaluation %s does not belong to mission %s", evaluation.ID, *form.MissionID)
		}
		missionID = evaluation.MissionID
		tracer.Step("evaluation_resolved").WithUUID("resolved_mission_id", missionID).Log()
	}

	mission, err := rs.store.Mission().Get(ctx, missionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMissionNotFound(missionID)
		}
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	side, isParty := mission.SideOf(actor.ID)
	if !isParty {
		return nil, NewErrUnauthorized(actor.ID, "open a reclamation on mission "+missionID.String())
	}
	if mission.Status != model.MissionStatusCompleted {
		return nil, NewErrInvalidState("mission %s is %s, reclamations need a completed mission", missionID, mission.Status)
	}

	now := rs.clock.Now()
	reclamation, err := rs.store.Reclamation().Create(ctx, model.Reclamation{
		ID:           uuid.New(),
		MissionID:    &missionID,
		EvaluationID: form.EvaluationID,
		CreatorID:    actor.ID,
		CreatorType:  side,
		Subject:      subject,
		Description:  description,
		Status:       model.ReclamationStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reclamation: %w", err)
	}

	metrics.IncreaseReclamationEventMetric("created")
	tracer.Success().WithUUID("reclamation_id", reclamation.ID).WithString("creator_type", string(side)).Log()
	return reclamation, nil
}

// RespondReclamation lets an administrator answer and move the reclamation
// along its workflow. The read, the conditional write and the returned row
// share one transaction.
func (rs *ReclamationService) RespondReclamation(ctx context.Context, actor auth.User, id uuid.UUID, form ReclamationResponseForm) (*model.Reclamation, error) {
	tracer := rs.logger.WithContext(ctx).Operation("respond_reclamation").
		WithUUID("reclamation_id", id).
		WithUUID("actor_id", actor.ID).
		WithString("status", string(form.Status)).
		Build()

	if !actor.IsAdmin() {
		return nil, NewErrUnauthorized(actor.ID, "respond to reclamations")
	}
	response := strings.TrimSpace(form.Response)
	if len([]rune(response)) < MinResponseLength {
		return nil, NewErrValidation("response must be at least %d characters", MinResponseLength)
	}
	if !funk.Contains(respondableStatuses, form.Status) {
		return nil, NewErrValidation("status must be one of in_progress, resolved or closed")
	}

	ctx, err := rs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	reclamation, err := rs.getReclamation(ctx, id)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if !reclamation.Status.CanTransition(form.Status) {
		_, _ = store.Rollback(ctx)
		return nil, NewErrInvalidTransition("reclamation", id, string(reclamation.Status), string(form.Status))
	}

	now := rs.clock.Now()
	if err := rs.store.Reclamation().Respond(ctx, id, reclamation.Status, form.Status, response, actor.ID, now); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrConditionFailed) {
			tracer.Step("lost_compare_and_set").Log()
			return nil, NewErrInvalidTransition("reclamation", id, string(reclamation.Status), string(form.Status))
		}
		return nil, fmt.Errorf("failed to respond to reclamation: %w", err)
	}

	answered, err := rs.getReclamation(ctx, id)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reclamation response: %w", err)
	}

	metrics.IncreaseReclamationEventMetric(string(form.Status))
	tracer.Success().WithString("from", string(reclamation.Status)).Log()

	return answered, nil
}

func (rs *ReclamationService) GetReclamation(ctx context.Context, actor auth.User, id uuid.UUID) (*model.Reclamation, error) {
	reclamation, err := rs.getReclamation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && reclamation.CreatorID != actor.ID {
		return nil, NewErrUnauthorized(actor.ID, "read reclamation "+id.String())
	}
	return reclamation, nil
}

// ListReclamations returns one page and the total matching count. Non
// administrators only see the reclamations they opened.
func (rs *ReclamationService) ListReclamations(ctx context.Context, actor auth.User, filter ReclamationFilter) (model.ReclamationList, int64, error) {
	storeFilter := rs.storeFilter(actor, filter)

	total, err := rs.store.Reclamation().Count(ctx, storeFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reclamations: %w", err)
	}

	opts := store.NewQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts = opts.WithOffset(filter.Offset)
	}

	reclamations, err := rs.store.Reclamation().List(ctx, storeFilter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reclamations: %w", err)
	}
	return reclamations, total, nil
}

func (rs *ReclamationService) storeFilter(actor auth.User, filter ReclamationFilter) *store.ReclamationQueryFilter {
	storeFilter := store.NewReclamationQueryFilter()
	if !actor.IsAdmin() {
		storeFilter = storeFilter.ByCreatorID(actor.ID)
	}
	if filter.Status != nil {
		storeFilter = storeFilter.ByStatus(*filter.Status)
	}
	if filter.CreatorType != nil {
		storeFilter = storeFilter.ByCreatorType(*filter.CreatorType)
	}
	return storeFilter
}

func (rs *ReclamationService) getReclamation(ctx context.Context, id uuid.UUID) (*model.Reclamation, error) {
	reclamation, err := rs.store.Reclamation().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrReclamationNotFound(id)
		}
		return nil, fmt.Errorf("failed to get reclamation: %w", err)
	}
	return reclamation, nil
}
