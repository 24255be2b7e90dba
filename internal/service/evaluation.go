package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"github.com/servicemarket/missions/internal/util"
	"github.com/servicemarket/missions/pkg/log"
	"github.com/servicemarket/missions/pkg/metrics"
)

const DefaultCommentMaxLength = 1000

type EvaluationService struct {
	store            store.Store
	clock            util.Clock
	commentMaxLength int
	logger           *log.StructuredLogger
}

func NewEvaluationService(store store.Store, clock util.Clock, commentMaxLength int) *EvaluationService {
	if commentMaxLength <= 0 {
		commentMaxLength = DefaultCommentMaxLength
	}
	return &EvaluationService{
		store:            store,
		clock:            clock,
		commentMaxLength: commentMaxLength,
		logger:           log.NewDebugLogger("evaluation_service"),
	}
}

type EvaluationForm struct {
	Target      model.Side
	Punctuality int
	Cleanliness int
	Quality     int
	Comment     *string
}

func (f EvaluationForm) validate(commentMaxLength int) error {
	if f.Target != model.SideClient && f.Target != model.SideProvider {
		return NewErrValidation("target must be client or provider")
	}
	scores := []struct {
		name  string
		value int
	}{
		{"punctuality", f.Punctuality},
		{"cleanliness", f.Cleanliness},
		{"quality", f.Quality},
	}
	for _, s := range scores {
		if s.value < model.MinScore || s.value > model.MaxScore {
			return NewErrValidation("%s must be between %d and %d", s.name, model.MinScore, model.MaxScore)
		}
	}
	if f.Comment != nil && utf8.RuneCountInString(*f.Comment) > commentMaxLength {
		return NewErrValidation("comment must not exceed %d characters", commentMaxLength)
	}
	return nil
}

// SubmitEvaluation records the actor's rating of the other party of a
// completed mission. The evaluation stays hidden until the publication sweep
// reveals it.
func (es *EvaluationService) SubmitEvaluation(ctx context.Context, actor auth.User, missionID uuid.UUID, form EvaluationForm) (*model.Evaluation, error) {
	tracer := es.logger.WithContext(ctx).Operation("submit_evaluation").
		WithUUID("mission_id", missionID).
		WithUUID("actor_id", actor.ID).
		WithString("target", string(form.Target)).
		Build()

	if err := form.validate(es.commentMaxLength); err != nil {
		return nil, err
	}

	mission, err := es.store.Mission().Get(ctx, missionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMissionNotFound(missionID)
		}
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	if mission.Status != model.MissionStatusCompleted {
		return nil, NewErrInvalidState("mission %s is %s, only completed missions can be evaluated", missionID, mission.Status)
	}

	side, isParty := mission.SideOf(actor.ID)
	if !isParty || form.Target != side.Opposite() {
		return nil, NewErrUnauthorized(actor.ID, fmt.Sprintf("evaluate the %s of mission %s", form.Target, missionID))
	}

	existing, err := es.store.Evaluation().List(ctx, store.NewEvaluationQueryFilter().ByMissionID(missionID).ByTarget(form.Target), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to look up evaluations: %w", err)
	}
	if len(existing) > 0 {
		return nil, NewErrEvaluationExists(missionID, string(form.Target))
	}

	evaluation, err := es.store.Evaluation().Create(ctx, model.Evaluation{
		ID:           uuid.New(),
		MissionID:    missionID,
		Target:       form.Target,
		AuthorID:     actor.ID,
		TargetUserID: mission.PartyID(form.Target),
		Punctuality:  form.Punctuality,
		Cleanliness:  form.Cleanliness,
		Quality:      form.Quality,
		Average:      model.ComputeAverage(form.Punctuality, form.Cleanliness, form.Quality),
		Comment:      form.Comment,
		Visible:      false,
		CreatedAt:    es.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			tracer.Step("lost_insert_race").Log()
			return nil, NewErrEvaluationExists(missionID, string(form.Target))
		}
		return nil, fmt.Errorf("failed to create evaluation: %w", err)
	}

	metrics.IncreaseEvaluationsSubmittedMetric(string(form.Target))
	tracer.Success().WithUUID("evaluation_id", evaluation.ID).Log()
	return evaluation, nil
}

// ListMissionEvaluations hides the counterpart's evaluation from a party
// until it has been published. Administrators see everything.
func (es *EvaluationService) ListMissionEvaluations(ctx context.Context, actor auth.User, missionID uuid.UUID) (model.EvaluationList, error) {
	mission, err := es.store.Mission().Get(ctx, missionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrMissionNotFound(missionID)
		}
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	filter := store.NewEvaluationQueryFilter().ByMissionID(missionID)
	if !actor.IsAdmin() {
		if _, isParty := mission.SideOf(actor.ID); !isParty {
			return nil, NewErrUnauthorized(actor.ID, "read evaluations of mission "+missionID.String())
		}
		filter = filter.VisibleOrAuthoredBy(actor.ID)
	}

	evaluations, err := es.store.Evaluation().List(ctx, filter, store.NewQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evaluations, nil
}

// ListUserEvaluations returns the published evaluations received by a user.
func (es *EvaluationService) ListUserEvaluations(ctx context.Context, userID uuid.UUID, limit, offset int) (model.EvaluationList, model.RatingSummary, error) {
	if _, err := es.store.Party().GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, model.RatingSummary{}, NewErrUserNotFound(userID)
		}
		return nil, model.RatingSummary{}, fmt.Errorf("failed to get user: %w", err)
	}

	filter := store.NewEvaluationQueryFilter().ByTargetUserID(userID).ByVisible(true)

	all, err := es.store.Evaluation().List(ctx, filter, nil)
	if err != nil {
		return nil, model.RatingSummary{}, fmt.Errorf("failed to list evaluations: %w", err)
	}

	opts := store.NewQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc)
	if limit > 0 {
		opts = opts.WithLimit(limit).WithOffset(offset)
	}
	page, err := es.store.Evaluation().List(ctx, filter, opts)
	if err != nil {
		return nil, model.RatingSummary{}, fmt.Errorf("failed to list evaluations: %w", err)
	}

	return page, all.Summary(), nil
}
