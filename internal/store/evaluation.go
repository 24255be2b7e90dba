package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

type Evaluation interface {
	List(ctx context.Context, filter *EvaluationQueryFilter, opts *QueryOptions) (model.EvaluationList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Evaluation, error)
	Create(ctx context.Context, evaluation model.Evaluation) (*model.Evaluation, error)
	RevealMission(ctx context.Context, missionID uuid.UUID) (int64, error)
	Reveal(ctx context.Context, id uuid.UUID) (int64, error)
}

type EvaluationStore struct {
	db *gorm.DB
}

// Make sure we conform to Evaluation interface
var _ Evaluation = (*EvaluationStore)(nil)

func NewEvaluationStore(db *gorm.DB) Evaluation {
	return &EvaluationStore{db: db}
}

func (e *EvaluationStore) List(ctx context.Context, filter *EvaluationQueryFilter, opts *QueryOptions) (model.EvaluationList, error) {
	var evaluations model.EvaluationList
	tx := e.getDB(ctx).Model(&evaluations)

	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	}

	if err := tx.Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (e *EvaluationStore) Get(ctx context.Context, id uuid.UUID) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	if err := e.getDB(ctx).First(&evaluation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &evaluation, nil
}

// Create inserts a new evaluation. The unique index on (mission_id, target)
// is reported as ErrDuplicateKey.
func (e *EvaluationStore) Create(ctx context.Context, evaluation model.Evaluation) (*model.Evaluation, error) {
	if evaluation.ID == uuid.Nil {
		evaluation.ID = uuid.New()
	}
	if err := e.getDB(ctx).Create(&evaluation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &evaluation, nil
}

// RevealMission publishes every hidden evaluation of the mission and returns
// how many rows were flipped.
func (e *EvaluationStore) RevealMission(ctx context.Context, missionID uuid.UUID) (int64, error) {
	result := e.getDB(ctx).Model(&model.Evaluation{}).
		Where("mission_id = ? AND visible = ?", missionID, false).
		UpdateColumn("visible", true)
	return result.RowsAffected, result.Error
}

func (e *EvaluationStore) Reveal(ctx context.Context, id uuid.UUID) (int64, error) {
	result := e.getDB(ctx).Model(&model.Evaluation{}).
		Where("id = ? AND visible = ?", id, false).
		UpdateColumn("visible", true)
	return result.RowsAffected, result.Error
}

func (e *EvaluationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return e.db.WithContext(ctx)
}
