package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

type Reclamation interface {
	List(ctx context.Context, filter *ReclamationQueryFilter, opts *QueryOptions) (model.ReclamationList, error)
	Count(ctx context.Context, filter *ReclamationQueryFilter) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Reclamation, error)
	Create(ctx context.Context, reclamation model.Reclamation) (*model.Reclamation, error)
	Respond(ctx context.Context, id uuid.UUID, from, to model.ReclamationStatus, response string, responderID uuid.UUID, now time.Time) error
}

type ReclamationStore struct {
	db *gorm.DB
}

// Make sure we conform to Reclamation interface
var _ Reclamation = (*ReclamationStore)(nil)

func NewReclamationStore(db *gorm.DB) Reclamation {
	return &ReclamationStore{db: db}
}

func (r *ReclamationStore) List(ctx context.Context, filter *ReclamationQueryFilter, opts *QueryOptions) (model.ReclamationList, error) {
	var reclamations model.ReclamationList
	tx := r.getDB(ctx).Model(&reclamations)

	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	}

	if err := tx.Find(&reclamations).Error; err != nil {
		return nil, err
	}
	return reclamations, nil
}

func (r *ReclamationStore) Count(ctx context.Context, filter *ReclamationQueryFilter) (int64, error) {
	var count int64
	tx := r.getDB(ctx).Model(&model.Reclamation{})
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ReclamationStore) Get(ctx context.Context, id uuid.UUID) (*model.Reclamation, error) {
	var reclamation model.Reclamation
	if err := r.getDB(ctx).First(&reclamation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &reclamation, nil
}

func (r *ReclamationStore) Create(ctx context.Context, reclamation model.Reclamation) (*model.Reclamation, error) {
	if reclamation.ID == uuid.Nil {
		reclamation.ID = uuid.New()
	}
	if err := r.getDB(ctx).Create(&reclamation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &reclamation, nil
}

// Respond records an administrator answer. The write only lands if the
// reclamation is still in the status observed by the caller.
func (r *ReclamationStore) Respond(ctx context.Context, id uuid.UUID, from, to model.ReclamationStatus, response string, responderID uuid.UUID, now time.Time) error {
	result := r.getDB(ctx).Model(&model.Reclamation{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]any{
			"status":       to,
			"response":     response,
			"responded_at": now,
			"responder_id": responderID,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *ReclamationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}
