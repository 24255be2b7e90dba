package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

type Mission interface {
	List(ctx context.Context, filter *MissionQueryFilter, opts *QueryOptions) (model.MissionList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Mission, error)
	Create(ctx context.Context, mission model.Mission) (*model.Mission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.MissionStatus, to model.MissionStatus, now time.Time) error
	ClaimContactRelease(ctx context.Context, id uuid.UUID) error
}

type MissionStore struct {
	db *gorm.DB
}

// Make sure we conform to Mission interface
var _ Mission = (*MissionStore)(nil)

func NewMissionStore(db *gorm.DB) Mission {
	return &MissionStore{db: db}
}

func (m *MissionStore) List(ctx context.Context, filter *MissionQueryFilter, opts *QueryOptions) (model.MissionList, error) {
	var missions model.MissionList
	tx := m.getDB(ctx).Model(&missions).Preload("Client").Preload("Offering.Provider")

	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	}

	if err := tx.Find(&missions).Error; err != nil {
		return nil, err
	}
	return missions, nil
}

func (m *MissionStore) Get(ctx context.Context, id uuid.UUID) (*model.Mission, error) {
	var mission model.Mission
	result := m.getDB(ctx).Preload("Client").Preload("Offering.Provider").First(&mission, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &mission, nil
}

func (m *MissionStore) Create(ctx context.Context, mission model.Mission) (*model.Mission, error) {
	if mission.ID == uuid.Nil {
		mission.ID = uuid.New()
	}
	if err := m.getDB(ctx).Omit("Client", "Offering").Create(&mission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return m.Get(ctx, mission.ID)
}

// UpdateStatus moves the mission to `to` only if its status is still one of
// `from`. ErrConditionFailed means another writer got there first.
func (m *MissionStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.MissionStatus, to model.MissionStatus, now time.Time) error {
	result := m.getDB(ctx).Model(&model.Mission{}).
		Where("id = ? AND status IN ?", id, from).
		UpdateColumns(map[string]any{
			"status":     to,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// ClaimContactRelease flips contact_released for an accepted mission. Only one
// caller can win the claim; updated_at is left untouched.
func (m *MissionStore) ClaimContactRelease(ctx context.Context, id uuid.UUID) error {
	result := m.getDB(ctx).Model(&model.Mission{}).
		Where("id = ? AND status = ? AND contact_released = ?", id, model.MissionStatusAccepted, false).
		UpdateColumn("contact_released", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (m *MissionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return m.db.WithContext(ctx)
}
