package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

type Reminder interface {
	Get(ctx context.Context, missionID uuid.UUID, recipient model.Side) (*model.Reminder, error)
	ListByMission(ctx context.Context, missionID uuid.UUID) (model.ReminderList, error)
	Create(ctx context.Context, reminder model.Reminder) (*model.Reminder, error)
	ClaimSend(ctx context.Context, id uuid.UUID, from model.ReminderStatus, observedAttempts int, nextAttemptAt, now time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from []model.ReminderStatus, to model.ReminderStatus, now time.Time) error
}

type ReminderStore struct {
	db *gorm.DB
}

// Make sure we conform to Reminder interface
var _ Reminder = (*ReminderStore)(nil)

func NewReminderStore(db *gorm.DB) Reminder {
	return &ReminderStore{db: db}
}

func (r *ReminderStore) Get(ctx context.Context, missionID uuid.UUID, recipient model.Side) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.getDB(ctx).First(&reminder, "mission_id = ? AND recipient = ?", missionID, recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderStore) ListByMission(ctx context.Context, missionID uuid.UUID) (model.ReminderList, error) {
	var reminders model.ReminderList
	if err := r.getDB(ctx).Where("mission_id = ?", missionID).Order("recipient").Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

// Create inserts a reminder. A reminder for the same (mission, recipient)
// already present is reported as ErrDuplicateKey.
func (r *ReminderStore) Create(ctx context.Context, reminder model.Reminder) (*model.Reminder, error) {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	if err := r.getDB(ctx).Create(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &reminder, nil
}

// ClaimSend marks the reminder as sent and bumps its attempt counter, provided
// nobody changed status or attempts since they were read.
func (r *ReminderStore) ClaimSend(ctx context.Context, id uuid.UUID, from model.ReminderStatus, observedAttempts int, nextAttemptAt, now time.Time) error {
	result := r.getDB(ctx).Model(&model.Reminder{}).
		Where("id = ? AND status = ? AND attempts = ?", id, from, observedAttempts).
		UpdateColumns(map[string]any{
			"status":          model.ReminderStatusSent,
			"attempts":        observedAttempts + 1,
			"next_attempt_at": nextAttemptAt,
			"updated_at":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *ReminderStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.ReminderStatus, to model.ReminderStatus, now time.Time) error {
	result := r.getDB(ctx).Model(&model.Reminder{}).
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

func (r *ReminderStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}
