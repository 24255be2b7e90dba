package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Mission() Mission
	Evaluation() Evaluation
	Reminder() Reminder
	Reclamation() Reclamation
	Party() Party
	InitialMigration(ctx context.Context) error
	Seed(ctx context.Context) error
	Statistics(ctx context.Context) (model.Statistics, error)
	Close() error
}

type DataStore struct {
	db          *gorm.DB
	mission     Mission
	evaluation  Evaluation
	reminder    Reminder
	reclamation Reclamation
	party       Party
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:          db,
		mission:     NewMissionStore(db),
		evaluation:  NewEvaluationStore(db),
		reminder:    NewReminderStore(db),
		reclamation: NewReclamationStore(db),
		party:       NewPartyStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Mission() Mission {
	return s.mission
}

func (s *DataStore) Evaluation() Evaluation {
	return s.evaluation
}

func (s *DataStore) Reminder() Reminder {
	return s.reminder
}

func (s *DataStore) Reclamation() Reclamation {
	return s.reclamation
}

func (s *DataStore) Party() Party {
	return s.party
}

// InitialMigration creates the schema from the models. Used for sqlite, where
// the goose migrations do not apply.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.Offering{},
		&model.Mission{},
		&model.Evaluation{},
		&model.Reminder{},
		&model.Reclamation{},
	)
}

var (
	SeedAdminID    = uuid.MustParse("00000000-0000-0000-0000-00000000a001")
	SeedClientID   = uuid.MustParse("00000000-0000-0000-0000-00000000c001")
	SeedProviderID = uuid.MustParse("00000000-0000-0000-0000-00000000b001")
	SeedOfferingID = uuid.MustParse("00000000-0000-0000-0000-00000000f001")
)

// Seed inserts a fixed admin, client, provider and offering for local
// development. Existing rows are left alone.
func (s *DataStore) Seed(ctx context.Context) error {
	now := time.Now().UTC()
	users := []model.User{
		{ID: SeedAdminID, Role: model.RoleAdmin, FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", CreatedAt: now},
		{ID: SeedClientID, Role: model.RoleClient, FirstName: "Chloe", LastName: "Client", Email: "client@example.com", Phone: "+33100000001", CreatedAt: now},
		{ID: SeedProviderID, Role: model.RoleProvider, FirstName: "Paul", LastName: "Provider", Email: "provider@example.com", Phone: "+33100000002", CreatedAt: now},
	}
	offering := model.Offering{ID: SeedOfferingID, ProviderID: SeedProviderID, Title: "Home cleaning", CreatedAt: now}

	tx, err := newTransaction(s.db.WithContext(ctx))
	if err != nil {
		return err
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if err := tx.tx.Clauses(onConflict).Create(&users).Error; err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.tx.Clauses(onConflict).Omit("Provider").Create(&offering).Error; err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *DataStore) Statistics(ctx context.Context) (model.Statistics, error) {
	stats := model.Statistics{
		MissionsByStatus:     map[model.MissionStatus]int64{},
		RemindersByStatus:    map[model.ReminderStatus]int64{},
		ReclamationsByStatus: map[model.ReclamationStatus]int64{},
	}
	db := s.db.WithContext(ctx)

	type row struct {
		Status string
		Count  int64
	}

	var missions []row
	if err := db.Model(&model.Mission{}).Select("status, COUNT(*) AS count").Group("status").Scan(&missions).Error; err != nil {
		return stats, err
	}
	for _, r := range missions {
		stats.MissionsByStatus[model.MissionStatus(r.Status)] = r.Count
	}

	var reminders []row
	if err := db.Model(&model.Reminder{}).Select("status, COUNT(*) AS count").Group("status").Scan(&reminders).Error; err != nil {
		return stats, err
	}
	for _, r := range reminders {
		stats.RemindersByStatus[model.ReminderStatus(r.Status)] = r.Count
	}

	var reclamations []row
	if err := db.Model(&model.Reclamation{}).Select("status, COUNT(*) AS count").Group("status").Scan(&reclamations).Error; err != nil {
		return stats, err
	}
	for _, r := range reclamations {
		stats.ReclamationsByStatus[model.ReclamationStatus(r.Status)] = r.Count
	}

	if err := db.Model(&model.Mission{}).
		Where("status = ? AND contact_released = ?", model.MissionStatusAccepted, false).
		Count(&stats.PendingContactRelease).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&model.Evaluation{}).Where("visible = ?", false).Count(&stats.HiddenEvaluations).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
