// Package storetest builds throwaway sqlite databases and fixtures for tests.
package storetest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onsi/gomega"
	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB() (*gorm.DB, error) {
	cfg, err := config.NewDefault()
	if err != nil {
		return nil, err
	}
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.NewStore(db).InitialMigration(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

// Truncate empties every table between specs.
func Truncate(db *gorm.DB) {
	for _, table := range []string{"reclamations", "reminders", "evaluations", "missions", "offerings", "users"} {
		gomega.ExpectWithOffset(1, db.Exec(fmt.Sprintf("DELETE FROM %s;", table)).Error).To(gomega.BeNil())
	}
}

type Fixtures struct {
	DB  *gorm.DB
	Now time.Time
}

func (f Fixtures) User(role string) model.User {
	id := uuid.New()
	u := model.User{
		ID:        id,
		Role:      role,
		FirstName: role,
		LastName:  id.String()[:8],
		Email:     fmt.Sprintf("%s-%s@example.com", role, id.String()[:8]),
		Phone:     "+33100000000",
		CreatedAt: f.Now,
	}
	gomega.ExpectWithOffset(1, f.DB.Create(&u).Error).To(gomega.BeNil())
	return u
}

func (f Fixtures) Offering(providerID uuid.UUID) model.Offering {
	o := model.Offering{ID: uuid.New(), ProviderID: providerID, Title: "offering", CreatedAt: f.Now}
	gomega.ExpectWithOffset(1, f.DB.Omit("Provider").Create(&o).Error).To(gomega.BeNil())
	return o
}

// Parties creates a client, a provider and an offering of that provider.
func (f Fixtures) Parties() (client model.User, provider model.User, offering model.Offering) {
	client = f.User(model.RoleClient)
	provider = f.User(model.RoleProvider)
	offering = f.Offering(provider.ID)
	return
}

func (f Fixtures) Mission(clientID, offeringID uuid.UUID, status model.MissionStatus, updatedAt time.Time) model.Mission {
	m := model.Mission{
		ID:          uuid.New(),
		ClientID:    clientID,
		OfferingID:  offeringID,
		Status:      status,
		Price:       120,
		Description: "repaint the kitchen",
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
	gomega.ExpectWithOffset(1, f.DB.Omit("Client", "Offering").Create(&m).Error).To(gomega.BeNil())
	return m
}

func (f Fixtures) Evaluation(m model.Mission, providerID uuid.UUID, target model.Side, score int, createdAt time.Time) model.Evaluation {
	author, rated := m.ClientID, providerID
	if target == model.SideClient {
		author, rated = providerID, m.ClientID
	}
	e := model.Evaluation{
		ID:           uuid.New(),
		MissionID:    m.ID,
		Target:       target,
		AuthorID:     author,
		TargetUserID: rated,
		Punctuality:  score,
		Cleanliness:  score,
		Quality:      score,
		Average:      float64(score),
		CreatedAt:    createdAt,
	}
	gomega.ExpectWithOffset(1, f.DB.Create(&e).Error).To(gomega.BeNil())
	return e
}

func (f Fixtures) Reminder(missionID uuid.UUID, recipient model.Side, status model.ReminderStatus, attempts int, nextAttemptAt *time.Time) model.Reminder {
	r := model.Reminder{
		ID:            uuid.New(),
		MissionID:     missionID,
		Recipient:     recipient,
		Status:        status,
		Attempts:      attempts,
		NextAttemptAt: nextAttemptAt,
		CreatedAt:     f.Now,
		UpdatedAt:     f.Now,
	}
	gomega.ExpectWithOffset(1, f.DB.Create(&r).Error).To(gomega.BeNil())
	return r
}

func Count(db *gorm.DB, query string, args ...any) int {
	count := 0
	gomega.ExpectWithOffset(1, db.Raw(query, args...).Scan(&count).Error).To(gomega.BeNil())
	return count
}
