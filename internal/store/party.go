package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

// Party gives read access to the users and offerings owned by other parts of
// the marketplace.
type Party interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetOffering(ctx context.Context, id uuid.UUID) (*model.Offering, error)
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	CreateOffering(ctx context.Context, offering model.Offering) (*model.Offering, error)
}

type PartyStore struct {
	db *gorm.DB
}

// Make sure we conform to Party interface
var _ Party = (*PartyStore)(nil)

func NewPartyStore(db *gorm.DB) Party {
	return &PartyStore{db: db}
}

func (p *PartyStore) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := p.getDB(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (p *PartyStore) GetOffering(ctx context.Context, id uuid.UUID) (*model.Offering, error) {
	var offering model.Offering
	if err := p.getDB(ctx).Preload("Provider").First(&offering, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &offering, nil
}

func (p *PartyStore) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := p.getDB(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &user, nil
}

func (p *PartyStore) CreateOffering(ctx context.Context, offering model.Offering) (*model.Offering, error) {
	if offering.ID == uuid.Nil {
		offering.ID = uuid.New()
	}
	if err := p.getDB(ctx).Omit("Provider").Create(&offering).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &offering, nil
}

func (p *PartyStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return p.db.WithContext(ctx)
}
