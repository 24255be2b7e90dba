package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/store/model"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b *BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	if b == nil {
		return tx
	}
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

// QueryOptions holds paging and ordering shared by every list call.
type QueryOptions struct {
	BaseQuerier
}

func NewQueryOptions() *QueryOptions {
	return &QueryOptions{}
}

func (o *QueryOptions) WithLimit(limit int) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

func (o *QueryOptions) WithOffset(offset int) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset)
	})
	return o
}

func (o *QueryOptions) WithSortOrder(sort SortOrder) *QueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at").Order("id")
		case SortByCreatedTime:
			return tx.Order("created_at").Order("id")
		case SortByCreatedTimeDesc:
			return tx.Order("created_at DESC").Order("id")
		default:
			return tx
		}
	})
	return o
}

type SortOrder int

const (
	SortByID SortOrder = iota
	SortByUpdatedTime
	SortByCreatedTime
	SortByCreatedTimeDesc
)

type MissionQueryFilter struct {
	BaseQuerier
}

func NewMissionQueryFilter() *MissionQueryFilter {
	return &MissionQueryFilter{}
}

func (f *MissionQueryFilter) ByStatus(statuses ...model.MissionStatus) *MissionQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("missions.status IN ?", statuses)
	})
	return f
}

func (f *MissionQueryFilter) ByContactReleased(released bool) *MissionQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("missions.contact_released = ?", released)
	})
	return f
}

// UpdatedBetween keeps missions with after < updated_at <= upTo.
func (f *MissionQueryFilter) UpdatedBetween(after, upTo time.Time) *MissionQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("missions.updated_at > ? AND missions.updated_at <= ?", after, upTo)
	})
	return f
}

type EvaluationQueryFilter struct {
	BaseQuerier
}

func NewEvaluationQueryFilter() *EvaluationQueryFilter {
	return &EvaluationQueryFilter{}
}

func (f *EvaluationQueryFilter) ByMissionID(id uuid.UUID) *EvaluationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("mission_id = ?", id)
	})
	return f
}

func (f *EvaluationQueryFilter) ByTarget(target model.Side) *EvaluationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("target = ?", target)
	})
	return f
}

func (f *EvaluationQueryFilter) ByTargetUserID(id uuid.UUID) *EvaluationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("target_user_id = ?", id)
	})
	return f
}

func (f *EvaluationQueryFilter) ByVisible(visible bool) *EvaluationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("visible = ?", visible)
	})
	return f
}

// VisibleOrAuthoredBy keeps published evaluations plus the ones written by
// authorID, whatever their visibility.
func (f *EvaluationQueryFilter) VisibleOrAuthoredBy(authorID uuid.UUID) *EvaluationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("(visible = ? OR author_id = ?)", true, authorID)
	})
	return f
}

type ReclamationQueryFilter struct {
	BaseQuerier
}

func NewReclamationQueryFilter() *ReclamationQueryFilter {
	return &ReclamationQueryFilter{}
}

func (f *ReclamationQueryFilter) ByStatus(status model.ReclamationStatus) *ReclamationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return f
}

func (f *ReclamationQueryFilter) ByCreatorType(side model.Side) *ReclamationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("creator_type = ?", side)
	})
	return f
}

func (f *ReclamationQueryFilter) ByCreatorID(id uuid.UUID) *ReclamationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("creator_id = ?", id)
	})
	return f
}

func (f *ReclamationQueryFilter) ByMissionID(id uuid.UUID) *ReclamationQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("mission_id = ?", id)
	})
	return f
}
