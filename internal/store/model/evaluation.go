package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

type Evaluation struct {
	ID           uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	MissionID    uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:evaluations_mission_target"`
	Target       Side      `gorm:"not null;type:VARCHAR(20);uniqueIndex:evaluations_mission_target"`
	AuthorID     uuid.UUID `gorm:"not null;type:VARCHAR(255)"`
	TargetUserID uuid.UUID `gorm:"not null;type:VARCHAR(255);index:evaluations_target_user_id_idx"`
	Punctuality  int       `gorm:"not null;check:punctuality >= 1 AND punctuality <= 5"`
	Cleanliness  int       `gorm:"not null;check:cleanliness >= 1 AND cleanliness <= 5"`
	Quality      int       `gorm:"not null;check:quality >= 1 AND quality <= 5"`
	Average      float64   `gorm:"not null;type:NUMERIC(3,2)"`
	Comment      *string   `gorm:"type:TEXT"`
	Visible      bool      `gorm:"not null;default:false;index:evaluations_visible_idx"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
}

type EvaluationList []Evaluation

// ComputeAverage is the mean of the three sub-scores rounded to 2 decimals.
func ComputeAverage(punctuality, cleanliness, quality int) float64 {
	mean := float64(punctuality+cleanliness+quality) / 3
	return math.Round(mean*100) / 100
}

func (e Evaluation) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}

type RatingSummary struct {
	Count   int
	Average float64
}

func (l EvaluationList) Summary() RatingSummary {
	if len(l) == 0 {
		return RatingSummary{}
	}
	total := 0.0
	for _, e := range l {
		total += e.Average
	}
	return RatingSummary{
		Count:   len(l),
		Average: math.Round(total/float64(len(l))*100) / 100,
	}
}
