package models

import (
	"time"

	"github.com/najah-ai/learner-service/internal/estimator"
)

// LearnerAbility is the persisted ability estimate of a student for one subject.
type LearnerAbility struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	StudentID  string  `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_ability_student_subject"`
	Subject    string  `json:"subject" gorm:"not null;size:64;uniqueIndex:idx_ability_student_subject"`
	Ability    float64 `json:"ability" gorm:"not null;default:0.5"`    // 0.0 - 1.0
	Confidence float64 `json:"confidence" gorm:"not null;default:0.5"` // 0.0 - 1.0

	ResponsesCount int        `json:"responses_count" gorm:"default:0"`
	CorrectCount   int        `json:"correct_count" gorm:"default:0"`
	LastResponseAt *time.Time `json:"last_response_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearnerAbility) TableName() string {
	return "learner_abilities"
}

func (a *LearnerAbility) State() estimator.AbilityState {
	return estimator.AbilityState{
		Ability:    a.Ability,
		Confidence: a.Confidence,
	}
}

// ApplyState stores a new estimate and counts the response that produced it.
func (a *LearnerAbility) ApplyState(state estimator.AbilityState, correct bool, at time.Time) {
	a.Ability = state.Ability
	a.Confidence = state.Confidence
	a.ResponsesCount++
	if correct {
		a.CorrectCount++
	}
	a.LastResponseAt = &at
}

// AccuracyRate returns the share of correct responses as a percentage.
func (a *LearnerAbility) AccuracyRate() float64 {
	if a.ResponsesCount == 0 {
		return 0
	}
	return float64(a.CorrectCount) / float64(a.ResponsesCount) * 100
}
