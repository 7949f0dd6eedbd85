package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/najah-ai/learner-service/internal/estimator"
)

// EventType represents different types of learner events
type EventType string

const (
	// Ability events
	EventAbilityUpdated      EventType = "ability.updated"
	EventAbilityLevelChanged EventType = "ability.level_changed"
	EventAbilityReset        EventType = "ability.reset"

	// Trend events
	EventTrendAnalyzed EventType = "trend.analyzed"
)

const (
	EventSource  = "learner-service"
	EventVersion = "1.0"
)

// LearnerEvent is the envelope for every event published by the service
type LearnerEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// StudentID returns the student the event is about, if its payload names one.
func (e *LearnerEvent) StudentID() string {
	switch d := e.Data.(type) {
	case AbilityUpdatedEvent:
		return d.StudentID
	case AbilityLevelChangedEvent:
		return d.StudentID
	case AbilityResetEvent:
		return d.StudentID
	case TrendAnalyzedEvent:
		return d.StudentID
	}
	return ""
}

// Ability event payloads

type AbilityUpdatedEvent struct {
	StudentID      string                 `json:"student_id"`
	Subject        string                 `json:"subject"`
	ResultID       string                 `json:"result_id"`
	Correct        bool                   `json:"correct"`
	Previous       estimator.AbilityState `json:"previous"`
	Current        estimator.AbilityState `json:"current"`
	NextDifficulty float64                `json:"next_difficulty"`
	AnsweredAt     time.Time              `json:"answered_at"`
}

type AbilityLevelChangedEvent struct {
	StudentID     string  `json:"student_id"`
	Subject       string  `json:"subject"`
	PreviousLevel int     `json:"previous_level"`
	CurrentLevel  int     `json:"current_level"`
	Ability       float64 `json:"ability"`
}

type AbilityResetEvent struct {
	StudentID string                 `json:"student_id"`
	Subject   string                 `json:"subject"`
	ResetBy   string                 `json:"reset_by"`
	Previous  estimator.AbilityState `json:"previous"`
}

// Trend event payloads

type TrendAnalyzedEvent struct {
	StudentID               string          `json:"student_id"`
	Subject                 string          `json:"subject,omitempty"`
	Trend                   estimator.Trend `json:"trend"`
	ImprovementRate         float64         `json:"improvement_rate"`
	CurrentLevel            int             `json:"current_level"`
	TargetLevel             int             `json:"target_level"`
	PredictedCompletionDate *time.Time      `json:"predicted_completion_date,omitempty"`
	DaysAnalyzed            int             `json:"days_analyzed"`
}

// Event factory functions

func NewAbilityUpdatedEvent(data AbilityUpdatedEvent) *LearnerEvent {
	return newEvent(EventAbilityUpdated, data)
}

func NewAbilityLevelChangedEvent(data AbilityLevelChangedEvent) *LearnerEvent {
	return newEvent(EventAbilityLevelChanged, data)
}

func NewAbilityResetEvent(data AbilityResetEvent) *LearnerEvent {
	return newEvent(EventAbilityReset, data)
}

func NewTrendAnalyzedEvent(data TrendAnalyzedEvent) *LearnerEvent {
	return newEvent(EventTrendAnalyzed, data)
}

func newEvent(eventType EventType, data interface{}) *LearnerEvent {
	return &LearnerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data:      data,
		Metadata:  make(map[string]interface{}),
	}
}
