package models

import "time"

// AllModels lists the tables owned by the learner service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&StudentTeacher{},
		&LearnerAbility{},
		&ExerciseResult{},
		&AuditLog{},
	}
}

// ExportSummary describes a generated progress export.
type ExportSummary struct {
	StudentID   string        `json:"student_id"`
	Subject     string        `json:"subject,omitempty"`
	FileName    string        `json:"file_name"`
	Rows        int           `json:"rows"`
	SizeBytes   int           `json:"size_bytes"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`
}
