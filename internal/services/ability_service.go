package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/estimator"
	"github.com/najah-ai/learner-service/internal/events"
	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/validator"
)

// AbilityService maintains the per-subject ability estimate of each student.
type AbilityService interface {
	RecordResponse(ctx context.Context, requester Requester, studentID, subject string, req *RecordResponseRequest) (*RecordResponseResult, error)
	GetAbility(ctx context.Context, requester Requester, studentID, subject string) (*AbilityResponse, error)
	ListAbilities(ctx context.Context, requester Requester, studentID string) ([]*AbilityResponse, error)
	GetNextDifficulty(ctx context.Context, requester Requester, studentID, subject string) (*NextDifficultyResponse, error)
	ResetAbility(ctx context.Context, requester Requester, studentID, subject string) error

	// SimulateSession replays responses from an initial state without persisting anything.
	SimulateSession(ctx context.Context, req *SimulateSessionRequest) (*SimulationResult, error)
}

type abilityService struct {
	deps      Dependencies
	policy    *accessPolicy
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewAbilityService(deps Dependencies) AbilityService {
	deps = deps.withDefaults()
	return &abilityService{
		deps:      deps,
		policy:    newAccessPolicy(deps.Repo),
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "learner-service", Component: "ability"}),
		validator: deps.Validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type RecordResponseRequest struct {
	Correct    *bool      `json:"correct" validate:"required"`
	Difficulty float64    `json:"difficulty" validate:"unit_interval"`
	ExerciseID *string    `json:"exercise_id" validate:"omitempty,max=255"`
	TimeSpent  int        `json:"time_spent" validate:"gte=0,lte=86400"` // seconds
	AnsweredAt *time.Time `json:"answered_at"`
}

// maxClockSkew is how far in the future a client may date an answer.
const maxClockSkew = time.Minute

// CheckRules rejects answers dated in the future.
func (r *RecordResponseRequest) CheckRules(bv *validator.BusinessValidator) ValidationErrors {
	if r.AnsweredAt == nil {
		return nil
	}
	latest := time.Now().Add(maxClockSkew)
	return validator.Collect(bv.ValidateDateRange("answered_at", r.AnsweredAt, &latest))
}

type AbilityResponse struct {
	StudentID      string     `json:"student_id"`
	Subject        string     `json:"subject"`
	Ability        float64    `json:"ability"`
	Confidence     float64    `json:"confidence"`
	Level          int        `json:"level"`
	NextDifficulty float64    `json:"next_difficulty"`
	ResponsesCount int        `json:"responses_count"`
	CorrectCount   int        `json:"correct_count"`
	AccuracyRate   float64    `json:"accuracy_rate"`
	LastResponseAt *time.Time `json:"last_response_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type RecordResponseResult struct {
	ResultID     string                 `json:"result_id"`
	Previous     estimator.AbilityState `json:"previous"`
	Ability      *AbilityResponse       `json:"ability"`
	LevelChanged bool                   `json:"level_changed"`
}

type NextDifficultyResponse struct {
	StudentID  string  `json:"student_id"`
	Subject    string  `json:"subject"`
	Difficulty float64 `json:"difficulty"`
	Ability    float64 `json:"ability"`
	Confidence float64 `json:"confidence"`
	IsDefault  bool    `json:"is_default"` // no response recorded yet
}

type SimulateSessionRequest struct {
	Initial   *estimator.AbilityState  `json:"initial"`
	Responses []estimator.ItemResponse `json:"responses" validate:"required,min=1,max=500"`
}

type SimulationStep struct {
	Index          int     `json:"index"`
	Correct        bool    `json:"correct"`
	Difficulty     float64 `json:"difficulty"`
	Ability        float64 `json:"ability"`
	Confidence     float64 `json:"confidence"`
	NextDifficulty float64 `json:"next_difficulty"`
}

type SimulationResult struct {
	Initial estimator.AbilityState `json:"initial"`
	Steps   []SimulationStep       `json:"steps"`
	Final   estimator.AbilityState `json:"final"`
}

// AbilityLevel maps an ability in [0,1] onto the 0..10 level scale used for progress.
func AbilityLevel(ability float64) int {
	return estimator.LevelFromRate(ability * 100)
}

// ===== OPERATIONS =====

func (s *abilityService) RecordResponse(ctx context.Context, requester Requester, studentID, subject string, req *RecordResponseRequest) (result *RecordResponseResult, err error) {
	log := s.logger.WithOperation(ctx, "record_response", requester)
	defer func() { log.LogResult(studentID, "ability", err) }()

	subject, err = normalizeSubject(subject)
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.policy.checkStudentAccess(ctx, requester, studentID, "record_response"); err != nil {
		return nil, err
	}
	if requester.ID != studentID {
		if err = s.ensureStudent(ctx, studentID); err != nil {
			return nil, err
		}
	}

	answeredAt := s.deps.Now().UTC()
	if req.AnsweredAt != nil {
		answeredAt = req.AnsweredAt.UTC()
	}
	response := estimator.ItemResponse{Difficulty: req.Difficulty, Correct: *req.Correct}

	var (
		ability  *models.LearnerAbility
		previous estimator.AbilityState
		record   *models.ExerciseResult
	)

	err = s.deps.Repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.deps.Repo.Ability().LockOrCreate(ctx, tx, s.initialAbility(studentID, subject))
		if err != nil {
			return fmt.Errorf("failed to load ability: %w", err)
		}

		previous = current.State()
		next := estimator.UpdateAbility(previous, response)

		record = &models.ExerciseResult{
			StudentID:       studentID,
			Subject:         subject,
			ExerciseID:      req.ExerciseID,
			Difficulty:      estimator.Clamp(req.Difficulty, 0, 1),
			Correct:         response.Correct,
			TimeSpent:       req.TimeSpent,
			AbilityBefore:   previous.Ability,
			AbilityAfter:    next.Ability,
			ConfidenceAfter: next.Confidence,
			CompletedAt:     answeredAt,
		}
		if err := s.deps.Repo.ExerciseResult().Create(ctx, tx, record); err != nil {
			return fmt.Errorf("failed to store exercise result: %w", err)
		}

		current.ApplyState(next, response.Correct, answeredAt)
		if err := s.deps.Repo.Ability().Save(ctx, tx, current); err != nil {
			return fmt.Errorf("failed to save ability: %w", err)
		}

		ability = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.RecordAbilityUpdate(response.Correct)
	s.deps.invalidateTrends(ctx, studentID)

	resp := toAbilityResponse(ability)
	s.deps.publish(ctx, events.NewAbilityUpdatedEvent(events.AbilityUpdatedEvent{
		StudentID:      studentID,
		Subject:        subject,
		ResultID:       record.ID,
		Correct:        response.Correct,
		Previous:       previous,
		Current:        ability.State(),
		NextDifficulty: resp.NextDifficulty,
		AnsweredAt:     answeredAt,
	}))

	previousLevel := AbilityLevel(previous.Ability)
	levelChanged := previousLevel != resp.Level
	if levelChanged {
		s.deps.Metrics.RecordLevelChange()
		s.deps.publish(ctx, events.NewAbilityLevelChangedEvent(events.AbilityLevelChangedEvent{
			StudentID:     studentID,
			Subject:       subject,
			PreviousLevel: previousLevel,
			CurrentLevel:  resp.Level,
			Ability:       ability.Ability,
		}))
	}

	return &RecordResponseResult{
		ResultID:     record.ID,
		Previous:     previous,
		Ability:      resp,
		LevelChanged: levelChanged,
	}, nil
}

func (s *abilityService) GetAbility(ctx context.Context, requester Requester, studentID, subject string) (*AbilityResponse, error) {
	subject, err := normalizeSubject(subject)
	if err != nil {
		return nil, err
	}
	if err := s.policy.checkStudentAccess(ctx, requester, studentID, "view_ability"); err != nil {
		return nil, err
	}

	ability, err := s.deps.Repo.Ability().GetByStudentAndSubject(ctx, nil, studentID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get ability: %w", err)
	}
	if ability == nil {
		return nil, ErrAbilityNotFound
	}

	return toAbilityResponse(ability), nil
}

func (s *abilityService) ListAbilities(ctx context.Context, requester Requester, studentID string) ([]*AbilityResponse, error) {
	if err := s.policy.checkStudentAccess(ctx, requester, studentID, "view_ability"); err != nil {
		return nil, err
	}

	abilities, err := s.deps.Repo.Ability().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list abilities: %w", err)
	}

	responses := make([]*AbilityResponse, 0, len(abilities))
	for _, a := range abilities {
		responses = append(responses, toAbilityResponse(a))
	}
	return responses, nil
}

func (s *abilityService) GetNextDifficulty(ctx context.Context, requester Requester, studentID, subject string) (*NextDifficultyResponse, error) {
	subject, err := normalizeSubject(subject)
	if err != nil {
		return nil, err
	}
	if err := s.policy.checkStudentAccess(ctx, requester, studentID, "view_ability"); err != nil {
		return nil, err
	}

	ability, err := s.deps.Repo.Ability().GetByStudentAndSubject(ctx, nil, studentID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get ability: %w", err)
	}

	isDefault := ability == nil
	if isDefault {
		ability = s.initialAbility(studentID, subject)
	}

	return &NextDifficultyResponse{
		StudentID:  studentID,
		Subject:    subject,
		Difficulty: estimator.OptimalDifficulty(ability.Ability, ability.Confidence),
		Ability:    ability.Ability,
		Confidence: ability.Confidence,
		IsDefault:  isDefault,
	}, nil
}

func (s *abilityService) ResetAbility(ctx context.Context, requester Requester, studentID, subject string) (err error) {
	log := s.logger.WithOperation(ctx, "reset_ability", requester)
	defer func() { log.LogResult(studentID, "ability", err) }()

	subject, err = normalizeSubject(subject)
	if err != nil {
		return err
	}
	if err = s.policy.checkStaff(requester, studentID, "ability", "reset"); err != nil {
		return err
	}
	if err = s.policy.checkStudentAccess(ctx, requester, studentID, "reset"); err != nil {
		return err
	}

	var previous estimator.AbilityState
	err = s.deps.Repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.deps.Repo.Ability().GetByStudentAndSubject(ctx, tx, studentID, subject)
		if err != nil {
			return fmt.Errorf("failed to get ability: %w", err)
		}
		if current == nil {
			return ErrAbilityNotFound
		}
		previous = current.State()

		if err := s.deps.Repo.Ability().Delete(ctx, tx, studentID, subject); err != nil {
			return fmt.Errorf("failed to delete ability: %w", err)
		}

		return s.policy.recordAudit(ctx, tx, requester, models.AuditAbilityReset, "ability", studentID,
			fmt.Sprintf("Ability estimate for %s reset", subject),
			map[string]interface{}{
				"subject":             subject,
				"previous_ability":    previous.Ability,
				"previous_confidence": previous.Confidence,
			})
	})
	if err != nil {
		return err
	}

	log.LogAudit(studentID, "ability", previous, nil, map[string]interface{}{"subject": subject})
	s.deps.Metrics.RecordAbilityReset()
	s.deps.invalidateTrends(ctx, studentID)
	s.deps.publish(ctx, events.NewAbilityResetEvent(events.AbilityResetEvent{
		StudentID: studentID,
		Subject:   subject,
		ResetBy:   requester.ID,
		Previous:  previous,
	}))

	return nil
}

func (s *abilityService) SimulateSession(ctx context.Context, req *SimulateSessionRequest) (*SimulationResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	initial := s.initialAbility("", "").State()
	if req.Initial != nil {
		initial = estimator.AbilityState{
			Ability:    estimator.Clamp(req.Initial.Ability, 0, 1),
			Confidence: estimator.Clamp(req.Initial.Confidence, 0, 1),
		}
	}

	states := estimator.ApplyResponses(initial, req.Responses)
	steps := make([]SimulationStep, len(states))
	for i, state := range states {
		steps[i] = SimulationStep{
			Index:          i + 1,
			Correct:        req.Responses[i].Correct,
			Difficulty:     req.Responses[i].Difficulty,
			Ability:        state.Ability,
			Confidence:     state.Confidence,
			NextDifficulty: estimator.OptimalDifficulty(state.Ability, state.Confidence),
		}
	}

	s.deps.Logger.DebugContext(ctx, "Simulated session", slog.Int("responses", len(steps)))

	return &SimulationResult{
		Initial: initial,
		Steps:   steps,
		Final:   states[len(states)-1],
	}, nil
}

// ===== HELPERS =====

func (s *abilityService) initialAbility(studentID, subject string) *models.LearnerAbility {
	cfg := s.deps.Config.Ability
	return &models.LearnerAbility{
		StudentID:  studentID,
		Subject:    subject,
		Ability:    cfg.InitialAbility,
		Confidence: cfg.InitialConfidence,
	}
}

// ensureStudent rejects writes on behalf of unknown users or non-students.
func (s *abilityService) ensureStudent(ctx context.Context, studentID string) error {
	user, err := s.deps.Repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return fmt.Errorf("failed to get student: %w", err)
	}
	if user == nil || user.Role != models.RoleStudent {
		return fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return nil
}

func normalizeSubject(subject string) (string, error) {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if !validator.IsSubjectKey(subject) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSubject, subject)
	}
	return subject, nil
}

func toAbilityResponse(a *models.LearnerAbility) *AbilityResponse {
	resp := &AbilityResponse{
		StudentID:      a.StudentID,
		Subject:        a.Subject,
		Ability:        a.Ability,
		Confidence:     a.Confidence,
		Level:          AbilityLevel(a.Ability),
		NextDifficulty: estimator.OptimalDifficulty(a.Ability, a.Confidence),
		ResponsesCount: a.ResponsesCount,
		CorrectCount:   a.CorrectCount,
		AccuracyRate:   a.AccuracyRate(),
		LastResponseAt: a.LastResponseAt,
	}
	if !a.UpdatedAt.IsZero() {
		updatedAt := a.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
