package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/najah-ai/learner-service/internal/cache"
	"github.com/najah-ai/learner-service/internal/estimator"
	"github.com/najah-ai/learner-service/internal/events"
	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
	"github.com/najah-ai/learner-service/internal/validator"
)

// resultsPageSize bounds each query while loading a trend window.
const resultsPageSize = 1000

// TrendService turns stored exercise results into daily progress and trend reports.
type TrendService interface {
	GetStudentTrend(ctx context.Context, requester Requester, studentID string, req *TrendRequest) (*TrendReport, error)
	GetDailyProgress(ctx context.Context, requester Requester, studentID string, req *ProgressRequest) (*ProgressReport, error)
	GetClassOverview(ctx context.Context, requester Requester, req *ClassOverviewRequest) (*ClassOverview, error)
	ExportTrend(ctx context.Context, requester Requester, studentID string, req *TrendRequest) (*ExportFile, error)
}

type trendService struct {
	deps      Dependencies
	policy    *accessPolicy
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewTrendService(deps Dependencies) TrendService {
	deps = deps.withDefaults()
	return &trendService{
		deps:      deps,
		policy:    newAccessPolicy(deps.Repo),
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "learner-service", Component: "trend"}),
		validator: deps.Validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type TrendRequest struct {
	Subject     string `form:"subject" json:"subject" validate:"omitempty,subject_key"`
	TargetLevel int    `form:"target_level" json:"target_level"`
	WindowDays  int    `form:"window_days" json:"window_days"`
}

func (r *TrendRequest) CheckRules(bv *validator.BusinessValidator) ValidationErrors {
	return validator.Collect(
		bv.ValidateTargetLevel("target_level", r.TargetLevel),
		bv.ValidateWindowDays("window_days", r.WindowDays),
	)
}

type ProgressRequest struct {
	Subject    string     `form:"subject" json:"subject" validate:"omitempty,subject_key"`
	WindowDays int        `form:"window_days" json:"window_days"`
	From       *time.Time `form:"from" json:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" json:"to" time_format:"2006-01-02"`
}

func (r *ProgressRequest) CheckRules(bv *validator.BusinessValidator) ValidationErrors {
	return validator.Collect(
		bv.ValidateWindowDays("window_days", r.WindowDays),
		bv.ValidateDateRange("from", r.From, r.To),
	)
}

// ClassOverviewRequest names the students to analyze. A teacher may leave
// StudentIDs empty to analyze every linked student.
type ClassOverviewRequest struct {
	StudentIDs  []string `json:"student_ids" validate:"omitempty,max=200,dive,required,max=255"`
	Subject     string   `json:"subject" validate:"omitempty,subject_key"`
	TargetLevel int      `json:"target_level"`
	WindowDays  int      `json:"window_days"`
}

func (r *ClassOverviewRequest) CheckRules(bv *validator.BusinessValidator) ValidationErrors {
	return validator.Collect(
		bv.ValidateTargetLevel("target_level", r.TargetLevel),
		bv.ValidateWindowDays("window_days", r.WindowDays),
	)
}

type TrendReport struct {
	StudentID    string                     `json:"student_id"`
	Subject      string                     `json:"subject,omitempty"`
	TargetLevel  int                        `json:"target_level"`
	WindowDays   int                        `json:"window_days"`
	CurrentLevel int                        `json:"current_level"`
	Series       []estimator.DailyAggregate `json:"series"`
	Result       estimator.TrendResult      `json:"result"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Cached       bool                       `json:"cached"`
}

type ProgressReport struct {
	StudentID string                     `json:"student_id"`
	Subject   string                     `json:"subject,omitempty"`
	From      time.Time                  `json:"from"`
	To        time.Time                  `json:"to"`
	Series    []estimator.DailyAggregate `json:"series"`
	Stats     *repositories.StudentStats `json:"stats"`
	Subjects  []string                   `json:"subjects"`
}

type StudentTrendSummary struct {
	StudentID               string          `json:"student_id"`
	FullName                string          `json:"full_name,omitempty"`
	Trend                   estimator.Trend `json:"trend,omitempty"`
	ImprovementRate         float64         `json:"improvement_rate"`
	CurrentLevel            int             `json:"current_level"`
	DaysAnalyzed            int             `json:"days_analyzed"`
	PredictedCompletionDate *time.Time      `json:"predicted_completion_date,omitempty"`
	Error                   string          `json:"error,omitempty"`
}

type ClassSummary struct {
	Improving    int     `json:"improving"`
	Stable       int     `json:"stable"`
	Declining    int     `json:"declining"`
	Failed       int     `json:"failed"`
	AverageLevel float64 `json:"average_level"`
}

type ClassOverview struct {
	Subject     string                `json:"subject,omitempty"`
	TargetLevel int                   `json:"target_level"`
	Students    []StudentTrendSummary `json:"students"`
	Summary     ClassSummary          `json:"summary"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// trendParams is a TrendRequest with defaults applied.
type trendParams struct {
	subject     string
	targetLevel int
	windowDays  int
}

// ===== OPERATIONS =====

func (s *trendService) GetStudentTrend(ctx context.Context, requester Requester, studentID string, req *TrendRequest) (report *TrendReport, err error) {
	log := s.logger.WithOperation(ctx, "get_student_trend", requester)
	defer func() { log.LogResult(studentID, "trend", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.policy.checkStudentAccess(ctx, requester, studentID, "view_trend"); err != nil {
		return nil, err
	}

	return s.analyze(ctx, studentID, s.params(req.Subject, req.TargetLevel, req.WindowDays))
}

func (s *trendService) GetDailyProgress(ctx context.Context, requester Requester, studentID string, req *ProgressRequest) (*ProgressReport, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.policy.checkStudentAccess(ctx, requester, studentID, "view_progress"); err != nil {
		return nil, err
	}

	loc := s.deps.Config.Location()
	from, to := s.window(s.params(req.Subject, 0, req.WindowDays).windowDays)
	if req.From != nil {
		from = estimator.StartOfDay(*req.From, loc)
	}
	if req.To != nil {
		to = estimator.StartOfDay(*req.To, loc).AddDate(0, 0, 1)
	}

	filters := repositories.ResultFilters{
		StudentID: studentID,
		Subject:   req.Subject,
		DateFrom:  &from,
		DateTo:    &to,
	}

	results, err := s.listResults(ctx, filters)
	if err != nil {
		return nil, err
	}
	stats, err := s.deps.Repo.ExerciseResult().GetStudentStats(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student stats: %w", err)
	}
	subjects, err := s.deps.Repo.ExerciseResult().ListSubjects(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	return &ProgressReport{
		StudentID: studentID,
		Subject:   req.Subject,
		From:      from,
		To:        to,
		Series:    estimator.AggregateDaily(models.ResultPoints(results), loc),
		Stats:     stats,
		Subjects:  subjects,
	}, nil
}

func (s *trendService) GetClassOverview(ctx context.Context, requester Requester, req *ClassOverviewRequest) (overview *ClassOverview, err error) {
	log := s.logger.WithOperation(ctx, "get_class_overview", requester)
	defer func() { log.LogResult("", "class", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.policy.checkStaff(requester, "", "class", "view_overview"); err != nil {
		return nil, err
	}

	studentIDs := uniqueStrings(req.StudentIDs)
	if len(studentIDs) == 0 {
		if studentIDs, err = s.linkedStudents(ctx, requester); err != nil {
			return nil, err
		}
	}
	params := s.params(req.Subject, req.TargetLevel, req.WindowDays)
	summaries := make([]StudentTrendSummary, len(studentIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.deps.Config.Trend.Concurrency))

	for i, studentID := range studentIDs {
		g.Go(func() error {
			summaries[i] = s.summarize(gctx, requester, studentID, params)
			// Per-student failures are reported in the summary only.
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	s.attachNames(ctx, summaries)

	overview = &ClassOverview{
		Subject:     params.subject,
		TargetLevel: params.targetLevel,
		Students:    summaries,
		Summary:     summarizeClass(summaries),
		GeneratedAt: s.deps.Now(),
	}

	if auditErr := s.policy.recordAudit(ctx, nil, requester, models.AuditClassOverview, "class", "",
		fmt.Sprintf("Class overview for %d students", len(studentIDs)),
		map[string]interface{}{"student_ids": studentIDs, "subject": params.subject}); auditErr != nil {
		s.deps.Logger.WarnContext(ctx, "Failed to audit class overview", "error", auditErr)
	}

	return overview, nil
}

// ===== HELPERS =====

func (s *trendService) params(subject string, targetLevel, windowDays int) trendParams {
	cfg := s.deps.Config.Trend
	if targetLevel == 0 {
		targetLevel = cfg.TargetLevel
	}
	if windowDays == 0 {
		windowDays = cfg.WindowDays
	}
	return trendParams{
		subject:     subject,
		targetLevel: estimator.NormalizeTargetLevel(targetLevel),
		windowDays:  windowDays,
	}
}

// window returns [from, to) covering windowDays calendar days ending today.
func (s *trendService) window(windowDays int) (time.Time, time.Time) {
	loc := s.deps.Config.Location()
	today := estimator.StartOfDay(s.deps.Now(), loc)
	return today.AddDate(0, 0, -(windowDays - 1)), today.AddDate(0, 0, 1)
}

// analyze returns the trend report for a student, from cache when possible.
func (s *trendService) analyze(ctx context.Context, studentID string, p trendParams) (*TrendReport, error) {
	key := cache.TrendKey(studentID, p.subject, p.targetLevel, p.windowDays)

	var cached TrendReport
	if s.deps.cacheGet(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	start := time.Now()
	from, to := s.window(p.windowDays)
	results, err := s.listResults(ctx, repositories.ResultFilters{
		StudentID: studentID,
		Subject:   p.subject,
		DateFrom:  &from,
		DateTo:    &to,
	})
	if err != nil {
		return nil, err
	}

	loc := s.deps.Config.Location()
	series := estimator.AggregateDaily(models.ResultPoints(results), loc)
	result := estimator.AnalyzeTrendAt(series, p.targetLevel, s.deps.Now().In(loc))

	report := &TrendReport{
		StudentID:    studentID,
		Subject:      p.subject,
		TargetLevel:  p.targetLevel,
		WindowDays:   p.windowDays,
		CurrentLevel: estimator.CurrentLevel(series),
		Series:       series,
		Result:       result,
		GeneratedAt:  s.deps.Now(),
	}

	s.deps.Metrics.RecordTrendAnalysis(string(result.Trend), time.Since(start))

	if ttl := s.deps.Config.Trend.CacheTTL; ttl > 0 {
		if err := s.deps.Cache.Set(ctx, key, report, ttl); err != nil {
			s.deps.Logger.WarnContext(ctx, "Failed to cache trend report", "key", key, "error", err)
		}
	}

	s.deps.publish(ctx, events.NewTrendAnalyzedEvent(events.TrendAnalyzedEvent{
		StudentID:               studentID,
		Subject:                 p.subject,
		Trend:                   result.Trend,
		ImprovementRate:         result.ImprovementRate,
		CurrentLevel:            report.CurrentLevel,
		TargetLevel:             p.targetLevel,
		PredictedCompletionDate: result.PredictedCompletionDate,
		DaysAnalyzed:            len(series),
	}))

	return report, nil
}

// listResults pages through every result matching filters, oldest first.
func (s *trendService) listResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.ExerciseResult, error) {
	filters.SortOrder = "asc"
	filters.Limit = resultsPageSize
	filters.Offset = 0

	var all []*models.ExerciseResult
	for {
		page, total, err := s.deps.Repo.ExerciseResult().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list exercise results: %w", err)
		}
		all = append(all, page...)

		if len(page) < filters.Limit || int64(len(all)) >= total {
			return all, nil
		}
		filters.Offset += len(page)
	}
}

func (s *trendService) summarize(ctx context.Context, requester Requester, studentID string, p trendParams) StudentTrendSummary {
	summary := StudentTrendSummary{StudentID: studentID}

	if err := s.policy.checkStudentAccess(ctx, requester, studentID, "view_trend"); err != nil {
		summary.Error = errorSummary(err)
		return summary
	}

	report, err := s.analyze(ctx, studentID, p)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "Trend analysis failed", "student_id", studentID, "error", err)
		summary.Error = errorSummary(err)
		return summary
	}

	summary.Trend = report.Result.Trend
	summary.ImprovementRate = report.Result.ImprovementRate
	summary.CurrentLevel = report.CurrentLevel
	summary.DaysAnalyzed = len(report.Series)
	summary.PredictedCompletionDate = report.Result.PredictedCompletionDate
	return summary
}

// linkedStudents is the default class of a teacher: every student linked to them.
func (s *trendService) linkedStudents(ctx context.Context, requester Requester) ([]string, error) {
	if requester.Role != models.RoleTeacher {
		return nil, ErrNoStudents
	}

	ids, err := s.deps.Repo.User().GetStudentIDs(ctx, nil, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked students: %w", err)
	}

	switch {
	case len(ids) == 0:
		return nil, ErrNoStudents
	case len(ids) > validator.MaxClassSize:
		return nil, NewBusinessRuleError("max_class_size", ErrClassTooLarge.Error(), map[string]interface{}{
			"students": len(ids),
			"max":      validator.MaxClassSize,
		})
	}
	return ids, nil
}

// attachNames fills in names for the students that were analyzed. Names are
// cosmetic, so lookup failures are only logged.
func (s *trendService) attachNames(ctx context.Context, summaries []StudentTrendSummary) {
	var ids []string
	for _, st := range summaries {
		if st.Error == "" {
			ids = append(ids, st.StudentID)
		}
	}
	if len(ids) == 0 {
		return
	}

	users, err := s.deps.Repo.User().GetByIDs(ctx, nil, ids)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "Failed to load student names", "error", err)
		return
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	for i := range summaries {
		if summaries[i].Error == "" {
			summaries[i].FullName = names[summaries[i].StudentID]
		}
	}
}

func summarizeClass(students []StudentTrendSummary) ClassSummary {
	var summary ClassSummary
	levels, analyzed := 0, 0

	for _, st := range students {
		if st.Error != "" {
			summary.Failed++
			continue
		}
		switch st.Trend {
		case estimator.TrendImproving:
			summary.Improving++
		case estimator.TrendDeclining:
			summary.Declining++
		default:
			summary.Stable++
		}
		levels += st.CurrentLevel
		analyzed++
	}

	if analyzed > 0 {
		summary.AverageLevel = float64(levels) / float64(analyzed)
	}
	return summary
}

// errorSummary keeps internal details out of per-student results.
func errorSummary(err error) string {
	var permErr *PermissionError
	switch {
	case errors.As(err, &permErr):
		return "access denied"
	case IsNotFound(err):
		return "not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "analysis failed"
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
