package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/cache"
	"github.com/najah-ai/learner-service/internal/config"
	"github.com/najah-ai/learner-service/internal/events"
	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

// MockExerciseResultRepository is a mock implementation of ExerciseResultRepository
type MockExerciseResultRepository struct {
	mock.Mock
}

func (m *MockExerciseResultRepository) Create(ctx context.Context, tx *gorm.DB, result *models.ExerciseResult) error {
	args := m.Called(ctx, tx, result)
	if result.ID == "" {
		result.ID = "result-1"
	}
	return args.Error(0)
}

func (m *MockExerciseResultRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.ExerciseResult, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.ExerciseResult), args.Get(1).(int64), args.Error(2)
}

func (m *MockExerciseResultRepository) GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) (*repositories.StudentStats, error) {
	args := m.Called(ctx, tx, studentID, filters)
	return args.Get(0).(*repositories.StudentStats), args.Error(1)
}

func (m *MockExerciseResultRepository) ListSubjects(ctx context.Context, tx *gorm.DB, studentID string) ([]string, error) {
	args := m.Called(ctx, tx, studentID)
	return args.Get(0).([]string), args.Error(1)
}

// MockAbilityRepository is a mock implementation of AbilityRepository
type MockAbilityRepository struct {
	mock.Mock
}

func (m *MockAbilityRepository) GetByStudentAndSubject(ctx context.Context, tx *gorm.DB, studentID, subject string) (*models.LearnerAbility, error) {
	args := m.Called(ctx, tx, studentID, subject)
	ability, _ := args.Get(0).(*models.LearnerAbility)
	return ability, args.Error(1)
}

func (m *MockAbilityRepository) LockOrCreate(ctx context.Context, tx *gorm.DB, initial *models.LearnerAbility) (*models.LearnerAbility, error) {
	args := m.Called(ctx, tx, initial)
	ability, _ := args.Get(0).(*models.LearnerAbility)
	return ability, args.Error(1)
}

func (m *MockAbilityRepository) Save(ctx context.Context, tx *gorm.DB, ability *models.LearnerAbility) error {
	args := m.Called(ctx, tx, ability)
	return args.Error(0)
}

func (m *MockAbilityRepository) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearnerAbility, error) {
	args := m.Called(ctx, tx, studentID)
	return args.Get(0).([]*models.LearnerAbility), args.Error(1)
}

func (m *MockAbilityRepository) Delete(ctx context.Context, tx *gorm.DB, studentID, subject string) error {
	args := m.Called(ctx, tx, studentID, subject)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	args := m.Called(ctx, tx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) IsTeacherOf(ctx context.Context, tx *gorm.DB, teacherID, studentID string) (bool, error) {
	args := m.Called(ctx, tx, teacherID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetStudentIDs(ctx context.Context, tx *gorm.DB, teacherID string) ([]string, error) {
	args := m.Called(ctx, tx, teacherID)
	return args.Get(0).([]string), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, tx *gorm.DB, log *models.AuditLog) error {
	args := m.Called(ctx, tx, log)
	return args.Error(0)
}

// MockRepository is a mock implementation of the main Repository interface
type MockRepository struct {
	results   *MockExerciseResultRepository
	abilities *MockAbilityRepository
	users     *MockUserRepository
	audit     *MockAuditRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		results:   &MockExerciseResultRepository{},
		abilities: &MockAbilityRepository{},
		users:     &MockUserRepository{},
		audit:     &MockAuditRepository{},
	}
}

func (m *MockRepository) ExerciseResult() repositories.ExerciseResultRepository { return m.results }
func (m *MockRepository) Ability() repositories.AbilityRepository               { return m.abilities }
func (m *MockRepository) User() repositories.UserRepository                     { return m.users }
func (m *MockRepository) Audit() repositories.AuditRepository                   { return m.audit }

// WithTransaction runs fn without a database; repository mocks ignore tx.
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.results.AssertExpectations(t)
	m.abilities.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.audit.AssertExpectations(t)
}

// memoryCache is a CacheService backed by a map, enough to observe caching.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	if report, ok := v.(*TrendReport); ok {
		*(dest.(*TrendReport)) = *report
	}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	c.values = make(map[string]interface{})
	return nil
}

var fixedNow = time.Date(2025, 3, 20, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	repo      *MockRepository
	cache     *memoryCache
	publisher *events.MockEventPublisher
	deps      Dependencies
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Trend.Timezone = "UTC"

	env := &testEnv{
		repo:      newMockRepository(),
		cache:     newMemoryCache(),
		publisher: events.NewMockEventPublisher(logger),
	}
	env.deps = Dependencies{
		Repo:      env.repo,
		Cache:     env.cache,
		Publisher: env.publisher,
		Logger:    logger,
		Config:    cfg,
		Now:       func() time.Time { return fixedNow },
	}
	return env
}

var (
	student = Requester{ID: "student-1", Role: models.RoleStudent}
	teacher = Requester{ID: "teacher-1", Role: models.RoleTeacher}
	admin   = Requester{ID: "admin-1", Role: models.RoleAdmin}
)

func boolPtr(b bool) *bool { return &b }
