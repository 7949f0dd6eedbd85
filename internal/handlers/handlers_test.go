package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/najah-ai/learner-service/internal/errors"
	"github.com/najah-ai/learner-service/internal/estimator"
	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
	"github.com/najah-ai/learner-service/pkg/metrics"
)

const testSecret = "test-secret"

type MockAbilityService struct {
	mock.Mock
}

func (m *MockAbilityService) RecordResponse(ctx context.Context, requester services.Requester, studentID, subject string, req *services.RecordResponseRequest) (*services.RecordResponseResult, error) {
	args := m.Called(ctx, requester, studentID, subject, req)
	result, _ := args.Get(0).(*services.RecordResponseResult)
	return result, args.Error(1)
}

func (m *MockAbilityService) GetAbility(ctx context.Context, requester services.Requester, studentID, subject string) (*services.AbilityResponse, error) {
	args := m.Called(ctx, requester, studentID, subject)
	result, _ := args.Get(0).(*services.AbilityResponse)
	return result, args.Error(1)
}

func (m *MockAbilityService) ListAbilities(ctx context.Context, requester services.Requester, studentID string) ([]*services.AbilityResponse, error) {
	args := m.Called(ctx, requester, studentID)
	result, _ := args.Get(0).([]*services.AbilityResponse)
	return result, args.Error(1)
}

func (m *MockAbilityService) GetNextDifficulty(ctx context.Context, requester services.Requester, studentID, subject string) (*services.NextDifficultyResponse, error) {
	args := m.Called(ctx, requester, studentID, subject)
	result, _ := args.Get(0).(*services.NextDifficultyResponse)
	return result, args.Error(1)
}

func (m *MockAbilityService) ResetAbility(ctx context.Context, requester services.Requester, studentID, subject string) error {
	args := m.Called(ctx, requester, studentID, subject)
	return args.Error(0)
}

func (m *MockAbilityService) SimulateSession(ctx context.Context, req *services.SimulateSessionRequest) (*services.SimulationResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.SimulationResult)
	return result, args.Error(1)
}

type MockTrendService struct {
	mock.Mock
}

func (m *MockTrendService) GetStudentTrend(ctx context.Context, requester services.Requester, studentID string, req *services.TrendRequest) (*services.TrendReport, error) {
	args := m.Called(ctx, requester, studentID, req)
	result, _ := args.Get(0).(*services.TrendReport)
	return result, args.Error(1)
}

func (m *MockTrendService) GetDailyProgress(ctx context.Context, requester services.Requester, studentID string, req *services.ProgressRequest) (*services.ProgressReport, error) {
	args := m.Called(ctx, requester, studentID, req)
	result, _ := args.Get(0).(*services.ProgressReport)
	return result, args.Error(1)
}

func (m *MockTrendService) GetClassOverview(ctx context.Context, requester services.Requester, req *services.ClassOverviewRequest) (*services.ClassOverview, error) {
	args := m.Called(ctx, requester, req)
	result, _ := args.Get(0).(*services.ClassOverview)
	return result, args.Error(1)
}

func (m *MockTrendService) ExportTrend(ctx context.Context, requester services.Requester, studentID string, req *services.TrendRequest) (*services.ExportFile, error) {
	args := m.Called(ctx, requester, studentID, req)
	result, _ := args.Get(0).(*services.ExportFile)
	return result, args.Error(1)
}

type mockServiceManager struct {
	ability *MockAbilityService
	trend   *MockTrendService
}

func (m *mockServiceManager) Ability() services.AbilityService { return m.ability }
func (m *mockServiceManager) Trend() services.TrendService     { return m.trend }

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

func setupRouter(t *testing.T, db Pinger) (*gin.Engine, *mockServiceManager, *metrics.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sm := &mockServiceManager{ability: &MockAbilityService{}, trend: &MockTrendService{}}
	metricsManager := metrics.NewManager()

	router := gin.New()
	router.Use(utils.RequestID(), metricsManager.Middleware())
	NewHandlerManager(sm, metricsManager, db, testSecret, utils.NewNopLogger()).SetupRoutes(router)

	t.Cleanup(func() {
		sm.ability.AssertExpectations(t)
		sm.trend.AssertExpectations(t)
	})
	return router, sm, metricsManager
}

func token(t *testing.T, subject string, role models.UserRole, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(router http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func isRequester(id string, role models.UserRole) interface{} {
	return mock.MatchedBy(func(r services.Requester) bool {
		return r.ID == id && r.Role == role && r.RequestID != ""
	})
}

func TestAuthMiddleware(t *testing.T) {
	router, _, _ := setupRouter(t, nil)

	tests := []struct {
		name   string
		bearer string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"expired token", token(t, "student-1", models.RoleStudent, -time.Minute)},
		{"unknown role", token(t, "student-1", models.UserRole("guest"), time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/abilities", tt.bearer, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	t.Run("wrong signing key", func(t *testing.T) {
		claims := Claims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		require.NoError(t, err)

		w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/abilities", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAbilityHandler_RecordResponse(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, sm, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		sm.ability.On("RecordResponse", mock.Anything, isRequester("student-1", models.RoleStudent), "student-1", "maths",
			mock.MatchedBy(func(r *services.RecordResponseRequest) bool {
				return r.Correct != nil && *r.Correct && r.Difficulty == 0.6
			})).
			Return(&services.RecordResponseResult{
				ResultID: "result-1",
				Previous: estimator.AbilityState{Ability: 0.5, Confidence: 0.5},
				Ability:  &services.AbilityResponse{StudentID: "student-1", Subject: "maths", Ability: 0.55, Confidence: 0.55, Level: 5},
			}, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/students/student-1/abilities/maths/responses", bearer,
			map[string]interface{}{"correct": true, "difficulty": 0.6})
		require.Equal(t, http.StatusCreated, w.Code)

		var result services.RecordResponseResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "result-1", result.ResultID)
		assert.Equal(t, 0.55, result.Ability.Ability)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		w := doRequest(router, http.MethodPost, "/api/v1/students/student-1/abilities/maths/responses", bearer, "nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperrors.ValidationErrors{*apperrors.NewValidationError("correct", "correct is required", nil)}, http.StatusBadRequest},
		{"invalid subject", services.ErrInvalidSubject, http.StatusBadRequest},
		{"permission", services.NewPermissionError("student-1", "student-2", "student", "record_response", "own data only"), http.StatusForbidden},
		{"invalid requester", services.ErrInvalidRequester, http.StatusUnauthorized},
		{"business rule", services.NewBusinessRuleError("class_size", "too many", nil), http.StatusUnprocessableEntity},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sm, _ := setupRouter(t, nil)
			bearer := token(t, "student-1", models.RoleStudent, time.Hour)

			sm.ability.On("RecordResponse", mock.Anything, mock.Anything, "student-2", "maths", mock.Anything).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/students/student-2/abilities/maths/responses", bearer,
				map[string]interface{}{"correct": false})
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAbilityHandler_Reads(t *testing.T) {
	router, sm, _ := setupRouter(t, nil)
	bearer := token(t, "teacher-1", models.RoleTeacher, time.Hour)

	sm.ability.On("ListAbilities", mock.Anything, isRequester("teacher-1", models.RoleTeacher), "student-1").
		Return([]*services.AbilityResponse{{Subject: "maths"}, {Subject: "francais"}}, nil)
	sm.ability.On("GetAbility", mock.Anything, mock.Anything, "student-1", "sciences").
		Return(nil, services.ErrAbilityNotFound)
	sm.ability.On("GetNextDifficulty", mock.Anything, mock.Anything, "student-1", "maths").
		Return(&services.NextDifficultyResponse{Difficulty: 0.5, IsDefault: true}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/abilities", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []services.AbilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = doRequest(router, http.MethodGet, "/api/v1/students/student-1/abilities/sciences", bearer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/students/student-1/abilities/maths/next-difficulty", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_default":true`)
}

func TestAbilityHandler_ResetAndSimulate(t *testing.T) {
	router, sm, _ := setupRouter(t, nil)
	bearer := token(t, "admin-1", models.RoleAdmin, time.Hour)

	sm.ability.On("ResetAbility", mock.Anything, isRequester("admin-1", models.RoleAdmin), "student-1", "maths").Return(nil)
	sm.ability.On("SimulateSession", mock.Anything, mock.MatchedBy(func(r *services.SimulateSessionRequest) bool {
		return len(r.Responses) == 2 && r.Responses[0].Correct && !r.Responses[1].Correct
	})).Return(&services.SimulationResult{Final: estimator.AbilityState{Ability: 0.5, Confidence: 0.5}}, nil)

	w := doRequest(router, http.MethodDelete, "/api/v1/students/student-1/abilities/maths", bearer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/abilities/simulate", bearer, map[string]interface{}{
		"responses": []map[string]interface{}{
			{"difficulty": 0.5, "correct": true},
			{"difficulty": 0.5, "correct": false},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTrendHandler(t *testing.T) {
	t.Run("trend with query parameters", func(t *testing.T) {
		router, sm, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		sm.trend.On("GetStudentTrend", mock.Anything, mock.Anything, "student-1", &services.TrendRequest{
			Subject: "maths", TargetLevel: 8, WindowDays: 30,
		}).Return(&services.TrendReport{StudentID: "student-1", Result: estimator.TrendResult{Trend: estimator.TrendImproving}}, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/trend?subject=maths&target_level=8&window_days=30", bearer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"trend":"improving"`)
	})

	t.Run("non numeric target", func(t *testing.T) {
		router, _, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/trend?target_level=high", bearer, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export serves a spreadsheet", func(t *testing.T) {
		router, sm, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		sm.trend.On("ExportTrend", mock.Anything, mock.Anything, "student-1", mock.Anything).Return(&services.ExportFile{
			FileName:    "progression_student-1_20250320.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte("PK\x03\x04"),
		}, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/trend/export", bearer, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="progression_student-1_20250320.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
		assert.Equal(t, "PK\x03\x04", w.Body.String())
	})

	t.Run("progress", func(t *testing.T) {
		router, sm, _ := setupRouter(t, nil)
		bearer := token(t, "student-1", models.RoleStudent, time.Hour)

		sm.trend.On("GetDailyProgress", mock.Anything, mock.Anything, "student-1", mock.MatchedBy(func(r *services.ProgressRequest) bool {
			return r.From != nil && r.From.Format("2006-01-02") == "2025-03-01" && r.To == nil
		})).Return(&services.ProgressReport{StudentID: "student-1"}, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/students/student-1/progress?from=2025-03-01", bearer, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("class overview", func(t *testing.T) {
		router, sm, _ := setupRouter(t, nil)
		bearer := token(t, "teacher-1", models.RoleTeacher, time.Hour)

		sm.trend.On("GetClassOverview", mock.Anything, isRequester("teacher-1", models.RoleTeacher), mock.MatchedBy(func(r *services.ClassOverviewRequest) bool {
			return len(r.StudentIDs) == 2 && r.Subject == "maths"
		})).Return(&services.ClassOverview{Summary: services.ClassSummary{Improving: 2}}, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/classes/overview", bearer, map[string]interface{}{
			"student_ids": []string{"student-1", "student-2"},
			"subject":     "maths",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"improving":2`)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	t.Run("healthy without database", func(t *testing.T) {
		router, _, _ := setupRouter(t, nil)

		w := doRequest(router, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
		assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
	})

	t.Run("database down", func(t *testing.T) {
		router, _, _ := setupRouter(t, failingPinger{})

		w := doRequest(router, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("metrics are public", func(t *testing.T) {
		router, _, _ := setupRouter(t, nil)

		doRequest(router, http.MethodGet, "/health", "", nil)
		w := doRequest(router, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "najah_learner_http_requests_total")
	})
}
