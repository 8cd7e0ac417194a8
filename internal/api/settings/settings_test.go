package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Upsert(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams, defaults types.Settings) (*types.Settings, error) {
	args := m.Called(ctx, userID, params, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settings), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSettingsServiceTest() (*SettingsServiceImpl, *MockSettingsRepository) {
	mockRepo := new(MockSettingsRepository)
	return NewSettingsService(mockRepo, 5, testLogger()), mockRepo
}

func TestSettingsServiceImpl_Get(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("stored", func(t *testing.T) {
		service, mockRepo := setupSettingsServiceTest()
		stored := &types.Settings{UserID: userID, SearchRadiusKm: 8}
		mockRepo.On("Get", mock.Anything, userID).Return(stored, nil).Once()

		got, err := service.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("defaults when missing", func(t *testing.T) {
		service, mockRepo := setupSettingsServiceTest()
		mockRepo.On("Get", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()

		got, err := service.Get(ctx, userID)
		require.NoError(t, err)
		assert.True(t, got.NotificationsEnabled)
		assert.Equal(t, 5.0, got.SearchRadiusKm)
	})

	t.Run("db error", func(t *testing.T) {
		service, mockRepo := setupSettingsServiceTest()
		mockRepo.On("Get", mock.Anything, userID).Return(nil, errors.New("db down")).Once()

		_, err := service.Get(ctx, userID)
		assert.Error(t, err)
	})
}

func TestSettingsServiceImpl_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("saves", func(t *testing.T) {
		service, mockRepo := setupSettingsServiceTest()
		radius := 20.0
		params := types.UpdateSettingsParams{SearchRadiusKm: &radius}
		saved := &types.Settings{UserID: userID, NotificationsEnabled: true, SearchRadiusKm: 20}
		mockRepo.On("Upsert", mock.Anything, userID, params, types.Settings{
			UserID: userID, NotificationsEnabled: true, SearchRadiusKm: 5,
		}).Return(saved, nil).Once()

		got, err := service.Update(ctx, userID, params)
		require.NoError(t, err)
		assert.Equal(t, 20.0, got.SearchRadiusKm)
		mockRepo.AssertExpectations(t)
	})

	t.Run("radius out of range", func(t *testing.T) {
		service, mockRepo := setupSettingsServiceTest()
		for _, r := range []float64{0, -1, 51} {
			radius := r
			_, err := service.Update(ctx, userID, types.UpdateSettingsParams{SearchRadiusKm: &radius})
			assert.ErrorIs(t, err, types.ErrValidation, "radius %v", r)
		}
		mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty update", func(t *testing.T) {
		service, _ := setupSettingsServiceTest()
		_, err := service.Update(ctx, userID, types.UpdateSettingsParams{})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestSettingsServiceImpl_SearchRadiusKm(t *testing.T) {
	service, mockRepo := setupSettingsServiceTest()
	userID := uuid.New()
	mockRepo.On("Get", mock.Anything, userID).Return(&types.Settings{SearchRadiusKm: 3.5}, nil).Once()

	radius, err := service.SearchRadiusKm(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, radius)
}

func TestPostgresSettingsRepo(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()
	columns := []string{"notifications_enabled", "search_radius_km", "created_at", "updated_at"}

	t.Run("get", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresSettingsRepo(pool, testLogger())

		pool.ExpectQuery(`SELECT notifications_enabled, search_radius_km, created_at, updated_at\s+FROM user_settings`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(false, 7.5, now, now))

		got, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
		assert.False(t, got.NotificationsEnabled)
		assert.Equal(t, 7.5, got.SearchRadiusKm)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("get missing", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresSettingsRepo(pool, testLogger())

		pool.ExpectQuery(`FROM user_settings`).WithArgs(userID).WillReturnError(pgx.ErrNoRows)

		_, err = repo.Get(ctx, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("upsert", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresSettingsRepo(pool, testLogger())

		radius := 9.0
		params := types.UpdateSettingsParams{SearchRadiusKm: &radius}
		pool.ExpectQuery(`INSERT INTO user_settings .* ON CONFLICT \(user_id\) DO UPDATE`).
			WithArgs(userID, params.NotificationsEnabled, params.SearchRadiusKm, true, 5.0).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(true, 9.0, now, now))

		got, err := repo.Upsert(ctx, userID, params, types.Settings{NotificationsEnabled: true, SearchRadiusKm: 5})
		require.NoError(t, err)
		assert.Equal(t, 9.0, got.SearchRadiusKm)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams) (*types.Settings, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settings), args.Error(1)
}

func (m *MockSettingsService) SearchRadiusKm(ctx context.Context, userID uuid.UUID) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID.String()))
}

func TestSettingsHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("get", func(t *testing.T) {
		svc := new(MockSettingsService)
		handler := NewSettingsHandler(svc, testLogger())
		svc.On("Get", mock.Anything, userID).Return(&types.Settings{UserID: userID, SearchRadiusKm: 5}, nil).Once()

		rec := httptest.NewRecorder()
		handler.GetSettings(rec, withUser(httptest.NewRequest(http.MethodGet, "/settings", nil), userID))

		require.Equal(t, http.StatusOK, rec.Code)
		var got types.Settings
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 5.0, got.SearchRadiusKm)
	})

	t.Run("get without user", func(t *testing.T) {
		handler := NewSettingsHandler(new(MockSettingsService), testLogger())
		rec := httptest.NewRecorder()
		handler.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		svc := new(MockSettingsService)
		handler := NewSettingsHandler(svc, testLogger())
		off := false
		svc.On("Update", mock.Anything, userID, types.UpdateSettingsParams{NotificationsEnabled: &off}).
			Return(&types.Settings{UserID: userID, SearchRadiusKm: 5}, nil).Once()

		req := withUser(httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"notifications_enabled":false}`)), userID)
		rec := httptest.NewRecorder()
		handler.UpdateSettings(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("update validation error", func(t *testing.T) {
		svc := new(MockSettingsService)
		handler := NewSettingsHandler(svc, testLogger())
		svc.On("Update", mock.Anything, userID, mock.Anything).Return(nil, types.ErrValidation).Once()

		req := withUser(httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"search_radius_km":99}`)), userID)
		rec := httptest.NewRecorder()
		handler.UpdateSettings(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		handler := NewSettingsHandler(new(MockSettingsService), testLogger())
		req := withUser(httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"theme":"dark"}`)), userID)
		rec := httptest.NewRecorder()
		handler.UpdateSettings(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
