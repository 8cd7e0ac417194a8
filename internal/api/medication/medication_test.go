package medication

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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var reminderCols = []string{"id", "user_id", "time", "label", "position", "created_at", "updated_at"}

type MockMedicationRepo struct {
	mock.Mock
}

func (m *MockMedicationRepo) List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationRepo) Add(ctx context.Context, userID uuid.UUID, at string, label *string) (*types.MedicationReminder, error) {
	args := m.Called(ctx, userID, at, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationRepo) Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error) {
	args := m.Called(ctx, userID, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func setupMedicationServiceTest() (*MedicationServiceImpl, *MockMedicationRepo) {
	mockRepo := new(MockMedicationRepo)
	return NewMedicationService(mockRepo, testLogger()), mockRepo
}

func TestMedicationServiceImpl_Add(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("trims time and sanitizes label", func(t *testing.T) {
		service, mockRepo := setupMedicationServiceTest()
		mockRepo.On("Add", mock.Anything, userID, "08:00 AM", strPtr("Vitamin C")).
			Return(&types.MedicationReminder{UserID: userID, Time: "08:00 AM", Position: 1}, nil).Once()

		got, err := service.Add(ctx, userID, types.CreateReminderParams{
			Time:  "  08:00 AM ",
			Label: strPtr("<i>Vitamin C</i>"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Position)
		mockRepo.AssertExpectations(t)
	})

	t.Run("blank label is dropped", func(t *testing.T) {
		service, mockRepo := setupMedicationServiceTest()
		mockRepo.On("Add", mock.Anything, userID, "9:30 PM", (*string)(nil)).
			Return(&types.MedicationReminder{Time: "9:30 PM", Position: 2}, nil).Once()

		_, err := service.Add(ctx, userID, types.CreateReminderParams{Time: "9:30 PM", Label: strPtr("   ")})
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("blank time", func(t *testing.T) {
		service, mockRepo := setupMedicationServiceTest()
		_, err := service.Add(ctx, userID, types.CreateReminderParams{Time: "   "})
		require.ErrorIs(t, err, types.ErrValidation)
		assert.Contains(t, err.Error(), "Please enter a time")
		mockRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("time too long", func(t *testing.T) {
		service, _ := setupMedicationServiceTest()
		_, err := service.Add(ctx, userID, types.CreateReminderParams{Time: strings.Repeat("9", 33)})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestMedicationServiceImpl_Update(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()

	t.Run("empty update", func(t *testing.T) {
		service, _ := setupMedicationServiceTest()
		_, err := service.Update(ctx, userID, id, types.UpdateReminderParams{})
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("blank time", func(t *testing.T) {
		service, _ := setupMedicationServiceTest()
		_, err := service.Update(ctx, userID, id, types.UpdateReminderParams{Time: strPtr(" ")})
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("not owned", func(t *testing.T) {
		service, mockRepo := setupMedicationServiceTest()
		mockRepo.On("Update", mock.Anything, userID, id, types.UpdateReminderParams{Label: strPtr("")}).
			Return(nil, types.ErrNotFound).Once()

		_, err := service.Update(ctx, userID, id, types.UpdateReminderParams{Label: strPtr("  ")})
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestPostgresMedicationRepo(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("list ordered", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`FROM medication_reminders WHERE user_id = \$1 ORDER BY position`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows(reminderCols).
				AddRow(uuid.New(), userID, "08:00 AM", strPtr("Pill #1"), 1, now, now).
				AddRow(uuid.New(), userID, "08:00 PM", (*string)(nil), 2, now, now))

		got, err := repo.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "08:00 AM", got[0].Time)
		assert.Nil(t, got[1].Label)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("list empty is not nil", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`FROM medication_reminders`).WithArgs(userID).WillReturnRows(pgxmock.NewRows(reminderCols))

		got, err := repo.List(ctx, userID)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("add appends position", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`INSERT INTO medication_reminders \(user_id, time, label, position\)`).
			WithArgs(userID, "08:00 AM", (*string)(nil)).
			WillReturnRows(pgxmock.NewRows(reminderCols).AddRow(id, userID, "08:00 AM", (*string)(nil), 3, now, now))

		got, err := repo.Add(ctx, userID, "08:00 AM", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Position)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("add retries when a concurrent add took the position", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`INSERT INTO medication_reminders`).
			WithArgs(userID, "08:00 AM", (*string)(nil)).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
		pool.ExpectQuery(`INSERT INTO medication_reminders`).
			WithArgs(userID, "08:00 AM", (*string)(nil)).
			WillReturnRows(pgxmock.NewRows(reminderCols).AddRow(id, userID, "08:00 AM", (*string)(nil), 2, now, now))

		got, err := repo.Add(ctx, userID, "08:00 AM", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Position)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("add gives up after repeated position conflicts", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		for range addReminderAttempts {
			pool.ExpectQuery(`INSERT INTO medication_reminders`).
				WithArgs(userID, "08:00 AM", (*string)(nil)).
				WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
		}

		_, err = repo.Add(ctx, userID, "08:00 AM", nil)
		require.Error(t, err)
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, err, &pgErr)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("add does not retry other errors", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`INSERT INTO medication_reminders`).
			WithArgs(userID, "08:00 AM", (*string)(nil)).
			WillReturnError(errors.New("connection reset"))

		_, err = repo.Add(ctx, userID, "08:00 AM", nil)
		require.Error(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("update scoped to owner", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`UPDATE medication_reminders SET time = \$1, label = NULLIF\(\$2, ''\), updated_at = NOW\(\) WHERE id = \$3 AND user_id = \$4`).
			WithArgs("07:15 AM", "Iron", id, userID).
			WillReturnRows(pgxmock.NewRows(reminderCols).AddRow(id, userID, "07:15 AM", strPtr("Iron"), 1, now, now))

		got, err := repo.Update(ctx, userID, id, types.UpdateReminderParams{Time: strPtr("07:15 AM"), Label: strPtr("Iron")})
		require.NoError(t, err)
		assert.Equal(t, "07:15 AM", got.Time)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("update missing", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectQuery(`UPDATE medication_reminders`).
			WithArgs("07:15 AM", id, userID).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.Update(ctx, userID, id, types.UpdateReminderParams{Time: strPtr("07:15 AM")})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectExec(`DELETE FROM medication_reminders WHERE id = \$1 AND user_id = \$2`).
			WithArgs(id, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, userID, id))
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("delete not owned", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()
		repo := NewPostgresMedicationRepo(pool, testLogger())

		pool.ExpectExec(`DELETE FROM medication_reminders`).
			WithArgs(id, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(ctx, userID, id), types.ErrNotFound)
	})
}

type MockMedicationService struct {
	mock.Mock
}

func (m *MockMedicationService) List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationService) Add(ctx context.Context, userID uuid.UUID, params types.CreateReminderParams) (*types.MedicationReminder, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationService) Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error) {
	args := m.Called(ctx, userID, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MedicationReminder), args.Error(1)
}

func (m *MockMedicationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func newRequest(method, target, body string, userID uuid.UUID, id string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestMedicationHandler(t *testing.T) {
	userID, id := uuid.New(), uuid.New()

	t.Run("list", func(t *testing.T) {
		svc := new(MockMedicationService)
		handler := NewMedicationHandler(svc, testLogger())
		svc.On("List", mock.Anything, userID).
			Return([]types.MedicationReminder{{ID: id, Time: "08:00 AM", Position: 1}}, nil).Once()

		rec := httptest.NewRecorder()
		handler.ListReminders(rec, newRequest(http.MethodGet, "/medications", "", userID, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []types.MedicationReminder
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
	})

	t.Run("add", func(t *testing.T) {
		svc := new(MockMedicationService)
		handler := NewMedicationHandler(svc, testLogger())
		svc.On("Add", mock.Anything, userID, types.CreateReminderParams{Time: "08:00 AM"}).
			Return(&types.MedicationReminder{ID: id, Time: "08:00 AM", Position: 1}, nil).Once()

		rec := httptest.NewRecorder()
		handler.AddReminder(rec, newRequest(http.MethodPost, "/medications", `{"time":"08:00 AM"}`, userID, ""))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("add blank time", func(t *testing.T) {
		svc := new(MockMedicationService)
		handler := NewMedicationHandler(svc, testLogger())
		svc.On("Add", mock.Anything, userID, mock.Anything).
			Return(nil, errors.Join(types.ErrValidation, errors.New(msgTimeRequired))).Once()

		rec := httptest.NewRecorder()
		handler.AddReminder(rec, newRequest(http.MethodPost, "/medications", `{"time":""}`, userID, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please enter a time")
	})

	t.Run("update bad id", func(t *testing.T) {
		handler := NewMedicationHandler(new(MockMedicationService), testLogger())
		rec := httptest.NewRecorder()
		handler.UpdateReminder(rec, newRequest(http.MethodPut, "/medications/x", `{"time":"1 PM"}`, userID, "not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete not found", func(t *testing.T) {
		svc := new(MockMedicationService)
		handler := NewMedicationHandler(svc, testLogger())
		svc.On("Delete", mock.Anything, userID, id).Return(types.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		handler.DeleteReminder(rec, newRequest(http.MethodDelete, "/medications/"+id.String(), "", userID, id.String()))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockMedicationService)
		handler := NewMedicationHandler(svc, testLogger())
		svc.On("Delete", mock.Anything, userID, id).Return(nil).Once()

		rec := httptest.NewRecorder()
		handler.DeleteReminder(rec, newRequest(http.MethodDelete, "/medications/"+id.String(), "", userID, id.String()))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewMedicationHandler(new(MockMedicationService), testLogger())
		rec := httptest.NewRecorder()
		handler.ListReminders(rec, httptest.NewRequest(http.MethodGet, "/medications", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
