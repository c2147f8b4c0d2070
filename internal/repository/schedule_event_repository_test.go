package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/practice-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleEventRepositoryListAvailable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleEventRepository(db)
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 10, 17, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "starts_at", "ends_at", "state"}).
		AddRow("ev-2", "prac-1", start.Add(4*time.Hour), end, models.ScheduleEventStateAvailable).
		AddRow("ev-1", "prac-1", start, start.Add(3*time.Hour), models.ScheduleEventStateAvailable)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, starts_at, ends_at, state")).
		WithArgs(pq.Array([]string{"prac-1"}), start, end).
		WillReturnRows(rows)

	events, err := repo.ListAvailable(context.Background(), []string{"prac-1"}, start, end)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "ev-2", events[0].ID, "store order is starts_at descending")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryListAvailableEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleEventRepository(db)
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, starts_at, ends_at, state")).
		WithArgs(pq.Array([]string{"prac-1"}), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "starts_at", "ends_at", "state"}))

	events, err := repo.ListAvailable(context.Background(), []string{"prac-1"}, start, end)
	require.NoError(t, err)
	require.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}
