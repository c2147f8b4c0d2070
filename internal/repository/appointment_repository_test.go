package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/practice-api/internal/models"
)

func TestAppointmentRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "practitioner_id", "member_schedule_id", "product_id", "scheduled_start", "scheduled_end", "cancelled_at"}).
		AddRow("appt-1", "prac-1", "member-1", "prod-1", start.Add(time.Hour), start.Add(90*time.Minute), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.practitioner_id, a.member_schedule_id")).
		WithArgs(pq.Array([]string{"prac-1"}), start, end, "member-1").
		WillReturnRows(rows)

	appointments, err := repo.ListOverlapping(context.Background(), []string{"prac-1"}, start, end, "member-1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	require.Equal(t, "appt-1", appointments[0].ID)
	require.False(t, appointments[0].Cancelled())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListOverlappingResolvesMemberSchedules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	// The member id binds against member_schedules.member_id, so a booking
	// held elsewhere under the member's schedule id still comes back.
	rows := sqlmock.NewRows([]string{"id", "practitioner_id", "member_schedule_id", "product_id", "scheduled_start", "scheduled_end", "cancelled_at"}).
		AddRow("appt-2", "prac-9", "msched-1", "prod-2", start.Add(time.Hour), start.Add(90*time.Minute), nil)
	mock.ExpectQuery(regexp.QuoteMeta("a.member_schedule_id IN (SELECT id FROM member_schedules WHERE member_id = $4)")).
		WithArgs(pq.Array([]string{"prac-1"}), start, end, "member-1").
		WillReturnRows(rows)

	appointments, err := repo.ListOverlapping(context.Background(), []string{"prac-1"}, start, end, "member-1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	require.Equal(t, "msched-1", appointments[0].MemberScheduleID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListMemberScheduleIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM member_schedules WHERE member_id = $1")).
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("msched-1").AddRow("msched-2"))

	ids, err := repo.ListMemberScheduleIDs(context.Background(), "member-1")
	require.NoError(t, err)
	require.Equal(t, []string{"msched-1", "msched-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryHasCareAdvocateIntro(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("member-1", models.VerticalCareAdvocate).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	had, err := repo.HasCareAdvocateIntro(context.Background(), "member-1")
	require.NoError(t, err)
	require.True(t, had)
	require.NoError(t, mock.ExpectationsWereMet())
}
