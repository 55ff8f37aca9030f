package handlers

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

var lockJobQuery = regexp.QuoteMeta(`SELECT * FROM "jobs" WHERE id = $1`) + `.*FOR UPDATE`

func expectHiredCount(mock sqlmock.Sqlmock, jobID uuid.UUID, n int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "proposals" WHERE job_id = $1 AND status IN ($2,$3)`)).
		WithArgs(jobID, "Accepted", "Completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func TestUpdateJob(t *testing.T) {
	tests := []struct {
		name  string
		hired int
		want  int
	}{
		{name: "open job", hired: 0, want: fiber.StatusOK},
		{name: "accepted while editing", hired: 1, want: fiber.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock := newTestApp(t)
			clientID, jobID := uuid.New(), uuid.New()

			mock.ExpectBegin()
			mock.ExpectQuery(lockJobQuery).
				WithArgs(jobID, 1).
				WillReturnRows(jobRow(jobID, clientID, 2))
			expectHiredCount(mock, jobID, tt.hired)
			if tt.hired == 0 {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "jobs" SET "title"=$1`)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			req := asUser(t, jsonRequest("PUT", "/api/v1/jobs/"+jobID.String(), `{"title":"Build a faster API"}`), clientID, models.RoleClient)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateSomeoneElsesJob(t *testing.T) {
	app, mock := newTestApp(t)
	jobID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockJobQuery).
		WillReturnRows(jobRow(jobID, uuid.New(), 2))
	mock.ExpectRollback()

	req := asUser(t, jsonRequest("PUT", "/api/v1/jobs/"+jobID.String(), `{"price":9000}`), uuid.New(), models.RoleClient)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden: not your job", decode(t, resp)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteJob(t *testing.T) {
	app, mock := newTestApp(t)
	clientID, jobID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockJobQuery).
		WillReturnRows(jobRow(jobID, clientID, 2))
	expectHiredCount(mock, jobID, 0)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "proposals" WHERE job_id = $1`)).
		WithArgs(jobID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "jobs" WHERE "jobs"."id" = $1`)).
		WithArgs(jobID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := asUser(t, jsonRequest("DELETE", "/api/v1/jobs/"+jobID.String(), ""), clientID, models.RoleClient)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingJob(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockJobQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	req := asUser(t, jsonRequest("DELETE", "/api/v1/jobs/"+uuid.NewString(), ""), uuid.New(), models.RoleClient)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileCreateIsRoleGuarded(t *testing.T) {
	tests := []struct {
		target string
		role   models.Role
	}{
		{"/api/v1/client", models.RoleFreelancer},
		{"/api/v1/freelancer", models.RoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			app, mock := newTestApp(t)

			req := asUser(t, jsonRequest("POST", tt.target, `{"about":"hi"}`), uuid.New(), tt.role)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
			// rejected before any row is written
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
