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

func proposalWithStatus(pid, fid uuid.UUID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "freelancer_id", "job_id", "bid_amount", "status"}).
		AddRow(pid.String(), fid.String(), uuid.NewString(), int64(4500), status)
}

func TestCreateSubmission(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		ownerIs string
		want    int
	}{
		{name: "accepted proposal", status: "Accepted", ownerIs: "caller", want: fiber.StatusCreated},
		{name: "still pending", status: "Pending", ownerIs: "caller", want: fiber.StatusConflict},
		{name: "already paid", status: "Completed", ownerIs: "caller", want: fiber.StatusConflict},
		{name: "someone else's proposal", status: "Accepted", ownerIs: "other", want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock := newTestApp(t)
			fid, pid := uuid.New(), uuid.New()

			owner := fid
			if tt.ownerIs == "other" {
				owner = uuid.New()
			}
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "proposals" WHERE id = $1`)).
				WithArgs(pid, 1).
				WillReturnRows(proposalWithStatus(pid, owner, tt.status))
			if tt.want == fiber.StatusCreated {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "submissions"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
			}

			body := `{"proposalID":"` + pid.String() + `","submissionText":"repo link and notes"}`
			resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/submissions", body), fid, models.RoleFreelancer))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateSubmissionNeedsText(t *testing.T) {
	app, mock := newTestApp(t)

	body := `{"proposalID":"` + uuid.NewString() + `","submissionText":"   "}`
	resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/submissions", body), uuid.New(), models.RoleFreelancer))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionAsClient(t *testing.T) {
	app, _ := newTestApp(t)

	body := `{"proposalID":"` + uuid.NewString() + `","submissionText":"done"}`
	resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/submissions", body), uuid.New(), models.RoleClient))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpdateSubmissionOwnership(t *testing.T) {
	tests := []struct {
		name  string
		owner int
		want  int
	}{
		{name: "author", owner: 1, want: fiber.StatusOK},
		{name: "not the author", owner: 0, want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mock := newTestApp(t)
			uid, sid, pid := uuid.New(), uuid.New(), uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "submissions" WHERE id = $1`)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "proposal_id", "submission_text"}).
					AddRow(sid.String(), pid.String(), "first draft"))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "proposals" WHERE id = $1 AND freelancer_id = $2`)).
				WithArgs(pid, uid).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.owner))
			if tt.want == fiber.StatusOK {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "submissions" SET "submission_text"=$1 WHERE "id" = $2`)).
					WithArgs("final version", sid).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			req := asUser(t, jsonRequest("PUT", "/api/v1/submissions/"+sid.String(), `{"submissionText":"final version"}`), uid, models.RoleFreelancer)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == fiber.StatusOK {
				data, _ := decode(t, resp)["data"].(map[string]any)
				assert.Equal(t, "final version", data["submissionText"])
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
