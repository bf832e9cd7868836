package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobColumns = []string{"id", "filter", "file_name", "status", "error", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*JobPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewJobPostgres(db), mock
}

func TestJobPostgresSave(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	job := &entity.Job{ID: "job-1", Filter: "mayfair", FileName: "cat.jpg", Status: entity.JobPending, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-1", "mayfair", "cat.jpg", "pending", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(context.Background(), job))

	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("connection reset"))
	err := repo.Save(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create job")
}

func TestJobPostgresFindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)

	mock.ExpectQuery("FROM jobs WHERE id =").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow("job-1", "reyes", "cat.jpg", "failed", "decode failed", created, updated))

	job, err := repo.FindByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Job{
		ID:        "job-1",
		Filter:    "reyes",
		FileName:  "cat.jpg",
		Status:    entity.JobFailed,
		Error:     "decode failed",
		CreatedAt: created,
		UpdatedAt: updated,
	}, *job)

	mock.ExpectQuery("FROM jobs WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(jobColumns))

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestJobPostgresUpdateAndDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	job := &entity.Job{ID: "job-1", Status: entity.JobCompleted, UpdatedAt: time.Now()}

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "row changed", affected: 1},
		{name: "unknown job", affected: 0, wantErr: entity.ErrJobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("UPDATE jobs").
				WithArgs("job-1", "completed", "", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			err := repo.Update(context.Background(), job)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			mock.ExpectExec("DELETE FROM jobs").
				WithArgs("job-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			err = repo.Delete(context.Background(), "job-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJobPostgresListExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	before := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	old := before.Add(-48 * time.Hour)

	mock.ExpectQuery("WHERE created_at <").
		WithArgs(before).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow("a", "mayfair", "a.jpg", "completed", "", old, old).
			AddRow("b", "brannan", "b.jpg", "pending", "", old.Add(time.Hour), old.Add(time.Hour)))

	jobs, err := repo.ListExpired(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, entity.JobPending, jobs[1].Status)

	mock.ExpectQuery("WHERE created_at <").WillReturnError(errors.New("timeout"))
	_, err = repo.ListExpired(context.Background(), before)
	assert.Error(t, err)
}

func TestJobPostgresHealthCheck(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectPing()
	assert.NoError(t, repo.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, repo.HealthCheck(context.Background()))
}
