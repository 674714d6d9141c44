package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

func testRecord() *models.ApplicantRecord {
	return &models.ApplicantRecord{
		ContactID:   "919876543210@c.us",
		DisplayName: "Asha",
		Fields: models.ApplicantFields{
			FullName:           "Asha Kumari",
			AadhaarNumber:      "1234 5678 9012",
			DateOfBirth:        "2006-04-12",
			EducationLevel:     "10th pass",
			ParentsOccupation:  "Farming",
			Interests:          "Tailoring",
			PreviousExperience: "None",
			Skills:             "Hindi typing",
		},
		OnboardedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestApplicantInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicants")).
		WithArgs("919876543210@c.us", "Asha", "Asha Kumari", "1234 5678 9012", "2006-04-12",
			"10th pass", "Farming", "Tailoring", "None", "Hindi typing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewApplicantRepository(db, "applicants", logger.NewNoOpLogger())
	require.NoError(t, repo.Insert(context.Background(), testRecord()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantInsert_DuplicateContact(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicants")).
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewApplicantRepository(db, "applicants", logger.NewNoOpLogger())
	err = repo.Insert(context.Background(), testRecord())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDuplicateApplicant, errors.CodeOf(err))
	assert.False(t, errors.IsFatalToBatch(err))
}

func TestApplicantInsert_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applicants")).
		WillReturnError(assert.AnError)

	repo := NewApplicantRepository(db, "applicants", logger.NewNoOpLogger())
	err = repo.Insert(context.Background(), testRecord())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, errors.CodeOf(err))
}

func TestApplicantGetByContactID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"contact_id", "display_name", "full_name", "aadhaar_number", "date_of_birth",
		"education_level", "parents_occupation", "interests", "previous_experience", "skills", "onboarded_at",
	}).AddRow("919876543210@c.us", "Asha", "Asha Kumari", "1234 5678 9012", "2006-04-12",
		"10th pass", "Farming", "Tailoring", "None", "Hindi typing",
		time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT contact_id")).
		WithArgs("919876543210@c.us").
		WillReturnRows(rows)

	repo := NewApplicantRepository(db, "applicants", logger.NewNoOpLogger())
	record, err := repo.GetByContactID(context.Background(), "919876543210@c.us")

	require.NoError(t, err)
	assert.Equal(t, "Asha Kumari", record.Fields.FullName)
	assert.Equal(t, "Hindi typing", record.Fields.Skills)
}

func TestApplicantExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM applicants")).
		WithArgs("x@c.us").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewApplicantRepository(db, "applicants", logger.NewNoOpLogger())
	exists, err := repo.Exists(context.Background(), "x@c.us")

	require.NoError(t, err)
	assert.True(t, exists)
}
