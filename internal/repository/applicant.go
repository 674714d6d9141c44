// Package repository persists onboarding records, document verdicts and
// ad-hoc table access on PostgreSQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

// uniqueViolation is the PostgreSQL error code raised when an insert
// hits a unique constraint.
const uniqueViolation = "23505"

type ApplicantRepository struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewApplicantRepository(db *sql.DB, table string, log logger.Logger) *ApplicantRepository {
	return &ApplicantRepository{
		db:     db,
		table:  table,
		logger: log.WithFields(map[string]interface{}{"repository": "applicant"}),
	}
}

// Insert persists a completed onboarding record. The contact ID carries
// a unique constraint; a second insert for the same contact returns a
// DUPLICATE_APPLICANT error so callers can treat it as a logged
// conflict rather than a batch failure.
func (r *ApplicantRepository) Insert(ctx context.Context, record *models.ApplicantRecord) error {
	query := `INSERT INTO ` + r.table + `
		(contact_id, display_name, full_name, aadhaar_number, date_of_birth,
		 education_level, parents_occupation, interests, previous_experience, skills, onboarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		record.ContactID,
		record.DisplayName,
		record.Fields.FullName,
		record.Fields.AadhaarNumber,
		record.Fields.DateOfBirth,
		record.Fields.EducationLevel,
		record.Fields.ParentsOccupation,
		record.Fields.Interests,
		record.Fields.PreviousExperience,
		record.Fields.Skills,
		record.OnboardedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return errors.NewDuplicateApplicantError(record.ContactID)
		}
		return errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("applicant persisted", map[string]interface{}{
		"contactId": record.ContactID,
	})
	return nil
}

// GetByContactID loads one onboarding record, or sql.ErrNoRows wrapped
// as a query failure when the contact was never onboarded.
func (r *ApplicantRepository) GetByContactID(ctx context.Context, contactID string) (*models.ApplicantRecord, error) {
	query := `SELECT contact_id, display_name, full_name, aadhaar_number, date_of_birth,
		education_level, parents_occupation, interests, previous_experience, skills, onboarded_at
		FROM ` + r.table + ` WHERE contact_id = $1`

	var record models.ApplicantRecord
	err := r.db.QueryRowContext(ctx, query, contactID).Scan(
		&record.ContactID,
		&record.DisplayName,
		&record.Fields.FullName,
		&record.Fields.AadhaarNumber,
		&record.Fields.DateOfBirth,
		&record.Fields.EducationLevel,
		&record.Fields.ParentsOccupation,
		&record.Fields.Interests,
		&record.Fields.PreviousExperience,
		&record.Fields.Skills,
		&record.OnboardedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("applicant_lookup", err)
	}
	return &record, nil
}

// Exists reports whether a contact already has an onboarding record.
func (r *ApplicantRepository) Exists(ctx context.Context, contactID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM `+r.table+` WHERE contact_id = $1`, contactID).Scan(&count)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("applicant_exists", err)
	}
	return count > 0, nil
}
