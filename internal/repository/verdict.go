package repository

import (
	"context"
	"database/sql"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

type VerdictRepository struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewVerdictRepository(db *sql.DB, table string, log logger.Logger) *VerdictRepository {
	return &VerdictRepository{
		db:     db,
		table:  table,
		logger: log.WithFields(map[string]interface{}{"repository": "verdict"}),
	}
}

// Insert records one document check outcome. Every scored submission is
// kept, including rejections, so reviewers can see the full history.
func (r *VerdictRepository) Insert(ctx context.Context, verdict *models.AuthenticityVerdict) error {
	query := `INSERT INTO ` + r.table + `
		(id, session_id, contact_id, score, tier, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		verdict.ID,
		verdict.SessionID,
		verdict.ContactID,
		verdict.Score,
		string(verdict.Tier),
		verdict.Message,
		verdict.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("verdict persisted", map[string]interface{}{
		"sessionId": verdict.SessionID,
		"tier":      string(verdict.Tier),
		"score":     verdict.Score,
	})
	return nil
}

// ListBySession returns the verdicts recorded for a session, newest
// first.
func (r *VerdictRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AuthenticityVerdict, error) {
	query := `SELECT id, session_id, contact_id, score, tier, message, created_at
		FROM ` + r.table + ` WHERE session_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("verdict_list", err)
	}
	defer rows.Close()

	var verdicts []models.AuthenticityVerdict
	for rows.Next() {
		var v models.AuthenticityVerdict
		var tier string
		if err := rows.Scan(&v.ID, &v.SessionID, &v.ContactID, &v.Score, &tier, &v.Message, &v.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("verdict_list", err)
		}
		v.Tier = models.VerdictTier(tier)
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("verdict_list", err)
	}
	return verdicts, nil
}
