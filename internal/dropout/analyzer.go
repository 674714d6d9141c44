// Package dropout computes dropout risk scores for enrolled students
// from their session-activity logs. The scoring itself lives in a fixed
// SQL aggregation; this package runs it and derives summaries.
package dropout

import (
	"context"
	"database/sql"
	"math"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

// DefaultHighRiskThreshold is the score at which a student counts as
// high risk when the caller does not choose a threshold.
const DefaultHighRiskThreshold = 45

type Analyzer struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAnalyzer(db *sql.DB, log logger.Logger) *Analyzer {
	return &Analyzer{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "dropout"}),
	}
}

// RiskScores scores every student, highest risk first.
func (a *Analyzer) RiskScores(ctx context.Context) ([]models.StudentRisk, error) {
	rows, err := a.db.QueryContext(ctx, riskSQL)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dropout_risk", err)
	}
	defer rows.Close()

	var students []models.StudentRisk
	for rows.Next() {
		var s models.StudentRisk
		if err := rows.Scan(
			&s.StudentID, &s.DisplayName, &s.Phone, &s.Age, &s.Grade,
			&s.TotalSessions, &s.AvgGapDays, &s.AvgDuration, &s.RecentAvgDuration,
			&s.AvgLessons, &s.AvgQuizzes, &s.DaysSinceLastLogin, &s.DropoutRiskScore,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("dropout_risk", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("dropout_risk", err)
	}
	return students, nil
}

// HighRisk returns the students whose score meets the threshold.
func (a *Analyzer) HighRisk(ctx context.Context, threshold int) ([]models.StudentRisk, error) {
	students, err := a.RiskScores(ctx)
	if err != nil {
		return nil, err
	}

	highRisk := make([]models.StudentRisk, 0)
	for _, s := range students {
		if s.DropoutRiskScore >= threshold {
			highRisk = append(highRisk, s)
		}
	}
	return highRisk, nil
}

// StudentProfile scores one student, or sql.ErrNoRows for an unknown id.
func (a *Analyzer) StudentProfile(ctx context.Context, studentID int) (*models.StudentRisk, error) {
	var s models.StudentRisk
	err := a.db.QueryRowContext(ctx, profileSQL, studentID).Scan(
		&s.StudentID, &s.DisplayName, &s.Phone, &s.Age, &s.Grade,
		&s.TotalSessions, &s.AvgGapDays, &s.AvgDuration, &s.RecentAvgDuration,
		&s.AvgLessons, &s.AvgQuizzes, &s.DaysSinceLastLogin, &s.DropoutRiskScore,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dropout_profile", err)
	}
	return &s, nil
}

// Summary aggregates the scored population: count, average, high-risk
// count at the default threshold, and a four-bucket distribution.
func (a *Analyzer) Summary(ctx context.Context) (*models.RiskSummary, error) {
	students, err := a.RiskScores(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.RiskSummary{
		TotalStudents: len(students),
		RiskDistribution: map[string]int{
			"low_0_24":        0,
			"medium_25_49":    0,
			"high_50_74":      0,
			"critical_75_100": 0,
		},
	}
	if len(students) == 0 {
		return summary, nil
	}

	total := 0
	for _, s := range students {
		total += s.DropoutRiskScore
		if s.DropoutRiskScore >= DefaultHighRiskThreshold {
			summary.HighRiskCount++
		}
		switch {
		case s.DropoutRiskScore >= 75:
			summary.RiskDistribution["critical_75_100"]++
		case s.DropoutRiskScore >= 50:
			summary.RiskDistribution["high_50_74"]++
		case s.DropoutRiskScore >= 25:
			summary.RiskDistribution["medium_25_49"]++
		default:
			summary.RiskDistribution["low_0_24"]++
		}
	}
	summary.AverageRiskScore = math.Round(float64(total)/float64(len(students))*100) / 100
	return summary, nil
}
