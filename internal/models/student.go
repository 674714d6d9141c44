package models

// StudentRisk is one row of the dropout-risk aggregation.
type StudentRisk struct {
	StudentID          int      `json:"studentId"`
	DisplayName        string   `json:"displayName"`
	Phone              string   `json:"phone"`
	Age                int      `json:"age"`
	Grade              string   `json:"grade"`
	TotalSessions      int      `json:"totalSessions"`
	AvgGapDays         *float64 `json:"avgGapDays"`
	AvgDuration        *float64 `json:"avgDuration"`
	RecentAvgDuration  *float64 `json:"recentAvgDuration"`
	AvgLessons         *float64 `json:"avgLessons"`
	AvgQuizzes         *float64 `json:"avgQuizzes"`
	DaysSinceLastLogin *float64 `json:"daysSinceLastLogin"`
	DropoutRiskScore   int      `json:"dropoutRiskScore"`
}

// RiskSummary aggregates dropout risk across all students.
type RiskSummary struct {
	TotalStudents    int            `json:"totalStudents"`
	AverageRiskScore float64        `json:"averageRiskScore"`
	HighRiskCount    int            `json:"highRiskCount"`
	RiskDistribution map[string]int `json:"riskDistribution"`
}

// SkillRating is one entry of the skill-assessment output.
type SkillRating struct {
	Skill  string `json:"skill"`
	Rating int    `json:"rating"`
}
