package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/dropout"
)

type DropoutHandler struct {
	analyzer *dropout.Analyzer
}

func NewDropoutHandler(analyzer *dropout.Analyzer) *DropoutHandler {
	return &DropoutHandler{analyzer: analyzer}
}

func (h *DropoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/dropout")
	group.GET("/risk-scores", h.riskScores)
	group.GET("/high-risk", h.highRisk)
	group.GET("/student/:id", h.studentProfile)
	group.GET("/summary", h.summary)
}

func (h *DropoutHandler) riskScores(c *gin.Context) {
	students, err := h.analyzer.RiskScores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *DropoutHandler) highRisk(c *gin.Context) {
	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", strconv.Itoa(dropout.DefaultHighRiskThreshold)))
	if err != nil || threshold < 0 || threshold > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be an integer between 0 and 100"})
		return
	}

	students, err := h.analyzer.HighRisk(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *DropoutHandler) studentProfile(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id must be an integer"})
		return
	}

	profile, err := h.analyzer.StudentProfile(c.Request.Context(), studentID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *DropoutHandler) summary(c *gin.Context) {
	summary, err := h.analyzer.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
