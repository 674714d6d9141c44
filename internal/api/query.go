package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/repository"
)

type QueryHandler struct {
	catalog *repository.Catalog
}

func NewQueryHandler(catalog *repository.Catalog) *QueryHandler {
	return &QueryHandler{catalog: catalog}
}

func (h *QueryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/query", h.runQuery)
	router.PUT("/query", h.runStatement)
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// runQuery serves read access. The catalog rejects anything that is not
// a SELECT.
func (h *QueryHandler) runQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	rows, err := h.catalog.Query(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

// runStatement serves writes: INSERT, UPDATE or DELETE only.
func (h *QueryHandler) runStatement(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	affected, err := h.catalog.Exec(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rowsAffected": affected})
}
