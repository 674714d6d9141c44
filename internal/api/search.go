package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/repository"
	"magicbus-backend/internal/search"
)

type SearchHandler struct {
	catalog *repository.Catalog
	indexer *search.Indexer
}

func NewSearchHandler(catalog *repository.Catalog, indexer *search.Indexer) *SearchHandler {
	return &SearchHandler{catalog: catalog, indexer: indexer}
}

func (h *SearchHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/search", h.relationalSearch)
	router.GET("/applicants/search", h.applicantSearch)
}

// relationalSearch runs a LIKE match over one column of one table.
func (h *SearchHandler) relationalSearch(c *gin.Context) {
	table := c.Query("table")
	column := c.Query("column")
	value := c.Query("value")
	if table == "" || column == "" || value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table, column and value are required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rows, err := h.catalog.Search(c.Request.Context(), table, column, value, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

// applicantSearch runs the Elasticsearch match query over onboarded
// applicants.
func (h *SearchHandler) applicantSearch(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search index not configured"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.indexer.SearchApplicants(c.Request.Context(), query, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "count": len(hits)})
}
