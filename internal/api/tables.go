package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/common/validation"
	"magicbus-backend/internal/repository"
)

type TablesHandler struct {
	catalog        *repository.Catalog
	applicantTable string
	logger         logger.Logger
}

func NewTablesHandler(catalog *repository.Catalog, applicantTable string, log logger.Logger) *TablesHandler {
	return &TablesHandler{
		catalog:        catalog,
		applicantTable: applicantTable,
		logger:         log,
	}
}

func (h *TablesHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tables", h.listTables)
	router.GET("/tables/:name", h.tableInfo)
	router.GET("/tables/:name/schema", h.tableSchema)
	router.GET("/tables/:name/rows", h.tableRows)
	router.GET("/tables/:name/count", h.tableCount)
	router.POST("/tables/:name/insert", h.insertRow)
	router.POST("/tables/:name/insert-many", h.insertMany)
}

func (h *TablesHandler) listTables(c *gin.Context) {
	tables, err := h.catalog.ListTables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *TablesHandler) tableInfo(c *gin.Context) {
	name := c.Param("name")

	schema, err := h.catalog.TableSchema(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.catalog.RowCount(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"table":    name,
		"columns":  schema,
		"rowCount": count,
	})
}

func (h *TablesHandler) tableSchema(c *gin.Context) {
	schema, err := h.catalog.TableSchema(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": schema})
}

func (h *TablesHandler) tableRows(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.catalog.Rows(c.Request.Context(), c.Param("name"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

func (h *TablesHandler) tableCount(c *gin.Context) {
	count, err := h.catalog.RowCount(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *TablesHandler) insertRow(c *gin.Context) {
	name := c.Param("name")

	var row map[string]interface{}
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	// Onboarding records get schema validation; other tables take
	// whatever columns they declare.
	if name == h.applicantTable {
		if err := validation.ValidateApplicantRow(row); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.catalog.InsertRow(c.Request.Context(), name, row); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inserted": 1})
}

func (h *TablesHandler) insertMany(c *gin.Context) {
	name := c.Param("name")

	var rows []map[string]interface{}
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON array of objects"})
		return
	}

	if name == h.applicantTable {
		for _, row := range rows {
			if err := validation.ValidateApplicantRow(row); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
		}
	}

	if err := h.catalog.InsertMany(c.Request.Context(), name, rows); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inserted": len(rows)})
}
