package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/warehouse"
)

type WarehouseHandler struct {
	client *warehouse.Client
}

func NewWarehouseHandler(client *warehouse.Client) *WarehouseHandler {
	return &WarehouseHandler{client: client}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/warehouse")
	group.GET("/catalogs", h.catalogs)
	group.GET("/schemas", h.schemas)
	group.GET("/tables", h.tables)
	group.POST("/query", h.query)
}

func (h *WarehouseHandler) catalogs(c *gin.Context) {
	catalogs, err := h.client.ListCatalogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": catalogs})
}

func (h *WarehouseHandler) schemas(c *gin.Context) {
	schemas, err := h.client.ListSchemas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": schemas})
}

func (h *WarehouseHandler) tables(c *gin.Context) {
	tables, err := h.client.ListTables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *WarehouseHandler) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	rows, err := h.client.ExecuteQuery(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}
