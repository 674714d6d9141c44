package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	skillratings "magicbus-backend/internal/workers/analytics/skill-ratings"
)

type AnalyticsHandler struct {
	skillRatings *skillratings.Service
}

func NewAnalyticsHandler(svc *skillratings.Service) *AnalyticsHandler {
	return &AnalyticsHandler{skillRatings: svc}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/analytics")
	group.GET("/skill-ratings", h.assess)
}

// assess runs the skill assessment over current warehouse data. The
// call is synchronous and model-bound, so it can take a while.
func (h *AnalyticsHandler) assess(c *gin.Context) {
	if h.skillRatings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "skill assessment not configured"})
		return
	}

	out, err := h.skillRatings.Execute(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
