// Package api exposes the REST surface: table and query access,
// dropout analytics, warehouse browsing, applicant search and skill
// ratings.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"magicbus-backend/internal/common/errors"
)

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrCodeTableNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidQueryType:
		status = http.StatusBadRequest
	case errors.ErrCodeQueryTimeout:
		status = http.StatusGatewayTimeout
	case errors.ErrCodeDuplicateApplicant:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  string(errors.CodeOf(err)),
	})
}
