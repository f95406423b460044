package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workflowengine/internal/apperrors"
)

// respondErr maps a service/workflow error to an HTTP response, using the
// AppError's HTTPStatus when present and falling back to 500 for anything
// else (most callers here are wrapping *apperrors.AppError already).
func respondErr(c *gin.Context, err error) {
	var unknown *apperrors.UnknownApplicationsError
	if apperrors.As(err, &unknown) {
		c.JSON(unknown.HTTPStatus, gin.H{"error": unknown.Message, "code": unknown.Code, "ids": unknown.IDs})
		return
	}

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
