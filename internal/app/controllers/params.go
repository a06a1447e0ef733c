package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
)

// parseIDParam parses a positive ID parameter from the request path
func parseIDParam(ctx *gin.Context, paramName string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(paramName + " must be a positive integer")
	}
	return id, nil
}
