package main

import (
	"errors"
	"net/http"

	"hms/src/allocator"

	"github.com/gin-gonic/gin"
)

// respondAllocatorError maps the allocator error taxonomy onto HTTP. Every
// handler funnels failures through here so the envelope stays uniform.
func respondAllocatorError(ctx *gin.Context, err error) {
	var conflict *allocator.ScheduleConflictError
	var insufficient *allocator.InsufficientInventoryError
	var invalid *allocator.ValidationError
	switch {
	case errors.Is(err, allocator.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.As(err, &conflict):
		ctx.JSON(http.StatusConflict, gin.H{
			"success":  false,
			"message":  conflict.Error(),
			"conflict": conflict.Conflict,
		})
	case errors.As(err, &insufficient):
		ctx.JSON(http.StatusConflict, gin.H{
			"success":   false,
			"message":   insufficient.Error(),
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
	case errors.As(err, &invalid):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalid.Error()})
	case errors.Is(err, allocator.ErrResourceUnavailable):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
	}
}
