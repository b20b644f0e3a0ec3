package handlers

import (
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/common/middleware"
	"github.com/sarathi/sarathi/internal/stats/models"
	"github.com/sarathi/sarathi/internal/stats/services"

	"github.com/gin-gonic/gin"
)

// GetUserStats returns the gamification counters for one user
// GET /api/users/:userId/stats
func GetUserStats(c *gin.Context) {
	stats, err := services.GetUserStats(c.Param("userId"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, stats)
}

// CreateUser seeds a user record
// POST /api/users
func CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.Validation("malformed user payload", err.Error()))
		return
	}

	user, err := services.CreateUser(req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(201, user)
}

// ListStudents returns every student's stats for the classroom view
// GET /api/teacher/students
func ListStudents(c *gin.Context) {
	students, err := services.ListStudents()
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, gin.H{
		"students": students,
		"total":    len(students),
	})
}
