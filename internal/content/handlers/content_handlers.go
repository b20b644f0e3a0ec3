package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sarathi/sarathi/internal/common/middleware"
	"github.com/sarathi/sarathi/internal/content/services"
)

// GetMission returns a mission with decoded content
// GET /api/mission/:id
func GetMission(c *gin.Context) {
	detail, err := services.LoadMission(c.Param("id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, detail)
}

// ListMissions returns the active catalog
// GET /api/missions
func ListMissions(c *gin.Context) {
	summaries, err := services.ListMissions()
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, gin.H{
		"missions": summaries,
		"total":    len(summaries),
	})
}
