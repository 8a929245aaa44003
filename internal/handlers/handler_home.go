package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// health godoc
// @Summary Show the status of server.
// @Description get the status of server.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
