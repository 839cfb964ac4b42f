package handlers

import (
	"circl/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getLogger(c *gin.Context) *zap.Logger {
	return utils.ContextLogger(c)
}

// waitRequested reports whether the caller asked to block until the operation settles.
func waitRequested(c *gin.Context) bool {
	switch c.Query("wait") {
	case "1", "true", "yes":
		return true
	}
	return false
}
