package handlers

import (
	"net/http"
	"time"

	"circl/models"
	"circl/services/session"
	"circl/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes the session gate per device.
type SessionHandler struct {
	Gate *session.Gate
}

func NewSessionHandler(gate *session.Gate) *SessionHandler {
	return &SessionHandler{Gate: gate}
}

// LaunchHandler reads the persisted session once and fixes the device's root.
func (h *SessionHandler) LaunchHandler(c *gin.Context) {
	device := c.Param("device")
	root, err := h.Gate.Launch(c.Request.Context(), device)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"deviceId": device, "root": root})
}

func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	resp, err := h.Gate.Login(c.Request.Context(), c.Param("device"), req.UserID, req.UserTitle)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Login failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LogoutHandler clears the stored user. The root swaps after the logout delay;
// ?wait=true holds the response until it has.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	device := c.Param("device")
	swapped, err := h.Gate.Logout(c.Request.Context(), device)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Logout failed", err.Error())
		return
	}
	if claims, ok := c.Get("sessionClaims"); ok {
		sc := claims.(*utils.SessionClaims)
		if err := h.Gate.RevokeToken(c.Request.Context(), c.GetString("tokenHash"), time.Unix(sc.ExpiresAt, 0)); err != nil {
			getLogger(c).Warn("failed to revoke session token", zap.String("device", device), zap.Error(err))
		}
	}
	if !waitRequested(c) {
		c.JSON(http.StatusAccepted, gin.H{"deviceId": device, "root": h.Gate.ActiveRoot(device)})
		return
	}
	select {
	case <-swapped:
		c.JSON(http.StatusOK, gin.H{"deviceId": device, "root": h.Gate.ActiveRoot(device)})
	case <-c.Request.Context().Done():
		utils.JSONError(c, http.StatusRequestTimeout, "Request cancelled", c.Request.Context().Err().Error())
	}
}

func (h *SessionHandler) RootHandler(c *gin.Context) {
	device := c.Param("device")
	c.JSON(http.StatusOK, gin.H{"deviceId": device, "root": h.Gate.ActiveRoot(device)})
}

func (h *SessionHandler) SetTitleHandler(c *gin.Context) {
	var req struct {
		UserTitle string `json:"userTitle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.Gate.SetTitle(c.Request.Context(), c.Param("device"), req.UserTitle); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update title", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"userTitle": req.UserTitle})
}
