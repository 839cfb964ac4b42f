package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"circl/models"
	"circl/services/network"
	"circl/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NetworkHandler answers membership queries against the network cache.
type NetworkHandler struct {
	Cache *network.Cache
}

func NewNetworkHandler(cache *network.Cache) *NetworkHandler {
	return &NetworkHandler{Cache: cache}
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid "+name+" id", c.Param(name))
		return 0, false
	}
	return v, true
}

func networkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, network.ErrMemberNotFound):
		utils.JSONError(c, http.StatusNotFound, "Member not in network", err.Error())
	case errors.Is(err, network.ErrInvalidMember):
		utils.JSONError(c, http.StatusBadRequest, "Invalid member", err.Error())
	case errors.Is(err, network.ErrCacheStopped):
		utils.JSONError(c, http.StatusServiceUnavailable, "Network cache is shutting down", err.Error())
	default:
		utils.JSONError(c, http.StatusBadGateway, "Network lookup failed", err.Error())
	}
}

// MembershipHandler reports whether :member is in :owner's network.
func (h *NetworkHandler) MembershipHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	member, ok := int64Param(c, "member")
	if !ok {
		return
	}
	found, state, err := h.Cache.Contains(c.Request.Context(), owner, member)
	if err != nil {
		networkError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MembershipResponse{
		OwnerID:   owner,
		MemberID:  member,
		InNetwork: found,
		State:     string(state),
	})
}

func (h *NetworkHandler) EmailMembershipHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	email := c.Param("email")
	found, state, err := h.Cache.ContainsEmail(c.Request.Context(), owner, email)
	if err != nil {
		networkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ownerId": owner, "email": email, "inNetwork": found, "state": state})
}

func (h *NetworkHandler) ListMembersHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	members, state, err := h.Cache.Members(c.Request.Context(), owner)
	if err != nil {
		networkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ownerId": owner, "state": state, "members": members})
}

// RefreshHandler reloads the owner's network; ?wait=true reports the outcome.
func (h *NetworkHandler) RefreshHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	if !waitRequested(c) {
		h.Cache.RefreshAsync(owner)
		c.JSON(http.StatusAccepted, gin.H{"ownerId": owner})
		return
	}
	if err := h.Cache.Refresh(c.Request.Context(), owner); err != nil {
		getLogger(c).Warn("network refresh failed", zap.Int64("owner", owner), zap.Error(err))
		networkError(c, err)
		return
	}
	_, state, err := h.Cache.Members(c.Request.Context(), owner)
	if err != nil {
		networkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ownerId": owner, "state": state})
}

func (h *NetworkHandler) AddMemberHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	var member models.NetworkMember
	if err := c.ShouldBindJSON(&member); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if member.UserID <= 0 && member.Email == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "userId or email is required")
		return
	}
	if err := h.Cache.Add(c.Request.Context(), owner, member); err != nil {
		networkError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *NetworkHandler) RemoveMemberHandler(c *gin.Context) {
	owner, ok := int64Param(c, "owner")
	if !ok {
		return
	}
	member, ok := int64Param(c, "member")
	if !ok {
		return
	}
	if err := h.Cache.Remove(c.Request.Context(), owner, member); err != nil {
		networkError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
