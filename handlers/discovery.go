package handlers

import (
	"errors"
	"net/http"

	"circl/models"
	"circl/services/discovery"
	"circl/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DiscoveryHandler serves quiz submission and resource list views.
type DiscoveryHandler struct {
	Service discovery.DiscoveryService
}

func NewDiscoveryHandler(svc discovery.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{Service: svc}
}

// answersFromRequest decodes the request body as answers for the :domain quiz.
func answersFromRequest(c *gin.Context) (models.QuizAnswers, bool) {
	body, err := c.GetRawData()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read request body", err.Error())
		return nil, false
	}
	answers, err := discovery.DecodeAnswers(c.Param("domain"), body)
	if errors.Is(err, discovery.ErrUnknownDomain) {
		utils.JSONError(c, http.StatusNotFound, "Unknown quiz domain", c.Param("domain"))
		return nil, false
	}
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid quiz answers", err.Error())
		return nil, false
	}
	return answers, true
}

func discoveryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, discovery.ErrViewNotFound):
		utils.JSONError(c, http.StatusNotFound, "View not found", c.Param("view"))
	case errors.Is(err, discovery.ErrBoardStopped), errors.Is(err, discovery.ErrServiceStopped):
		utils.JSONError(c, http.StatusServiceUnavailable, "Discovery is shutting down", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Discovery failed", err.Error())
	}
}

// ListDomainsHandler lists every quiz domain.
func (h *DiscoveryHandler) ListDomainsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domains": discovery.Domains()})
}

// SubmitHandler starts a fetch for the view. With ?wait=true it responds with the
// published entry; otherwise it accepts and returns immediately.
func (h *DiscoveryHandler) SubmitHandler(c *gin.Context) {
	answers, ok := answersFromRequest(c)
	if !ok {
		return
	}
	view := c.Param("view")
	published, err := h.Service.Submit(c.Request.Context(), view, answers)
	if err != nil {
		discoveryError(c, err)
		return
	}
	getLogger(c).Debug("quiz submitted",
		zap.String("view", view),
		zap.String("domain", string(answers.Domain())),
		zap.String("keyword", answers.Keyword()),
	)

	if !waitRequested(c) {
		c.JSON(http.StatusAccepted, gin.H{"view": view, "status": discovery.StatusLoading, "keyword": answers.Keyword()})
		return
	}
	select {
	case entry, ok := <-published:
		if !ok {
			utils.JSONError(c, http.StatusServiceUnavailable, "Fetch abandoned", "the service is shutting down")
			return
		}
		c.JSON(http.StatusOK, entry)
	case <-c.Request.Context().Done():
		utils.JSONError(c, http.StatusRequestTimeout, "Request cancelled", c.Request.Context().Err().Error())
	}
}

// AppearHandler marks the view as shown; the first appearance triggers a fetch.
func (h *DiscoveryHandler) AppearHandler(c *gin.Context) {
	answers, ok := answersFromRequest(c)
	if !ok {
		return
	}
	entry, err := h.Service.Appear(c.Request.Context(), c.Param("view"), answers)
	if err != nil {
		discoveryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetViewHandler returns the view's current entry.
func (h *DiscoveryHandler) GetViewHandler(c *gin.Context) {
	entry, err := h.Service.View(c.Request.Context(), c.Param("view"))
	if err != nil {
		discoveryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SearchHandler fetches resources for the answers without publishing them to any view.
func (h *DiscoveryHandler) SearchHandler(c *gin.Context) {
	answers, ok := answersFromRequest(c)
	if !ok {
		return
	}
	res := h.Service.Discover(c.Request.Context(), answers)
	if !res.OK() {
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
