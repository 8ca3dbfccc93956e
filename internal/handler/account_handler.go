package handler

import (
	"net/http"

	"messenger/internal/services"
	"messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	service *services.AccountService
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Profile(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	u, err := h.service.Profile(c.Request.Context(), login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToProfileDTO(u)))
}

func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	var req httpdto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.service.SetStatus(c.Request.Context(), login, req.Status); err != nil {
		respondError(c, err)
		return
	}
	h.Profile(c)
}

func (h *AccountHandler) Delete(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), login); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
