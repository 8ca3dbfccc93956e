package handler

import (
	"net/http"

	"messenger/internal/domain/user"
	"messenger/internal/services"
	"messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ListHandler serves the contact and block lists of the current user.
type ListHandler struct {
	service *services.ListService
}

func NewListHandler(service *services.ListService) *ListHandler {
	return &ListHandler{service: service}
}

func listKind(c *gin.Context) (user.ListKind, bool) {
	kind, ok := user.ParseListKind(c.Param("kind"))
	if !ok {
		badRequest(c)
	}
	return kind, ok
}

func (h *ListHandler) Members(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	kind, ok := listKind(c)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), kind, login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListMembersResponse{
		Kind:    string(kind),
		Members: members,
	}))
}

func (h *ListHandler) Add(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	kind, ok := listKind(c)
	if !ok {
		return
	}
	var req httpdto.AddListMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.service.AddToList(c.Request.Context(), kind, login, req.Login); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(gin.H{"login": req.Login}))
}

func (h *ListHandler) Remove(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	kind, ok := listKind(c)
	if !ok {
		return
	}

	if err := h.service.RemoveFromList(c.Request.Context(), kind, login, c.Param("login")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
