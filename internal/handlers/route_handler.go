package handlers

import (
	"errors"

	"thrivex/internal/services"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreateRouteRequest struct {
	Path        string `json:"path" binding:"required"`
	Description string `json:"description"`
}

type RouteHandler struct {
	service *services.RouteService
}

func NewRouteHandler(service *services.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// List 页面列表
func (h *RouteHandler) List(c *gin.Context) {
	routes, err := h.service.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, routes)
}

// Create 新增页面
func (h *RouteHandler) Create(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	route, err := h.service.Create(c.Request.Context(), req.Path, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrRouteExists) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "创建失败")
		return
	}
	response.Success(c, route)
}
