package handlers

import (
	"errors"

	"thrivex/internal/services"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Group       string `json:"group" binding:"required"`
}

type PermissionHandler struct {
	service *services.PermissionService
}

func NewPermissionHandler(service *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		service: service,
	}
}

// List 获取权限列表，支持按分组筛选
func (h *PermissionHandler) List(c *gin.Context) {
	permissions, err := h.service.List(c.Request.Context(), c.Query("group"))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, permissions)
}

// Create 新增权限
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	permission, err := h.service.Create(c.Request.Context(), req.Name, req.Description, req.Group)
	if err != nil {
		if errors.Is(err, services.ErrPermissionExists) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "创建失败")
		return
	}
	response.Success(c, permission)
}
