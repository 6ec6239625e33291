package handlers

import (
	"errors"

	"thrivex/internal/middleware"
	"thrivex/internal/rbac"
	"thrivex/internal/services"
	"thrivex/pkg/logger"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Mark        string `json:"mark" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// BindingRequest 角色绑定页面与权限
type BindingRequest struct {
	RouteIDs      []uint `json:"route_ids"`
	PermissionIDs []uint `json:"permission_ids"`
}

type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{
		service: service,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Create(c.Request.Context(), req.Name, req.Mark, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrRoleName) || errors.Is(err, services.ErrRoleMarkExists) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Success(c, role)
}

// GetByID 获取角色
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	role, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, role)
}

// List 角色列表
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.service.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, roles)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		if errors.Is(err, services.ErrRoleName) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		if errors.Is(err, services.ErrBuiltinRole) || errors.Is(err, services.ErrRoleInUse) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "删除失败")
		return
	}

	response.Success(c, nil)
}

// ========== 页面与权限绑定 ==========

// GetBinding 角色绑定页面所需的全部状态
func (h *RoleHandler) GetBinding(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	binding, err := h.service.GetBinding(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		logger.ForBinding(id, 0).WithError(err).Error("加载角色绑定失败")
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, binding)
}

// Bind 保存角色的页面与权限
func (h *RoleHandler) Bind(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	var op services.Operator
	if session := middleware.GetSession(c); session != nil {
		op = session.Operator()
	}

	result, err := h.service.BindRoutesAndPermissions(c.Request.Context(), id, req.RouteIDs, req.PermissionIDs, op)
	if err != nil {
		var verr *rbac.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(c, verr.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "角色不存在")
		case errors.Is(err, rbac.ErrBusy):
			response.BadRequest(c, err.Error())
		default:
			logger.ForBinding(id, 0).WithError(err).Error("保存角色绑定失败")
			response.ServerError(c, "保存失败")
		}
		return
	}

	message := "绑定成功"
	if result.Relogin {
		message = "当前角色的权限已变更，请重新登录"
	}
	response.SuccessWithMessage(c, message, result)
}

// GetRoutes 角色已绑定的页面
func (h *RoleHandler) GetRoutes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	routes, err := h.service.GetRoutes(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, routes)
}

// GetPermissions 角色已绑定的权限
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permissions, err := h.service.GetPermissions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "角色不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, permissions)
}
