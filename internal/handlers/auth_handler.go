package handlers

import (
	"errors"

	"thrivex/internal/middleware"
	"thrivex/internal/services"
	"thrivex/pkg/logger"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserDisabled) {
			response.Unauthorized(c, err.Error())
			return
		}
		logger.GetLogger().WithError(err).Error("登录失败")
		response.ServerError(c, "登录失败")
		return
	}

	response.Success(c, result)
}

// Logout 用户登出，吊销当前令牌
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.SuccessWithMessage(c, "登出成功", nil)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), session.Claims); err != nil {
		logger.GetLogger().WithError(err).Error("吊销令牌失败")
		response.ServerError(c, "登出失败")
		return
	}
	response.SuccessWithMessage(c, "登出成功", nil)
}

// Me 当前用户及其权限快照
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Unauthorized(c, "请先登录")
		return
	}
	response.Success(c, gin.H{
		"user":        session.User,
		"permissions": session.Context,
	})
}

// Access 检查当前用户能否访问某个页面
func (h *AuthHandler) Access(c *gin.Context) {
	pc := middleware.GetPermissionContext(c)
	if pc == nil {
		response.Unauthorized(c, "请先登录")
		return
	}
	path := c.Query("path")
	if path == "" {
		response.BadRequest(c, "缺少页面路径")
		return
	}
	response.Success(c, gin.H{
		"path":    path,
		"allowed": pc.HasRoute(path),
	})
}
