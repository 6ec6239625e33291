package middleware

import (
	"errors"
	"strings"

	"thrivex/internal/rbac"
	"thrivex/internal/services"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey = "session"
	contextKey = "permission_context"
)

// AuthMiddleware 权限中间件
type AuthMiddleware struct {
	auth *services.AuthService
}

func NewAuthMiddleware(auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireLogin 校验 Bearer 令牌，并把会话和权限快照放入上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		session, err := m.auth.Authenticate(c.Request.Context(), authHeader[7:])
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenRevoked), errors.Is(err, services.ErrUserDisabled):
				response.Unauthorized(c, err.Error())
			default:
				response.Unauthorized(c, "Token无效或已过期")
			}
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Set(contextKey, session.Context)
		c.Set("claims", session.Claims)
		c.Set("user_id", session.User.ID)
		c.Set("username", session.User.Username)

		c.Next()
	}
}

// RequirePermission 要求特定权限
func (m *AuthMiddleware) RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pc := GetPermissionContext(c)
		if pc == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !pc.Has(code) {
			response.Forbidden(c, "权限不足：需要 "+code+" 权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetSession 当前请求的会话，未登录时为 nil
func GetSession(c *gin.Context) *services.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*services.Session); ok {
			return s
		}
	}
	return nil
}

// GetPermissionContext 当前请求的权限快照
func GetPermissionContext(c *gin.Context) *rbac.PermissionContext {
	if v, ok := c.Get(contextKey); ok {
		if pc, ok := v.(*rbac.PermissionContext); ok {
			return pc
		}
	}
	return nil
}
