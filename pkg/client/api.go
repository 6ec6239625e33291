package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"thrivex/internal/interchange"
	"thrivex/internal/models"
	"thrivex/internal/rbac"
)

// LoginResult 登录返回
type LoginResult struct {
	Token       string                  `json:"token"`
	ExpiresAt   int64                   `json:"expires_at"`
	Permissions *rbac.PermissionContext `json:"permissions"`
}

// Login 登录并保存令牌
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"username": username, "password": password}
	if _, err := c.Do(ctx, http.MethodPost, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// Me 当前用户的权限快照
func (c *Client) Me(ctx context.Context) (*rbac.PermissionContext, error) {
	var out struct {
		Permissions *rbac.PermissionContext `json:"permissions"`
	}
	if _, err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.Permissions, nil
}

// ========== 导入导出 ==========

// Tags 标签表，用于名称解析
func (c *Client) Tags(ctx context.Context) ([]interchange.Named, error) {
	var tags []interchange.Named
	_, err := c.Do(ctx, http.MethodGet, "/tags", nil, &tags)
	return tags, err
}

// Cates 文章分类表，不包含导航
func (c *Client) Cates(ctx context.Context) ([]interchange.Named, error) {
	var cates []interchange.Named
	_, err := c.Do(ctx, http.MethodGet, "/cates?type="+models.CateTypeCate, nil, &cates)
	return cates, err
}

// Submit 保存一篇文章，实现 interchange.Submitter
func (c *Client) Submit(ctx context.Context, a interchange.Article) error {
	_, err := c.Do(ctx, http.MethodPost, "/articles", a, nil)
	return err
}

// Article 文章详情
func (c *Client) Article(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if _, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/articles/%d", id), nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// Articles 逐页拉取全部未删除文章
func (c *Client) Articles(ctx context.Context) ([]models.Article, error) {
	const pageSize = 100
	var all []models.Article
	for page := 1; ; page++ {
		var batch []models.Article
		path := "/articles?page=" + strconv.Itoa(page) + "&page_size=" + strconv.Itoa(pageSize)
		if _, err := c.Do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// ExportArchive 由后端生成 zip
func (c *Client) ExportArchive(ctx context.Context, ids []uint) ([]byte, error) {
	if ids == nil {
		ids = []uint{}
	}
	return c.Download(ctx, http.MethodPost, "/articles/export", map[string][]uint{"ids": ids})
}

// ========== 角色绑定 ==========

// Role 角色详情
func (c *Client) Role(ctx context.Context, id uint) (rbac.Role, error) {
	var role rbac.Role
	_, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/roles/%d", id), nil, &role)
	return role, err
}

// Routes 页面总表
func (c *Client) Routes(ctx context.Context) ([]rbac.Route, error) {
	var routes []rbac.Route
	_, err := c.Do(ctx, http.MethodGet, "/routes", nil, &routes)
	return routes, err
}

// Permissions 权限总表
func (c *Client) Permissions(ctx context.Context) ([]rbac.Permission, error) {
	var permissions []rbac.Permission
	_, err := c.Do(ctx, http.MethodGet, "/permissions", nil, &permissions)
	return permissions, err
}

// RoleRouteIDs 角色已绑定的页面ID
func (c *Client) RoleRouteIDs(ctx context.Context, roleID uint) ([]uint, error) {
	var routes []rbac.Route
	if _, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/roles/%d/routes", roleID), nil, &routes); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// RolePermissionIDs 角色已绑定的权限ID
func (c *Client) RolePermissionIDs(ctx context.Context, roleID uint) ([]uint, error) {
	var permissions []rbac.Permission
	if _, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/roles/%d/permissions", roleID), nil, &permissions); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(permissions))
	for _, p := range permissions {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// Bind 同时保存页面与权限，实现 rbac.BindingStore
func (c *Client) Bind(ctx context.Context, roleID uint, routeIDs, permissionIDs []uint) error {
	body := map[string][]uint{"route_ids": routeIDs, "permission_ids": permissionIDs}
	_, err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("/roles/%d/binding", roleID), body, nil)
	return err
}
