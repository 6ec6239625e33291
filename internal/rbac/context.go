package rbac

import (
	"encoding/json"
	"sort"
)

// PermissionContext 当前操作者的权限快照
//
// 登录后生成，随请求显式传递；角色绑定变化后由服务端使缓存失效并重新加载。
type PermissionContext struct {
	UserID      uint     `json:"userId"`
	RoleID      uint     `json:"roleId"`
	Permissions []string `json:"permissions"`
	Routes      []string `json:"routes"`

	codes map[string]struct{}
	paths map[string]struct{}
}

// NewPermissionContext 根据角色的权限和页面构建快照
func NewPermissionContext(userID, roleID uint, permissions []Permission, routes []Route) *PermissionContext {
	pc := &PermissionContext{
		UserID:      userID,
		RoleID:      roleID,
		Permissions: make([]string, 0, len(permissions)),
		Routes:      make([]string, 0, len(routes)),
	}
	for _, p := range permissions {
		pc.Permissions = append(pc.Permissions, p.Name)
	}
	for _, r := range routes {
		pc.Routes = append(pc.Routes, r.Path)
	}
	sort.Strings(pc.Permissions)
	sort.Strings(pc.Routes)
	pc.index()
	return pc
}

func (p *PermissionContext) index() {
	p.codes = make(map[string]struct{}, len(p.Permissions))
	for _, c := range p.Permissions {
		p.codes[c] = struct{}{}
	}
	p.paths = make(map[string]struct{}, len(p.Routes))
	for _, r := range p.Routes {
		p.paths[r] = struct{}{}
	}
}

// Has 是否拥有权限
func (p *PermissionContext) Has(code string) bool {
	if p == nil {
		return false
	}
	_, ok := p.codes[code]
	return ok
}

// HasRoute 是否可以访问页面
func (p *PermissionContext) HasRoute(path string) bool {
	if p == nil {
		return false
	}
	_, ok := p.paths[path]
	return ok
}

// UnmarshalJSON 反序列化后重建索引
func (p *PermissionContext) UnmarshalJSON(data []byte) error {
	type alias PermissionContext
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PermissionContext(a)
	p.index()
	return nil
}
