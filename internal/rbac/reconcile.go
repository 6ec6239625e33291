// Package rbac 角色的页面/权限绑定：权限分组、勾选状态与扁平ID列表之间的相互转换
package rbac

import (
	"encoding/json"
	"fmt"
)

// Permission 权限（接口权限），Name 为唯一标识，如 "article:add"
type Permission struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// Route 页面
type Route struct {
	ID          uint   `json:"id"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Group 同一分组下的权限，顺序与权限总表一致
type Group struct {
	Key         string       `json:"key"`
	Permissions []Permission `json:"permissions"`
}

// IDs 分组下全部权限ID
func (g Group) IDs() []uint {
	ids := make([]uint, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		ids = append(ids, p.ID)
	}
	return ids
}

// Groups 按首次出现顺序排列的分组
type Groups []Group

// GroupPermissions 将权限总表按 group 分组，同组内 name 重复的只保留第一条
func GroupPermissions(master []Permission) Groups {
	index := make(map[string]int)
	var groups Groups

	for _, p := range master {
		i, ok := index[p.Group]
		if !ok {
			i = len(groups)
			index[p.Group] = i
			groups = append(groups, Group{Key: p.Group})
		}

		duplicate := false
		for _, existing := range groups[i].Permissions {
			if existing.Name == p.Name {
				duplicate = true
				break
			}
		}
		if !duplicate {
			groups[i].Permissions = append(groups[i].Permissions, p)
		}
	}

	return groups
}

// Keys 分组键，保持顺序
func (gs Groups) Keys() []string {
	keys := make([]string, 0, len(gs))
	for _, g := range gs {
		keys = append(keys, g.Key)
	}
	return keys
}

// Find 按键查找分组
func (gs Groups) Find(key string) (Group, bool) {
	for _, g := range gs {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// GroupState 分组复选框状态
type GroupState struct {
	Selected      int  `json:"selected"`
	Total         int  `json:"total"`
	Checked       bool `json:"checked"`
	Indeterminate bool `json:"indeterminate"`
}

// Selection 分组勾选状态：group -> 已选权限ID
//
// 每个分组的数组只包含本组的权限，并按权限总表顺序排列；
// 扁平列表始终由 Flatten 推导，不单独保存。
type Selection struct {
	groups  Groups
	checked map[string][]uint
}

// Reconcile 根据角色已有的权限ID构建分组勾选状态，总表中的每个分组都会出现（可能为空）
func Reconcile(groups Groups, granted []uint) *Selection {
	grantedSet := make(map[uint]struct{}, len(granted))
	for _, id := range granted {
		grantedSet[id] = struct{}{}
	}

	s := &Selection{groups: groups, checked: make(map[string][]uint, len(groups))}
	for _, g := range groups {
		ids := make([]uint, 0)
		for _, p := range g.Permissions {
			if _, ok := grantedSet[p.ID]; ok {
				ids = append(ids, p.ID)
			}
		}
		s.checked[g.Key] = ids
	}
	return s
}

// Groups 返回分组定义
func (s *Selection) Groups() Groups {
	return s.groups
}

// Get 返回分组已选ID
func (s *Selection) Get(group string) []uint {
	return append([]uint(nil), s.checked[group]...)
}

// Toggle 全选或清空某个分组
func (s *Selection) Toggle(group string, checked bool) error {
	g, ok := s.groups.Find(group)
	if !ok {
		return fmt.Errorf("权限分组不存在: %s", group)
	}
	if checked {
		s.checked[group] = g.IDs()
	} else {
		s.checked[group] = make([]uint, 0)
	}
	return nil
}

// Set 整体替换某个分组的已选ID，不属于该分组的ID会被忽略
func (s *Selection) Set(group string, ids []uint) error {
	g, ok := s.groups.Find(group)
	if !ok {
		return fmt.Errorf("权限分组不存在: %s", group)
	}

	wanted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	selected := make([]uint, 0, len(ids))
	for _, p := range g.Permissions {
		if _, ok := wanted[p.ID]; ok {
			selected = append(selected, p.ID)
		}
	}
	s.checked[group] = selected
	return nil
}

// Flatten 按分组顺序拼接所有已选ID并去重
func (s *Selection) Flatten() []uint {
	seen := make(map[uint]struct{})
	flat := make([]uint, 0)
	for _, g := range s.groups {
		for _, id := range s.checked[g.Key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			flat = append(flat, id)
		}
	}
	return flat
}

// State 计算分组复选框的全选/半选状态
func (s *Selection) State(group string) GroupState {
	g, _ := s.groups.Find(group)
	st := GroupState{Selected: len(s.checked[group]), Total: len(g.Permissions)}
	st.Checked = st.Total > 0 && st.Selected == st.Total
	st.Indeterminate = st.Selected > 0 && st.Selected < st.Total
	return st
}

// States 所有分组的状态
func (s *Selection) States() map[string]GroupState {
	states := make(map[string]GroupState, len(s.groups))
	for _, g := range s.groups {
		states[g.Key] = s.State(g.Key)
	}
	return states
}

// Clone 深拷贝
func (s *Selection) Clone() *Selection {
	c := &Selection{groups: s.groups, checked: make(map[string][]uint, len(s.checked))}
	for k, v := range s.checked {
		c.checked[k] = append(make([]uint, 0, len(v)), v...)
	}
	return c
}

// MarshalJSON 序列化为 group -> ids
func (s *Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.checked)
}

// Validate 至少保留一个页面和一个权限，避免角色被锁在后台之外
func Validate(routeIDs, permissionIDs []uint) error {
	if len(routeIDs) == 0 {
		return &ValidationError{Field: "route_ids", Reason: "请至少选择一个页面"}
	}
	if len(permissionIDs) == 0 {
		return &ValidationError{Field: "permission_ids", Reason: "请至少选择一个权限"}
	}
	return nil
}

// ValidationError 绑定参数校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
