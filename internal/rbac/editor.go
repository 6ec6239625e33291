package rbac

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrBusy 正在提交中
	ErrBusy = errors.New("正在保存，请稍候")
	// ErrNotEditing 没有打开的绑定会话
	ErrNotEditing = errors.New("未加载角色绑定信息")
)

// Role 角色
type Role struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Mark        string `json:"mark"`
	Description string `json:"description"`
}

// BindingSource 加载绑定会话所需的数据
type BindingSource interface {
	Routes(ctx context.Context) ([]Route, error)
	Permissions(ctx context.Context) ([]Permission, error)
	RoleRouteIDs(ctx context.Context, roleID uint) ([]uint, error)
	RolePermissionIDs(ctx context.Context, roleID uint) ([]uint, error)
}

// BindingStore 一次调用同时保存页面与权限
type BindingStore interface {
	Bind(ctx context.Context, roleID uint, routeIDs, permissionIDs []uint) error
}

// State 绑定会话状态：Idle | Editing | Submitting | Failed
type State interface {
	Name() string
}

// Idle 无会话
type Idle struct{}

// Editing 编辑中
type Editing struct {
	Role      Role
	Routes    []Route
	RouteIDs  []uint
	Selection *Selection
}

// Submitting 提交中，不接受任何修改
type Submitting struct {
	Editing Editing
}

// Failed 提交失败，保留之前的选择以便重试
type Failed struct {
	Reason  error
	Editing Editing
}

func (Idle) Name() string       { return "idle" }
func (Editing) Name() string    { return "editing" }
func (Submitting) Name() string { return "submitting" }
func (Failed) Name() string     { return "failed" }

// snapshot 拷贝一份会话，调用方修改不会影响编辑器内部状态
func (e Editing) snapshot() Editing {
	e.RouteIDs = append(make([]uint, 0, len(e.RouteIDs)), e.RouteIDs...)
	if e.Selection != nil {
		e.Selection = e.Selection.Clone()
	}
	return e
}

// PermissionIDs 由分组勾选推导出的扁平权限ID
func (e Editing) PermissionIDs() []uint {
	return e.Selection.Flatten()
}

// SubmitResult 提交结果
type SubmitResult struct {
	RoleID  uint `json:"roleId"`
	Relogin bool `json:"relogin"` // 修改的是当前登录角色，需要重新登录
}

// Editor 角色绑定会话
type Editor struct {
	mu     sync.Mutex
	source BindingSource
	store  BindingStore
	state  State
}

// NewEditor 创建绑定会话
func NewEditor(source BindingSource, store BindingStore) *Editor {
	return &Editor{source: source, store: store, state: Idle{}}
}

// State 当前状态的快照
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch st := e.state.(type) {
	case Editing:
		return st.snapshot()
	case Submitting:
		return Submitting{Editing: st.Editing.snapshot()}
	case Failed:
		return Failed{Reason: st.Reason, Editing: st.Editing.snapshot()}
	default:
		return st
	}
}

// Load 打开会话：拉取页面与权限总表、角色已有的页面和权限，构建分组勾选状态
func (e *Editor) Load(ctx context.Context, role Role) (Editing, error) {
	e.mu.Lock()
	if _, busy := e.state.(Submitting); busy {
		e.mu.Unlock()
		return Editing{}, ErrBusy
	}
	e.mu.Unlock()

	routes, err := e.source.Routes(ctx)
	if err != nil {
		return Editing{}, err
	}
	permissions, err := e.source.Permissions(ctx)
	if err != nil {
		return Editing{}, err
	}
	routeIDs, err := e.source.RoleRouteIDs(ctx, role.ID)
	if err != nil {
		return Editing{}, err
	}
	granted, err := e.source.RolePermissionIDs(ctx, role.ID)
	if err != nil {
		return Editing{}, err
	}

	editing := Editing{
		Role:      role,
		Routes:    routes,
		RouteIDs:  append(make([]uint, 0, len(routeIDs)), routeIDs...),
		Selection: Reconcile(GroupPermissions(permissions), granted),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.state.(Submitting); busy {
		return Editing{}, ErrBusy
	}
	e.state = editing
	return editing.snapshot(), nil
}

// editing 返回可修改的会话，Failed 状态回到 Editing
func (e *Editor) editing() (Editing, error) {
	switch st := e.state.(type) {
	case Editing:
		return st, nil
	case Failed:
		e.state = st.Editing
		return st.Editing, nil
	case Submitting:
		return Editing{}, ErrBusy
	default:
		return Editing{}, ErrNotEditing
	}
}

// ToggleGroup 全选/取消全选某个分组
func (e *Editor) ToggleGroup(group string, checked bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ed, err := e.editing()
	if err != nil {
		return err
	}
	return ed.Selection.Toggle(group, checked)
}

// SetGroup 替换某个分组的勾选
func (e *Editor) SetGroup(group string, ids []uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ed, err := e.editing()
	if err != nil {
		return err
	}
	return ed.Selection.Set(group, ids)
}

// SetRoutes 替换页面选择
func (e *Editor) SetRoutes(ids []uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ed, err := e.editing()
	if err != nil {
		return err
	}
	ed.RouteIDs = append(make([]uint, 0, len(ids)), ids...)
	e.state = ed
	return nil
}

// Submit 校验并保存；operator 为当前操作者，修改其自身角色时要求重新登录
func (e *Editor) Submit(ctx context.Context, operator *PermissionContext) (SubmitResult, error) {
	e.mu.Lock()
	ed, err := e.editing()
	if err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}

	permissionIDs := ed.PermissionIDs()
	if err := Validate(ed.RouteIDs, permissionIDs); err != nil {
		e.state = Failed{Reason: err, Editing: ed}
		e.mu.Unlock()
		return SubmitResult{}, err
	}

	e.state = Submitting{Editing: ed}
	e.mu.Unlock()

	err = e.store.Bind(ctx, ed.Role.ID, ed.RouteIDs, permissionIDs)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = Failed{Reason: err, Editing: ed}
		return SubmitResult{}, err
	}

	e.state = Idle{}
	return SubmitResult{
		RoleID:  ed.Role.ID,
		Relogin: operator != nil && operator.RoleID == ed.Role.ID,
	}, nil
}

// Close 关闭会话并丢弃状态
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.state.(Submitting); busy {
		return ErrBusy
	}
	e.state = Idle{}
	return nil
}
