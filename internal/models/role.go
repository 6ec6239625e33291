package models

// Role 角色模型
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`             // 角色名称，如 "超级管理员"
	Mark        string `gorm:"uniqueIndex;size:100;not null" json:"mark"` // 角色标识，如 "admin"
	Description string `gorm:"size:255" json:"description"`

	// 关联关系
	Routes      []Route      `gorm:"many2many:role_routes;" json:"routes,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// 系统预定义角色
const (
	RoleMarkAdmin  = "admin"
	RoleMarkAuthor = "author"
)
