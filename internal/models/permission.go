package models

// Permission 权限模型（接口权限）
type Permission struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`             // 权限标识，如 "article:add"
	Description string `gorm:"size:255" json:"description"`                           // 权限描述，如 "新增文章"
	Group       string `gorm:"column:group_name;size:50;not null;index" json:"group"` // 所属分组，如 "article"
}

// TableName 指定表名
func (Permission) TableName() string {
	return "permissions"
}
