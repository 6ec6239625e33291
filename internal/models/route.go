package models

// Route 后台页面
type Route struct {
	BaseModel
	Path        string `gorm:"uniqueIndex;size:100;not null" json:"path"` // 页面路径，如 "/article"
	Description string `gorm:"size:255" json:"description"`
}

// TableName 指定表名
func (Route) TableName() string {
	return "routes"
}
