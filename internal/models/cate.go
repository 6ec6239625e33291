package models

// Cate 分类（type 为 nav 的是导航，不参与文章分类）
type Cate struct {
	BaseModel
	Name  string `gorm:"size:50;not null;index" json:"name"`
	Mark  string `gorm:"size:50" json:"mark"`
	URL   string `gorm:"size:255" json:"url"`
	Icon  string `gorm:"size:50" json:"icon"`
	Level uint   `gorm:"default:0" json:"level"` // 父级分类ID，0 为顶级
	Order int    `gorm:"column:sort;default:0" json:"order"`
	Type  string `gorm:"size:10;default:'cate';index" json:"type"`
}

// 分类类型
const (
	CateTypeCate = "cate"
	CateTypeNav  = "nav"
)

// TableName 指定表名
func (Cate) TableName() string {
	return "cates"
}
