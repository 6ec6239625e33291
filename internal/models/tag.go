package models

// Tag 文章标签
type Tag struct {
	BaseModel
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}
