package models

import "gorm.io/datatypes"

// ImportLog 文章批量导入记录
type ImportLog struct {
	BaseModel
	BatchID    string         `gorm:"uniqueIndex;size:36;not null" json:"batch_id"`
	OperatorID uint           `gorm:"index" json:"operator_id"`
	Files      int            `json:"files"`
	Parsed     int            `json:"parsed"`   // 解析出的文章数
	Imported   int            `json:"imported"` // 确认保存成功的文章数
	Failed     int            `json:"failed"`   // 保存失败的文章数
	Invalid    int            `json:"invalid"`  // 无法解析的文件数
	Items      datatypes.JSON `gorm:"type:json" json:"items"`
}
