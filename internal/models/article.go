package models

// Article 文章
type Article struct {
	BaseModel
	Title       string `gorm:"size:255;not null;index" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Content     string `gorm:"type:text" json:"content"`
	Cover       string `gorm:"size:255" json:"cover"`
	CreateTime  int64  `gorm:"index" json:"create_time"` // 毫秒时间戳
	View        int    `gorm:"default:0" json:"view"`
	Comment     int    `gorm:"default:0" json:"comment"`

	Cates  []Cate         `gorm:"many2many:article_cates;" json:"cates,omitempty"`
	Tags   []Tag          `gorm:"many2many:article_tags;" json:"tags,omitempty"`
	Config *ArticleConfig `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"config,omitempty"`
}

// ArticleConfig 文章配置
type ArticleConfig struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ArticleID uint   `gorm:"uniqueIndex;not null" json:"article_id"`
	Status    string `gorm:"size:20;default:'default'" json:"status"` // default, no_home, hide
	Password  string `gorm:"size:100" json:"password"`
	IsDraft   int    `gorm:"default:0" json:"is_draft"`
	IsEncrypt int    `gorm:"default:0" json:"is_encrypt"`
	IsDel     int    `gorm:"default:0;index" json:"is_del"`
}

// 文章状态
const (
	ArticleStatusDefault = "default"
	ArticleStatusNoHome  = "no_home"
	ArticleStatusHide    = "hide"
)
