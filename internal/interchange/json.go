package interchange

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type rawConfig struct {
	Status    *string `json:"status"`
	Password  *string `json:"password"`
	IsDraft   *int    `json:"isDraft"`
	IsEncrypt *int    `json:"isEncrypt"`
	IsDel     *int    `json:"isDel"`
}

type rawArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Cover       string     `json:"cover"`
	CreateTime  Timestamp  `json:"createTime"`
	CateIDs     *[]uint    `json:"cateIds"`
	TagIDs      *[]uint    `json:"tagIds"`
	CateList    []Ref      `json:"cateList"`
	TagList     []Ref      `json:"tagList"`
	Config      *rawConfig `json:"config"`
}

// ParseJSON 使用本地时区解析 JSON 文章
func ParseJSON(raw []byte) ([]Article, error) {
	return defaultCodec.ParseJSON(raw)
}

// ParseJSON 解析单个对象或对象数组
//
// 显式给出的 cateIds/tagIds 优先，否则取 cateList/tagList 中带 id 的条目；
// config 中缺失或取值无效的字段逐个补默认值，不影响同批其他文章。
func (c Codec) ParseJSON(raw []byte) ([]Article, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, &FormatError{Reason: "JSON 文件为空"}
	}

	var items []rawArticle
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &FormatError{Reason: "JSON 格式错误", Err: err}
		}
	} else {
		var item rawArticle
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &FormatError{Reason: "JSON 格式错误", Err: err}
		}
		items = []rawArticle{item}
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, c.normalize(item))
	}
	return articles, nil
}

func (c Codec) normalize(item rawArticle) Article {
	a := Article{
		Title:       strings.TrimSpace(item.Title),
		Description: item.Description,
		Content:     item.Content,
		Cover:       item.Cover,
		CreateTime:  c.normalizeTime(item.CreateTime),
		CateList:    item.CateList,
		TagList:     item.TagList,
		Config:      DefaultConfig(),
	}
	if a.Title == "" {
		a.Title = DefaultTitle
	}

	if item.CateIDs != nil {
		a.CateIDs = append([]uint{}, (*item.CateIDs)...)
	} else {
		a.CateIDs = refIDs(item.CateList)
	}
	if item.TagIDs != nil {
		a.TagIDs = append([]uint{}, (*item.TagIDs)...)
	} else {
		a.TagIDs = refIDs(item.TagList)
	}

	if cfg := item.Config; cfg != nil {
		if cfg.Status != nil && validate.Var(*cfg.Status, "oneof=default no_home hide") == nil {
			a.Config.Status = *cfg.Status
		}
		if cfg.Password != nil {
			a.Config.Password = *cfg.Password
		}
		a.Config.IsDraft = flag(cfg.IsDraft)
		a.Config.IsEncrypt = flag(cfg.IsEncrypt)
		a.Config.IsDel = flag(cfg.IsDel)
	}
	return a
}

// flag 非零即为 1
func flag(v *int) int {
	if v == nil || *v == 0 {
		return 0
	}
	return 1
}

// normalizeTime 毫秒时间戳原样保留，日期字符串按 Location 解析，其余情况取当前时间
func (c Codec) normalizeTime(ts Timestamp) Timestamp {
	if _, err := strconv.ParseInt(string(ts), 10, 64); err == nil {
		return ts
	}
	return c.parseDate(string(ts))
}

func refIDs(refs []Ref) []uint {
	ids := make([]uint, 0, len(refs))
	for _, r := range refs {
		if r.ID != nil {
			ids = append(ids, *r.ID)
		}
	}
	return ids
}
