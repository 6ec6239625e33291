// Package interchange 文章导入导出：Markdown（frontmatter）与 JSON 两种交换格式、zip 打包以及批量导入
package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTitle 缺少标题时使用
	DefaultTitle = "未命名文章"

	StatusDefault = "default"
	StatusNoHome  = "no_home"
	StatusHide    = "hide"
)

// Named 标签或分类（仅用于名称解析）
type Named struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Ref 文章上携带的标签/分类，ID 可能缺失
type Ref struct {
	ID   *uint  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Config 文章配置
type Config struct {
	Status    string `json:"status" validate:"oneof=default no_home hide"`
	Password  string `json:"password"`
	IsDraft   int    `json:"isDraft" validate:"oneof=0 1"`
	IsEncrypt int    `json:"isEncrypt" validate:"oneof=0 1"`
	IsDel     int    `json:"isDel" validate:"oneof=0 1"`
}

// DefaultConfig 导入的文章一律为公开、未加密、非草稿
func DefaultConfig() Config {
	return Config{Status: StatusDefault}
}

// Article 交换格式中的文章记录
type Article struct {
	ID          uint      `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Cover       string    `json:"cover"`
	CreateTime  Timestamp `json:"createTime"`
	CateIDs     []uint    `json:"cateIds"`
	TagIDs      []uint    `json:"tagIds"`
	CateList    []Ref     `json:"cateList,omitempty"`
	TagList     []Ref     `json:"tagList,omitempty"`
	Config      Config    `json:"config"`
}

// Timestamp 毫秒时间戳字符串，JSON 中既接受数字也接受字符串
type Timestamp string

// NewTimestamp 由时间生成
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(strconv.FormatInt(t.UnixMilli(), 10))
}

// Time 转换为时间，无法解析时 ok 为 false
func (ts Timestamp) Time() (t time.Time, ok bool) {
	ms, err := strconv.ParseInt(string(ts), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ts = Timestamp(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("createTime 格式错误: %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*ts = Timestamp(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("createTime 格式错误: %s", data)
	}
	*ts = Timestamp(strconv.FormatInt(int64(f), 10))
	return nil
}

// FormatError 导入文件格式错误，只影响当前文件
type FormatError struct {
	File   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Validate 校验配置取值
func (c Config) Validate() error {
	return validate.Struct(c)
}
