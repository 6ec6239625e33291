package interchange

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrNoArticles 所有文件都未能解析出文章
var ErrNoArticles = errors.New("解析失败，未提取出有效文章数据")

// File 待导入文件
type File struct {
	Name string
	Data []byte
}

// Submitter 保存单篇文章
type Submitter interface {
	Submit(ctx context.Context, a Article) error
}

// SubmitterFunc 函数适配
type SubmitterFunc func(ctx context.Context, a Article) error

func (f SubmitterFunc) Submit(ctx context.Context, a Article) error {
	return f(ctx, a)
}

// ItemStatus 单项结果
type ItemStatus string

const (
	ItemImported ItemStatus = "imported"
	ItemFailed   ItemStatus = "failed"
	ItemInvalid  ItemStatus = "invalid"
)

// Item 单个文件或单篇文章的导入结果
type Item struct {
	File   string     `json:"file"`
	Title  string     `json:"title,omitempty"`
	Status ItemStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Progress 导入进度
type Progress struct {
	Done  int  `json:"done"`
	Total int  `json:"total"`
	Item  Item `json:"item"`
}

// Report 批量导入结果
//
// Parsed 为解析出的文章数，Imported 为确认保存成功的文章数，
// Failed 为保存失败的文章数，Invalid 为无法解析的文件数。
type Report struct {
	Parsed   int    `json:"parsed"`
	Imported int    `json:"imported"`
	Failed   int    `json:"failed"`
	Invalid  int    `json:"invalid"`
	Items    []Item `json:"items"`
}

// Importer 批量导入：按扩展名解析，逐篇顺序提交，单篇失败不影响其余文章
type Importer struct {
	Codec      Codec
	Tags       []Named
	Cates      []Named
	Submitter  Submitter
	OnProgress func(Progress)
}

type parsed struct {
	file    string
	article Article
}

// Parse 解析单个文件
func (im *Importer) Parse(f File) ([]Article, error) {
	var (
		articles []Article
		err      error
	)
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".md":
		var a Article
		a, err = im.Codec.ParseMarkdown(string(f.Data), im.Tags, im.Cates)
		articles = []Article{a}
	case ".json":
		articles, err = im.Codec.ParseJSON(f.Data)
	default:
		err = &FormatError{Reason: "仅支持 .md 或 .json 文件"}
	}
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) && fe.File == "" {
			fe.File = f.Name
		}
		return nil, err
	}
	return articles, nil
}

// Import 先解析全部文件，再逐篇提交
//
// 没有任何文章被解析出来时返回 ErrNoArticles，此时不会调用 Submitter。
func (im *Importer) Import(ctx context.Context, files []File) (*Report, error) {
	report := &Report{Items: make([]Item, 0, len(files))}

	var queue []parsed
	var invalid []Item
	for _, f := range files {
		articles, err := im.Parse(f)
		if err != nil {
			invalid = append(invalid, Item{File: f.Name, Status: ItemInvalid, Error: err.Error()})
			continue
		}
		for _, a := range articles {
			queue = append(queue, parsed{file: f.Name, article: a})
		}
	}

	report.Parsed = len(queue)
	report.Invalid = len(invalid)
	total := len(invalid) + len(queue)

	for _, it := range invalid {
		im.record(report, it, total)
	}
	if len(queue) == 0 {
		return report, ErrNoArticles
	}

	for _, p := range queue {
		it := Item{File: p.file, Title: p.article.Title, Status: ItemImported}
		if err := im.Submitter.Submit(ctx, p.article); err != nil {
			it.Status = ItemFailed
			it.Error = err.Error()
			report.Failed++
		} else {
			report.Imported++
		}
		im.record(report, it, total)
	}
	return report, nil
}

func (im *Importer) record(report *Report, it Item, total int) {
	report.Items = append(report.Items, it)
	if im.OnProgress != nil {
		im.OnProgress(Progress{Done: len(report.Items), Total: total, Item: it})
	}
}
