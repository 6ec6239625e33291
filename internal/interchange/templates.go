package interchange

import (
	"encoding/json"
	"fmt"
	"time"
)

const markdownTemplate = `---
title: 示例文章标题
description: 这里是文章描述
tags: 示例标签1 示例标签2
categories: 示例分类
cover: https://example.com/image.png
date: 2025-07-12 12:00:00
keywords: 示例标签1 示例标签2 示例分类
---

这里是 Markdown 正文内容，请开始创作吧~`

// Template 导入模板
type Template struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TemplateFor 按格式（md/json）生成导入模板
func TemplateFor(format string, at time.Time) (Template, error) {
	switch format {
	case "", "md", "markdown":
		return Template{
			Filename:    "文章模板.md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        []byte(markdownTemplate),
		}, nil
	case "json":
		cateID, tagID := uint(1), uint(2)
		sample := Article{
			Title:       "示例文章标题",
			Description: "文章描述",
			Content:     "# 正文内容",
			CreateTime:  NewTimestamp(at),
			CateList:    []Ref{{ID: &cateID, Name: "示例分类"}},
			TagList:     []Ref{{ID: &tagID, Name: "示例标签"}},
			Config:      DefaultConfig(),
		}
		data, err := json.MarshalIndent(sample, "", "  ")
		if err != nil {
			return Template{}, err
		}
		return Template{
			Filename:    "文章模板.json",
			ContentType: "application/json",
			Data:        data,
		}, nil
	default:
		return Template{}, fmt.Errorf("不支持的模板格式: %s", format)
	}
}
