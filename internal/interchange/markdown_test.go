package interchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 7, 12, 12, 0, 0, 0, time.UTC)
	utcCodec = Codec{Location: time.UTC, Now: func() time.Time { return fixedNow }}

	masterTags  = []Named{{ID: 82, Name: "模块"}, {ID: 87, Name: "爬虫"}, {ID: 90, Name: "Go"}}
	masterCates = []Named{{ID: 1, Name: "后端"}, {ID: 2, Name: "Frontend"}}
)

func uintPtr(v uint) *uint { return &v }

func TestParseMarkdown(t *testing.T) {
	text := "---\n" +
		"title: Hello: World\n" +
		"tags: 模块 go unknown\n" +
		"categories: frontend\n" +
		"cover: https://example.com/a.png\n" +
		"date: 2024-05-01 08:30:00\n" +
		"description: 一篇文章\n" +
		"---\n\n  正文内容\n\n"

	a, err := utcCodec.ParseMarkdown(text, masterTags, masterCates)
	require.NoError(t, err)

	assert.Equal(t, "Hello: World", a.Title, "only the first colon separates key and value")
	assert.Equal(t, "正文内容", a.Content)
	assert.Equal(t, "https://example.com/a.png", a.Cover)
	assert.Equal(t, "一篇文章", a.Description)
	assert.Equal(t, []uint{82, 90}, a.TagIDs)
	assert.Equal(t, []uint{2}, a.CateIDs)
	assert.Equal(t, NewTimestamp(time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)), a.CreateTime)
	assert.Equal(t, Config{Status: "default"}, a.Config)
}

func TestParseMarkdownDefaults(t *testing.T) {
	a, err := utcCodec.ParseMarkdown("---\ndate: not a date\n---\nbody", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, a.Title)
	assert.Equal(t, NewTimestamp(fixedNow), a.CreateTime)
	assert.Empty(t, a.TagIDs)
	assert.Empty(t, a.CateIDs)
	assert.Equal(t, "body", a.Content)
}

func TestParseMarkdownIgnoresSourceConfig(t *testing.T) {
	a, err := utcCodec.ParseMarkdown("---\ntitle: x\nstatus: hide\npassword: 123\n---\n", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), a.Config)
}

func TestParseMarkdownMissingFrontmatter(t *testing.T) {
	for _, text := range []string{
		"# 没有 frontmatter",
		"\n---\ntitle: x\n---\n",
		"---\ntitle: never closed\n",
	} {
		_, err := utcCodec.ParseMarkdown(text, nil, nil)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe, text)
	}
}

func TestParseMarkdownCRLF(t *testing.T) {
	a, err := utcCodec.ParseMarkdown("---\r\ntitle: windows\r\n---\r\nbody\r\n", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "windows", a.Title)
	assert.Equal(t, "body", a.Content)
}

func TestGenerateMarkdown(t *testing.T) {
	a := Article{
		Title:       "标题",
		Description: "描述",
		Content:     "\n  正文\n",
		Cover:       "c.png",
		CreateTime:  NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		TagList:     []Ref{{ID: uintPtr(82), Name: "模块"}, {ID: uintPtr(87), Name: "爬虫"}},
		CateList:    []Ref{{ID: uintPtr(1), Name: "后端"}},
	}

	want := "---\n" +
		"title: 标题\n" +
		"tags: 模块 爬虫\n" +
		"categories: 后端\n" +
		"cover: c.png\n" +
		"date: 2024-01-02 03:04:05\n" +
		"keywords: 模块 爬虫 后端\n" +
		"description: 描述\n" +
		"---\n\n" +
		"正文"
	assert.Equal(t, want, utcCodec.GenerateMarkdown(a))
}

func TestMarkdownRoundTrip(t *testing.T) {
	cases := []Article{
		{
			Title:       "Round trip",
			Description: "desc with: colon",
			Content:     "# Heading\n\n---\n\nsome text",
			Cover:       "https://example.com/x.png",
			CreateTime:  NewTimestamp(time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)),
			TagList:     []Ref{{ID: uintPtr(90), Name: "Go"}, {ID: uintPtr(87), Name: "爬虫"}},
			CateList:    []Ref{{ID: uintPtr(1), Name: "后端"}, {ID: uintPtr(2), Name: "Frontend"}},
		},
		{
			Title:   "no tags",
			Content: "x",
		},
	}

	for _, a := range cases {
		t.Run(a.Title, func(t *testing.T) {
			back, err := utcCodec.ParseMarkdown(utcCodec.GenerateMarkdown(a), masterTags, masterCates)
			require.NoError(t, err)

			assert.Equal(t, a.Title, back.Title)
			assert.Equal(t, a.Content, back.Content)
			assert.Equal(t, a.Description, back.Description)
			assert.Equal(t, a.Cover, back.Cover)
			assert.ElementsMatch(t, refIDs(a.TagList), back.TagIDs)
			assert.ElementsMatch(t, refIDs(a.CateList), back.CateIDs)
			if a.CreateTime != "" {
				assert.Equal(t, a.CreateTime, back.CreateTime)
			}
		})
	}
}

func TestNameTable(t *testing.T) {
	table := NewNameTable([]Named{{ID: 1, Name: "GoLang"}, {ID: 2, Name: "Rust"}})

	assert.Equal(t, []uint{1}, table.Resolve([]string{"golang", "GOLANG"}))
	assert.Equal(t, []uint{2, 1}, table.Resolve([]string{"missing", "rust", "GoLang"}))
	assert.Empty(t, table.Resolve(nil))
	assert.NotPanics(t, func() { NameTable(nil).Resolve([]string{"x"}) })
}
