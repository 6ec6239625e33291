package interchange

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

const (
	frontmatterDelim = "---"
	dateLayout       = "2006-01-02 15:04:05"
)

// Codec 文章编解码，时间按 Location 解析和格式化
type Codec struct {
	Location *time.Location
	Now      func() time.Time
}

var defaultCodec = Codec{}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// ParseMarkdown 使用本地时区解析 Markdown 文章
func ParseMarkdown(text string, tags, cates []Named) (Article, error) {
	return defaultCodec.ParseMarkdown(text, tags, cates)
}

// GenerateMarkdown 使用本地时区生成 Markdown 文章
func GenerateMarkdown(a Article) string {
	return defaultCodec.GenerateMarkdown(a)
}

// splitFrontmatter 拆出文档开头 ---\n ... \n--- 之间的内容
func splitFrontmatter(text string) (meta string, body string, ok bool) {
	opener := frontmatterDelim + "\n"
	if !strings.HasPrefix(text, opener) {
		return "", "", false
	}
	rest := text[len(opener):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return "", "", false
	}
	return rest[:end], rest[end+len("\n"+frontmatterDelim):], true
}

// parseMeta 按第一个冒号拆分 key: value
func parseMeta(block string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, _ := strings.Cut(line, ":")
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}

// ParseMarkdown 将带 frontmatter 的 Markdown 解析为文章
//
// tags/categories 为空白分隔的名称列表，按名称（忽略大小写）解析成 ID，找不到的丢弃；
// date 无法解析时使用当前时间。
func (c Codec) ParseMarkdown(text string, tags, cates []Named) (Article, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	block, body, ok := splitFrontmatter(text)
	if !ok {
		return Article{}, &FormatError{Reason: "Markdown 文件格式错误，缺少 frontmatter"}
	}
	meta := parseMeta(block)

	title := meta["title"]
	if title == "" {
		title = DefaultTitle
	}

	return Article{
		Title:       title,
		Description: meta["description"],
		Content:     strings.TrimSpace(body),
		Cover:       meta["cover"],
		CreateTime:  c.parseDate(meta["date"]),
		CateIDs:     NewNameTable(cates).Resolve(strings.Fields(meta["categories"])),
		TagIDs:      NewNameTable(tags).Resolve(strings.Fields(meta["tags"])),
		Config:      DefaultConfig(),
	}, nil
}

func (c Codec) parseDate(s string) Timestamp {
	current := c.now()
	if s == "" {
		return NewTimestamp(current)
	}
	cfg := &now.Config{TimeLocation: c.location()}
	t, err := cfg.With(current.In(c.location())).Parse(s)
	if err != nil {
		return NewTimestamp(current)
	}
	return NewTimestamp(t)
}

func (c Codec) formatDate(ts Timestamp) string {
	t, ok := ts.Time()
	if !ok {
		t = c.now()
	}
	return t.In(c.location()).Format(dateLayout)
}

func refNames(refs []Ref) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

// oneLine frontmatter 的值不能跨行
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GenerateMarkdown 将文章导出为 Markdown，标签和分类名称取自 TagList/CateList
func (c Codec) GenerateMarkdown(a Article) string {
	tags := refNames(a.TagList)
	cates := refNames(a.CateList)
	keywords := append(append([]string{}, tags...), cates...)

	var b strings.Builder
	b.WriteString(frontmatterDelim + "\n")
	b.WriteString("title: " + oneLine(a.Title) + "\n")
	b.WriteString("tags: " + strings.Join(tags, " ") + "\n")
	b.WriteString("categories: " + strings.Join(cates, " ") + "\n")
	b.WriteString("cover: " + oneLine(a.Cover) + "\n")
	b.WriteString("date: " + c.formatDate(a.CreateTime) + "\n")
	b.WriteString("keywords: " + strings.Join(keywords, " ") + "\n")
	b.WriteString("description: " + oneLine(a.Description) + "\n")
	b.WriteString(frontmatterDelim + "\n\n")
	b.WriteString(strings.TrimSpace(a.Content))
	return b.String()
}
