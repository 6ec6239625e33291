package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	archiveFolder   = "data"
	archiveManifest = "articles.json"
)

var unsafeFilenameChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename 替换文件名中的 \/:*?"<>|
func SanitizeFilename(title string) string {
	return unsafeFilenameChars.Replace(title)
}

// MarkdownFilename 单篇导出的文件名
func MarkdownFilename(a Article) string {
	return SanitizeFilename(a.Title) + ".md"
}

// ArchiveName 批量导出的压缩包名称
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("导出文章_%d.zip", t.UnixMilli())
}

// BuildArchive 使用本地时区打包
func BuildArchive(articles []Article) ([]byte, error) {
	return defaultCodec.BuildArchive(articles)
}

// BuildArchive 打包为 zip 并返回字节
func (c Codec) BuildArchive(articles []Article) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteArchive(&buf, articles); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteArchive 写出 zip：data/ 下每篇文章一个 .md，根目录 articles.json 为原始数组
//
// 标题清洗后重名的文章依次以 ID（或序号）作后缀区分，不会相互覆盖。
func (c Codec) WriteArchive(w io.Writer, articles []Article) error {
	zw := zip.NewWriter(w)
	modified := c.now()

	used := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		name := uniqueName(used, SanitizeFilename(a.Title), a.ID)
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(archiveFolder, name),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fw, c.GenerateMarkdown(a)); err != nil {
			return err
		}
	}

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     archiveManifest,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(fw)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if articles == nil {
		articles = []Article{}
	}
	if err := enc.Encode(articles); err != nil {
		return err
	}

	return zw.Close()
}

func uniqueName(used map[string]struct{}, base string, id uint) string {
	candidates := []string{base + ".md"}
	if id != 0 {
		candidates = append(candidates, fmt.Sprintf("%s_%d.md", base, id))
	}
	for _, name := range candidates {
		if _, ok := used[name]; !ok {
			used[name] = struct{}{}
			return name
		}
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s_%d.md", base, n)
		if _, ok := used[name]; !ok {
			used[name] = struct{}{}
			return name
		}
	}
}
