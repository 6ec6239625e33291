package interchange

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(b)
	}
	return files
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "A_B_C_", SanitizeFilename("A/B:C?"))
	assert.Equal(t, "_________", SanitizeFilename(`\/:*?"<>|`))
	assert.Equal(t, "普通 标题", SanitizeFilename("普通 标题"))
	assert.Equal(t, "A_B_C_.md", MarkdownFilename(Article{Title: "A/B:C?"}))
}

func TestBuildArchive(t *testing.T) {
	articles := []Article{
		{ID: 1, Title: "A/B:C?", Content: "one", CreateTime: NewTimestamp(fixedNow)},
		{ID: 2, Title: "<b>second</b>", Content: "two", CreateTime: NewTimestamp(fixedNow)},
	}

	data, err := utcCodec.BuildArchive(articles)
	require.NoError(t, err)
	files := readArchive(t, data)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"articles.json", "data/A_B_C_.md", "data/_b_second__b_.md"}, names)

	assert.Equal(t, utcCodec.GenerateMarkdown(articles[0]), files["data/A_B_C_.md"])

	var manifest []Article
	require.NoError(t, json.Unmarshal([]byte(files["articles.json"]), &manifest))
	assert.Equal(t, articles, manifest)
	assert.Contains(t, files["articles.json"], "\n  {\n    \"id\": 1,")
	assert.Contains(t, files["articles.json"], "<b>second</b>")
}

func TestBuildArchiveDisambiguatesCollisions(t *testing.T) {
	articles := []Article{
		{ID: 7, Title: "same?"},
		{ID: 9, Title: "same*"},
		{Title: "same:"},
	}

	data, err := utcCodec.BuildArchive(articles)
	require.NoError(t, err)
	files := readArchive(t, data)

	assert.Contains(t, files, "data/same_.md")
	assert.Contains(t, files, "data/same__9.md")
	assert.Contains(t, files, "data/same__2.md")
	assert.Len(t, files, 4)
}

func TestBuildArchiveEmpty(t *testing.T) {
	data, err := utcCodec.BuildArchive(nil)
	require.NoError(t, err)
	files := readArchive(t, data)
	assert.Equal(t, "[]\n", files["articles.json"])
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "导出文章_1752321600000.zip", ArchiveName(fixedNow))
	assert.NotEqual(t, ArchiveName(fixedNow), ArchiveName(fixedNow.Add(time.Millisecond)))
}

func TestTemplates(t *testing.T) {
	md, err := TemplateFor("md", fixedNow)
	require.NoError(t, err)
	a, err := utcCodec.ParseMarkdown(string(md.Data), []Named{{ID: 3, Name: "示例标签1"}}, []Named{{ID: 4, Name: "示例分类"}})
	require.NoError(t, err)
	assert.Equal(t, "示例文章标题", a.Title)
	assert.Equal(t, []uint{3}, a.TagIDs)
	assert.Equal(t, []uint{4}, a.CateIDs)

	js, err := TemplateFor("json", fixedNow)
	require.NoError(t, err)
	articles, err := utcCodec.ParseJSON(js.Data)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, []uint{1}, articles[0].CateIDs)
	assert.Equal(t, []uint{2}, articles[0].TagIDs)

	_, err = TemplateFor("xml", fixedNow)
	assert.Error(t, err)
}
