package interchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	titles []string
	fail   map[string]bool
}

func (r *recordingSubmitter) Submit(_ context.Context, a Article) error {
	r.titles = append(r.titles, a.Title)
	if r.fail[a.Title] {
		return errors.New("保存失败")
	}
	return nil
}

func md(title string) []byte {
	return []byte("---\ntitle: " + title + "\ntags: go\n---\n\n" + title + " body")
}

func TestImportPartialFailure(t *testing.T) {
	sub := &recordingSubmitter{}
	var progress []Progress
	im := &Importer{
		Codec:      utcCodec,
		Tags:       masterTags,
		Submitter:  sub,
		OnProgress: func(p Progress) { progress = append(progress, p) },
	}

	report, err := im.Import(context.Background(), []File{
		{Name: "a.md", Data: md("a")},
		{Name: "b.md", Data: md("b")},
		{Name: "c.md", Data: []byte("title: c\n\nno delimiter")},
		{Name: "d.md", Data: md("d")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "d"}, sub.titles)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, report.Items, 4)
	assert.Equal(t, Item{File: "c.md", Status: ItemInvalid, Error: "c.md: Markdown 文件格式错误，缺少 frontmatter"}, report.Items[0])

	require.Len(t, progress, 4)
	assert.Equal(t, 4, progress[3].Done)
	assert.Equal(t, 4, progress[3].Total)
}

func TestImportSubmitFailureDoesNotAbortBatch(t *testing.T) {
	sub := &recordingSubmitter{fail: map[string]bool{"first": true}}
	im := &Importer{Codec: utcCodec, Submitter: sub}

	report, err := im.Import(context.Background(), []File{
		{Name: "batch.JSON", Data: []byte(`[{"title": "first"}, {"title": "second"}]`)},
		{Name: "third.md", Data: md("third")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, sub.titles)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 2, report.Imported, "only confirmed saves are counted as imported")
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, ItemFailed, report.Items[0].Status)
	assert.Equal(t, "保存失败", report.Items[0].Error)
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	sub := &recordingSubmitter{}
	im := &Importer{Codec: utcCodec, Submitter: sub}

	report, err := im.Import(context.Background(), []File{
		{Name: "notes.txt", Data: md("txt")},
		{Name: "broken.json", Data: []byte("{")},
	})
	assert.ErrorIs(t, err, ErrNoArticles)
	assert.Empty(t, sub.titles)
	assert.Equal(t, 2, report.Invalid)
	assert.Equal(t, 0, report.Parsed)
}

func TestImporterParseSetsFileName(t *testing.T) {
	im := &Importer{Codec: utcCodec}
	_, err := im.Parse(File{Name: "x.md", Data: []byte("nope")})

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "x.md", fe.File)
}

func TestSubmitterFunc(t *testing.T) {
	var got string
	s := SubmitterFunc(func(_ context.Context, a Article) error {
		got = a.Title
		return nil
	})
	require.NoError(t, s.Submit(context.Background(), Article{Title: "t"}))
	assert.Equal(t, "t", got)
}
