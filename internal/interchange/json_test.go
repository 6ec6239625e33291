package interchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONSingleObject(t *testing.T) {
	raw := `{
		"title": "单篇",
		"content": "正文",
		"createTime": 1720756800000,
		"cateList": [{"id": 1, "name": "后端"}, {"name": "无ID"}],
		"tagList": [{"id": 2, "name": "Go"}],
		"config": {"status": "hide", "isDraft": 1}
	}`

	articles, err := utcCodec.ParseJSON([]byte(raw))
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "单篇", a.Title)
	assert.Equal(t, Timestamp("1720756800000"), a.CreateTime)
	assert.Equal(t, []uint{1}, a.CateIDs, "entries without an id are dropped")
	assert.Equal(t, []uint{2}, a.TagIDs)
	assert.Equal(t, Config{Status: "hide", IsDraft: 1}, a.Config)
}

func TestParseJSONArray(t *testing.T) {
	raw := `[
		{"title": "a", "cateIds": [5], "cateList": [{"id": 1, "name": "x"}], "createTime": "1700000000000"},
		{"content": "b", "config": {"password": "pw"}}
	]`

	articles, err := utcCodec.ParseJSON([]byte(raw))
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, []uint{5}, articles[0].CateIDs, "explicit ids win over cateList")
	assert.Empty(t, articles[0].TagIDs)
	assert.Equal(t, Timestamp("1700000000000"), articles[0].CreateTime)

	assert.Equal(t, DefaultTitle, articles[1].Title)
	assert.Equal(t, NewTimestamp(fixedNow), articles[1].CreateTime)
	assert.Equal(t, Config{Status: "default", Password: "pw"}, articles[1].Config)
}

func TestParseJSONDateString(t *testing.T) {
	articles, err := utcCodec.ParseJSON([]byte(`{"title": "d", "createTime": "2025-07-12 12:00:00"}`))
	require.NoError(t, err)
	assert.Equal(t, NewTimestamp(fixedNow), articles[0].CreateTime)
}

func TestParseJSONErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{"title": `,
		"empty":        `  `,
		"wrong type":   `"just a string"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := utcCodec.ParseJSON([]byte(raw))
			var fe *FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestParseJSONInvalidConfigFallsBackPerField(t *testing.T) {
	raw := `[
		{"title": "ok", "config": {"status": "no_home", "isEncrypt": 1, "password": "pw"}},
		{"title": "bad status", "config": {"status": "public", "isDraft": 1}},
		{"title": "bad flags", "config": {"status": "hide", "isDraft": 2, "isDel": -1}}
	]`

	articles, err := utcCodec.ParseJSON([]byte(raw))
	require.NoError(t, err)
	require.Len(t, articles, 3)

	assert.Equal(t, Config{Status: "no_home", IsEncrypt: 1, Password: "pw"}, articles[0].Config)
	assert.Equal(t, Config{Status: "default", IsDraft: 1}, articles[1].Config)
	assert.Equal(t, Config{Status: "hide", IsDraft: 1, IsDel: 1}, articles[2].Config)
	for _, a := range articles {
		assert.NoError(t, a.Config.Validate())
	}
}
