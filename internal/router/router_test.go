package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thrivex/internal/database"
	"thrivex/internal/interchange"
	"thrivex/internal/models"
	"thrivex/internal/services"
	"thrivex/pkg/cache"
	"thrivex/pkg/config"
	"thrivex/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	author models.Role
	admin  models.Role
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.MigrateDB(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewStoreWithClient(client, "test")

	routes := []models.Route{{Path: "/"}, {Path: "/article"}, {Path: "/role"}}
	require.NoError(t, db.Create(&routes).Error)
	perms := []models.Permission{
		{Name: "article:add", Group: "article"},
		{Name: "role:info", Group: "role"},
		{Name: "role:bindingRoute", Group: "role"},
	}
	require.NoError(t, db.Create(&perms).Error)

	ts := &testServer{t: t, db: db}
	ts.admin = models.Role{Name: "管理员", Mark: models.RoleMarkAdmin, Routes: routes, Permissions: perms}
	ts.author = models.Role{Name: "作者", Mark: models.RoleMarkAuthor, Routes: routes[:1], Permissions: perms[:1]}
	require.NoError(t, db.Create(&ts.admin).Error)
	require.NoError(t, db.Create(&ts.author).Error)

	users := services.NewUserService(db)
	ctx := context.Background()
	_, err = users.Create(ctx, "admin", "admin123", "管理员", ts.admin.ID)
	require.NoError(t, err)
	_, err = users.Create(ctx, "writer", "writer123", "作者", ts.author.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Tag{Name: "Go"}).Error)
	require.NoError(t, db.Create(&models.Cate{Name: "后端", Mark: "backend", Type: models.CateTypeCate}).Error)

	contexts := services.NewPermissionContextService(db, store)
	sessions := services.NewSessionService(store)
	codec := interchange.Codec{Location: time.UTC}
	tags := services.NewTagService(db)
	cates := services.NewCateService(db)
	articles := services.NewArticleService(db, time.UTC)

	cfg := &config.Config{CORS: config.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH"},
	}}
	ts.engine = SetupRouter(cfg, &Services{
		Auth:        services.NewAuthService(users, contexts, sessions, jwt.NewJWTManager("test", time.Hour)),
		Roles:       services.NewRoleService(db, contexts, sessions),
		Routes:      services.NewRouteService(db),
		Permissions: services.NewPermissionService(db),
		Tags:        tags,
		Cates:       cates,
		Articles:    articles,
		Imports:     services.NewImportService(db, articles, tags, cates, store, codec, 5),
		Codec:       codec,
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) call(method, path, token string, payload interface{}) envelope {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(ts.t, err)
		body = bytes.NewReader(data)
	}
	w := ts.do(method, path, token, body, "application/json")
	require.Equal(ts.t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (ts *testServer) login(username, password string) string {
	env := ts.call(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(ts.t, 200, env.Code, env.Message)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(ts.t, json.Unmarshal(env.Data, &result))
	return result.Token
}

func TestHealthAndAuth(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, 200, ts.call(http.MethodGet, "/api/v1/health", "", nil).Code)
	assert.Equal(t, 401, ts.call(http.MethodGet, "/api/v1/auth/me", "", nil).Code)
	assert.Equal(t, 401, ts.call(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "nope"}).Code)

	token := ts.login("writer", "writer123")
	me := ts.call(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, 200, me.Code)
	assert.Contains(t, string(me.Data), `"article:add"`)

	assert.Equal(t, 200, ts.call(http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	assert.Equal(t, 401, ts.call(http.MethodGet, "/api/v1/auth/me", token, nil).Code)
}

func TestRoleBindingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	writer := ts.login("writer", "writer123")
	admin := ts.login("admin", "admin123")

	bindingPath := "/api/v1/roles/" + itoa(ts.author.ID) + "/binding"
	assert.Equal(t, 403, ts.call(http.MethodGet, bindingPath, writer, nil).Code)

	env := ts.call(http.MethodGet, bindingPath, admin, nil)
	require.Equal(t, 200, env.Code)
	var binding struct {
		TargetRouteKeys      []uint                     `json:"targetRouteKeys"`
		TargetPermissionKeys []uint                     `json:"targetPermissionKeys"`
		States               map[string]json.RawMessage `json:"states"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &binding))
	assert.Len(t, binding.TargetRouteKeys, 1)
	assert.Len(t, binding.TargetPermissionKeys, 1)
	assert.Len(t, binding.States, 2)

	env = ts.call(http.MethodPatch, bindingPath, admin, map[string][]uint{"route_ids": {1, 2}, "permission_ids": {}})
	assert.Equal(t, 400, env.Code)

	env = ts.call(http.MethodPatch, bindingPath, admin, map[string][]uint{"route_ids": {1, 2}, "permission_ids": {1, 2}})
	require.Equal(t, 200, env.Code, env.Message)
	assert.JSONEq(t, `{"roleId":`+itoa(ts.author.ID)+`,"relogin":false}`, string(env.Data))

	env = ts.call(http.MethodGet, "/api/v1/roles/"+itoa(ts.author.ID)+"/permissions", admin, nil)
	require.Equal(t, 200, env.Code)
	var perms []models.Permission
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.Len(t, perms, 2)

	// 修改自己的角色后需要重新登录
	ownPath := "/api/v1/roles/" + itoa(ts.admin.ID) + "/binding"
	env = ts.call(http.MethodPatch, ownPath, admin, map[string][]uint{"route_ids": {1, 2, 3}, "permission_ids": {1, 2, 3}})
	require.Equal(t, 200, env.Code)
	assert.Contains(t, string(env.Data), `"relogin":true`)
	assert.Equal(t, 401, ts.call(http.MethodGet, "/api/v1/auth/me", admin, nil).Code)

	assert.Equal(t, 404, ts.call(http.MethodGet, "/api/v1/roles/999/binding", ts.login("admin", "admin123"), nil).Code)
}

func TestArticleImportExport(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("writer", "writer123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{
		"first.md":  "---\ntitle: A/B\ntags: go\ncategories: 后端\ndate: 2024-05-01 08:00:00\n---\n\nhello",
		"notes.txt": "ignored",
	} {
		fw, err := mw.CreateFormFile("list", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	w := ts.do(http.MethodPost, "/api/v1/articles/import", token, &buf, mw.FormDataContentType())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, 200, env.Code, env.Message)
	assert.Equal(t, "成功导入 1 篇文章", env.Message)

	logs := ts.call(http.MethodGet, "/api/v1/articles/import/logs", token, nil)
	require.Equal(t, 200, logs.Code)
	assert.Contains(t, string(logs.Data), `"invalid":1`)

	w = ts.do(http.MethodPost, "/api/v1/articles/export", token, bytes.NewReader([]byte(`{"ids":[]}`)), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''")

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"data/A_B.md", "articles.json"}, names)

	w = ts.do(http.MethodGet, "/api/v1/articles/1/export", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title: A/B\n")
	assert.Contains(t, w.Body.String(), "tags: Go\n")
	assert.Contains(t, w.Body.String(), "categories: 后端\n")

	w = ts.do(http.MethodGet, "/api/v1/articles/import/template?format=json", token, nil, "")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, 400, ts.call(http.MethodGet, "/api/v1/articles/import/template?format=xml", token, nil).Code)
}

func TestExportChunkedBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("writer", "writer123")
	for _, title := range []string{"one", "two"} {
		require.NoError(t, ts.db.Create(&models.Article{Title: title, Config: &models.ArticleConfig{Status: models.ArticleStatusDefault}}).Error)
	}

	export := func(body string) []string {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/export", io.NopCloser(bytes.NewReader([]byte(body))))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		require.Equal(t, "application/zip", w.Header().Get("Content-Type"), w.Body.String())

		zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
		require.NoError(t, err)
		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		return names
	}

	assert.ElementsMatch(t, []string{"data/two.md", "articles.json"}, export(`{"ids":[2]}`))
	assert.ElementsMatch(t, []string{"data/one.md", "data/two.md", "articles.json"}, export(""))

	bad := ts.call(http.MethodPost, "/api/v1/articles/export", token, "not-an-object")
	assert.Equal(t, 400, bad.Code)
}

func TestAuthAccess(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("writer", "writer123")

	var access struct {
		Path    string `json:"path"`
		Allowed bool   `json:"allowed"`
	}
	env := ts.call(http.MethodGet, "/api/v1/auth/access?path=/", token, nil)
	require.Equal(t, 200, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.True(t, access.Allowed)

	env = ts.call(http.MethodGet, "/api/v1/auth/access?path=/role", token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.Equal(t, "/role", access.Path)
	assert.False(t, access.Allowed)

	assert.Equal(t, 400, ts.call(http.MethodGet, "/api/v1/auth/access", token, nil).Code)
	assert.Equal(t, 401, ts.call(http.MethodGet, "/api/v1/auth/access?path=/", "", nil).Code)
}

func TestImportRejectsTooManyFiles(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login("writer", "writer123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < 6; i++ {
		fw, err := mw.CreateFormFile("list", "f"+itoa(uint(i))+".md")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("---\ntitle: x\n---\n"))
	}
	require.NoError(t, mw.Close())

	w := ts.do(http.MethodPost, "/api/v1/articles/import", token, &buf, mw.FormDataContentType())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 400, env.Code)

	var count int64
	ts.db.Model(&models.Article{}).Count(&count)
	assert.Zero(t, count)
}

func itoa(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
