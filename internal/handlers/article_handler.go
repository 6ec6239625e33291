package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"thrivex/internal/interchange"
	"thrivex/internal/middleware"
	"thrivex/internal/services"
	apperrors "thrivex/pkg/errors"
	"thrivex/pkg/logger"
	"thrivex/pkg/pagination"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxImportFileSize = 10 << 20

type ArticleHandler struct {
	articles *services.ArticleService
	imports  *services.ImportService
	codec    interchange.Codec
}

func NewArticleHandler(articles *services.ArticleService, imports *services.ImportService, codec interchange.Codec) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		imports:  imports,
		codec:    codec,
	}
}

// ExportRequest 批量导出，ids 为空时导出全部未删除的文章
type ExportRequest struct {
	IDs []uint `json:"ids"`
}

// Create 新增文章
func (h *ArticleHandler) Create(c *gin.Context) {
	var req interchange.Article
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	article, err := h.articles.Create(c.Request.Context(), req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, article)
}

// GetByID 文章详情
func (h *ArticleHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	article, err := h.articles.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "文章不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, article)
}

// List 分页查询文章
func (h *ArticleHandler) List(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	q := services.ArticleQuery{
		Key:     c.Query("key"),
		IsDraft: optionalInt(c, "is_draft"),
		IsDel:   optionalInt(c, "is_del"),
	}
	if v, err := strconv.ParseUint(c.Query("cate_id"), 10, 32); err == nil {
		q.CateID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("tag_id"), 10, 32); err == nil {
		q.TagID = uint(v)
	}
	if v, err := strconv.ParseInt(c.Query("start_date"), 10, 64); err == nil {
		q.StartDate = v
	}
	if v, err := strconv.ParseInt(c.Query("end_date"), 10, 64); err == nil {
		q.EndDate = v
	}

	articles, total, err := h.articles.List(c.Request.Context(), q, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, articles, pageInfo)
}

// Import 批量导入 Markdown / JSON 文件，表单字段为 list
func (h *ArticleHandler) Import(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "请选择要导入的文件")
		return
	}

	headers := form.File["list"]
	if len(headers) == 0 {
		response.BadRequest(c, "请选择要导入的文件")
		return
	}
	if limit := h.imports.MaxFiles(); limit > 0 && len(headers) > limit {
		response.BadRequest(c, fmt.Sprintf("最多只能上传 %d 个文件", limit))
		return
	}

	files := make([]interchange.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImportFileSize {
			response.BadRequest(c, fmt.Sprintf("%s: 文件过大", fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, fmt.Sprintf("%s: 读取文件失败", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.BadRequest(c, fmt.Sprintf("%s: 读取文件失败", fh.Filename))
			return
		}
		files = append(files, interchange.File{Name: fh.Filename, Data: data})
	}

	var operatorID uint
	if session := middleware.GetSession(c); session != nil {
		operatorID = session.User.ID
	}

	record, report, err := h.imports.Import(c.Request.Context(), operatorID, files)
	if err != nil {
		switch {
		case errors.Is(err, interchange.ErrNoArticles):
			response.ErrorWithData(c, apperrors.CodeInvalidParam, "未能从文件中解析出文章", report)
		case errors.Is(err, services.ErrTooManyFiles):
			response.BadRequest(c, err.Error())
		default:
			logger.GetLogger().WithError(err).Error("导入文章失败")
			response.ServerError(c, "导入失败")
		}
		return
	}

	response.SuccessWithMessage(c, fmt.Sprintf("成功导入 %d 篇文章", report.Imported), gin.H{
		"batch_id": record.BatchID,
		"report":   report,
	})
}

// ImportTemplate 下载导入模板，format 为 md 或 json
func (h *ArticleHandler) ImportTemplate(c *gin.Context) {
	tpl, err := interchange.TemplateFor(c.DefaultQuery("format", "md"), time.Now())
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Attachment(c, tpl.Filename, tpl.ContentType, tpl.Data)
}

// ImportLogs 导入记录
func (h *ArticleHandler) ImportLogs(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	var operatorID uint
	if v, err := strconv.ParseUint(c.Query("operator_id"), 10, 32); err == nil {
		operatorID = uint(v)
	}

	logs, total, err := h.imports.ListLogs(c.Request.Context(), operatorID, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, logs, pageInfo)
}

// ExportOne 导出单篇文章为 Markdown
func (h *ArticleHandler) ExportOne(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		response.BadRequest(c, "ID格式错误")
		return
	}

	article, err := h.articles.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "文章不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	a := services.ToInterchange(*article)
	response.Attachment(c, interchange.MarkdownFilename(a), "text/markdown; charset=utf-8", []byte(h.codec.GenerateMarkdown(a)))
}

// Export 批量导出为 zip
func (h *ArticleHandler) Export(c *gin.Context) {
	var req ExportRequest
	if c.Request.Body != nil {
		// 空请求体等同于导出全部
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	articles, err := h.articles.ListForExport(c.Request.Context(), req.IDs)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	data, err := h.codec.BuildArchive(articles)
	if err != nil {
		logger.GetLogger().WithError(err).Error("生成导出文件失败")
		response.ServerError(c, "导出失败")
		return
	}
	response.Attachment(c, interchange.ArchiveName(time.Now()), "application/zip", data)
}
