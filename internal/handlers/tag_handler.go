package handlers

import (
	"errors"

	"thrivex/internal/models"
	"thrivex/internal/services"
	"thrivex/pkg/response"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	service *services.TagService
}

func NewTagHandler(service *services.TagService) *TagHandler {
	return &TagHandler{
		service: service,
	}
}

// CreateTagRequest 创建标签请求
type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create 创建标签
func (h *TagHandler) Create(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tag, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, services.ErrTagExists) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Success(c, tag)
}

// List 标签列表
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tags)
}

type CateHandler struct {
	service *services.CateService
}

func NewCateHandler(service *services.CateService) *CateHandler {
	return &CateHandler{service: service}
}

// CreateCateRequest 创建分类请求
type CreateCateRequest struct {
	Name  string `json:"name" binding:"required"`
	Mark  string `json:"mark" binding:"required"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
	Level uint   `json:"level"`
	Order int    `json:"order"`
	Type  string `json:"type" binding:"omitempty,oneof=cate nav"`
}

// Create 创建分类
func (h *CateHandler) Create(c *gin.Context) {
	var req CreateCateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	cate := &models.Cate{
		Name:  req.Name,
		Mark:  req.Mark,
		URL:   req.URL,
		Icon:  req.Icon,
		Level: req.Level,
		Order: req.Order,
		Type:  req.Type,
	}
	if err := h.service.Create(c.Request.Context(), cate); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, cate)
}

// List 分类列表，type 为空时返回全部
func (h *CateHandler) List(c *gin.Context) {
	cates, err := h.service.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, cates)
}
