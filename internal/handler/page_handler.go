package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/render"
	"github.com/storefront/internal/service"
)

type pageRequest struct {
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	MetaTitle       string        `json:"metaTitle"`
	MetaDescription string        `json:"metaDescription"`
	MetaImage       string        `json:"metaImage"`
	Status          string        `json:"status"`
	Content         []block.Block `json:"content"`
}

func (r pageRequest) toInput() service.PageInput {
	return service.PageInput{
		Title:           r.Title,
		Slug:            r.Slug,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		MetaImage:       r.MetaImage,
		Status:          r.Status,
		Content:         r.Content,
	}
}

type blocksRequest struct {
	Blocks []block.Block `json:"blocks"`
}

type insertBlockRequest struct {
	// Index defaults to appending when omitted.
	Index *int        `json:"index"`
	Block block.Block `json:"block"`
}

type moveBlockRequest struct {
	To int `json:"to"`
}

type previewRequest struct {
	Blocks         []block.Block `json:"blocks"`
	CollectionSlug string        `json:"collectionSlug"`
}

func pagePayload(page *db.Page) gin.H {
	content := page.Content
	if content == nil {
		content = []block.Block{}
	}
	return gin.H{
		"id":              page.ID,
		"slug":            page.Slug,
		"title":           page.Title,
		"status":          page.Status,
		"isHome":          page.IsHome,
		"metaTitle":       page.MetaTitle,
		"metaDescription": page.MetaDescription,
		"metaImage":       page.MetaImage,
		"content":         content,
		"updatedAt":       page.UpdatedAt.In(time.Local).Format("2006-01-02 15:04"),
	}
}

// ListPages returns every page, optionally filtered by status.
func (a *API) ListPages(c *gin.Context) {
	pages, err := a.pages.List(c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "获取页面列表失败")
		return
	}

	response := make([]gin.H, 0, len(pages))
	for i := range pages {
		payload := pagePayload(&pages[i])
		payload["blockCount"] = len(pages[i].Content)
		delete(payload, "content")
		response = append(response, payload)
	}
	c.JSON(http.StatusOK, gin.H{"pages": response})
}

// GetPage returns one page with its block sequence.
func (a *API) GetPage(c *gin.Context) {
	page, ok := a.pageFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": pagePayload(page)})
}

// CreatePage stores a new page.
func (a *API) CreatePage(c *gin.Context) {
	var req pageRequest
	if !bindJSON(c, &req, "页面格式不正确") {
		return
	}
	page, err := a.pages.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建页面失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "页面已创建", "page": pagePayload(page)})
}

// UpdatePage edits a page. Omitting content keeps the stored block sequence.
func (a *API) UpdatePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	var req pageRequest
	if !bindJSON(c, &req, "页面格式不正确") {
		return
	}
	page, err := a.pages.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新页面失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "页面已更新", "page": pagePayload(page)})
}

// DeletePage removes a page.
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	if err := a.pages.Delete(id); err != nil {
		respondServiceError(c, err, "删除页面失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "页面已删除"})
}

// SavePageBlocks replaces the whole block sequence.
func (a *API) SavePageBlocks(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	var req blocksRequest
	if !bindJSON(c, &req, "区块格式不正确") {
		return
	}
	page, err := a.pages.SaveBlocks(id, req.Blocks)
	if err != nil {
		respondServiceError(c, err, "保存区块失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "区块已保存", "page": pagePayload(page)})
}

// InsertPageBlock adds one block.
func (a *API) InsertPageBlock(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	var req insertBlockRequest
	if !bindJSON(c, &req, "区块格式不正确") {
		return
	}
	if strings.TrimSpace(string(req.Block.Type)) == "" {
		respondError(c, http.StatusBadRequest, "请指定区块类型")
		return
	}
	index := int(^uint(0) >> 1)
	if req.Index != nil {
		index = *req.Index
	}
	page, err := a.pages.InsertBlock(id, index, req.Block)
	if err != nil {
		respondServiceError(c, err, "添加区块失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "区块已添加", "page": pagePayload(page)})
}

// MovePageBlock changes the position of one block.
func (a *API) MovePageBlock(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	var req moveBlockRequest
	if !bindJSON(c, &req, "请提供目标位置") {
		return
	}
	page, err := a.pages.MoveBlock(id, c.Param("blockID"), req.To)
	if err != nil {
		respondServiceError(c, err, "移动区块失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "区块已移动", "page": pagePayload(page)})
}

// RemovePageBlock deletes one block.
func (a *API) RemovePageBlock(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	page, err := a.pages.RemoveBlock(id, c.Param("blockID"))
	if err != nil {
		respondServiceError(c, err, "删除区块失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "区块已删除", "page": pagePayload(page)})
}

// SetHomePage marks a published page as the storefront home page.
func (a *API) SetHomePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}
	page, err := a.pages.SetHome(id)
	if err != nil {
		respondServiceError(c, err, "设置首页失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "首页已更新", "page": pagePayload(page)})
}

// PreviewPage renders a page for the builder canvas. Unsaved blocks in the body replace the
// stored ones, and markers render as visible drop zones.
func (a *API) PreviewPage(c *gin.Context) {
	page, ok := a.pageFromParam(c)
	if !ok {
		return
	}

	var req previewRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req, "预览数据格式不正确") {
			return
		}
	}

	blocks := page.Content
	if req.Blocks != nil {
		blocks = block.EnsureIDs(req.Blocks, uuid.NewString)
		if err := block.ValidateIDs(blocks); err != nil {
			respondServiceError(c, err, "预览失败")
			return
		}
	}

	binding := render.Binding{CollectionSlug: strings.TrimSpace(req.CollectionSlug)}
	if binding.CollectionSlug != "" {
		collection, err := a.collections.GetBySlug(binding.CollectionSlug)
		if err == nil {
			binding = collectionBinding(collection)
		}
	}

	rc := a.renderContext(c, binding)
	rc.Preview = true
	rendered := a.renderer.RenderSequence(c.Request.Context(), blocks, rc)
	if rendered == nil && len(blocks) > 0 {
		respondError(c, http.StatusRequestTimeout, "预览已取消")
		return
	}

	fragments := make([]gin.H, 0, len(blocks))
	for i, b := range blocks {
		fragments = append(fragments, gin.H{
			"id":    b.ID,
			"type":  b.Type,
			"known": b.Type.Known(),
			"html":  string(rendered[i]),
		})
	}
	c.JSON(http.StatusOK, gin.H{"fragments": fragments})
}

func (a *API) pageFromParam(c *gin.Context) (*db.Page, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return nil, false
	}
	page, err := a.pages.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取页面失败")
		return nil, false
	}
	return page, true
}
