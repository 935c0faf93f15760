package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/service"
)

type productRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	CategoryID  *uint    `json:"categoryId"`
	Stock       int      `json:"stock"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"isActive"`
}

func (r productRequest) toInput() service.ProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		CategoryID:  r.CategoryID,
		Stock:       r.Stock,
		IsActive:    active,
	}
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

func productPayload(product *db.Product) gin.H {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	payload := gin.H{
		"id":          product.ID,
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"price":       product.Price,
		"images":      images,
		"categoryId":  product.CategoryID,
		"stock":       product.Stock,
		"isActive":    product.IsActive,
		"createdAt":   product.CreatedAt,
	}
	if product.Category != nil {
		payload["category"] = product.Category.Name
	}
	return payload
}

// ListProducts returns one page of the admin product listing, inactive products included.
func (a *API) ListProducts(c *gin.Context) {
	filter := service.ProductFilter{
		CategorySlug:    strings.TrimSpace(c.Query("category")),
		Query:           strings.TrimSpace(c.Query("q")),
		Sort:            block.ParseSortKey(c.Query("sort")),
		Page:            parseIntQuery(c, "page", 1),
		PerPage:         parseIntQuery(c, "per_page", 0),
		IncludeInactive: c.Query("active") != "true",
		IDs:             parseUintQuerySlice(c.QueryArray("ids")),
	}
	result, err := a.products.List(filter)
	if err != nil {
		respondServiceError(c, err, "获取商品列表失败")
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, productPayload(&result.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   items,
		"total":      result.Total,
		"page":       result.Page,
		"perPage":    result.PerPage,
		"totalPages": result.TotalPages,
	})
}

// GetProduct returns one product.
func (a *API) GetProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的商品ID")
		return
	}
	product, err := a.products.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取商品失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": productPayload(product)})
}

// CreateProduct stores a new product.
func (a *API) CreateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req, "商品格式不正确") {
		return
	}
	product, err := a.products.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建商品失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "商品已创建", "product": productPayload(product)})
}

// UpdateProduct edits a product.
func (a *API) UpdateProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的商品ID")
		return
	}
	var req productRequest
	if !bindJSON(c, &req, "商品格式不正确") {
		return
	}
	product, err := a.products.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新商品失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "商品已更新", "product": productPayload(product)})
}

// DeleteProduct removes a product from the catalog and every collection.
func (a *API) DeleteProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的商品ID")
		return
	}
	if err := a.products.Delete(id); err != nil {
		respondServiceError(c, err, "删除商品失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "商品已删除"})
}

// GetCategories lists categories.
func (a *API) GetCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondServiceError(c, err, "获取分类列表失败")
		return
	}

	response := make([]gin.H, 0, len(categories))
	for _, category := range categories {
		response = append(response, gin.H{
			"id":          category.ID,
			"slug":        category.Slug,
			"name":        category.Name,
			"description": category.Description,
			"imageUrl":    category.ImageURL,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": response})
}

// CreateCategory stores a new category.
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "分类名称不能为空") {
		return
	}
	category, err := a.categories.Create(service.CategoryInput(req))
	if err != nil {
		respondServiceError(c, err, "创建分类失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "分类创建成功", "category": category})
}

// UpdateCategory edits a category.
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req, "分类名称不能为空") {
		return
	}
	category, err := a.categories.Update(id, service.CategoryInput(req))
	if err != nil {
		respondServiceError(c, err, "更新分类失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "分类更新成功", "category": category})
}

// DeleteCategory removes a category. Categories still referenced by products are refused.
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}
	if err := a.categories.Delete(id); err != nil {
		respondServiceError(c, err, "删除分类失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "分类删除成功"})
}
