package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/service"
)

type collectionRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	PageID      *uint  `json:"pageId"`
}

func (r collectionRequest) toInput() service.CollectionInput {
	return service.CollectionInput{
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		PageID:      r.PageID,
	}
}

type membershipRequest struct {
	ProductIDs []uint `json:"productIds"`
}

func collectionPayload(collection *db.Collection) gin.H {
	payload := gin.H{
		"id":          collection.ID,
		"slug":        collection.Slug,
		"title":       collection.Title,
		"description": collection.Description,
		"imageUrl":    collection.ImageURL,
		"pageId":      collection.PageID,
	}
	if collection.Products != nil {
		ids := make([]uint, 0, len(collection.Products))
		for _, p := range collection.Products {
			ids = append(ids, p.ID)
		}
		payload["productIds"] = ids
	}
	return payload
}

// ListCollections returns every collection with its member count.
func (a *API) ListCollections(c *gin.Context) {
	collections, err := a.collections.List()
	if err != nil {
		respondServiceError(c, err, "获取集合列表失败")
		return
	}
	response := make([]gin.H, 0, len(collections))
	for i := range collections {
		payload := collectionPayload(&collections[i].Collection)
		payload["productCount"] = collections[i].ProductCount
		response = append(response, payload)
	}
	c.JSON(http.StatusOK, gin.H{"collections": response})
}

// GetCollection returns a collection with its member ids.
func (a *API) GetCollection(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的集合ID")
		return
	}
	collection, err := a.collections.Get(id)
	if err != nil {
		respondServiceError(c, err, "获取集合失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collectionPayload(collection)})
}

// CreateCollection stores a new collection.
func (a *API) CreateCollection(c *gin.Context) {
	var req collectionRequest
	if !bindJSON(c, &req, "集合格式不正确") {
		return
	}
	collection, err := a.collections.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "创建集合失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "集合已创建", "collection": collectionPayload(collection)})
}

// UpdateCollection edits a collection.
func (a *API) UpdateCollection(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的集合ID")
		return
	}
	var req collectionRequest
	if !bindJSON(c, &req, "集合格式不正确") {
		return
	}
	collection, err := a.collections.Update(id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "更新集合失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "集合已更新", "collection": collectionPayload(collection)})
}

// DeleteCollection removes a collection and its memberships.
func (a *API) DeleteCollection(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的集合ID")
		return
	}
	if err := a.collections.Delete(id); err != nil {
		respondServiceError(c, err, "删除集合失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "集合已删除"})
}

// SetCollectionProducts replaces the member list.
func (a *API) SetCollectionProducts(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的集合ID")
		return
	}
	var req membershipRequest
	if !bindJSON(c, &req, "请提供商品ID列表") {
		return
	}
	if err := a.collections.SetProducts(id, req.ProductIDs); err != nil {
		respondServiceError(c, err, "更新集合商品失败")
		return
	}
	a.GetCollection(c)
}

// AddCollectionProduct adds one product. Adding an existing member is a no-op.
func (a *API) AddCollectionProduct(c *gin.Context) {
	id, productID, ok := membershipParams(c)
	if !ok {
		return
	}
	if err := a.collections.AddProduct(id, productID); err != nil {
		respondServiceError(c, err, "添加商品失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "商品已加入集合"})
}

// RemoveCollectionProduct removes one product.
func (a *API) RemoveCollectionProduct(c *gin.Context) {
	id, productID, ok := membershipParams(c)
	if !ok {
		return
	}
	if err := a.collections.RemoveProduct(id, productID); err != nil {
		respondServiceError(c, err, "移除商品失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "商品已移出集合"})
}

func membershipParams(c *gin.Context) (uint, uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的集合ID")
		return 0, 0, false
	}
	productID, err := parseUintParam(c, "productID")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的商品ID")
		return 0, 0, false
	}
	return id, productID, true
}
