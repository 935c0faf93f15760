package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/render"
	"github.com/storefront/internal/service"
)

type productDetailView struct {
	Name        string
	Slug        string
	Description template.HTML
	Price       string
	Images      []string
	Category    string
	InStock     bool
}

// ShowHome renders the published home page.
func (a *API) ShowHome(c *gin.Context) {
	page, err := a.pages.GetHome()
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			a.renderHTML(c, http.StatusOK, "page.html", gin.H{"blocks": nil, "empty": true})
			return
		}
		a.renderPageError(c, err)
		return
	}
	a.renderBuilderPage(c, page)
}

// ShowPage renders a published page by slug.
func (a *API) ShowPage(c *gin.Context) {
	page, err := a.pages.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		a.renderPageError(c, err)
		return
	}
	a.renderBuilderPage(c, page)
}

func (a *API) renderBuilderPage(c *gin.Context, page *db.Page) {
	rc := a.renderContext(c, render.Binding{})
	if a.deferBlocks {
		rc.FragmentURL = fragmentURL(page.ID, "")
	}
	blocks := a.renderer.RenderSlots(c.Request.Context(), block.ComposePage(page.Content), rc)
	if blocks == nil && c.Request.Context().Err() != nil {
		// client went away
		return
	}

	a.renderHTML(c, http.StatusOK, "page.html", gin.H{
		"title":  pageTitle(page),
		"page":   page,
		"meta":   pageMeta(page),
		"blocks": blocks,
	})
}

// ShowCollection renders a collection page by slug.
func (a *API) ShowCollection(c *gin.Context) {
	collection, err := a.collections.GetBySlug(c.Param("slug"))
	if err != nil {
		a.renderPageError(c, err)
		return
	}
	a.renderCollection(c, collection)
}

// ShowCollectionByID renders a collection page by id.
func (a *API) ShowCollectionByID(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}
	collection, err := a.collections.Get(id)
	if err != nil {
		a.renderPageError(c, err)
		return
	}
	a.renderCollection(c, collection)
}

func (a *API) renderCollection(c *gin.Context, collection *db.Collection) {
	ctx := c.Request.Context()
	layout, err := a.collections.LayoutPage(collection)
	if err != nil {
		c.Error(err)
	}

	binding := collectionBinding(collection)
	rc := a.renderContext(c, binding)

	var blocks []block.Block
	if layout != nil {
		blocks = layout.Content
		if a.deferBlocks {
			rc.FragmentURL = fragmentURL(layout.ID, collection.Slug)
		}
	}

	rendered := a.renderer.RenderSlots(ctx, block.ComposeCollection(blocks), rc)
	if rendered == nil && ctx.Err() != nil {
		return
	}

	a.renderHTML(c, http.StatusOK, "collection.html", gin.H{
		"title":      collection.Title,
		"collection": collection,
		"blocks":     rendered,
	})
}

// RenderBlockFragment renders one block of a page for a deferred placeholder.
// The page must be published, or be the layout of the collection named by the query string.
func (a *API) RenderBlockFragment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	page, err := a.pages.Get(id)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			c.Error(err)
		}
		c.Status(http.StatusNotFound)
		return
	}

	var binding render.Binding
	if slug := strings.TrimSpace(c.Query("collection")); slug != "" {
		collection, err := a.collections.GetBySlug(slug)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		layout, err := a.collections.LayoutPage(collection)
		if err != nil || layout == nil || layout.ID != page.ID {
			c.Status(http.StatusNotFound)
			return
		}
		binding = collectionBinding(collection)
	} else if !page.Published() {
		c.Status(http.StatusNotFound)
		return
	}

	index := block.Find(page.Content, c.Param("blockID"))
	if index < 0 {
		c.Status(http.StatusNotFound)
		return
	}

	out := a.renderer.RenderBlock(c.Request.Context(), page.Content[index], a.renderContext(c, binding))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// ShowProducts renders the paginated product catalog.
func (a *API) ShowProducts(c *gin.Context) {
	filter := service.ProductFilter{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Query:        strings.TrimSpace(c.Query("q")),
		Sort:         block.ParseSortKey(c.Query("sort")),
		Page:         parseIntQuery(c, "page", 1),
		PerPage:      parseIntQuery(c, "per_page", 0),
	}
	result, err := a.products.List(filter)
	if err != nil {
		a.renderPageError(c, err)
		return
	}

	rc := a.renderContext(c, render.Binding{})
	products := make([]block.Product, 0, len(result.Items))
	for _, p := range result.Items {
		products = append(products, service.ToBlockProduct(p))
	}

	a.renderHTML(c, http.StatusOK, "products.html", gin.H{
		"title":      "Products",
		"listing":    a.renderer.RenderListing(products, rc),
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"total":      result.Total,
		"hasPrev":    result.Page > 1,
		"hasNext":    result.Page < result.TotalPages,
		"prevURL":    productsURL(filter, result.Page-1),
		"nextURL":    productsURL(filter, result.Page+1),
		"query":      filter.Query,
		"category":   filter.CategorySlug,
		"sort":       string(filter.Sort),
	})
}

// ShowProduct renders one active product.
func (a *API) ShowProduct(c *gin.Context) {
	product, err := a.products.GetBySlug(c.Param("slug"))
	if err != nil {
		a.renderPageError(c, err)
		return
	}

	settings := a.siteSettings(c).Render
	view := productDetailView{
		Name:        product.Name,
		Slug:        product.Slug,
		Description: render.RichText(product.Description),
		Price:       render.FormatPrice(product.Price, settings),
		Images:      product.Images,
		InStock:     product.Stock > 0,
	}
	if product.Category != nil {
		view.Category = product.Category.Name
	}

	a.renderHTML(c, http.StatusOK, "product.html", gin.H{
		"title":   product.Name,
		"product": view,
	})
}

// NotFound renders the storefront 404 page.
func (a *API) NotFound(c *gin.Context) {
	a.renderNotFound(c)
}

func (a *API) renderNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{"title": "Not found"})
}

func (a *API) renderPageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrCollectionNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound):
		a.renderNotFound(c)
	default:
		c.Error(err)
		a.renderHTML(c, http.StatusInternalServerError, "not_found.html", gin.H{
			"title": "Something went wrong",
			"error": "页面加载失败，请稍后再试",
		})
	}
}

func (a *API) renderContext(c *gin.Context, binding render.Binding) render.Context {
	return render.Context{
		Settings: a.siteSettings(c).Render,
		Binding:  binding,
	}
}

func collectionBinding(collection *db.Collection) render.Binding {
	return render.Binding{
		CollectionID:          collection.ID,
		CollectionSlug:        collection.Slug,
		CollectionTitle:       collection.Title,
		CollectionDescription: collection.Description,
		CollectionImage:       collection.ImageURL,
	}
}

func fragmentURL(pageID uint, collectionSlug string) func(string) string {
	return func(blockID string) string {
		u := fmt.Sprintf("/fragments/pages/%d/blocks/%s", pageID, url.PathEscape(blockID))
		if collectionSlug != "" {
			u += "?collection=" + url.QueryEscape(collectionSlug)
		}
		return u
	}
}

func productsURL(filter service.ProductFilter, page int) string {
	values := url.Values{}
	if filter.CategorySlug != "" {
		values.Set("category", filter.CategorySlug)
	}
	if filter.Query != "" {
		values.Set("q", filter.Query)
	}
	if filter.Sort != "" {
		values.Set("sort", string(filter.Sort))
	}
	if page > 1 {
		values.Set("page", fmt.Sprint(page))
	}
	if len(values) == 0 {
		return "/products"
	}
	return "/products?" + values.Encode()
}

func pageTitle(page *db.Page) string {
	if title := strings.TrimSpace(page.MetaTitle); title != "" {
		return title
	}
	return page.Title
}

func pageMeta(page *db.Page) gin.H {
	return gin.H{
		"description": page.MetaDescription,
		"image":       page.MetaImage,
	}
}
