package render

import (
	"context"
	"errors"
	"html/template"

	"github.com/storefront/internal/block"
)

// Grid states.
const (
	stateReady       = "ready"
	stateEmpty       = "empty"
	statePlaceholder = "placeholder"
)

var errNoCollection = errors.New("collection slug did not resolve")

type productCard struct {
	Name        string
	URL         string
	Image       string
	Price       string
	Description string
	InStock     bool
}

type categoryCard struct {
	Name         string
	URL          string
	Image        string
	Description  string
	ProductCount int
}

type gridView struct {
	ID               string
	Kind             string
	Title            string
	Subtitle         string
	State            string
	EmptyMessage     string
	ShowEmptyState   bool
	ShowDescription  bool
	ShowProductCount bool
	Layout           block.Layout
	SectionStyle     template.CSS
	OverlayStyle     template.CSS
	Products         []productCard
	Categories       []categoryCard
}

func newGridView(b block.Block, cfg block.GridConfig) gridView {
	return gridView{
		ID:               b.ID,
		Kind:             string(b.Type),
		Title:            cfg.Title,
		Subtitle:         cfg.Subtitle,
		EmptyMessage:     cfg.EmptyMessage,
		ShowEmptyState:   cfg.ShowEmptyState,
		ShowDescription:  cfg.ShowDescription,
		ShowProductCount: cfg.ShowProductCount,
		Layout:           block.ResolveLayout(cfg),
		SectionStyle:     colorStyle("background-color", cfg.BackgroundColor),
		OverlayStyle:     colorStyle("background-color", cfg.OverlayColor),
	}
}

func renderCategoryGrid(r *Renderer, ctx context.Context, b block.Block, rc Context) (string, any) {
	cfg := block.DecodeGrid(b.Type, b.Content)
	view := newGridView(b, cfg)

	fetchCtx, done := r.fetchContext(ctx, b.Type)
	defer done()

	categories, err := r.catalog.ListCategories(fetchCtx, cfg.Limit)
	if err != nil {
		fetchFailed(b, "list categories", err)
		categories = nil
	}

	for _, c := range categories {
		view.Categories = append(view.Categories, categoryCard{
			Name:         c.Name,
			URL:          "/products?category=" + c.Slug,
			Image:        c.ImageURL,
			Description:  c.Description,
			ProductCount: c.ProductCount,
		})
	}
	view.State = stateReady
	if len(view.Categories) == 0 {
		view.State = stateEmpty
		view.EmptyMessage = b.Content.String("emptyMessage", "No categories yet.")
	}
	return "category-grid", view
}

// renderCollectionGrid lists the products of the enclosing collection.
func renderCollectionGrid(r *Renderer, ctx context.Context, b block.Block, rc Context) (string, any) {
	cfg := block.DecodeGrid(b.Type, b.Content)
	view := newGridView(b, cfg)
	if view.Title == "" {
		view.Title = rc.Binding.CollectionTitle
	}

	if rc.Binding.Empty() {
		view.State = statePlaceholder
		return "product-grid", view
	}

	fetchCtx, done := r.fetchContext(ctx, b.Type)
	defer done()

	products, err := r.collectionProducts(fetchCtx, rc.Binding, cfg)
	if err != nil {
		fetchFailed(b, "load collection products", err)
		products = nil
	}
	view.Products = productCards(products, rc.Settings, cfg.ShowDescription)
	view.State = gridState(len(view.Products))
	return "product-grid", view
}

func (r *Renderer) collectionProducts(ctx context.Context, binding Binding, cfg block.GridConfig) ([]block.Product, error) {
	id := binding.CollectionID
	if id == 0 {
		resolved, err := r.catalog.ResolveCollectionSlug(ctx, binding.CollectionSlug)
		if err != nil {
			return nil, err
		}
		if resolved == 0 {
			return nil, errNoCollection
		}
		id = resolved
	}

	ids, err := r.catalog.CollectionProductIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := r.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	block.SortProducts(products, cfg.SortBy)
	return limitProducts(products, cfg.Limit), nil
}

func renderFeaturedProducts(r *Renderer, ctx context.Context, b block.Block, rc Context) (string, any) {
	cfg := block.DecodeGrid(b.Type, b.Content)
	view := newGridView(b, cfg)
	if !b.Content.Has("emptyMessage") {
		view.EmptyMessage = "No products to show yet."
	}

	fetchCtx, done := r.fetchContext(ctx, b.Type)
	defer done()

	products, err := r.catalog.RecentProducts(fetchCtx, cfg.Category, cfg.Limit)
	if err != nil {
		fetchFailed(b, "load featured products", err)
		products = nil
	}
	block.SortProducts(products, cfg.SortBy)
	view.Products = productCards(products, rc.Settings, cfg.ShowDescription)
	view.State = gridState(len(view.Products))
	return "product-grid", view
}

// RenderListing renders the fallback product listing of a collection page using the
// collection-grid defaults.
func (r *Renderer) RenderListing(products []block.Product, rc Context) template.HTML {
	b := listingBlock()
	cfg := block.DecodeGrid(b.Type, b.Content)
	view := newGridView(b, cfg)
	view.Products = productCards(products, rc.Settings, false)
	view.State = gridState(len(view.Products))
	return r.execute(b, "product-grid", view)
}

func listingBlock() block.Block {
	return block.Block{ID: "listing", Type: block.KindCollectionGrid, Content: block.Content{}}
}

// renderBoundListing loads the members of the bound collection under the same timeout and
// failure handling as a collection-grid block, then renders the listing.
func (r *Renderer) renderBoundListing(ctx context.Context, rc Context) template.HTML {
	b := listingBlock()
	if rc.Binding.Empty() {
		return r.RenderListing(nil, rc)
	}

	fetchCtx, done := r.fetchContext(ctx, b.Type)
	products, err := r.collectionProducts(fetchCtx, rc.Binding, block.DecodeGrid(b.Type, b.Content))
	done()
	if err != nil {
		fetchFailed(b, "load listing products", err)
		products = nil
	}
	return r.RenderListing(products, rc)
}

func productCards(products []block.Product, settings Settings, withDescription bool) []productCard {
	cards := make([]productCard, 0, len(products))
	for _, p := range products {
		card := productCard{
			Name:    p.Name,
			URL:     "/products/" + p.Slug,
			Image:   p.FeaturedImage(),
			Price:   FormatPrice(p.Price, settings),
			InStock: p.InStock(),
		}
		if withDescription {
			card.Description = p.Description
		}
		cards = append(cards, card)
	}
	return cards
}

func limitProducts(products []block.Product, limit int) []block.Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}

func gridState(n int) string {
	if n == 0 {
		return stateEmpty
	}
	return stateReady
}
