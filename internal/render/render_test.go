package render

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/metrics"
)

var errSlugUnknown = errors.New("collection not found")

type fakeCatalog struct {
	slugs         map[string]uint
	members       map[uint][]uint
	products      map[uint]block.Product
	categories    []block.Category
	categoriesErr error
	productsErr   error
	delay         time.Duration
	calls         atomic.Int32
}

func (f *fakeCatalog) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalog) ListCategories(ctx context.Context, limit int) ([]block.Category, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	if limit > 0 && len(f.categories) > limit {
		return f.categories[:limit], nil
	}
	return f.categories, nil
}

func (f *fakeCatalog) ResolveCollectionSlug(ctx context.Context, slug string) (uint, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	id, ok := f.slugs[slug]
	if !ok {
		return 0, errSlugUnknown
	}
	return id, nil
}

func (f *fakeCatalog) CollectionProductIDs(ctx context.Context, collectionID uint) ([]uint, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.members[collectionID], nil
}

func (f *fakeCatalog) ProductsByIDs(ctx context.Context, ids []uint) ([]block.Product, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	out := make([]block.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) RecentProducts(ctx context.Context, _ string, limit int) ([]block.Product, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]block.Product, 0, len(f.products))
	for id := uint(1); id <= uint(len(f.products)); id++ {
		out = append(out, f.products[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newFakeCatalog() *fakeCatalog {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeCatalog{
		slugs:   map[string]uint{"summer": 7, "empty": 8},
		members: map[uint][]uint{7: {1, 2, 3}},
		products: map[uint]block.Product{
			1: {ID: 1, Name: "Linen Shirt", Slug: "linen-shirt", Price: 49, Stock: 3, Images: []string{"/img/shirt-1.jpg", "/img/shirt-2.jpg"}, CreatedAt: base},
			2: {ID: 2, Name: "Canvas Tote", Slug: "canvas-tote", Price: 19.5, Stock: 0, CreatedAt: base.Add(time.Hour)},
			3: {ID: 3, Name: "Straw Hat", Slug: "straw-hat", Price: 29, Stock: 8, CreatedAt: base.Add(2 * time.Hour)},
		},
		categories: []block.Category{
			{ID: 1, Slug: "tops", Name: "Tops", ProductCount: 12},
			{ID: 2, Slug: "bags", Name: "Bags", ProductCount: 4},
		},
	}
}

func newTestRenderer(t *testing.T, catalog Catalog) *Renderer {
	t.Helper()
	r, err := New(catalog, WithFetchTimeout(time.Second))
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return r
}

func TestRenderUnknownKindsProduceNothing(t *testing.T) {
	catalog := newFakeCatalog()
	r := newTestRenderer(t, catalog)

	for _, kind := range []block.Kind{"", "carousel", "video", "Hero", block.KindProductGrid} {
		out := r.RenderBlock(context.Background(), block.Block{ID: "x", Type: kind, Content: block.Content{"title": "t"}}, Context{})
		if out != "" {
			t.Fatalf("expected empty output for %q, got %q", kind, out)
		}
	}
	if catalog.calls.Load() != 0 {
		t.Fatal("unknown kinds must not query the catalog")
	}
}

func TestPreviewShowsMarker(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	out := string(r.RenderBlock(context.Background(), block.Block{ID: "m", Type: block.KindProductGrid}, Context{Preview: true}))
	if !strings.Contains(out, `data-state="marker"`) {
		t.Fatalf("expected visible marker in preview, got %s", out)
	}
}

func TestEveryRenderableKindHasRenderer(t *testing.T) {
	for _, kind := range block.Kinds {
		fn := rendererFor(kind)
		if kind.IsMarker() {
			if fn != nil {
				t.Fatalf("marker %q must not be renderable", kind)
			}
			continue
		}
		if fn == nil {
			t.Fatalf("kind %q has no renderer", kind)
		}
	}
}

func TestCollectionGridWithoutContextRendersPlaceholder(t *testing.T) {
	catalog := newFakeCatalog()
	r := newTestRenderer(t, catalog)

	out := string(r.RenderBlock(context.Background(), block.Block{ID: "g", Type: block.KindCollectionGrid}, Context{}))
	if !strings.Contains(out, `data-state="placeholder"`) {
		t.Fatalf("expected placeholder state, got %s", out)
	}
	if catalog.calls.Load() != 0 {
		t.Fatalf("placeholder must not query, got %d calls", catalog.calls.Load())
	}
}

func TestCollectionGridUnknownSlugRendersEmptyState(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	before := testutil.ToFloat64(metrics.BlockFetchFailures.WithLabelValues(string(block.KindCollectionGrid)))

	b := block.Block{ID: "g", Type: block.KindCollectionGrid, Content: block.Content{"emptyMessage": "Nothing here yet"}}
	out := string(r.RenderBlock(context.Background(), b, Context{Binding: Binding{CollectionSlug: "does-not-exist"}}))

	if !strings.Contains(out, `data-state="empty"`) {
		t.Fatalf("expected empty state, got %s", out)
	}
	if !strings.Contains(out, "Nothing here yet") {
		t.Fatalf("expected empty message, got %s", out)
	}
	if strings.Contains(out, "data-product") {
		t.Fatal("expected zero products")
	}
	after := testutil.ToFloat64(metrics.BlockFetchFailures.WithLabelValues(string(block.KindCollectionGrid)))
	if after != before+1 {
		t.Fatalf("expected failure to be counted, before=%v after=%v", before, after)
	}
}

func TestCollectionGridDefaultEmptyMessage(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	out := string(r.RenderBlock(context.Background(), block.Block{ID: "g", Type: block.KindCollectionGrid}, Context{Binding: Binding{CollectionSlug: "empty"}}))
	if !strings.Contains(out, block.DefaultEmptyMessage) {
		t.Fatalf("expected default empty message, got %s", out)
	}
}

func TestCollectionGridHidesEmptyStateWhenDisabled(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	b := block.Block{ID: "g", Type: block.KindCollectionGrid, Content: block.Content{"showEmptyState": false}}
	out := string(r.RenderBlock(context.Background(), b, Context{Binding: Binding{CollectionID: 8}}))
	if strings.Contains(out, "data-empty") {
		t.Fatalf("empty message should be hidden, got %s", out)
	}
}

func TestCollectionGridResolvesSlugAndSorts(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	b := block.Block{ID: "g", Type: block.KindCollectionGrid, Content: block.Content{"sortBy": "price-low", "columns": float64(2)}}

	out := string(r.RenderBlock(context.Background(), b, Context{Binding: Binding{CollectionSlug: "summer", CollectionTitle: "Summer"}}))

	tote := strings.Index(out, "Canvas Tote")
	hat := strings.Index(out, "Straw Hat")
	shirt := strings.Index(out, "Linen Shirt")
	if tote < 0 || hat < 0 || shirt < 0 {
		t.Fatalf("expected all products, got %s", out)
	}
	if !(tote < hat && hat < shirt) {
		t.Fatalf("expected price ascending order, got tote=%d hat=%d shirt=%d", tote, hat, shirt)
	}
	if !strings.Contains(out, block.ColumnsClass(2)) {
		t.Fatal("expected two-column layout class")
	}
	if !strings.Contains(out, "Summer") {
		t.Fatal("expected collection title to be used as heading")
	}
	if !strings.Contains(out, "/img/shirt-1.jpg") || strings.Contains(out, "/img/shirt-2.jpg") {
		t.Fatal("expected only the featured image")
	}
	if !strings.Contains(out, "Sold out") {
		t.Fatal("expected sold out badge for zero stock")
	}
}

func TestCollectionGridAppliesLimit(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	b := block.Block{ID: "g", Type: block.KindCollectionGrid, Content: block.Content{"limit": float64(1), "sortBy": "newest"}}
	out := string(r.RenderBlock(context.Background(), b, Context{Binding: Binding{CollectionID: 7}}))
	if strings.Count(out, "data-product") != 1 || !strings.Contains(out, "Straw Hat") {
		t.Fatalf("expected only the newest product, got %s", out)
	}
}

func TestCollectionGridQueryFailureDegrades(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.productsErr = errors.New("connection reset")
	r := newTestRenderer(t, catalog)

	out := string(r.RenderBlock(context.Background(), block.Block{ID: "g", Type: block.KindCollectionGrid}, Context{Binding: Binding{CollectionID: 7}}))
	if !strings.Contains(out, `data-state="empty"`) {
		t.Fatalf("expected empty state after failure, got %s", out)
	}
}

func TestDeferredDataBlocksRenderLoadingPlaceholder(t *testing.T) {
	catalog := newFakeCatalog()
	r := newTestRenderer(t, catalog)
	rc := Context{FragmentURL: func(id string) string { return "/fragments/pages/3/blocks/" + id }}

	out := string(r.RenderBlock(context.Background(), block.Block{ID: "cats", Type: block.KindCategoryGrid}, rc))
	if !strings.Contains(out, `data-state="loading"`) || !strings.Contains(out, `hx-get="/fragments/pages/3/blocks/cats"`) {
		t.Fatalf("expected loading placeholder, got %s", out)
	}
	if catalog.calls.Load() != 0 {
		t.Fatal("deferred blocks must not query inline")
	}

	hero := string(r.RenderBlock(context.Background(), block.Block{ID: "h", Type: block.KindHero, Content: block.Content{"title": "Hi"}}, rc))
	if strings.Contains(hero, "loading") {
		t.Fatal("static blocks render inline")
	}
}

func TestRenderSequenceIsolatesFailures(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.categoriesErr = errors.New("timeout")
	r := newTestRenderer(t, catalog)

	blocks := []block.Block{
		{ID: "h", Type: block.KindHero, Content: block.Content{"title": "Welcome"}},
		{ID: "c", Type: block.KindCategoryGrid},
		{ID: "mystery", Type: "carousel"},
		{ID: "g", Type: block.KindCollectionGrid},
		{ID: "s", Type: block.KindSpacer},
	}
	out := r.RenderSequence(context.Background(), blocks, Context{Binding: Binding{CollectionID: 7}})
	if len(out) != len(blocks) {
		t.Fatalf("expected %d fragments, got %d", len(blocks), len(out))
	}
	if !strings.Contains(string(out[0]), "Welcome") {
		t.Fatal("hero missing")
	}
	if !strings.Contains(string(out[1]), `data-state="empty"`) {
		t.Fatal("failed category grid should render empty state")
	}
	if out[2] != "" {
		t.Fatal("unknown block should be skipped")
	}
	if strings.Count(string(out[3]), "data-product") != 3 {
		t.Fatal("collection grid should be unaffected by sibling failure")
	}
	if !strings.Contains(string(out[4]), `data-block="spacer"`) {
		t.Fatal("spacer missing")
	}
}

func TestRenderSequenceRunsSiblingsConcurrently(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = 150 * time.Millisecond
	r := newTestRenderer(t, catalog)

	blocks := []block.Block{
		{ID: "a", Type: block.KindCategoryGrid},
		{ID: "b", Type: block.KindCategoryGrid},
		{ID: "c", Type: block.KindCategoryGrid},
		{ID: "d", Type: block.KindCategoryGrid},
	}
	start := time.Now()
	out := r.RenderSequence(context.Background(), blocks, Context{})
	elapsed := time.Since(start)

	if len(out) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(out))
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("expected concurrent fetches, took %s", elapsed)
	}
}

func TestRenderSequenceDiscardsResultsAfterCancel(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = time.Second
	r := newTestRenderer(t, catalog)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	out := r.RenderSequence(ctx, []block.Block{{ID: "a", Type: block.KindCategoryGrid}}, Context{})
	if out != nil {
		t.Fatalf("expected results to be discarded, got %v", out)
	}
}

func TestRenderSlotsPlacesListing(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	blocks := []block.Block{
		{ID: "A", Type: block.KindRichText, Content: block.Content{"markdown": "above"}},
		{ID: "m", Type: block.KindProductGrid},
		{ID: "B", Type: block.KindRichText, Content: block.Content{"markdown": "below"}},
	}

	out := r.RenderSlots(context.Background(), block.ComposeCollection(blocks), Context{Binding: Binding{CollectionID: 7}})
	if len(out) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(out))
	}
	if !strings.Contains(string(out[0]), "above") || !strings.Contains(string(out[2]), "below") {
		t.Fatalf("unexpected composition: %v", out)
	}
	listing := string(out[1])
	if !strings.Contains(listing, `id="block-listing"`) || strings.Count(listing, "data-product") != 3 {
		t.Fatalf("expected the bound collection listing, got %s", listing)
	}
}

func TestRenderSlotsBoundsSlowListing(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = 500 * time.Millisecond
	r, err := New(catalog, WithFetchTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	before := testutil.ToFloat64(metrics.BlockFetchFailures.WithLabelValues(string(block.KindCollectionGrid)))

	start := time.Now()
	out := r.RenderSlots(context.Background(), block.ComposeCollection(nil), Context{Binding: Binding{CollectionID: 7}})
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("listing query was not bounded by the fetch timeout: %v", elapsed)
	}
	if len(out) != 1 || !strings.Contains(string(out[0]), block.DefaultEmptyMessage) {
		t.Fatalf("expected the listing to degrade to its empty state, got %v", out)
	}
	if got := testutil.ToFloat64(metrics.BlockFetchFailures.WithLabelValues(string(block.KindCollectionGrid))); got != before+1 {
		t.Fatalf("expected one recorded fetch failure, got %v", got-before)
	}
}

func TestCollectionGridTextPosition(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())

	// depth counts the divs still open where the card text starts: 1 is below the image, 2 is inside it.
	cases := map[block.TextPosition]int{
		block.TextBelow:         1,
		block.TextOverlayBottom: 2,
		block.TextOverlayCenter: 2,
	}
	for position, depth := range cases {
		b := block.Block{ID: "g", Type: block.KindCollectionGrid, Content: block.Content{"textPosition": string(position)}}
		out := string(r.RenderBlock(context.Background(), b, Context{Binding: Binding{CollectionID: 7}}))

		class := block.TextPositionClass(position)
		if !strings.Contains(out, `class="`+class+`" data-text-position`) {
			t.Fatalf("%s: expected text class %q, got %s", position, class, out)
		}
		card := strings.Index(out, `<div class="relative overflow-hidden`)
		text := strings.Index(out, "data-text-position")
		if card < 0 || text < card {
			t.Fatalf("%s: unexpected card markup %s", position, out)
		}
		segment := out[card:text]
		if got := strings.Count(segment, "<div") - strings.Count(segment, "</div>"); got != depth {
			t.Fatalf("%s: expected text at depth %d, got %d", position, depth, got)
		}
	}
}

func TestRenderListingUsesCollectionDefaults(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	out := string(r.RenderListing([]block.Product{{ID: 1, Name: "Mug", Slug: "mug", Price: 12, Stock: 1}}, Context{}))
	if !strings.Contains(out, block.ColumnsClass(4)) || !strings.Contains(out, `href="/products/mug"`) {
		t.Fatalf("unexpected listing: %s", out)
	}

	empty := string(r.RenderListing(nil, Context{}))
	if !strings.Contains(empty, block.DefaultEmptyMessage) {
		t.Fatalf("expected empty listing message, got %s", empty)
	}
}

func TestRichTextSanitizes(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())

	md := string(r.RenderBlock(context.Background(), block.Block{ID: "r", Type: block.KindRichText, Content: block.Content{"markdown": "# Title\n<script>alert(1)</script>"}}, Context{}))
	if !strings.Contains(md, "<h1") || strings.Contains(md, "<script>") {
		t.Fatalf("unexpected markdown output: %s", md)
	}

	raw := string(r.RenderBlock(context.Background(), block.Block{ID: "r", Type: block.KindRichText, Content: block.Content{"html": `<p onclick="x()">Hi</p>`}}, Context{}))
	if !strings.Contains(raw, "<p>Hi</p>") {
		t.Fatalf("expected sanitized paragraph, got %s", raw)
	}

	if out := r.RenderBlock(context.Background(), block.Block{ID: "r", Type: block.KindRichText}, Context{}); out != "" {
		t.Fatal("empty rich text renders nothing")
	}

	if out := string(RichText("**bold** <img src=x onerror=alert(1)>")); !strings.Contains(out, "<strong>bold</strong>") || strings.Contains(out, "onerror") {
		t.Fatalf("unexpected product description output: %s", out)
	}
}

func TestHeroDefaults(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	out := string(r.RenderBlock(context.Background(), block.Block{ID: "h", Type: block.KindHero, Content: block.Content{"title": "Sale", "buttonText": "Shop", "buttonLink": "/collections/sale", "overlayColor": "url(javascript:1)"}}, Context{}))
	if !strings.Contains(out, block.HeroHeightClass("")) {
		t.Fatalf("expected default height, got %s", out)
	}
	if !strings.Contains(out, `href="/collections/sale"`) {
		t.Fatal("expected button link")
	}
	if strings.Contains(out, "javascript") {
		t.Fatal("unsafe overlay colour leaked")
	}
}

func TestCategoryGridCounts(t *testing.T) {
	r := newTestRenderer(t, newFakeCatalog())
	out := string(r.RenderBlock(context.Background(), block.Block{ID: "c", Type: block.KindCategoryGrid, Content: block.Content{"gap": "large"}}, Context{}))
	if !strings.Contains(out, "12 products") || !strings.Contains(out, block.GapClass(block.GapLarge)) || !strings.Contains(out, block.ColumnsClass(3)) {
		t.Fatalf("unexpected category grid: %s", out)
	}

	hidden := string(r.RenderBlock(context.Background(), block.Block{ID: "c", Type: block.KindCategoryGrid, Content: block.Content{"showProductCount": false}}, Context{}))
	if strings.Contains(hidden, "data-count") {
		t.Fatal("product count should be hidden")
	}
}

func TestFormatPriceFallsBackToUSD(t *testing.T) {
	got := FormatPrice(12.5, Settings{Currency: "???"})
	if !strings.Contains(got, "12") {
		t.Fatalf("unexpected price %q", got)
	}
	if FormatPrice(12.5, Settings{Currency: "EUR", Locale: "de"}) == "" {
		t.Fatal("expected formatted price")
	}
}
