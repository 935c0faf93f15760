package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/handler"
	"github.com/storefront/internal/render"
	"github.com/storefront/internal/router"
	"github.com/storefront/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const publicTestSecret = "public-test-secret"

func setupPublicTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open("sqlite", fmt.Sprintf("file:public-%s-%d?mode=memory&cache=shared", name, time.Now().UnixNano()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newPublicRouter(t *testing.T, gdb *gorm.DB, deferBlocks bool) *gin.Engine {
	t.Helper()
	renderer, err := render.New(service.NewCatalogService(gdb))
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return router.SetupRouter(gdb, renderer, router.Options{
		SessionSecret:    "test",
		TemplateGlob:     "../../web/template/*.html",
		CourierRateLimit: 1,
		API: handler.Options{
			Auth:        handler.NewAuthenticator(publicTestSecret, ""),
			DeferBlocks: deferBlocks,
		},
	})
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func seedCollection(t *testing.T, gdb *gorm.DB, title string, products map[string]float64) *db.Collection {
	t.Helper()
	productSvc := service.NewProductService(gdb)
	ids := make([]uint, 0, len(products))
	for name, price := range products {
		p, err := productSvc.Create(service.ProductInput{Name: name, Price: price, IsActive: true})
		if err != nil {
			t.Fatalf("failed to create product: %v", err)
		}
		ids = append(ids, p.ID)
	}
	collections := service.NewCollectionService(gdb)
	c, err := collections.Create(service.CollectionInput{Title: title})
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	if err := collections.SetProducts(c.ID, ids); err != nil {
		t.Fatalf("failed to set products: %v", err)
	}
	return c
}

func setTemplatePage(t *testing.T, gdb *gorm.DB, blocks []block.Block) *db.Page {
	t.Helper()
	page, err := service.NewPageService(gdb).Create(service.PageInput{Title: "Collection template", Content: blocks})
	if err != nil {
		t.Fatalf("failed to create template page: %v", err)
	}
	if _, err := service.NewSystemSettingService(gdb).UpdateSettings(service.SystemSettingsInput{CollectionTemplatePageID: page.ID}); err != nil {
		t.Fatalf("failed to set template page: %v", err)
	}
	return page
}

func richText(id, text string) block.Block {
	return block.Block{ID: id, Type: block.KindRichText, Content: block.Content{"markdown": text}}
}

func TestShowHomeWithoutHomePage(t *testing.T) {
	gdb := setupPublicTestDB(t)
	r := newPublicRouter(t, gdb, false)

	w := get(r, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "being prepared") {
		t.Fatalf("expected placeholder home, got %d", w.Code)
	}
}

func TestShowHomeRendersBlocksInOrder(t *testing.T) {
	gdb := setupPublicTestDB(t)
	pages := service.NewPageService(gdb)
	page, err := pages.Create(service.PageInput{
		Title:  "Home",
		Status: db.PageStatusPublished,
		Content: []block.Block{
			{ID: "hero", Type: block.KindHero, Content: block.Content{"title": "Autumn arrivals"}},
			{ID: "x", Type: "countdown-timer"},
			richText("copy", "Free shipping over $50"),
		},
	})
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	if _, err := pages.SetHome(page.ID); err != nil {
		t.Fatalf("failed to set home: %v", err)
	}

	body := get(newPublicRouter(t, gdb, false), "/").Body.String()
	hero := strings.Index(body, "Autumn arrivals")
	copyAt := strings.Index(body, "Free shipping")
	if hero < 0 || copyAt < hero {
		t.Fatalf("expected hero before rich text, got %s", body)
	}
	if strings.Contains(body, "countdown-timer") {
		t.Fatal("unknown block kinds must not render")
	}
}

func TestShowPageRejectsDraft(t *testing.T) {
	gdb := setupPublicTestDB(t)
	if _, err := service.NewPageService(gdb).Create(service.PageInput{Title: "Secret", Slug: "secret"}); err != nil {
		t.Fatalf("failed to create page: %v", err)
	}

	w := get(newPublicRouter(t, gdb, false), "/pages/secret")
	if w.Code != http.StatusNotFound {
		t.Fatalf("draft pages are hidden, got %d", w.Code)
	}
}

func TestCollectionPageSplicesListingAtMarker(t *testing.T) {
	gdb := setupPublicTestDB(t)
	seedCollection(t, gdb, "Lamps", map[string]float64{"Brass lamp": 80})
	setTemplatePage(t, gdb, []block.Block{
		richText("a", "Intro copy"),
		{ID: "m", Type: block.KindProductGrid},
		richText("b", "Outro copy"),
	})

	w := get(newPublicRouter(t, gdb, false), "/collections/lamps")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	intro := strings.Index(body, "Intro copy")
	listing := strings.Index(body, `id="block-listing"`)
	outro := strings.Index(body, "Outro copy")
	if intro < 0 || listing < intro || outro < listing {
		t.Fatalf("expected intro, listing, outro; got %d %d %d", intro, listing, outro)
	}
	if !strings.Contains(body, "Brass lamp") || strings.Contains(body, `data-state="marker"`) {
		t.Fatal("listing should hold the products and the marker stays hidden")
	}
}

func TestCollectionPageWithoutLayoutListsFirst(t *testing.T) {
	gdb := setupPublicTestDB(t)
	c := seedCollection(t, gdb, "Rugs", map[string]float64{"Jute rug": 120})

	w := get(newPublicRouter(t, gdb, false), fmt.Sprintf("/collections/id/%d", c.ID))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Jute rug") {
		t.Fatalf("expected listing, got %d %s", w.Code, w.Body.String())
	}
}

func TestCollectionGridSuppressesListing(t *testing.T) {
	gdb := setupPublicTestDB(t)
	seedCollection(t, gdb, "Mugs", map[string]float64{"Cheap mug": 5, "Fancy mug": 50})
	setTemplatePage(t, gdb, []block.Block{
		richText("a", "Intro copy"),
		{ID: "m", Type: block.KindProductGrid},
		{ID: "grid", Type: block.KindCollectionGrid, Content: block.Content{"sortBy": "price-high"}},
	})

	body := get(newPublicRouter(t, gdb, false), "/collections/mugs").Body.String()
	if strings.Contains(body, `id="block-listing"`) {
		t.Fatal("an explicit collection grid replaces the automatic listing")
	}
	grid := strings.Index(body, `id="block-grid"`)
	if grid < strings.Index(body, "Intro copy") {
		t.Fatal("the explicit grid keeps its position")
	}
	if strings.Index(body, "Fancy mug") > strings.Index(body, "Cheap mug") {
		t.Fatal("expected price-high order")
	}
	if strings.Count(body, "Cheap mug") != 1 {
		t.Fatal("products must render exactly once")
	}
}

func TestUnknownCollectionIsNotFound(t *testing.T) {
	gdb := setupPublicTestDB(t)
	r := newPublicRouter(t, gdb, false)
	if w := get(r, "/collections/does-not-exist"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := get(r, "/nowhere"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestDeferredBlocksLoadThroughFragments(t *testing.T) {
	gdb := setupPublicTestDB(t)
	seedCollection(t, gdb, "Chairs", map[string]float64{"Oak chair": 150})
	page := setTemplatePage(t, gdb, []block.Block{
		{ID: "grid", Type: block.KindCollectionGrid},
	})
	r := newPublicRouter(t, gdb, true)

	body := get(r, "/collections/chairs").Body.String()
	fragment := fmt.Sprintf("/fragments/pages/%d/blocks/grid?collection=chairs", page.ID)
	if !strings.Contains(body, `hx-get="`+fragment+`"`) || strings.Contains(body, "Oak chair") {
		t.Fatalf("expected a loading placeholder, got %s", body)
	}

	w := get(r, fragment)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Oak chair") {
		t.Fatalf("expected fragment with products, got %d %s", w.Code, w.Body.String())
	}

	if w := get(r, fmt.Sprintf("/fragments/pages/%d/blocks/grid", page.ID)); w.Code != http.StatusNotFound {
		t.Fatalf("draft pages only serve fragments for their collections, got %d", w.Code)
	}
	if w := get(r, fmt.Sprintf("/fragments/pages/%d/blocks/missing?collection=chairs", page.ID)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown block, got %d", w.Code)
	}
}

func TestProductCatalogPages(t *testing.T) {
	gdb := setupPublicTestDB(t)
	products := service.NewProductService(gdb)
	if _, err := products.Create(service.ProductInput{Name: "Linen throw", Price: 64.5, Description: "**Soft** linen", Stock: 3, IsActive: true}); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if _, err := products.Create(service.ProductInput{Name: "Retired throw", IsActive: false}); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	r := newPublicRouter(t, gdb, false)

	body := get(r, "/products").Body.String()
	if !strings.Contains(body, "Linen throw") || strings.Contains(body, "Retired throw") {
		t.Fatalf("unexpected listing %s", body)
	}

	w := get(r, "/products/linen-throw")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	price := render.FormatPrice(64.5, render.Settings{Currency: "USD", Locale: "en-US"})
	if !strings.Contains(w.Body.String(), "<strong>Soft</strong>") || !strings.Contains(w.Body.String(), price) {
		t.Fatalf("unexpected product page %s", w.Body.String())
	}

	if w := get(r, "/products/retired-throw"); w.Code != http.StatusNotFound {
		t.Fatalf("inactive products are hidden, got %d", w.Code)
	}
}

func TestAdminAPIRequiresAuthAndExposesMetrics(t *testing.T) {
	gdb := setupPublicTestDB(t)
	r := newPublicRouter(t, gdb, false)

	if w := get(r, "/admin/api/pages"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(publicTestSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/api/pages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	if w := get(r, "/ping"); w.Code != http.StatusOK {
		t.Fatalf("expected pong, got %d", w.Code)
	}
	if _, err := service.NewPageService(gdb).Create(service.PageInput{
		Title:   "About",
		Status:  db.PageStatusPublished,
		Content: []block.Block{richText("copy", "Hello")},
	}); err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	get(r, "/pages/about")
	metrics := get(r, "/metrics").Body.String()
	if !strings.Contains(metrics, `storefront_block_renders_total{kind="rich-text"}`) {
		t.Fatalf("expected block render metric, got %s", metrics)
	}
}

func TestPagesCarryCanonicalLinkWhenBaseURLIsSet(t *testing.T) {
	gdb := setupPublicTestDB(t)
	if _, err := service.NewPageService(gdb).Create(service.PageInput{
		Title:   "About",
		Status:  db.PageStatusPublished,
		Content: []block.Block{richText("copy", "Hello")},
	}); err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	renderer, err := render.New(service.NewCatalogService(gdb))
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	r := router.SetupRouter(gdb, renderer, router.Options{
		TemplateGlob: "../../web/template/*.html",
		API:          handler.Options{BaseURL: "https://shop.example/"},
	})

	body := get(r, "/pages/about").Body.String()
	if !strings.Contains(body, `<link rel="canonical" href="https://shop.example/pages/about">`) {
		t.Fatalf("expected canonical link, got %s", body)
	}

	if body := get(newPublicRouter(t, gdb, false), "/pages/about").Body.String(); strings.Contains(body, `rel="canonical"`) {
		t.Fatal("no canonical link without a base url")
	}
}
